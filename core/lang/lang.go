// Package lang provides a process-wide ISO-639 language code table for
// validating the language tags attached to texts and witnesses.
//
// The table is built once, on first use, and is read-only afterwards, so
// concurrent lookups need no locking.
package lang

import (
	"strings"
	"sync"
)

// codes returns the ISO-639-1 code table. The sync.OnceValue wrapper makes
// the population happen at most once.
var codes = sync.OnceValue(func() map[string]string {
	return map[string]string{
		"ar":  "Arabic",
		"cs":  "Czech",
		"cu":  "Church Slavonic",
		"da":  "Danish",
		"de":  "German",
		"el":  "Greek",
		"en":  "English",
		"es":  "Spanish",
		"fi":  "Finnish",
		"fr":  "French",
		"ga":  "Irish",
		"got": "Gothic",
		"grc": "Ancient Greek",
		"he":  "Hebrew",
		"hu":  "Hungarian",
		"it":  "Italian",
		"ja":  "Japanese",
		"ko":  "Korean",
		"la":  "Latin",
		"nl":  "Dutch",
		"no":  "Norwegian",
		"pl":  "Polish",
		"pt":  "Portuguese",
		"ro":  "Romanian",
		"ru":  "Russian",
		"sa":  "Sanskrit",
		"sv":  "Swedish",
		"syc": "Classical Syriac",
		"tr":  "Turkish",
		"zh":  "Chinese",
	}
})

// Lookup returns the English name of an ISO-639 code and whether the code
// is known.
func Lookup(code string) (string, bool) {
	name, ok := codes()[strings.ToLower(code)]
	return name, ok
}

// NormalizeTag reduces a BCP-47 language tag to its lowercase primary
// subtag: "la-Latn" becomes "la", "GRC" becomes "grc". An empty tag stays
// empty.
func NormalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexByte(tag, '-'); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// IsValid reports whether the tag's primary subtag is a known ISO-639 code.
func IsValid(tag string) bool {
	_, ok := Lookup(NormalizeTag(tag))
	return ok
}
