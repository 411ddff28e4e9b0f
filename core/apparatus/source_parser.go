package apparatus

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// sourceList represents a parsed compact source list.
// Examples: "w:O w:G w:R", "a:Fruterius", "w:O, w:G, a:Marullus".
type sourceList struct {
	Items []sourceItem `@@ ( ","? @@ )*`
}

type sourceItem struct {
	Kind string `@Kind ":"`
	ID   string `@Ident`
}

// sourceLexer tokenizes compact source lists.
var sourceLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Kind: witness or author marker
	{Name: "Kind", Pattern: `[wa]\b`},
	// Identifiers: sigla like "O", "R1", or names like "Fruterius"
	{Name: "Ident", Pattern: `[A-Za-z][A-Za-z0-9.*-]*`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var sourceParser = participle.MustBuild[sourceList](
	participle.Lexer(sourceLexer),
	participle.Elide("Whitespace"),
)

// ParseSourceList parses a compact apparatus source list into sources.
// Each item is `w:<siglum>` for a manuscript witness or `a:<name>` for a
// scholar; items are separated by spaces or commas:
//
//	"w:O w:G w:R"
//	"a:Fruterius"
//	"w:O, w:G, a:Marullus"
func ParseSourceList(input string) ([]Source, error) {
	list, err := sourceParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source list %q: %w", input, err)
	}
	sources := make([]Source, 0, len(list.Items))
	for _, item := range list.Items {
		sources = append(sources, Source{IsAuthor: item.Kind == "a", ID: item.ID})
	}
	return sources, nil
}
