// Package apparatus models the critical-apparatus data the version merger
// consumes: fragments anchored to text ranges, each listing the readings
// (entries) attested by manuscript witnesses or proposed by scholars.
package apparatus

import (
	"github.com/marchetti-editions/stemma/core/tree"
)

// Source attributes a reading to a manuscript witness or, for emendations,
// to a scholar.
type Source struct {
	// IsAuthor is true when the source is a scholar's emendation rather
	// than a manuscript witness.
	IsAuthor bool `json:"is_author,omitempty"`

	// ID is the witness siglum or the scholar's name (e.g. "O",
	// "Fruterius").
	ID string `json:"id"`
}

// Tag returns the version tag for the source: "w:<id>" for witnesses,
// "a:<id>" for authors.
func (s Source) Tag() string {
	if s.IsAuthor {
		return tree.TagAuthorPrefix + s.ID
	}
	return tree.TagWitnessPrefix + s.ID
}

// Entry is one reading within a fragment: either an acceptance note (the
// base text stands for the listed sources) or a replacement reading.
type Entry struct {
	// Text is the replacement reading. Ignored for acceptance entries,
	// which keep the base text.
	Text string `json:"text,omitempty"`

	// IsAcceptance marks an entry whose sources attest the base text.
	IsAcceptance bool `json:"is_acceptance,omitempty"`

	// Sources lists who attests or proposes this reading.
	Sources []Source `json:"sources,omitempty"`
}

// HasSource reports whether the entry lists the given source.
func (e *Entry) HasSource(src Source) bool {
	for _, s := range e.Sources {
		if s == src {
			return true
		}
	}
	return false
}

// Fragment is one apparatus annotation anchored to a text range, identified
// by a composite key such as "apparatus:default@0".
type Fragment struct {
	// Key is the composite fragment key referenced by fragment-key
	// features on tree nodes.
	Key string `json:"key"`

	// Entries lists the readings of this fragment.
	Entries []Entry `json:"entries,omitempty"`
}

// Layer is the lookup the version merger uses to resolve fragment keys back
// to apparatus entries. Missing keys resolve to nothing: critical-edition
// data is frequently incomplete, and an unresolvable key just leaves the
// node untouched for this layer.
type Layer struct {
	// Fragments maps fragment keys to fragments.
	Fragments map[string]*Fragment `json:"fragments,omitempty"`
}

// NewLayer returns an empty layer.
func NewLayer() *Layer {
	return &Layer{Fragments: make(map[string]*Fragment)}
}

// AddFragment registers a fragment under its key, replacing any previous
// fragment with the same key.
func (l *Layer) AddFragment(f *Fragment) {
	if l.Fragments == nil {
		l.Fragments = make(map[string]*Fragment)
	}
	l.Fragments[f.Key] = f
}

// RewriteSources returns a copy of the layer with every entry source id
// passed through the rewrite map. Mapping an id to the empty string drops
// that source. With a nil or empty map the receiver is returned unchanged.
func (l *Layer) RewriteSources(rewrite map[string]string) *Layer {
	if l == nil || len(rewrite) == 0 {
		return l
	}
	out := NewLayer()
	for key, f := range l.Fragments {
		nf := &Fragment{Key: f.Key}
		for _, e := range f.Entries {
			ne := Entry{Text: e.Text, IsAcceptance: e.IsAcceptance}
			for _, src := range e.Sources {
				if id, ok := rewrite[src.ID]; ok {
					if id == "" {
						continue
					}
					src.ID = id
				}
				ne.Sources = append(ne.Sources, src)
			}
			nf.Entries = append(nf.Entries, ne)
		}
		out.Fragments[key] = nf
	}
	return out
}

// EntriesForFragment returns the entries of the fragment with the given
// key, or nil when the key cannot be resolved.
func (l *Layer) EntriesForFragment(key string) []Entry {
	if l == nil || l.Fragments == nil {
		return nil
	}
	f, ok := l.Fragments[key]
	if !ok {
		return nil
	}
	return f.Entries
}
