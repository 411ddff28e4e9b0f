// Package tree holds the segment-payload tree that the transform pipeline is
// built around: an ordered n-ary tree whose nodes carry text segments with
// open-ended feature bags, version tags, and provenance payloads.
package tree

// Well-known feature names and tag prefixes. Renderers recognize these to
// decide block boundaries and per-version markup; everything else in a
// feature bag is pass-through data the core does not interpret.
const (
	// FeatureEOLTail marks a node whose text was immediately followed by a
	// line break in the source. The line break itself is removed by the
	// line-split filter.
	FeatureEOLTail = "eol-tail"

	// FeatureEOLTailValue is the value set for FeatureEOLTail.
	FeatureEOLTailValue = "1"

	// FeatureFragmentKey carries the composite key of an annotation fragment
	// covering the node's text (e.g. "apparatus:default@0").
	FeatureFragmentKey = "frag"

	// TagWitnessPrefix prefixes version tags derived from a manuscript
	// witness (e.g. "w:O").
	TagWitnessPrefix = "w:"

	// TagAuthorPrefix prefixes version tags derived from a scholar's
	// emendation (e.g. "a:Fruterius").
	TagAuthorPrefix = "a:"
)

// Feature is a single (name, value) pair in a segment's feature bag.
// The bag is an ordered list: insertion order is preserved and duplicate
// names are allowed unless a caller requests unique semantics.
type Feature struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Payload is an opaque provenance record accumulated when segments are
// merged, so a renderer can trace a merged segment back to its sources.
type Payload struct {
	// ID uniquely identifies this provenance record.
	ID string `json:"id"`

	// FragmentKey is the annotation fragment this payload was derived from,
	// empty for base-text segments.
	FragmentKey string `json:"fragment_key,omitempty"`

	// EntryIndex is the index of the apparatus entry within the fragment,
	// -1 when not applicable.
	EntryIndex int `json:"entry_index"`

	// TextHash is the BLAKE3 hash of the text this payload contributed.
	TextHash string `json:"text_hash,omitempty"`
}

// Segment is the payload of a tree node: a stretch of text plus the
// annotations, version tags, and provenance attached to it.
type Segment struct {
	// SourceID is an optional numeric link back to the source row the
	// segment came from; -1 when unset.
	SourceID int `json:"source_id"`

	// Type is an optional segment type discriminator.
	Type string `json:"type,omitempty"`

	// Text is the segment text. May be empty (blank lines reduce to
	// empty-text segments after line splitting).
	Text string `json:"text"`

	// Features is the ordered open feature bag.
	Features []Feature `json:"features,omitempty"`

	// Tags records which textual versions pass through this segment.
	// The empty tag denotes the base/accepted text.
	Tags []string `json:"tags,omitempty"`

	// Payloads are provenance records, unioned when segments merge.
	Payloads []Payload `json:"payloads,omitempty"`
}

// NewSegment returns a segment with the given text and no source link.
func NewSegment(text string) *Segment {
	return &Segment{SourceID: -1, Text: text}
}

// Clone returns a deep copy of the segment.
func (s *Segment) Clone() *Segment {
	if s == nil {
		return nil
	}
	c := &Segment{
		SourceID: s.SourceID,
		Type:     s.Type,
		Text:     s.Text,
	}
	c.Features = append(c.Features, s.Features...)
	c.Tags = append(c.Tags, s.Tags...)
	c.Payloads = append(c.Payloads, s.Payloads...)
	return c
}

// AddFeature appends a (name, value) pair to the feature bag. Duplicates of
// the same name are allowed.
func (s *Segment) AddFeature(name, value string) {
	s.Features = append(s.Features, Feature{Name: name, Value: value})
}

// AddUniqueFeature sets a (name, value) pair with unique semantics: all
// prior occurrences of name are removed first.
func (s *Segment) AddUniqueFeature(name, value string) {
	kept := s.Features[:0]
	for _, f := range s.Features {
		if f.Name != name {
			kept = append(kept, f)
		}
	}
	s.Features = append(kept, Feature{Name: name, Value: value})
}

// HasFeature reports whether the bag contains at least one feature with the
// given name.
func (s *Segment) HasFeature(name string) bool {
	for _, f := range s.Features {
		if f.Name == name {
			return true
		}
	}
	return false
}

// FeatureValue returns the value of the first feature with the given name,
// and whether one was found.
func (s *Segment) FeatureValue(name string) (string, bool) {
	for _, f := range s.Features {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// FeatureValues returns the values of every feature with the given name, in
// insertion order.
func (s *Segment) FeatureValues(name string) []string {
	var values []string
	for _, f := range s.Features {
		if f.Name == name {
			values = append(values, f.Value)
		}
	}
	return values
}

// AddTag adds a version tag unless it is already present.
func (s *Segment) AddTag(tag string) {
	for _, t := range s.Tags {
		if t == tag {
			return
		}
	}
	s.Tags = append(s.Tags, tag)
}

// HasTag reports whether the segment carries the given version tag.
func (s *Segment) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddPayload appends a provenance record unless one with the same ID is
// already present.
func (s *Segment) AddPayload(p Payload) {
	for i := range s.Payloads {
		if s.Payloads[i].ID == p.ID {
			return
		}
	}
	s.Payloads = append(s.Payloads, p)
}

// Merge folds other into s: text is concatenated, tags and payloads are
// unioned, and features are appended in order. The receiver keeps its own
// SourceID and Type.
func (s *Segment) Merge(other *Segment) {
	if other == nil {
		return
	}
	s.Text += other.Text
	for _, f := range other.Features {
		s.Features = append(s.Features, f)
	}
	for _, t := range other.Tags {
		s.AddTag(t)
	}
	for _, p := range other.Payloads {
		s.AddPayload(p)
	}
}
