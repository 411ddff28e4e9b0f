// Package span partitions overlapping annotated ranges over a flattened text
// into an ordered, gapless, non-overlapping sequence of sub-ranges.
//
// Annotation layers address text independently of each other, so their
// fragments overlap freely. Everything downstream (tree building, line
// splitting, version merging) wants a flat partition instead: a run of
// contiguous ranges where each range knows exactly which fragments cover it.
package span

import (
	"sort"

	"github.com/marchetti-editions/stemma/core/errors"
)

// AnnotatedRange is a sub-range of a flattened text together with the
// identifiers of the annotation fragments whose extent includes it.
// Start and End are inclusive UTF-8 byte offsets.
type AnnotatedRange struct {
	// Start is the first character offset covered by this range.
	Start int `json:"start"`

	// End is the last character offset covered by this range (inclusive).
	End int `json:"end"`

	// AnnotationIDs lists the fragment identifiers covering this range,
	// in input order, without duplicates.
	AnnotationIDs []string `json:"annotation_ids,omitempty"`

	// Text is the substring [Start,End] of the source text. It is empty
	// until AssignText runs over the finalized partition.
	Text string `json:"text,omitempty"`
}

// Length returns the number of characters covered by the range.
func (r *AnnotatedRange) Length() int {
	return r.End - r.Start + 1
}

// Contains reports whether the range fully contains [start,end].
func (r *AnnotatedRange) Contains(start, end int) bool {
	return r.Start <= start && end <= r.End
}

// AddAnnotationID appends id to the range unless it is already present.
func (r *AnnotatedRange) AddAnnotationID(id string) {
	for _, existing := range r.AnnotationIDs {
		if existing == id {
			return
		}
	}
	r.AnnotationIDs = append(r.AnnotationIDs, id)
}

// Validate checks the range against the caller contract for a text of the
// given length: Start <= End and both offsets in bounds.
func (r *AnnotatedRange) Validate(textLen int) error {
	if r.Start > r.End {
		return errors.NewRange(r.Start, r.End, textLen, "start is greater than end")
	}
	if r.Start < 0 {
		return errors.NewRange(r.Start, r.End, textLen, "start is negative")
	}
	if r.End >= textLen {
		return errors.NewRange(r.Start, r.End, textLen, "end is past the end of the text")
	}
	return nil
}

// Partition converts a set of possibly-overlapping input ranges over a text of
// length textLen into an ordered, gapless partition of [0,textLen-1]. Each
// output range carries the union, in input order, of the annotation ids of
// every input range that fully contains it. Stretches covered by no input
// range come out with an empty id list, so the partition always covers the
// whole text exactly once.
//
// Input ranges typically carry a single annotation id each (one input range
// per fragment); pre-unioned inputs work too.
//
// A range with inverted or out-of-bounds offsets is a caller contract
// violation and is rejected with a *errors.RangeError before any output is
// produced.
func Partition(textLen int, input []AnnotatedRange) ([]AnnotatedRange, error) {
	if textLen <= 0 {
		return nil, errors.NewRange(0, 0, textLen, "text is empty")
	}
	for i := range input {
		if err := input[i].Validate(textLen); err != nil {
			return nil, err
		}
	}

	// Collect every boundary: each start, each end+1, plus the text edges.
	// Consecutive boundary pairs [b,b') become the output ranges.
	seen := map[int]bool{0: true, textLen: true}
	boundaries := []int{0, textLen}
	for i := range input {
		for _, b := range []int{input[i].Start, input[i].End + 1} {
			if !seen[b] {
				seen[b] = true
				boundaries = append(boundaries, b)
			}
		}
	}
	sort.Ints(boundaries)

	output := make([]AnnotatedRange, 0, len(boundaries)-1)
	for i := 0; i+1 < len(boundaries); i++ {
		out := AnnotatedRange{Start: boundaries[i], End: boundaries[i+1] - 1}
		for j := range input {
			if input[j].Contains(out.Start, out.End) {
				for _, id := range input[j].AnnotationIDs {
					out.AddAnnotationID(id)
				}
			}
		}
		output = append(output, out)
	}
	return output, nil
}

// AssignText slices text into the finalized partition, filling each range's
// Text field. It is a separate pass because slicing needs the finalized
// boundaries, not the intermediate boundary set. Offsets are UTF-8 byte
// offsets, matching the addressing used by the layer flatteners.
func AssignText(text string, ranges []AnnotatedRange) {
	for i := range ranges {
		ranges[i].Text = text[ranges[i].Start : ranges[i].End+1]
	}
}
