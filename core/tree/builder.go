package tree

import (
	"github.com/marchetti-editions/stemma/core/span"
)

// BuildLinear converts an ordered range partition into a linear tree: a
// payload-less root with one single-child chain below it, one node per range
// in source order. Each node's segment carries the range text and one
// fragment-key feature per annotation id, so later filters can re-locate the
// originating annotation fragment.
func BuildLinear(ranges []span.AnnotatedRange) *Node {
	root := NewRoot()
	cur := root
	for i := range ranges {
		seg := NewSegment(ranges[i].Text)
		for _, id := range ranges[i].AnnotationIDs {
			seg.AddFeature(FeatureFragmentKey, id)
		}
		cur = cur.AddChild(&Node{Data: seg})
	}
	return root
}
