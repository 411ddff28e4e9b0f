// Package filter provides the structural rewrites applied to linear segment
// trees between building and version merging: line-break removal and
// equal-feature run coalescing.
package filter

import (
	"strconv"
	"strings"

	"github.com/marchetti-editions/stemma/core/tree"
)

// SplitLines rewrites a linear tree so that no node's text contains a line
// break. The input tree is never mutated; the result is a fresh tree.
//
// Line boundaries survive as the eol-tail feature on the node preceding the
// break. A node whose text is exactly one line break emits no node at all;
// the marker lands on the previously emitted node instead. Consecutive
// breaks produce an empty-text node carrying the marker, so blank lines stay
// representable. When a leading break has no previously emitted node to mark
// (the chain starts with a line break), an empty-text node is materialized
// to carry it, since the root holds no payload.
//
// After the rewrite, every node still lacking an identifier is assigned one
// from an autonumber continuing past the largest numeric identifier already
// present, so identifiers stay unique across the whole tree.
func SplitLines(root *tree.Node) *tree.Node {
	out := root.CloneNode()
	cur := out
	for _, node := range root.Linearize() {
		if node.Data == nil {
			continue
		}
		parts := strings.Split(node.Data.Text, "\n")
		if len(parts) == 1 {
			cur = cur.AddChild(node.CloneNode())
			continue
		}
		for i, part := range parts {
			last := i == len(parts)-1
			if i == 0 && part == "" {
				// Leading break: mark the previously emitted node.
				cur = markEOL(cur)
				continue
			}
			if last && part == "" {
				// Trailing break: the marker is already on the node
				// emitted for the previous part.
				continue
			}
			split := node.CloneNode()
			split.Data.Text = part
			cur = cur.AddChild(split)
			if !last {
				markEOL(cur)
			}
		}
	}
	renumber(out)
	return out
}

// markEOL sets the eol-tail marker on n, materializing an empty-text node
// below it first when n cannot carry features itself.
func markEOL(n *tree.Node) *tree.Node {
	if n.Data == nil {
		n = n.AddChild(&tree.Node{Data: tree.NewSegment("")})
	}
	n.Data.AddUniqueFeature(tree.FeatureEOLTail, tree.FeatureEOLTailValue)
	return n
}

// renumber assigns identifiers to nodes that lack one, continuing after the
// maximum numeric identifier already present in the tree. The payload-less
// root is skipped. The counter is local to one invocation, so concurrent
// pipelines over distinct trees never interfere.
func renumber(root *tree.Node) {
	next := root.MaxNumericID() + 1
	root.Walk(func(n *tree.Node) bool {
		if n != root && n.ID == "" {
			n.ID = strconv.Itoa(next)
			next++
		}
		return true
	})
}
