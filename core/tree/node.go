package tree

import (
	"strconv"
	"strings"
)

// Node is one node of an ordered n-ary segment tree. A node exclusively owns
// its children; merging always clones before insertion, so a node never
// belongs to two trees.
//
// Data may be nil only on the root and on structural fork nodes introduced
// by the version merger. IsFork makes that an explicit, checked case.
type Node struct {
	// ID is an optional node identifier, unique within one tree once
	// the line-split filter's renumber pass has run.
	ID string `json:"id,omitempty"`

	// Label is an optional human-readable label.
	Label string `json:"label,omitempty"`

	// Data is the segment payload; nil on the root and on fork nodes.
	Data *Segment `json:"data,omitempty"`

	// Children is the ordered list of child nodes.
	Children []*Node `json:"children,omitempty"`
}

// NewRoot returns a payload-less root node.
func NewRoot() *Node {
	return &Node{}
}

// IsFork reports whether the node is a structural node without a payload:
// the root, or a fork node hosting divergent children.
func (n *Node) IsFork() bool {
	return n.Data == nil
}

// AddChild appends child and returns it.
func (n *Node) AddChild(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// IsLinear reports whether the subtree rooted at n is a chain: at most one
// child at every level.
func (n *Node) IsLinear() bool {
	for cur := n; cur != nil; cur = cur.FirstChild() {
		if len(cur.Children) > 1 {
			return false
		}
	}
	return true
}

// Walk visits n and every descendant in pre-order, children in order. The
// walk stops early if visit returns false.
func (n *Node) Walk(visit func(*Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(visit) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	c := n.CloneNode()
	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

// CloneNode returns a copy of n alone, without children.
func (n *Node) CloneNode() *Node {
	return &Node{
		ID:    n.ID,
		Label: n.Label,
		Data:  n.Data.Clone(),
	}
}

// Linearize returns the chain of nodes below n, excluding n itself. It is
// meaningful only for linear trees; on branching trees it follows first
// children.
func (n *Node) Linearize() []*Node {
	var chain []*Node
	for cur := n.FirstChild(); cur != nil; cur = cur.FirstChild() {
		chain = append(chain, cur)
	}
	return chain
}

// Count returns the number of nodes in the subtree rooted at n, including n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// MaxNumericID returns the largest numeric ID present in the subtree, or 0
// when no node has a numeric ID. Non-numeric IDs are ignored.
func (n *Node) MaxNumericID() int {
	max := 0
	n.Walk(func(node *Node) bool {
		if v, err := strconv.Atoi(node.ID); err == nil && v > max {
			max = v
		}
		return true
	})
	return max
}

// String renders the subtree as an indented outline for debugging.
func (n *Node) String() string {
	var sb strings.Builder
	n.dump(&sb, 0)
	return sb.String()
}

func (n *Node) dump(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if n.IsFork() {
		sb.WriteString("[fork]")
	} else {
		sb.WriteString(strconv.Quote(n.Data.Text))
		if len(n.Data.Tags) > 0 {
			sb.WriteString(" {" + strings.Join(n.Data.Tags, ",") + "}")
		}
	}
	sb.WriteString("\n")
	for _, c := range n.Children {
		c.dump(sb, depth+1)
	}
}
