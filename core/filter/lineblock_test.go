package filter

import (
	"strings"
	"testing"

	"github.com/marchetti-editions/stemma/core/tree"
)

// linear builds a linear tree whose chain carries the given texts.
func linear(texts ...string) *tree.Node {
	root := tree.NewRoot()
	cur := root
	for _, text := range texts {
		cur = cur.AddChild(&tree.Node{Data: tree.NewSegment(text)})
	}
	return root
}

// chainTexts returns the chain texts and eol-tail flags of a linear tree.
func chainTexts(root *tree.Node) (texts []string, eols []bool) {
	for _, n := range root.Linearize() {
		texts = append(texts, n.Data.Text)
		eols = append(eols, n.Data.HasFeature(tree.FeatureEOLTail))
	}
	return texts, eols
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		texts []string
		eols  []bool
	}{
		{
			name:  "no line breaks",
			input: []string{"Hello", " world"},
			texts: []string{"Hello", " world"},
			eols:  []bool{false, false},
		},
		{
			name:  "internal break",
			input: []string{"Hello\nworld"},
			texts: []string{"Hello", "world"},
			eols:  []bool{true, false},
		},
		{
			name:  "lone break node marks predecessor",
			input: []string{"Hello", "\n", "world"},
			texts: []string{"Hello", "world"},
			eols:  []bool{true, false},
		},
		{
			name:  "leading break marks materialized parent",
			input: []string{"\nHello"},
			texts: []string{"", "Hello"},
			eols:  []bool{true, false},
		},
		{
			name:  "blank line yields empty marked node",
			input: []string{"Hello\n\nworld"},
			texts: []string{"Hello", "", "world"},
			eols:  []bool{true, true, false},
		},
		{
			name:  "trailing break",
			input: []string{"Hello\n"},
			texts: []string{"Hello"},
			eols:  []bool{true},
		},
		{
			name:  "break at node boundary",
			input: []string{"Hello\n", "world"},
			texts: []string{"Hello", "world"},
			eols:  []bool{true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := SplitLines(linear(tt.input...))
			texts, eols := chainTexts(out)
			if len(texts) != len(tt.texts) {
				t.Fatalf("got chain %q, want %q", texts, tt.texts)
			}
			for i := range texts {
				if texts[i] != tt.texts[i] {
					t.Errorf("node %d text = %q, want %q", i, texts[i], tt.texts[i])
				}
				if eols[i] != tt.eols[i] {
					t.Errorf("node %d eol-tail = %v, want %v", i, eols[i], tt.eols[i])
				}
			}
		})
	}
}

func TestSplitLinesNoLineBreakInvariant(t *testing.T) {
	out := SplitLines(linear("a\nb\n\nc", "\n", "\nd", "e\n"))
	out.Walk(func(n *tree.Node) bool {
		if n.Data != nil && strings.Contains(n.Data.Text, "\n") {
			t.Errorf("node text %q still contains a line break", n.Data.Text)
		}
		return true
	})
}

func TestSplitLinesInheritsFeatures(t *testing.T) {
	root := tree.NewRoot()
	seg := tree.NewSegment("one\ntwo")
	seg.AddFeature("frag", "app:default@0")
	root.AddChild(&tree.Node{ID: "5", Label: "l", Data: seg})

	out := SplitLines(root)
	chain := out.Linearize()
	if len(chain) != 2 {
		t.Fatalf("got %d nodes, want 2", len(chain))
	}
	for i, n := range chain {
		if v, ok := n.Data.FeatureValue("frag"); !ok || v != "app:default@0" {
			t.Errorf("node %d lost inherited feature: %q, %v", i, v, ok)
		}
		if n.Label != "l" {
			t.Errorf("node %d label = %q, want %q", i, n.Label, "l")
		}
	}
}

func TestSplitLinesDoesNotMutateInput(t *testing.T) {
	root := linear("a\nb")
	SplitLines(root)
	chain := root.Linearize()
	if len(chain) != 1 || chain[0].Data.Text != "a\nb" {
		t.Error("input tree was mutated")
	}
}

func TestSplitLinesRenumber(t *testing.T) {
	root := tree.NewRoot()
	cur := root.AddChild(&tree.Node{ID: "7", Data: tree.NewSegment("one\ntwo")})
	cur.AddChild(&tree.Node{Data: tree.NewSegment("three")})

	out := SplitLines(root)
	seen := map[string]bool{}
	for _, n := range out.Linearize() {
		if n.ID == "" {
			t.Error("node left without an identifier")
		}
		seen[n.ID] = true
	}
	// Split nodes inherit "7"; the unidentified node continues past the max.
	if !seen["8"] {
		t.Errorf("expected autonumber to continue at 8, got ids %v", seen)
	}
}

func TestSplitLinesEmptyTree(t *testing.T) {
	out := SplitLines(tree.NewRoot())
	if out.FirstChild() != nil {
		t.Error("empty tree should pass through as an empty tree")
	}
}
