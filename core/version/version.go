// Package version builds one linear tree per textual witness or emendation
// and merges them all into a single tree that forks only where versions
// actually diverge and reconverges where they agree.
//
// Apparatus-criticus rendering needs, for each divergence point, the exact
// span of text every version uses and where versions coincide, without
// duplicating the surrounding common text. The fork-merge produces exactly
// that shape in one pass per version, linear in the version's node count.
package version

import (
	"sort"

	"github.com/marchetti-editions/stemma/core/apparatus"
	"github.com/marchetti-editions/stemma/core/tree"
)

// BaseTag is the version tag of the base/accepted text.
const BaseTag = ""

// TaggedTree pairs a version tag with the version's linear tree.
type TaggedTree struct {
	Tag  string
	Tree *tree.Node
}

// CollectSources scans a base linear tree for fragment-key features,
// resolves each key against the layer, and returns every distinct source
// attested across the resolved entries. Keys the layer cannot resolve are
// skipped: incomplete apparatus data is expected, not an error.
//
// rewrite optionally renames source identifiers before collection; mapping
// an identifier to the empty string drops that source. With sorted true the
// result is ordered witnesses-first, then alphabetically by identifier, for
// deterministic version order.
func CollectSources(base *tree.Node, layer *apparatus.Layer, rewrite map[string]string, sorted bool) []apparatus.Source {
	var sources []apparatus.Source
	seen := make(map[apparatus.Source]bool)
	for _, node := range base.Linearize() {
		if node.Data == nil {
			continue
		}
		for _, key := range node.Data.FeatureValues(tree.FeatureFragmentKey) {
			for _, entry := range layer.EntriesForFragment(key) {
				for _, src := range entry.Sources {
					if rewrite != nil {
						id, ok := rewrite[src.ID]
						if ok {
							if id == "" {
								continue
							}
							src.ID = id
						}
					}
					if !seen[src] {
						seen[src] = true
						sources = append(sources, src)
					}
				}
			}
		}
	}
	if sorted {
		sort.Slice(sources, func(i, j int) bool {
			if sources[i].IsAuthor != sources[j].IsAuthor {
				return !sources[i].IsAuthor
			}
			return sources[i].ID < sources[j].ID
		})
	}
	return sources
}

// BuildVersion walks the base tree node by node and produces the linear
// tree of one source's reading: nodes covered by an apparatus entry listing
// the source get that entry's text (an acceptance entry keeps the base
// text); all other nodes are cloned unchanged. Every node is tagged with
// the source's version tag, so tag propagation through unaffected spans
// stays correct. When several entries list the source for one node, the
// first wins.
func BuildVersion(base *tree.Node, layer *apparatus.Layer, src apparatus.Source) *tree.Node {
	tag := src.Tag()
	root := tree.NewRoot()
	cur := root
	for _, node := range base.Linearize() {
		if node.Data == nil {
			continue
		}
		clone := node.CloneNode()
		clone.Data.AddTag(tag)
	entries:
		for _, key := range node.Data.FeatureValues(tree.FeatureFragmentKey) {
			for i, entry := range layer.EntriesForFragment(key) {
				if !entry.HasSource(src) {
					continue
				}
				if !entry.IsAcceptance {
					clone.Data.Text = entry.Text
				}
				clone.Data.AddPayload(tree.NewPayload(key, i, clone.Data.Text))
				break entries
			}
		}
		cur = cur.AddChild(clone)
	}
	return root
}

// Merger merges version trees into a shared fork/reconverge tree. With
// Binary set, no node of the result ever has more than two children:
// overflowing divergence points grow a right-leaning cascade of payload-less
// fork nodes instead of flat siblings.
type Merger struct {
	Binary bool
}

// Merge seeds a fresh shared tree from the base linear tree (tagged as the
// base version) and merges every version tree into it in order. The merge
// is purely additive: a version tree shorter or longer than the base never
// fails, unmatched trailing nodes just open new divergent branches.
func (m *Merger) Merge(base *tree.Node, versions []TaggedTree) *tree.Node {
	root := tree.NewRoot()
	basePath := []*tree.Node{root}
	for _, node := range base.Linearize() {
		if node.Data == nil {
			continue
		}
		clone := node.CloneNode()
		clone.Data.AddTag(BaseTag)
		basePath[len(basePath)-1].AddChild(clone)
		basePath = append(basePath, clone)
	}
	for _, v := range versions {
		m.mergeVersion(root, basePath, v.Tag, v.Tree)
	}
	return root
}

// MergeVersion merges one more version tree into an already merged shared
// tree. The base path is recovered by following the chain of nodes tagged
// as the base version.
func (m *Merger) MergeVersion(shared *tree.Node, tag string, versionTree *tree.Node) {
	m.mergeVersion(shared, basePathOf(shared), tag, versionTree)
}

// basePathOf follows the base-tagged chain down from root, descending
// through fork nodes.
func basePathOf(root *tree.Node) []*tree.Node {
	path := []*tree.Node{root}
	cur := root
	for {
		var next *tree.Node
		for _, child := range payloadChildren(cur) {
			if child.Data.HasTag(BaseTag) {
				next = child
				break
			}
		}
		if next == nil {
			return path
		}
		path = append(path, next)
		cur = next
	}
}

// payloadChildren returns the payload-carrying children of n, descending
// through payload-less fork nodes.
func payloadChildren(n *tree.Node) []*tree.Node {
	var out []*tree.Node
	for _, child := range n.Children {
		if child.IsFork() {
			out = append(out, payloadChildren(child)...)
			continue
		}
		out = append(out, child)
	}
	return out
}

// mergeVersion walks one version tree against the shared tree. Two cursors
// advance in lockstep: attach points at the shared node the version
// currently sits on, and pos tracks the corresponding base-text position.
//
// At each step the version's node is matched, by payload text alone,
// against the children of attach and, when attach sits on a divergent
// branch, against the children of the base-path node at the same position;
// the latter is what lets a diverged version reconverge onto the shared
// chain instead of duplicating the common text. A match accumulates the
// version tag on the shared node; a miss opens a new divergent child under
// attach.
func (m *Merger) mergeVersion(root *tree.Node, basePath []*tree.Node, tag string, versionTree *tree.Node) {
	attach := root
	pos := 0
	for incoming := versionTree.FirstChild(); incoming != nil; incoming = incoming.FirstChild() {
		if incoming.Data == nil {
			continue
		}
		var baseNode *tree.Node
		if pos < len(basePath) {
			baseNode = basePath[pos]
		}
		matched := matchChild(attach, incoming.Data.Text)
		if matched == nil && baseNode != nil && baseNode != attach {
			matched = matchChild(baseNode, incoming.Data.Text)
		}
		if matched != nil {
			matched.Data.AddTag(tag)
			attach = matched
		} else {
			branch := incoming.CloneNode()
			branch.Data.AddTag(tag)
			m.attachDivergent(attach, branch)
			attach = branch
		}
		pos++
	}
}

// matchChild searches the children of n for a node whose payload text
// equals text, descending through payload-less fork nodes so that binary
// cascades expose all their hosted branches.
func matchChild(n *tree.Node, text string) *tree.Node {
	for _, child := range n.Children {
		if child.IsFork() {
			if found := matchChild(child, text); found != nil {
				return found
			}
			continue
		}
		if child.Data.Text == text {
			return child
		}
	}
	return nil
}

// attachDivergent adds branch as a new child of n. In binary mode a node
// already holding two children cannot take a third sibling: the most
// recently added child is pushed one level down under a fresh payload-less
// fork node, which hosts it together with the newcomer. Repeated overflow
// recurses into the fork just created, always splitting the most recently
// added pair, which yields a right-leaning cascade with fan-out two at
// every level.
func (m *Merger) attachDivergent(n *tree.Node, branch *tree.Node) {
	if !m.Binary || len(n.Children) < 2 {
		n.AddChild(branch)
		return
	}
	last := n.Children[len(n.Children)-1]
	if last.IsFork() {
		m.attachDivergent(last, branch)
		return
	}
	fork := &tree.Node{}
	fork.AddChild(last)
	n.Children[len(n.Children)-1] = fork
	fork.AddChild(branch)
}
