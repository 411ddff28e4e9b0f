// Package render turns a merged segment tree into markup: a TEI-flavored
// XML body where divergence points become app/lem/rdg alternations, and a
// plain JSON dump for downstream tooling.
package render

import (
	"encoding/json"
	"strings"

	"github.com/marchetti-editions/stemma/core/encoding"
	"github.com/marchetti-editions/stemma/core/lang"
	"github.com/marchetti-editions/stemma/core/tree"
	"github.com/marchetti-editions/stemma/core/version"
	"github.com/marchetti-editions/stemma/core/xml"
)

// XML renders the tree below root as one TEI-style paragraph. Shared
// segments emit as plain text, eol-tail markers as <lb/>, and every fork
// point as an <app> element whose <lem> is the base reading and whose <rdg>
// elements carry the diverging readings with their witnesses (wit) and
// emendation authors (resp).
func XML(root *tree.Node) []byte {
	var sb strings.Builder
	sb.WriteString("<p>")
	renderChain(&sb, root)
	sb.WriteString("</p>")
	return []byte(sb.String())
}

// Document wraps the rendered paragraph in a minimal TEI skeleton. The
// language tag, when present, is normalized and validated against the
// ISO-639 table before it is emitted as xml:lang.
func Document(root *tree.Node, title, langTag string) []byte {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sb.WriteString("<TEI><teiHeader><fileDesc><titleStmt><title>")
	sb.WriteString(encoding.EscapeXMLText(title))
	sb.WriteString("</title></titleStmt></fileDesc></teiHeader><text><body")
	if norm := lang.NormalizeTag(langTag); norm != "" {
		if _, ok := lang.Lookup(norm); ok {
			sb.WriteString(` xml:lang="` + encoding.EscapeXMLAttr(norm) + `"`)
		}
	}
	sb.WriteString(">")
	sb.Write(XML(root))
	sb.WriteString("</body></text></TEI>")
	return []byte(sb.String())
}

// Pretty renders a document and reindents it for human inspection.
func Pretty(root *tree.Node, title, langTag string) ([]byte, error) {
	return xml.Format(Document(root, title, langTag), "  ")
}

// JSON renders the tree as indented JSON.
func JSON(root *tree.Node) ([]byte, error) {
	return json.MarshalIndent(root, "", "  ")
}

// renderChain walks the shared tree downward from n, emitting plain
// segments while the path is unambiguous and an app element at every fork.
func renderChain(sb *strings.Builder, n *tree.Node) {
	cur := n
	for {
		branches := payloadChildren(cur)
		switch len(branches) {
		case 0:
			return
		case 1:
			writeSegment(sb, branches[0].Data)
			cur = branches[0]
		default:
			cur = renderFork(sb, branches)
		}
	}
}

// renderFork emits one app element for a fork and returns the node the
// shared walk continues from: the last node of the lem run.
//
// The lem run is the base branch's stretch of the divergence: consecutive
// single-child base nodes up to (excluding) the reconvergence node, which
// is recognized by carrying a tag of one of the diverging branches.
func renderFork(sb *strings.Builder, branches []*tree.Node) *tree.Node {
	lem := branches[0]
	for _, b := range branches {
		if b.Data.HasTag(version.BaseTag) {
			lem = b
			break
		}
	}

	diverted := map[string]bool{}
	for _, b := range branches {
		if b == lem {
			continue
		}
		for _, tag := range b.Data.Tags {
			diverted[tag] = true
		}
	}

	lemRun := []*tree.Node{lem}
	cur := lem
	for {
		next := payloadChildren(cur)
		if len(next) != 1 || carriesAny(next[0].Data, diverted) {
			break
		}
		lemRun = append(lemRun, next[0])
		cur = next[0]
	}

	sb.WriteString("<app>")
	sb.WriteString("<lem>")
	for _, n := range lemRun {
		sb.WriteString(encoding.EscapeXMLText(n.Data.Text))
	}
	sb.WriteString("</lem>")
	for _, b := range branches {
		if b == lem {
			continue
		}
		writeReading(sb, b)
	}
	sb.WriteString("</app>")
	return cur
}

// writeReading emits one rdg element for a divergent branch, concatenating
// the branch's whole chain as the reading text.
func writeReading(sb *strings.Builder, branch *tree.Node) {
	var wit, resp []string
	for _, tag := range branch.Data.Tags {
		switch {
		case strings.HasPrefix(tag, tree.TagWitnessPrefix):
			wit = append(wit, tag)
		case strings.HasPrefix(tag, tree.TagAuthorPrefix):
			resp = append(resp, tag)
		}
	}
	sb.WriteString("<rdg")
	if len(wit) > 0 {
		sb.WriteString(` wit="` + encoding.EscapeXMLAttr(strings.Join(wit, " ")) + `"`)
	}
	if len(resp) > 0 {
		sb.WriteString(` resp="` + encoding.EscapeXMLAttr(strings.Join(resp, " ")) + `"`)
	}
	sb.WriteString(">")
	for cur := branch; cur != nil; {
		sb.WriteString(encoding.EscapeXMLText(cur.Data.Text))
		next := payloadChildren(cur)
		if len(next) == 0 {
			break
		}
		cur = next[0]
	}
	sb.WriteString("</rdg>")
}

func writeSegment(sb *strings.Builder, s *tree.Segment) {
	sb.WriteString(encoding.EscapeXMLText(s.Text))
	if s.HasFeature(tree.FeatureEOLTail) {
		sb.WriteString("<lb/>")
	}
}

func carriesAny(s *tree.Segment, tags map[string]bool) bool {
	for _, t := range s.Tags {
		if tags[t] {
			return true
		}
	}
	return false
}

// payloadChildren returns the payload-carrying children of n, looking
// through the payload-less fork nodes a binary merge introduces.
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
