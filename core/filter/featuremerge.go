package filter

import (
	"regexp"
	"strings"

	"github.com/marchetti-editions/stemma/core/errors"
	"github.com/marchetti-editions/stemma/core/tree"
)

// ValueNormalizer is a find/replace rule applied to a feature value before
// comparison, so that irrelevant distinctions (like an appended identifier
// suffix) do not block a merge.
type ValueNormalizer struct {
	// Find is the literal text or regular expression to search for.
	Find string `json:"find" yaml:"find"`

	// IsRegex selects regular-expression matching for Find.
	IsRegex bool `json:"is_regex,omitempty" yaml:"is_regex,omitempty"`

	// Replace is the replacement text. With IsRegex it may use $1-style
	// group references.
	Replace string `json:"replace" yaml:"replace"`
}

// MergeConfig configures MergeFeatures.
type MergeConfig struct {
	// RelevantFeatures names the features whose equality drives merging.
	// Nil means every feature name is relevant.
	RelevantFeatures []string `json:"relevant_features,omitempty" yaml:"relevant_features,omitempty"`

	// Normalizers are applied, in order, to every relevant feature value
	// before comparison.
	Normalizers []ValueNormalizer `json:"normalizers,omitempty" yaml:"normalizers,omitempty"`

	// BreakAtEOL prevents a node carrying the eol-tail marker from merging
	// with its successor, preserving line granularity.
	BreakAtEOL bool `json:"break_at_eol,omitempty" yaml:"break_at_eol,omitempty"`
}

// normalizer is a compiled value-rewrite pipeline.
type normalizer struct {
	steps []func(string) string
}

func compileNormalizers(rules []ValueNormalizer) (*normalizer, error) {
	n := &normalizer{}
	for i := range rules {
		rule := rules[i]
		if rule.IsRegex {
			re, err := regexp.Compile(rule.Find)
			if err != nil {
				return nil, &errors.ValidationError{
					Field:   "normalizers",
					Value:   rule.Find,
					Message: "invalid regular expression",
					Err:     err,
				}
			}
			n.steps = append(n.steps, func(v string) string {
				return re.ReplaceAllString(v, rule.Replace)
			})
		} else {
			n.steps = append(n.steps, func(v string) string {
				return strings.ReplaceAll(v, rule.Find, rule.Replace)
			})
		}
	}
	return n, nil
}

func (n *normalizer) apply(v string) string {
	for _, step := range n.steps {
		v = step(v)
	}
	return v
}

// MergeFeatures coalesces runs of consecutive nodes of a linear tree into
// single nodes when their relevant feature sets are identical after value
// normalization. Merging concatenates labels and text and unions features,
// tags, and payloads. The input tree is never mutated.
//
// The filter is defined only for linear trees; branching input has
// undefined behavior.
func MergeFeatures(root *tree.Node, cfg MergeConfig) (*tree.Node, error) {
	norm, err := compileNormalizers(cfg.Normalizers)
	if err != nil {
		return nil, err
	}

	out := root.CloneNode()
	chain := root.Linearize()
	if len(chain) == 0 {
		return out, nil
	}

	cur := out
	acc := chain[0].CloneNode()
	accSet := relevantSet(acc.Data, cfg.RelevantFeatures, norm)
	for _, node := range chain[1:] {
		set := relevantSet(node.Data, cfg.RelevantFeatures, norm)
		blocked := cfg.BreakAtEOL && acc.Data != nil && acc.Data.HasFeature(tree.FeatureEOLTail)
		if !blocked && setsEqual(accSet, set) {
			mergeNode(acc, node)
			continue
		}
		cur = cur.AddChild(acc)
		acc = node.CloneNode()
		accSet = set
	}
	cur.AddChild(acc)
	return out, nil
}

// mergeNode folds src into the accumulating dst node: labels and text
// concatenate, features union as (name, value) pairs, tags and payloads
// union.
func mergeNode(dst *tree.Node, src *tree.Node) {
	dst.Label += src.Label
	if src.Data == nil {
		return
	}
	if dst.Data == nil {
		dst.Data = src.Data.Clone()
		return
	}
	dst.Data.Text += src.Data.Text
	for _, f := range src.Data.Features {
		if !hasFeaturePair(dst.Data, f) {
			dst.Data.Features = append(dst.Data.Features, f)
		}
	}
	for _, t := range src.Data.Tags {
		dst.Data.AddTag(t)
	}
	for _, p := range src.Data.Payloads {
		dst.Data.AddPayload(p)
	}
}

func hasFeaturePair(s *tree.Segment, f tree.Feature) bool {
	for _, existing := range s.Features {
		if existing == f {
			return true
		}
	}
	return false
}

// relevantSet projects a segment's feature bag onto the relevant names,
// normalizing values, and returns it with set semantics.
func relevantSet(s *tree.Segment, relevant []string, norm *normalizer) map[tree.Feature]struct{} {
	set := make(map[tree.Feature]struct{})
	if s == nil {
		return set
	}
	for _, f := range s.Features {
		if relevant != nil && !nameIn(f.Name, relevant) {
			continue
		}
		set[tree.Feature{Name: f.Name, Value: norm.apply(f.Value)}] = struct{}{}
	}
	return set
}

func nameIn(name string, names []string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func setsEqual(a, b map[tree.Feature]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for f := range a {
		if _, ok := b[f]; !ok {
			return false
		}
	}
	return true
}
