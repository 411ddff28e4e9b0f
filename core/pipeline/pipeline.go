// Package pipeline wires the transform stages together: partition the
// annotated text, build the linear tree, normalize line breaks, coalesce
// equal-feature runs, and merge the witness versions into one shared tree.
//
// Every run is self-contained: trees, id counters, and cursors live in one
// invocation, so concurrent runs over distinct texts need no locking.
package pipeline

import (
	"github.com/marchetti-editions/stemma/core/apparatus"
	"github.com/marchetti-editions/stemma/core/filter"
	"github.com/marchetti-editions/stemma/core/span"
	"github.com/marchetti-editions/stemma/core/tree"
	"github.com/marchetti-editions/stemma/core/version"
)

// Options configures one pipeline run.
type Options struct {
	// SplitLines runs the line-break filter after tree building.
	SplitLines bool `json:"split_lines,omitempty" yaml:"split_lines,omitempty"`

	// Merge, when set, runs the feature-merge filter with this
	// configuration.
	Merge *filter.MergeConfig `json:"merge,omitempty" yaml:"merge,omitempty"`

	// Binary constrains the merged tree to at most two children per node.
	Binary bool `json:"binary,omitempty" yaml:"binary,omitempty"`

	// Rewrite renames witness/author identifiers before version
	// collection; mapping an identifier to "" drops it.
	Rewrite map[string]string `json:"rewrite,omitempty" yaml:"rewrite,omitempty"`

	// SortSources orders collected sources deterministically.
	SortSources bool `json:"sort_sources,omitempty" yaml:"sort_sources,omitempty"`
}

// Run executes the whole pipeline over one text unit and returns the merged
// tree. layer may be nil, in which case no versions are built and the
// result is the (filtered) base tree seeded with the base tag.
func Run(text string, ranges []span.AnnotatedRange, layer *apparatus.Layer, opts Options) (*tree.Node, error) {
	partition, err := span.Partition(len(text), ranges)
	if err != nil {
		return nil, err
	}
	span.AssignText(text, partition)

	base := tree.BuildLinear(partition)
	if opts.SplitLines {
		base = filter.SplitLines(base)
	}
	if opts.Merge != nil {
		base, err = filter.MergeFeatures(base, *opts.Merge)
		if err != nil {
			return nil, err
		}
	}

	var versions []version.TaggedTree
	if layer != nil {
		// Rewrite the layer itself so renamed ids still match their
		// entries when the versions are built below.
		layer = layer.RewriteSources(opts.Rewrite)
		for _, src := range version.CollectSources(base, layer, nil, opts.SortSources) {
			versions = append(versions, version.TaggedTree{
				Tag:  src.Tag(),
				Tree: version.BuildVersion(base, layer, src),
			})
		}
	}

	m := &version.Merger{Binary: opts.Binary}
	return m.Merge(base, versions), nil
}
