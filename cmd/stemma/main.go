// Command stemma renders critically annotated texts into apparatus trees
// and TEI-style markup. It reads text units from JSON documents (optionally
// xz-compressed) or from a SQLite database, runs the transform pipeline,
// and writes XML or JSON to stdout or a file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/marchetti-editions/stemma/core/pipeline"
	"github.com/marchetti-editions/stemma/core/render"
	"github.com/marchetti-editions/stemma/core/span"
	"github.com/marchetti-editions/stemma/core/version"
	"github.com/marchetti-editions/stemma/internal/input"
	"github.com/marchetti-editions/stemma/internal/logging"
	"github.com/marchetti-editions/stemma/internal/store"
)

const versionString = "0.2.0"

// CLI defines the command-line interface for stemma.
var CLI struct {
	// Global flags
	Verbose bool `name:"verbose" short:"v" help:"Enable debug logging"`

	Render    RenderCmd    `cmd:"" help:"Render a text unit to XML or JSON"`
	Partition PartitionCmd `cmd:"" help:"Dump the range partition of a text unit"`
	Sources   SourcesCmd   `cmd:"" help:"List the witnesses and authors of a text unit"`
	DB        DBGroup      `cmd:"" help:"SQLite corpus operations"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// DBGroup contains corpus database operations.
type DBGroup struct {
	Init   DBInitCmd   `cmd:"" help:"Create an empty corpus database"`
	Import DBImportCmd `cmd:"" help:"Import a JSON document into a corpus database"`
	List   DBListCmd   `cmd:"" help:"List the texts in a corpus database"`
}

// inputFlags selects a text unit from a file or a database.
type inputFlags struct {
	Input string `name:"input" short:"i" help:"JSON document path (.json or .json.xz)" type:"path"`
	DB    string `name:"db" help:"Corpus database path" type:"path"`
	Text  string `name:"text" short:"t" help:"Text id within the database"`
}

// load fetches the selected document.
func (f *inputFlags) load(ctx context.Context) (*input.Document, error) {
	switch {
	case f.Input != "":
		return input.ReadFile(f.Input)
	case f.DB != "":
		if f.Text == "" {
			return nil, fmt.Errorf("--db requires --text")
		}
		s, err := store.Open(ctx, f.DB)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		text, ranges, err := s.LoadText(ctx, f.Text)
		if err != nil {
			return nil, err
		}
		layer, err := s.LoadLayer(ctx, f.Text)
		if err != nil {
			return nil, err
		}
		return &input.Document{
			ID:     text.ID,
			Title:  text.Title,
			Lang:   text.Lang,
			Text:   text.Body,
			Ranges: ranges,
			Layer:  layer,
		}, nil
	default:
		return nil, fmt.Errorf("either --input or --db is required")
	}
}

// loadOptions reads pipeline options from a YAML config file, then applies
// command-line overrides.
func loadOptions(path string, binary bool) (pipeline.Options, error) {
	var opts pipeline.Options
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return opts, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return opts, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if binary {
		opts.Binary = true
	}
	return opts, nil
}

// writeOutput writes data to path, or stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// RenderCmd renders a text unit.
type RenderCmd struct {
	inputFlags
	Config string `name:"config" short:"c" help:"Pipeline options YAML file" type:"path"`
	Format string `name:"format" short:"f" enum:"xml,pretty,json" default:"xml" help:"Output format (xml, pretty, json)"`
	Binary bool   `name:"binary" help:"Constrain forks to two children per node"`
	Out    string `name:"out" short:"o" help:"Output file (default stdout)" type:"path"`
}

// Run executes the render command.
func (c *RenderCmd) Run() error {
	ctx := context.Background()
	doc, err := c.load(ctx)
	if err != nil {
		return err
	}
	opts, err := loadOptions(c.Config, c.Binary)
	if err != nil {
		return err
	}
	opts.SplitLines = true
	opts.SortSources = true

	logging.Debug("rendering text", "id", doc.ID, "format", c.Format)
	merged, err := pipeline.Run(doc.Text, doc.Ranges, doc.Layer, opts)
	if err != nil {
		return err
	}

	var out []byte
	switch c.Format {
	case "pretty":
		out, err = render.Pretty(merged, doc.Title, doc.Lang)
		if err != nil {
			return err
		}
	case "json":
		out, err = render.JSON(merged)
		if err != nil {
			return err
		}
	default:
		out = render.Document(merged, doc.Title, doc.Lang)
	}
	return writeOutput(c.Out, out)
}

// PartitionCmd dumps the range partition of a text unit as JSON.
type PartitionCmd struct {
	inputFlags
	Out string `name:"out" short:"o" help:"Output file (default stdout)" type:"path"`
}

// Run executes the partition command.
func (c *PartitionCmd) Run() error {
	doc, err := c.load(context.Background())
	if err != nil {
		return err
	}
	partition, err := span.Partition(len(doc.Text), doc.Ranges)
	if err != nil {
		return err
	}
	span.AssignText(doc.Text, partition)
	out, err := json.MarshalIndent(partition, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(c.Out, out)
}

// SourcesCmd lists the distinct witnesses and authors a text's apparatus
// references.
type SourcesCmd struct {
	inputFlags
}

// Run executes the sources command.
func (c *SourcesCmd) Run() error {
	doc, err := c.load(context.Background())
	if err != nil {
		return err
	}
	if doc.Layer == nil {
		return nil
	}
	merged, err := pipeline.Run(doc.Text, doc.Ranges, nil, pipeline.Options{})
	if err != nil {
		return err
	}
	for _, src := range version.CollectSources(merged, doc.Layer, nil, true) {
		fmt.Println(src.Tag())
	}
	return nil
}

// DBInitCmd creates an empty corpus database.
type DBInitCmd struct {
	DB string `arg:"" name:"db" help:"Database path" type:"path"`
}

// Run executes the db init command.
func (c *DBInitCmd) Run() error {
	ctx := context.Background()
	s, err := store.Open(ctx, c.DB)
	if err != nil {
		return err
	}
	defer s.Close()
	logging.Info("created corpus database", "path", c.DB, "driver", store.DriverType())
	return nil
}

// DBImportCmd imports a JSON document into a corpus database.
type DBImportCmd struct {
	DB    string `arg:"" name:"db" help:"Database path" type:"path"`
	Input string `arg:"" name:"input" help:"JSON document path" type:"path"`
}

// Run executes the db import command.
func (c *DBImportCmd) Run() error {
	ctx := context.Background()
	doc, err := input.ReadFile(c.Input)
	if err != nil {
		return err
	}
	s, err := store.Open(ctx, c.DB)
	if err != nil {
		return err
	}
	defer s.Close()

	text := &store.Text{ID: doc.ID, Title: doc.Title, Lang: doc.Lang, Body: doc.Text}
	if err := s.SaveText(ctx, text, doc.Ranges); err != nil {
		return err
	}
	if doc.Layer != nil {
		if err := s.SaveLayer(ctx, doc.ID, doc.Layer); err != nil {
			return err
		}
	}
	logging.Info("imported text", "id", doc.ID, "db", c.DB)
	return nil
}

// DBListCmd lists the texts in a corpus database.
type DBListCmd struct {
	DB string `arg:"" name:"db" help:"Database path" type:"path"`
}

// Run executes the db list command.
func (c *DBListCmd) Run() error {
	ctx := context.Background()
	s, err := store.Open(ctx, c.DB)
	if err != nil {
		return err
	}
	defer s.Close()
	ids, err := s.ListTexts(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

// Run executes the version command.
func (c *VersionCmd) Run() error {
	fmt.Printf("stemma version %s (%s sqlite)\n", versionString, store.DriverType())
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("stemma"),
		kong.Description("Critical-apparatus text-tree renderer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if CLI.Verbose {
		logging.InitLogger(logging.LevelDebug, logging.FormatText)
	}
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
