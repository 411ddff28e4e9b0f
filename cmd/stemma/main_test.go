package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDoc = `{
	"id": "catullus-3",
	"title": "Catullus 3",
	"lang": "la",
	"text": "illuc unde negant redire quemquam",
	"ranges": [
		{"start": 0, "end": 4, "annotation_ids": ["apparatus:default@0"]},
		{"start": 25, "end": 32, "annotation_ids": ["apparatus:default@1"]}
	],
	"layer": {
		"fragments": {
			"apparatus:default@0": {
				"key": "apparatus:default@0",
				"entries": [
					{"text": "illud", "sources": [{"id": "O"}, {"id": "G"}, {"id": "R"}]},
					{"text": "illic", "sources": [{"is_author": true, "id": "Fruterius"}]}
				]
			},
			"apparatus:default@1": {
				"key": "apparatus:default@1",
				"entries": [
					{"text": "umquam", "sources": [{"id": "R"}]}
				]
			}
		}
	}
}`

// Test helper functions

func createTestDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test document: %v", err)
	}
	return path
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return string(data)
}

// Tests for RenderCmd

func TestRenderCmd_Run(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   []string
	}{
		{
			name:   "xml document",
			format: "xml",
			want: []string{
				`<TEI`,
				`<title>Catullus 3</title>`,
				`<lem>illuc</lem>`,
				`<rdg wit="w:G w:O w:R">illud</rdg>`,
				`<rdg resp="a:Fruterius">illic</rdg>`,
			},
		},
		{
			name:   "json tree",
			format: "json",
			want:   []string{`"illuc"`, `"w:O"`, `"a:Fruterius"`},
		},
		{
			name:   "pretty xml",
			format: "pretty",
			want:   []string{`<teiHeader>`, `illuc`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := createTestDoc(t, dir, "doc.json", testDoc)
			out := filepath.Join(dir, "out")

			cmd := &RenderCmd{Format: tt.format, Out: out}
			cmd.Input = in
			if err := cmd.Run(); err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			got := readOutput(t, out)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestRenderCmd_Run_Binary(t *testing.T) {
	dir := t.TempDir()
	in := createTestDoc(t, dir, "doc.json", testDoc)
	out := filepath.Join(dir, "out.xml")

	cmd := &RenderCmd{Format: "xml", Binary: true, Out: out}
	cmd.Input = in
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := readOutput(t, out)
	// The binary constraint changes fork shape, not the rendered readings.
	for _, want := range []string{"illud", "illic", "umquam"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderCmd_Run_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	in := createTestDoc(t, dir, "doc.json", testDoc)
	cfg := createTestDoc(t, dir, "opts.yaml", "rewrite:\n  R: \"\"\n")
	out := filepath.Join(dir, "out.xml")

	cmd := &RenderCmd{Format: "xml", Config: cfg, Out: out}
	cmd.Input = in
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := readOutput(t, out)
	if strings.Contains(got, "umquam") {
		t.Errorf("dropped witness reading survived:\n%s", got)
	}
	if !strings.Contains(got, `wit="w:G w:O"`) {
		t.Errorf("rewritten witness list missing:\n%s", got)
	}
}

func TestRenderCmd_Run_MissingInput(t *testing.T) {
	cmd := &RenderCmd{Format: "xml"}
	if err := cmd.Run(); err == nil {
		t.Fatal("expected error without --input or --db")
	}
}

// Tests for PartitionCmd

func TestPartitionCmd_Run(t *testing.T) {
	dir := t.TempDir()
	in := createTestDoc(t, dir, "doc.json", testDoc)
	out := filepath.Join(dir, "partition.json")

	cmd := &PartitionCmd{Out: out}
	cmd.Input = in
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := readOutput(t, out)
	for _, want := range []string{`"illuc"`, `" unde negant redire "`, `"quemquam"`, `"apparatus:default@0"`} {
		if !strings.Contains(got, want) {
			t.Errorf("partition missing %q:\n%s", want, got)
		}
	}
}

// Tests for the db command group

func TestDBCmds_Run(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "corpus.db")
	in := createTestDoc(t, dir, "doc.json", testDoc)

	if err := (&DBInitCmd{DB: db}).Run(); err != nil {
		t.Fatalf("db init failed: %v", err)
	}
	if err := (&DBImportCmd{DB: db, Input: in}).Run(); err != nil {
		t.Fatalf("db import failed: %v", err)
	}
	if err := (&DBListCmd{DB: db}).Run(); err != nil {
		t.Fatalf("db list failed: %v", err)
	}

	// Render straight from the database.
	out := filepath.Join(dir, "out.xml")
	cmd := &RenderCmd{Format: "xml", Out: out}
	cmd.DB = db
	cmd.Text = "catullus-3"
	if err := cmd.Run(); err != nil {
		t.Fatalf("render from db failed: %v", err)
	}
	got := readOutput(t, out)
	if !strings.Contains(got, "<lem>illuc</lem>") {
		t.Errorf("db-backed render missing lemma:\n%s", got)
	}
}

func TestDBImportCmd_Run_MissingDocument(t *testing.T) {
	dir := t.TempDir()
	cmd := &DBImportCmd{DB: filepath.Join(dir, "corpus.db"), Input: filepath.Join(dir, "nope.json")}
	if err := cmd.Run(); err == nil {
		t.Fatal("expected error for missing document")
	}
}

func TestRenderCmd_Run_DBMissingText(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "corpus.db")
	if err := (&DBInitCmd{DB: db}).Run(); err != nil {
		t.Fatalf("db init failed: %v", err)
	}

	cmd := &RenderCmd{Format: "xml"}
	cmd.DB = db
	cmd.Text = "absent"
	if err := cmd.Run(); err == nil {
		t.Fatal("expected error for unknown text id")
	}
}

// Tests for SourcesCmd and VersionCmd

func TestSourcesCmd_Run(t *testing.T) {
	dir := t.TempDir()
	in := createTestDoc(t, dir, "doc.json", testDoc)

	cmd := &SourcesCmd{}
	cmd.Input = in
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestVersionCmd_Run(t *testing.T) {
	if err := (&VersionCmd{}).Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	cfg := createTestDoc(t, dir, "opts.yaml", "binary: false\nsort_sources: true\n")

	opts, err := loadOptions(cfg, true)
	if err != nil {
		t.Fatalf("loadOptions failed: %v", err)
	}
	if !opts.Binary {
		t.Error("command-line --binary did not override config")
	}
	if !opts.SortSources {
		t.Error("sort_sources not read from config")
	}
}

func TestLoadOptions_BadYAML(t *testing.T) {
	dir := t.TempDir()
	cfg := createTestDoc(t, dir, "opts.yaml", "binary: [")

	if _, err := loadOptions(cfg, false); err == nil {
		t.Fatal("malformed config accepted")
	}
}
