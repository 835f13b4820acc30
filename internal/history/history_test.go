// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sheetpress/pkg/types"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func record(input, output string, status types.ConversionStatus, mod time.Time) types.ConversionRecord {
	return types.ConversionRecord{
		InputPath:    input,
		OutputPath:   output,
		Title:        "Python",
		Blocks:       3,
		Status:       status,
		InputModTime: mod,
		ConvertedAt:  time.Now(),
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	_, dir := openStore(t)
	_, err := os.Stat(filepath.Join(dir, "state", "history.db"))
	assert.NoError(t, err)
}

func TestUnchanged(t *testing.T) {
	s, dir := openStore(t)
	ctx := context.Background()

	input := filepath.Join(dir, "Cheatsheet_Python.txt")
	output := filepath.Join(dir, "Cheatsheet_Python.pdf")
	mod := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)

	got, err := s.Unchanged(ctx, input, output, mod)
	require.NoError(t, err)
	assert.False(t, got, "unknown input is never unchanged")

	require.NoError(t, s.Record(ctx, record(input, output, types.ConversionDone, mod)))

	got, err = s.Unchanged(ctx, input, output, mod)
	require.NoError(t, err)
	assert.False(t, got, "missing output forces reconversion")

	require.NoError(t, os.WriteFile(output, []byte("%PDF-"), 0o644))

	got, err = s.Unchanged(ctx, input, output, mod)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = s.Unchanged(ctx, input, output, mod.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, got, "newer input is changed")

	got, err = s.Unchanged(ctx, input, filepath.Join(dir, "elsewhere.pdf"), mod)
	require.NoError(t, err)
	assert.False(t, got, "different output path is changed")
}

func TestUnchanged_FailureDoesNotReplaceSuccess(t *testing.T) {
	s, dir := openStore(t)
	ctx := context.Background()

	input := filepath.Join(dir, "a.txt")
	output := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(output, []byte("%PDF-"), 0o644))
	mod := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, record(input, output, types.ConversionDone, mod)))
	failed := record(input, output, types.ConversionFailed, mod.Add(time.Hour))
	failed.Error = "disk full"
	require.NoError(t, s.Record(ctx, failed))

	got, err := s.Unchanged(ctx, input, output, mod)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestList(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	mod := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Record(ctx, record("a.txt", "a.pdf", types.ConversionDone, mod)))
	failed := record("b.txt", "b.pdf", types.ConversionFailed, mod)
	failed.Error = "permission denied"
	require.NoError(t, s.Record(ctx, failed))
	require.NoError(t, s.Record(ctx, record("c.txt", "c.pdf", types.ConversionSkipped, mod)))

	all, err := s.List(ctx, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c.txt", all[0].InputPath, "newest first")
	assert.Equal(t, "a.txt", all[2].InputPath)
	assert.True(t, all[2].InputModTime.Equal(mod))

	onlyFailed, err := s.List(ctx, QueryOptions{Status: types.ConversionFailed})
	require.NoError(t, err)
	require.Len(t, onlyFailed, 1)
	assert.Equal(t, "permission denied", onlyFailed[0].Error)

	limited, err := s.List(ctx, QueryOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	byInput, err := s.List(ctx, QueryOptions{Input: "a.txt"})
	require.NoError(t, err)
	require.Len(t, byInput, 1)
	assert.Equal(t, 3, byInput[0].Blocks)
}

func TestExport(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	mod := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, in := range []string{"a.txt", "b.txt"} {
		require.NoError(t, s.Record(ctx, record(in, in+".pdf", types.ConversionDone, mod)))
	}

	var yamlOut bytes.Buffer
	require.NoError(t, s.Export(ctx, &yamlOut, FormatYAML, QueryOptions{}))
	var fromYAML []types.ConversionRecord
	require.NoError(t, yaml.Unmarshal(yamlOut.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 2)
	assert.Equal(t, "b.txt", fromYAML[0].InputPath)

	var jsonOut bytes.Buffer
	require.NoError(t, s.Export(ctx, &jsonOut, FormatJSON, QueryOptions{}))
	var fromJSON []types.ConversionRecord
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &fromJSON))
	require.Len(t, fromJSON, 2)
	assert.Equal(t, types.ConversionDone, fromJSON[1].Status)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatYAML, "YAML": FormatYAML, "yml": FormatYAML, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	recs := []types.ConversionRecord{{InputPath: "a.txt", Status: types.ConversionDone}}

	jsonPath := filepath.Join(dir, "report.json")
	require.NoError(t, WriteFile(jsonPath, recs))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"input_path": "a.txt"`)

	yamlPath := filepath.Join(dir, "report.yaml")
	require.NoError(t, WriteFile(yamlPath, recs))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "input_path: a.txt")
}
