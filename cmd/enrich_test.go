package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-enrichment/internal/pipeline"
)

func TestEnrichCommand_DryRun(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	t.Setenv("VENUE_PIPELINE_VENUE_DELAY_MS", "0")

	input := filepath.Join(dir, "venues.csv")
	require.NoError(t, os.WriteFile(input, []byte("name,context\nBlue Note,NYC\nSmalls,\nThe Fillmore,SF\n"), 0o644))
	output := filepath.Join(dir, "out", "venues.json")

	rootCmd.SetArgs([]string{"enrich", "--input", input, "--output", output, "--limit", "2", "--dry-run"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		enrichLimit, enrichDryRun = 0, false
	})
	require.NoError(t, rootCmd.Execute())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Blue Note", got[0]["name"])
	assert.Equal(t, "Mock description", got[0]["description"])
	assert.Equal(t, map[string]any{"description": "dry_run"}, got[0]["provenance"])
	assert.Equal(t, "Smalls", got[1]["name"])

	// Dry runs never open the run store.
	_, err = os.Stat(filepath.Join(dir, "venues.db"))
	assert.True(t, os.IsNotExist(err))
}

func TestFormatSummary(t *testing.T) {
	var buf bytes.Buffer
	formatSummary(&buf, &pipeline.Summary{
		Attempted:   3,
		Processed:   2,
		Complete:    1,
		Failed:      1,
		TotalFields: 5,
		AvgFields:   2.5,
		CostUSD:     0.0421,
	}, "output/venues.json")

	out := buf.String()
	assert.Contains(t, out, "Enrichment summary")
	assert.Contains(t, out, "Average fields per venue")
	assert.Contains(t, out, "2.5")
	assert.Contains(t, out, "$0.0421")
	assert.Contains(t, out, "output/venues.json")
}
