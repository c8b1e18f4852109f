package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-enrichment/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:          "abc12345-6789-0000-0000-000000000000",
			Input:       model.VenueInput{Name: "Blue Note"},
			State:       model.StateDone,
			FieldsFound: 7,
			CostUSD:     0.0123,
			CreatedAt:   now,
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Input:     model.VenueInput{Name: "Broken Venue"},
			State:     model.StateFailed,
			Error:     "pipeline: search stage failed for \"Broken Venue\": exa: status 500",
			CreatedAt: now.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "VENUE")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "Blue Note")
	assert.Contains(t, output, "done")
	assert.Contains(t, output, "$0.0123")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "pipeline: search stage failed for \"Br...")
}

func TestWriteRunDetail(t *testing.T) {
	v := model.NewVenue("Blue Note")
	v.SetField(model.FieldEmail, "info@bluenote.example.com", "https://bluenote.example.com")
	run := &model.Run{
		ID:          "run-1",
		Input:       model.VenueInput{Name: "Blue Note"},
		State:       model.StateDone,
		Venue:       v,
		FieldsFound: 1,
	}
	phases := []model.RunPhase{
		{ID: "p1", RunID: "run-1", Name: "search", Status: model.PhaseStatusComplete},
	}

	var buf bytes.Buffer
	require.NoError(t, writeRunDetail(&buf, run, phases))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["id"])
	assert.Equal(t, "done", got["state"])
	assert.Equal(t, "info@bluenote.example.com", got["venue"].(map[string]any)["email"])
	require.Len(t, got["phases"], 1)
	assert.Equal(t, "search", got["phases"].([]any)[0].(map[string]any)["name"])
}

func TestWriteRunDetail_NoPhases(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRunDetail(&buf, &model.Run{ID: "run-2"}, nil))
	assert.Contains(t, buf.String(), `"phases": []`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "", truncate("", 5))
}
