package extract

import (
	"maps"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-enrichment/internal/model"
)

// MergePolicy decides how an AI-structured extraction combines with values
// already collected from the same page.
type MergePolicy string

const (
	// ReplaceIfLarger replaces the collected values when the AI map is
	// strictly larger, and otherwise merges with AI values winning ties.
	ReplaceIfLarger MergePolicy = "replace_if_larger"
	// MergeAlways keeps every collected value; AI values only win where
	// both produced the same field.
	MergeAlways MergePolicy = "merge"
)

// ParseMergePolicy converts a config value into a MergePolicy. Empty selects
// ReplaceIfLarger.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch p := MergePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ReplaceIfLarger, nil
	case ReplaceIfLarger, MergeAlways:
		return p, nil
	}
	return "", eris.Errorf("extract: unknown merge policy %q", s)
}

// Merge combines collected and ai according to policy. Neither input is
// modified.
func Merge(collected, ai map[model.Field]string, policy MergePolicy) map[model.Field]string {
	if policy != MergeAlways && len(ai) > len(collected) {
		return maps.Clone(ai)
	}
	out := make(map[model.Field]string, len(collected)+len(ai))
	maps.Copy(out, collected)
	maps.Copy(out, ai)
	return out
}
