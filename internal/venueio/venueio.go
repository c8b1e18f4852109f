// Package venueio loads venue inputs from CSV or JSON files and writes
// enriched venues as JSON.
package venueio

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/venue-enrichment/internal/model"
)

// LoadInputs reads venue inputs from a .csv or .json file, keeping file
// order. Rows with a blank name are dropped.
func LoadInputs(path string) ([]model.VenueInput, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".json" {
		return nil, eris.Errorf("venueio: unsupported file format %q, use .csv or .json", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "venueio: read %s", path)
	}

	var raw []model.VenueInput
	switch ext {
	case ".csv":
		if err := csvutil.Unmarshal(data, &raw); err != nil {
			return nil, eris.Wrapf(err, "venueio: parse csv %s", path)
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, eris.Wrapf(err, "venueio: parse json %s", path)
		}
	}

	inputs := make([]model.VenueInput, 0, len(raw))
	for i, in := range raw {
		in.Name = strings.TrimSpace(in.Name)
		in.Context = strings.TrimSpace(in.Context)
		if in.Name == "" {
			zap.L().Warn("venueio: skipping row without a name", zap.String("file", path), zap.Int("row", i+1))
			continue
		}
		inputs = append(inputs, in)
	}

	zap.L().Info("venueio: loaded venues", zap.String("file", path), zap.Int("count", len(inputs)))
	return inputs, nil
}

// SaveVenues writes venues to path as an indented JSON array, creating parent
// directories as needed.
func SaveVenues(venues []*model.Venue, path string) error {
	if venues == nil {
		venues = []*model.Venue{}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "venueio: create output dir %s", dir)
		}
	}

	data, err := json.MarshalIndent(venues, "", "  ")
	if err != nil {
		return eris.Wrap(err, "venueio: marshal venues")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "venueio: write %s", path)
	}

	zap.L().Info("venueio: saved venues", zap.String("file", path), zap.Int("count", len(venues)))
	return nil
}
