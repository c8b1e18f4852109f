package extract

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/venue-enrichment/internal/model"
)

// FilterValues drops values that fail per-field checks and normalizes the
// rest: text is NFC-normalized and every URL field is made absolute against
// sourceURL. The input map is not modified.
func FilterValues(values map[model.Field]string, sourceURL string) map[model.Field]string {
	out := make(map[model.Field]string, len(values))
	for field, raw := range values {
		v := strings.TrimSpace(norm.NFC.String(raw))
		if v == "" || !field.Valid() {
			continue
		}

		switch {
		case field == model.FieldEmail:
			v = strings.TrimPrefix(v, "mailto:")
			if !strings.Contains(v, "@") || len(v) <= 5 {
				zap.L().Debug("extract: dropping email", zap.String("value", v))
				continue
			}
		case field == model.FieldPhone:
			if countDigits(v) < 10 {
				zap.L().Debug("extract: dropping phone", zap.String("value", v))
				continue
			}
		case field.IsURL():
			normalized, err := normalizeURLField(v, sourceURL)
			if err != nil {
				zap.L().Warn("extract: dropping url",
					zap.String("field", string(field)),
					zap.String("value", v),
					zap.Error(err),
				)
				continue
			}
			v = normalized
		}
		out[field] = v
	}
	return out
}

func normalizeURLField(v, sourceURL string) (string, error) {
	normalized, err := NormalizeURL(v, sourceURL)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return "", err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", eris.Errorf("extract: %q is not an http(s) url", normalized)
	}
	return normalized, nil
}
