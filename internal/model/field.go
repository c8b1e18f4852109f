package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Field names one enrichable attribute of a venue.
type Field string

const (
	FieldDescription           Field = "description"
	FieldEmail                 Field = "email"
	FieldPhone                 Field = "phone"
	FieldWebsite               Field = "website"
	FieldFacebookURL           Field = "facebook_url"
	FieldTwitterURL            Field = "twitter_url"
	FieldInstagramURL          Field = "instagram_url"
	FieldLogoURL               Field = "logo_url"
	FieldIdealPerformerProfile Field = "ideal_performer_profile"
)

// AllFields returns every enrichable field in canonical order.
func AllFields() []Field {
	return []Field{
		FieldDescription,
		FieldEmail,
		FieldPhone,
		FieldWebsite,
		FieldFacebookURL,
		FieldTwitterURL,
		FieldInstagramURL,
		FieldLogoURL,
		FieldIdealPerformerProfile,
	}
}

// IsURL reports whether values of the field are URLs subject to normalization.
func (f Field) IsURL() bool {
	return f == FieldWebsite || strings.HasSuffix(string(f), "_url")
}

// Valid reports whether f is one of the known fields.
func (f Field) Valid() bool {
	for _, k := range AllFields() {
		if k == f {
			return true
		}
	}
	return false
}

// ParseField converts a free-form name (as produced by an LLM) into a Field.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", eris.Errorf("model: unknown field %q", s)
	}
	return f, nil
}

// FieldStrings converts fields to their string names.
func FieldStrings(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}
