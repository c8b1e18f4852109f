package model

import (
	"fmt"
	"strings"
)

// VenueInput is one row of the input file.
type VenueInput struct {
	Name    string `json:"name" csv:"name"`
	Context string `json:"context,omitempty" csv:"context,omitempty"`
}

// Query returns the name joined with the optional context.
func (in VenueInput) Query() string {
	ctx := strings.TrimSpace(in.Context)
	if ctx == "" {
		return strings.TrimSpace(in.Name)
	}
	return strings.TrimSpace(in.Name) + " " + ctx
}

// Venue is the enriched output record. Fields are only ever added, never
// cleared or overwritten.
type Venue struct {
	Name                  string            `json:"name"`
	Description           *string           `json:"description,omitempty"`
	Email                 *string           `json:"email,omitempty"`
	Phone                 *string           `json:"phone,omitempty"`
	Website               *string           `json:"website,omitempty"`
	FacebookURL           *string           `json:"facebookUrl,omitempty"`
	TwitterURL            *string           `json:"twitterUrl,omitempty"`
	InstagramURL          *string           `json:"instagramUrl,omitempty"`
	LogoURL               *string           `json:"logoUrl,omitempty"`
	IdealPerformerProfile *string           `json:"idealPerformerProfile,omitempty"`
	Provenance            map[string]string `json:"provenance,omitempty"`
}

// NewVenue creates an empty venue record for the given name.
func NewVenue(name string) *Venue {
	return &Venue{Name: name}
}

func (v *Venue) slot(f Field) **string {
	switch f {
	case FieldDescription:
		return &v.Description
	case FieldEmail:
		return &v.Email
	case FieldPhone:
		return &v.Phone
	case FieldWebsite:
		return &v.Website
	case FieldFacebookURL:
		return &v.FacebookURL
	case FieldTwitterURL:
		return &v.TwitterURL
	case FieldInstagramURL:
		return &v.InstagramURL
	case FieldLogoURL:
		return &v.LogoURL
	case FieldIdealPerformerProfile:
		return &v.IdealPerformerProfile
	}
	return nil
}

// Get returns the value of a field and whether it is set.
func (v *Venue) Get(f Field) (string, bool) {
	p := v.slot(f)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

// SetField sets f to value with source as provenance. It is a no-op when the
// field is already set or value is blank. Reports whether the field was set.
func (v *Venue) SetField(f Field, value, source string) bool {
	p := v.slot(f)
	if p == nil || *p != nil {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	*p = &value
	if v.Provenance == nil {
		v.Provenance = make(map[string]string)
	}
	v.Provenance[string(f)] = source
	return true
}

// MissingFields returns the unset fields in canonical order.
func (v *Venue) MissingFields() []Field {
	var missing []Field
	for _, f := range AllFields() {
		if _, ok := v.Get(f); !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// FieldCount returns the number of set fields.
func (v *Venue) FieldCount() int {
	return len(AllFields()) - len(v.MissingFields())
}

// IsComplete reports whether the venue has a description.
func (v *Venue) IsComplete() bool {
	_, ok := v.Get(FieldDescription)
	return ok
}

// ValidationError lists the problems found on a venue record.
type ValidationError struct {
	Venue    string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("model: venue %q failed validation: %s", e.Venue, strings.Join(e.Problems, "; "))
}

// Validate checks structural rules on the record. It never mutates the venue
// and callers treat a failure as a warning.
func (v *Venue) Validate() error {
	var problems []string
	if strings.TrimSpace(v.Name) == "" {
		problems = append(problems, "name is empty")
	}
	if email, ok := v.Get(FieldEmail); ok {
		if !strings.Contains(email, "@") || len(email) < 5 {
			problems = append(problems, fmt.Sprintf("invalid email %q", email))
		}
	}
	if site, ok := v.Get(FieldWebsite); ok {
		if !strings.HasPrefix(site, "http://") && !strings.HasPrefix(site, "https://") {
			problems = append(problems, fmt.Sprintf("website %q is not an http(s) URL", site))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Venue: v.Name, Problems: problems}
}
