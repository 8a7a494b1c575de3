package models

import (
	"strings"
	"time"
)

// Scheme is a government scheme listing. The detail fields are only
// populated by a detail lookup.
type Scheme struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	URL         string `json:"url,omitempty"`
	Source      string `json:"source"`

	Eligibility        []string `json:"eligibility,omitempty"`
	Benefits           []string `json:"benefits,omitempty"`
	Documents          []string `json:"documents,omitempty"`
	Deadline           string   `json:"deadline,omitempty"`
	ApplicationProcess string   `json:"application_process,omitempty"`
	ContactInfo        string   `json:"contact_info,omitempty"`
}

// HasDetails reports whether any detail field has been filled in.
func (s Scheme) HasDetails() bool {
	return len(s.Eligibility) > 0 || len(s.Benefits) > 0 || len(s.Documents) > 0 ||
		s.Deadline != "" || s.ApplicationProcess != "" || s.ContactInfo != ""
}

// FarmerProfile describes the applicant for an eligibility check.
type FarmerProfile struct {
	Age           int      `json:"age,omitempty"`
	LandOwnership string   `json:"land_ownership,omitempty"` // "owner", "tenant", "sharecropper", "landless"
	LandSizeAcres float64  `json:"land_size_acres,omitempty"`
	AnnualIncome  int      `json:"annual_income,omitempty"`
	State         string   `json:"state,omitempty"`
	Category      string   `json:"category,omitempty"` // "general", "sc", "st", "obc"
	Documents     []string `json:"documents,omitempty"`
}

// EligibilityResult is the outcome of matching a FarmerProfile against a scheme.
type EligibilityResult struct {
	SchemeID         string    `json:"scheme_id"`
	SchemeName       string    `json:"scheme_name"`
	IsEligible       bool      `json:"is_eligible"`
	Reasons          []string  `json:"reasons"`
	MissingDocuments []string  `json:"missing_documents,omitempty"`
	CheckedAt        time.Time `json:"checked_at"`
}

// Snapshot is an immutable, ordered result set from one acquisition.
// A new snapshot supersedes the previous one; it is never modified in place.
type Snapshot[T any] struct {
	Items       []T       `json:"items"`
	GeneratedAt time.Time `json:"generated_at"`
	SourceUsed  string    `json:"source_used"`
	Fallback    bool      `json:"fallback"`
}

// SchemeID derives the stable identifier of a scheme from its name:
// lower-case ASCII letters and digits joined by single hyphens.
func SchemeID(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}
