package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/use-agent/farmdata/models"
	"github.com/use-agent/farmdata/synth"
)

func curated(t *testing.T, name string) models.Scheme {
	t.Helper()
	id := models.SchemeID(name)
	for _, s := range synth.FallbackSchemes(time.Now()) {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("no curated scheme %q", name)
	return models.Scheme{}
}

func TestEvaluate(t *testing.T) {
	allDocs := []string{"Aadhaar", "Land records", "Bank account details", "Sowing certificate"}

	tests := []struct {
		name     string
		scheme   string
		profile  models.FarmerProfile
		eligible bool
		reason   string
	}{
		{
			name:     "owner on land scheme",
			scheme:   "Integrated Watershed and Land Development Programme",
			profile:  models.FarmerProfile{Age: 45, LandOwnership: "owner", Documents: allDocs},
			eligible: true,
			reason:   "meets all listed criteria",
		},
		{
			name:     "landless on land scheme",
			scheme:   "Integrated Watershed and Land Development Programme",
			profile:  models.FarmerProfile{Age: 45, LandOwnership: "Landless", Documents: allDocs},
			eligible: false,
			reason:   "ownership",
		},
		{
			name:     "tenant on income support for landholders",
			scheme:   "Pradhan Mantri Kisan Samman Nidhi (PM-KISAN)",
			profile:  models.FarmerProfile{Age: 30, LandOwnership: "tenant", Documents: allDocs},
			eligible: false,
			reason:   "ownership",
		},
		{
			name:     "tenant on crop insurance",
			scheme:   "Pradhan Mantri Fasal Bima Yojana (PMFBY)",
			profile:  models.FarmerProfile{Age: 30, LandOwnership: "tenant", Documents: allDocs},
			eligible: true,
		},
		{
			name:     "income tax payer on income support",
			scheme:   "Pradhan Mantri Kisan Samman Nidhi (PM-KISAN)",
			profile:  models.FarmerProfile{Age: 50, LandOwnership: "owner", AnnualIncome: 1200000, Documents: allDocs},
			eligible: false,
			reason:   "income tax",
		},
		{
			name:     "pension within entry age",
			scheme:   "Pradhan Mantri Kisan Maandhan Yojana (PM-KMY)",
			profile:  models.FarmerProfile{Age: 29, LandSizeAcres: 2, Documents: allDocs},
			eligible: true,
		},
		{
			name:     "pension above entry age",
			scheme:   "Pradhan Mantri Kisan Maandhan Yojana (PM-KMY)",
			profile:  models.FarmerProfile{Age: 52, LandSizeAcres: 2, Documents: allDocs},
			eligible: false,
			reason:   "entry age",
		},
		{
			name:     "pension without age",
			scheme:   "Pradhan Mantri Kisan Maandhan Yojana (PM-KMY)",
			profile:  models.FarmerProfile{Documents: allDocs},
			eligible: false,
			reason:   "age is required",
		},
		{
			name:     "pension for a large farm",
			scheme:   "Pradhan Mantri Kisan Maandhan Yojana (PM-KMY)",
			profile:  models.FarmerProfile{Age: 30, LandSizeAcres: 12, Documents: allDocs},
			eligible: false,
			reason:   "small and marginal",
		},
		{
			name:     "minor",
			scheme:   "Soil Health Card Scheme",
			profile:  models.FarmerProfile{Age: 16, Documents: allDocs},
			eligible: false,
			reason:   "at least 18",
		},
		{
			name:     "missing documents do not change eligibility",
			scheme:   "Kisan Credit Card (KCC)",
			profile:  models.FarmerProfile{Age: 40, LandOwnership: "tenant", Documents: []string{"aadhaar card"}},
			eligible: true,
			reason:   "missing documents: Land records, Passport size photograph",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := curated(t, tt.scheme)
			res := evaluate(s, tt.profile, time.Now())
			if res.IsEligible != tt.eligible {
				t.Errorf("IsEligible = %v, want %v (reasons %v)", res.IsEligible, tt.eligible, res.Reasons)
			}
			if tt.reason != "" && !strings.Contains(strings.Join(res.Reasons, "; "), tt.reason) {
				t.Errorf("Reasons = %v, want one containing %q", res.Reasons, tt.reason)
			}
			if res.SchemeID != s.ID {
				t.Errorf("SchemeID = %q, want %q", res.SchemeID, s.ID)
			}
		})
	}
}

func TestEvaluate_TenantOnLandNamedScheme(t *testing.T) {
	tests := []struct {
		name     string
		scheme   string
		eligible bool
	}{
		{"land development", "Land Development Programme", false},
		{"farmland", "Farmland Protection Scheme", false},
		{"wasteland", "Wasteland Reclamation Yojana", false},
		{"nagaland", "Nagaland Horticulture Mission", false},
		{"landholding in brackets", "PM-KISAN (Landholding)", false},
		{"soil health", "Soil Health Card Scheme", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := models.Scheme{ID: models.SchemeID(tt.scheme), Name: tt.scheme}
			res := evaluate(s, models.FarmerProfile{LandOwnership: "tenant"}, time.Now())
			if res.IsEligible != tt.eligible {
				t.Fatalf("IsEligible = %v, want %v (reasons %v)", res.IsEligible, tt.eligible, res.Reasons)
			}
			if !tt.eligible && !strings.Contains(strings.Join(res.Reasons, "; "), "ownership") {
				t.Errorf("reasons %v should explain the land requirement", res.Reasons)
			}
		})
	}
}

func TestMissingDocuments(t *testing.T) {
	got := missingDocuments(
		[]string{"Aadhaar card", "Land records", "Bank account details"},
		[]string{"AADHAAR", " bank account details ", ""},
	)
	if len(got) != 1 || got[0] != "Land records" {
		t.Errorf("missingDocuments = %v, want [Land records]", got)
	}
}
