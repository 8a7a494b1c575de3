package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/use-agent/farmdata/models"
)

// Eligibility thresholds.
const (
	minApplicantAge   = 18
	pensionMaxAge     = 40
	smallFarmMaxAcres = 5.0 // two hectares

	// incomeTaxThreshold is the annual income above which a farmer pays
	// income tax and is excluded from income support and pension schemes.
	incomeTaxThreshold = 700000
)

// nonOwners are land ownership values that do not hold title to land.
var nonOwners = map[string]bool{
	"tenant":       true,
	"landless":     true,
	"sharecropper": true,
	"lessee":       true,
}

// CheckEligibility matches a farmer profile against a scheme's rules.
// An unknown scheme yields a NOT_FOUND error.
func (c *Catalog) CheckEligibility(ctx context.Context, id string, p models.FarmerProfile) (models.EligibilityResult, error) {
	s, err := c.GetSchemeDetails(ctx, id)
	if err != nil {
		return models.EligibilityResult{}, err
	}
	return evaluate(s, p, c.now()), nil
}

func evaluate(s models.Scheme, p models.FarmerProfile, now time.Time) models.EligibilityResult {
	res := models.EligibilityResult{
		SchemeID:   s.ID,
		SchemeName: s.Name,
		IsEligible: true,
		CheckedAt:  now,
	}
	reject := func(format string, args ...any) {
		res.IsEligible = false
		res.Reasons = append(res.Reasons, fmt.Sprintf(format, args...))
	}

	title := strings.ToLower(s.Name + " " + s.Category)
	rules := strings.ToLower(strings.Join(s.Eligibility, " "))
	ownership := strings.ToLower(strings.TrimSpace(p.LandOwnership))

	if requiresLand(title, rules) && nonOwners[ownership] {
		reject("%s requires ownership of agricultural land; applicant is %s", s.Name, ownership)
	}

	if p.Age > 0 && p.Age < minApplicantAge {
		reject("applicant must be at least %d years old", minApplicantAge)
	}
	pension := strings.Contains(title, "pension") || strings.Contains(title, "maandhan")
	if pension {
		switch {
		case p.Age == 0:
			reject("age is required for pension schemes")
		case p.Age < minApplicantAge || p.Age > pensionMaxAge:
			reject("entry age for %s is %d to %d years", s.Name, minApplicantAge, pensionMaxAge)
		}
	}

	if (pension || strings.Contains(title, "income support")) && p.AnnualIncome > incomeTaxThreshold {
		reject("income tax payers are excluded (annual income above Rs %d)", incomeTaxThreshold)
	}

	if strings.Contains(rules, "small and marginal") && p.LandSizeAcres > smallFarmMaxAcres {
		reject("only small and marginal farmers with up to %.0f acres are eligible", smallFarmMaxAcres)
	}

	res.MissingDocuments = missingDocuments(s.Documents, p.Documents)
	if len(res.MissingDocuments) > 0 {
		res.Reasons = append(res.Reasons, "missing documents: "+strings.Join(res.MissingDocuments, ", "))
	}
	if res.IsEligible && len(res.Reasons) == 0 {
		res.Reasons = []string{"meets all listed criteria"}
	}
	return res
}

// requiresLand reports whether a scheme is limited to landowners. Any scheme
// whose name or category mentions land qualifies, as do schemes whose rules
// speak of landholding unless they explicitly admit tenants.
func requiresLand(title, rules string) bool {
	if strings.Contains(title, "land") {
		return true
	}
	if strings.Contains(rules, "tenant") {
		return false
	}
	return strings.Contains(rules, "landholding") || strings.Contains(rules, "owning land") ||
		strings.Contains(rules, "land in their name")
}

// missingDocuments lists required documents the applicant did not declare.
// Names match case-insensitively in either direction, so "Aadhaar" covers
// "Aadhaar card".
func missingDocuments(required, have []string) []string {
	var missing []string
	for _, r := range required {
		lr := strings.ToLower(r)
		found := false
		for _, h := range have {
			lh := strings.ToLower(strings.TrimSpace(h))
			if lh != "" && (strings.Contains(lr, lh) || strings.Contains(lh, lr)) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, r)
		}
	}
	return missing
}
