package synth

import (
	"time"

	"github.com/use-agent/farmdata/models"
)

// FallbackSchemes returns the curated central-government scheme set served
// when no scheme source answers. Seasonal deadlines are computed relative to
// now. The result is a fresh slice on every call.
func FallbackSchemes(now time.Time) []models.Scheme {
	kharif := nextDeadline(now, time.July, 31)
	rabi := nextDeadline(now, time.December, 31)

	schemes := []models.Scheme{
		{
			Name:        "Pradhan Mantri Kisan Samman Nidhi (PM-KISAN)",
			Description: "Income support of Rs 6,000 per year to landholding farmer families, paid in three equal instalments directly into bank accounts.",
			Category:    "Income Support",
			Status:      "Active",
			URL:         "https://pmkisan.gov.in/",
			Eligibility: []string{
				"Landholding farmer families with cultivable land in their name",
				"Income tax payers and institutional landholders are excluded",
			},
			Benefits:           []string{"Rs 2,000 every four months by direct benefit transfer"},
			Documents:          []string{"Aadhaar card", "Land records", "Bank account details"},
			Deadline:           "Open throughout the year",
			ApplicationProcess: "Register on the PM-KISAN portal or through a Common Service Centre; e-KYC is mandatory.",
			ContactInfo:        "PM-KISAN helpline 155261 / 011-24300606",
		},
		{
			Name:        "Pradhan Mantri Krishi Sinchayee Yojana (PMKSY)",
			Description: "Har Khet Ko Pani: expands irrigation coverage and improves water use efficiency through irrigation infrastructure and watershed works.",
			Category:    "Irrigation",
			Status:      "Active",
			URL:         "https://pmksy.gov.in/",
			Eligibility: []string{
				"Individual farmers, farmer groups and cooperatives",
				"Priority to rainfed and drought-prone areas",
			},
			Benefits:           []string{"Assured irrigation for cultivable area", "Support for water harvesting structures"},
			Documents:          []string{"Aadhaar card", "Land records", "Bank account details"},
			Deadline:           "Open throughout the year",
			ApplicationProcess: "Apply through the district agriculture or irrigation office.",
			ContactInfo:        "District agriculture office",
		},
		{
			Name:        "Per Drop More Crop (Micro Irrigation)",
			Description: "Subsidy for drip and sprinkler irrigation systems to save water and raise yields.",
			Category:    "Irrigation",
			Status:      "Active",
			URL:         "https://pmksy.gov.in/microirrigation/",
			Eligibility: []string{
				"All categories of farmers",
				"Members of cooperatives, self help groups and producer organisations",
			},
			Benefits:           []string{"55% subsidy for small and marginal farmers", "45% subsidy for other farmers"},
			Documents:          []string{"Aadhaar card", "Bank account details", "Quotation from registered supplier"},
			Deadline:           "Open throughout the year",
			ApplicationProcess: "Apply on the state micro irrigation portal; the system is installed by a registered supplier after approval.",
			ContactInfo:        "State horticulture or agriculture department",
		},
		{
			Name:        "Pradhan Mantri Fasal Bima Yojana (PMFBY)",
			Description: "Crop insurance against yield losses from natural calamities, pests and diseases at low farmer premiums.",
			Category:    "Crop Insurance",
			Status:      "Active",
			URL:         "https://pmfby.gov.in/",
			Eligibility: []string{
				"All farmers growing notified crops in notified areas, including sharecroppers and tenant farmers",
			},
			Benefits: []string{
				"Premium of 2% for kharif, 1.5% for rabi and 5% for commercial crops",
				"Claims settled directly to bank accounts",
			},
			Documents:          []string{"Aadhaar card", "Bank account details", "Sowing certificate"},
			Deadline:           "Kharif enrolment closes " + kharif.Format("02 Jan 2006") + ", rabi enrolment closes " + rabi.Format("02 Jan 2006"),
			ApplicationProcess: "Enrol through a bank, Common Service Centre or the PMFBY portal before the seasonal cut-off.",
			ContactInfo:        "Crop insurance helpline 14447",
		},
		{
			Name:        "Kisan Credit Card (KCC)",
			Description: "Short-term crop loans and working capital at concessional interest with prompt repayment incentives.",
			Category:    "Credit",
			Status:      "Active",
			URL:         "https://www.myscheme.gov.in/schemes/kcc",
			Eligibility: []string{
				"Owner cultivators, tenant farmers, oral lessees and sharecroppers",
				"Self help groups and joint liability groups of farmers",
			},
			Benefits:           []string{"Loans up to Rs 3 lakh at 7% interest", "3% prompt repayment incentive"},
			Documents:          []string{"Aadhaar card", "Land records", "Passport size photograph"},
			Deadline:           "Open throughout the year",
			ApplicationProcess: "Apply at any commercial, cooperative or regional rural bank branch.",
			ContactInfo:        "Nearest bank branch",
		},
		{
			Name:               "Soil Health Card Scheme",
			Description:        "Free soil testing with crop-wise nutrient and fertiliser recommendations every two years.",
			Category:           "Soil Health",
			Status:             "Active",
			URL:                "https://soilhealth.dac.gov.in/",
			Eligibility:        []string{"All farmers"},
			Benefits:           []string{"Soil test report with fertiliser recommendations"},
			Documents:          []string{"Aadhaar card"},
			Deadline:           "Open throughout the year",
			ApplicationProcess: "Soil samples are collected by the agriculture department; cards are issued through the portal.",
			ContactInfo:        "District soil testing laboratory",
		},
		{
			Name:               "Paramparagat Krishi Vikas Yojana (PKVY)",
			Description:        "Cluster-based support for organic farming, certification and marketing of organic produce.",
			Category:           "Organic Farming",
			Status:             "Active",
			URL:                "https://pgsindia-ncof.gov.in/pkvy/",
			Eligibility:        []string{"Farmers forming clusters of 20 hectares"},
			Benefits:           []string{"Rs 50,000 per hectare over three years"},
			Documents:          []string{"Aadhaar card", "Bank account details"},
			Deadline:           "Open throughout the year",
			ApplicationProcess: "Join a cluster through the district agriculture office.",
			ContactInfo:        "District agriculture office",
		},
		{
			Name:               "Sub-Mission on Agricultural Mechanization (SMAM)",
			Description:        "Subsidy on farm machinery and support for custom hiring centres.",
			Category:           "Mechanization",
			Status:             "Active",
			URL:                "https://agrimachinery.nic.in/",
			Eligibility:        []string{"All farmers; higher assistance for small, marginal, SC, ST and women farmers"},
			Benefits:           []string{"40-50% subsidy on approved machinery"},
			Documents:          []string{"Aadhaar card", "Bank account details", "Land records"},
			Deadline:           "Open throughout the year",
			ApplicationProcess: "Apply on the agricultural machinery portal and purchase from an approved dealer.",
			ContactInfo:        "State agriculture engineering department",
		},
		{
			Name:        "Pradhan Mantri Kisan Maandhan Yojana (PM-KMY)",
			Description: "Voluntary contributory pension of Rs 3,000 per month after age 60 for small and marginal farmers.",
			Category:    "Pension",
			Status:      "Active",
			URL:         "https://maandhan.in/",
			Eligibility: []string{
				"Small and marginal farmers aged 18 to 40 years",
			},
			Benefits:           []string{"Assured pension of Rs 3,000 per month from age 60"},
			Documents:          []string{"Aadhaar card", "Bank account details"},
			Deadline:           "Open throughout the year",
			ApplicationProcess: "Enrol at a Common Service Centre; the government matches the monthly contribution.",
			ContactInfo:        "Common Service Centre",
		},
		{
			Name:        "Integrated Watershed and Land Development Programme",
			Description: "Land development, soil conservation and watershed treatment on farmers' own land.",
			Category:    "Land Development",
			Status:      "Active",
			URL:         "https://dolr.gov.in/",
			Eligibility: []string{
				"Farmers owning land within a sanctioned watershed project area",
			},
			Benefits:           []string{"Bunding, levelling and soil conservation works on private land"},
			Documents:          []string{"Aadhaar card", "Land records"},
			Deadline:           "Open throughout the year",
			ApplicationProcess: "Apply through the watershed committee of the project village.",
			ContactInfo:        "District watershed development unit",
		},
		{
			Name:               "National Agriculture Market (e-NAM)",
			Description:        "Online trading platform linking APMC mandis for transparent price discovery.",
			Category:           "Market Access",
			Status:             "Active",
			URL:                "https://enam.gov.in/",
			Eligibility:        []string{"All farmers and farmer producer organisations"},
			Benefits:           []string{"Access to buyers across mandis", "Online payment to bank accounts"},
			Documents:          []string{"Aadhaar card", "Bank account details"},
			Deadline:           "Open throughout the year",
			ApplicationProcess: "Register on the e-NAM portal or at the mandi gate.",
			ContactInfo:        "e-NAM helpline 1800-270-0224",
		},
		{
			Name:               "Agriculture Infrastructure Fund",
			Description:        "Interest subvention and credit guarantee on loans for post-harvest infrastructure and community farm assets.",
			Category:           "Credit",
			Status:             "Active",
			URL:                "https://agriinfra.dac.gov.in/",
			Eligibility:        []string{"Farmers, FPOs, cooperatives and agri-entrepreneurs"},
			Benefits:           []string{"3% interest subvention on loans up to Rs 2 crore"},
			Documents:          []string{"Aadhaar card", "Detailed project report", "Bank account details"},
			Deadline:           "Open until 2032-33",
			ApplicationProcess: "Apply on the AIF portal; the lending bank sanctions the loan.",
			ContactInfo:        "agriinfra-dac@gov.in",
		},
	}

	for i := range schemes {
		schemes[i].ID = models.SchemeID(schemes[i].Name)
		schemes[i].Source = models.SourceTagFallback
	}
	return schemes
}

// nextDeadline returns the next occurrence of month/day on or after now.
func nextDeadline(now time.Time, month time.Month, day int) time.Time {
	d := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	if d.Before(startOfDay(now)) {
		d = d.AddDate(1, 0, 0)
	}
	return d
}
