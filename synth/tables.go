package synth

import (
	"math"
	"strings"
)

// defaultBasePrice applies to commodities missing from basePrices.
const defaultBasePrice = 2000

// basePrices are reference modal prices in rupees per quintal.
var basePrices = map[string]int{
	"rice":         2200,
	"paddy":        2183,
	"wheat":        2275,
	"maize":        2090,
	"jowar":        3180,
	"bajra":        2500,
	"ragi":         3846,
	"tomato":       1500,
	"onion":        1800,
	"potato":       1200,
	"green chilli": 3000,
	"brinjal":      1600,
	"cabbage":      1000,
	"banana":       2000,
	"cotton":       6620,
	"soybean":      4600,
	"sugarcane":    315,
	"groundnut":    6377,
	"mustard":      5650,
	"chana":        5440,
	"tur":          7000,
	"moong":        8558,
	"urad":         6950,
	"turmeric":     9000,
	"coconut":      3000,
}

// trendFactors is the amplitude of the market trend term per commodity.
var trendFactors = map[string]float64{
	"rice":      0.03,
	"paddy":     0.03,
	"wheat":     0.025,
	"maize":     0.04,
	"tomato":    0.08,
	"onion":     0.08,
	"potato":    0.06,
	"cotton":    0.05,
	"soybean":   0.05,
	"sugarcane": 0.02,
	"turmeric":  0.06,
}

const defaultTrendFactor = 0.04

// stateTrendAdjust scales the trend term for states whose mandis move
// more or less than the national average.
var stateTrendAdjust = map[string]float64{
	"maharashtra":    1.15,
	"karnataka":      1.1,
	"punjab":         0.9,
	"haryana":        0.9,
	"uttar pradesh":  1.0,
	"madhya pradesh": 1.05,
	"andhra pradesh": 1.1,
	"telangana":      1.1,
	"tamil nadu":     1.05,
	"gujarat":        1.0,
	"rajasthan":      1.0,
	"west bengal":    1.05,
	"bihar":          1.1,
}

// maxTrendFactor caps the adjusted trend amplitude.
const maxTrendFactor = 0.1

// seasonality describes the yearly cycle of a commodity: the amplitude of the
// seasonal term and the month in which prices usually peak.
type seasonality struct {
	amplitude float64
	peakMonth int
}

var seasonalFactors = map[string]seasonality{
	"rice":         {0.06, 8},
	"paddy":        {0.06, 8},
	"wheat":        {0.05, 1},
	"maize":        {0.07, 7},
	"tomato":       {0.15, 7},
	"onion":        {0.15, 10},
	"potato":       {0.12, 11},
	"green chilli": {0.12, 6},
	"cotton":       {0.08, 6},
	"soybean":      {0.08, 8},
	"groundnut":    {0.07, 8},
	"mustard":      {0.06, 12},
}

var defaultSeasonality = seasonality{amplitude: 0.08, peakMonth: 7}

// volatilityFactors is the amplitude of the noise term. Perishables swing most.
var volatilityFactors = map[string]float64{
	"tomato":       0.3,
	"onion":        0.28,
	"potato":       0.2,
	"green chilli": 0.25,
	"brinjal":      0.22,
	"cabbage":      0.22,
	"banana":       0.15,
	"rice":         0.08,
	"paddy":        0.08,
	"wheat":        0.08,
	"sugarcane":    0.05,
}

const defaultVolatilityFactor = 0.15

// aliases maps common local names onto table keys.
var aliases = map[string]string{
	"chilli":      "green chilli",
	"chillies":    "green chilli",
	"gram":        "chana",
	"bengal gram": "chana",
	"arhar":       "tur",
	"red gram":    "tur",
	"green gram":  "moong",
	"black gram":  "urad",
	"soyabean":    "soybean",
	"kapas":       "cotton",
	"rapeseed":    "mustard",
}

func commodityKey(commodity string) string {
	k := strings.ToLower(strings.TrimSpace(commodity))
	if a, ok := aliases[k]; ok {
		return a
	}
	return k
}

// BasePrice returns the reference price for a commodity.
func BasePrice(commodity string) int {
	if p, ok := basePrices[commodityKey(commodity)]; ok {
		return p
	}
	return defaultBasePrice
}

func trendFactor(commodity, state string) float64 {
	f, ok := trendFactors[commodityKey(commodity)]
	if !ok {
		f = defaultTrendFactor
	}
	if adj, ok := stateTrendAdjust[strings.ToLower(strings.TrimSpace(state))]; ok {
		f *= adj
	}
	return math.Min(f, maxTrendFactor)
}

// seasonalFactor is largest in the peak month and falls to a fifth of the
// amplitude six months away.
func seasonalFactor(commodity string, month int) float64 {
	s, ok := seasonalFactors[commodityKey(commodity)]
	if !ok {
		s = defaultSeasonality
	}
	phase := 2 * math.Pi * float64(month-s.peakMonth) / 12
	return s.amplitude * (0.6 + 0.4*math.Cos(phase))
}

func volatilityFactor(commodity string) float64 {
	if v, ok := volatilityFactors[commodityKey(commodity)]; ok {
		return v
	}
	return defaultVolatilityFactor
}
