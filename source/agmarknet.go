package source

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/use-agent/farmdata/models"
)

// maxRecentRecords is how many daily records a price lookup returns.
const maxRecentRecords = 7

// AgmarknetAPI reads daily mandi prices from the data.gov.in Agmarknet
// resource.
type AgmarknetAPI struct {
	name   string
	url    string
	apiKey string
	client *resty.Client
}

// NewAgmarknetAPI creates the adapter. url is the resource endpoint.
func NewAgmarknetAPI(name, url, apiKey string, client *resty.Client) *AgmarknetAPI {
	return &AgmarknetAPI{name: name, url: url, apiKey: apiKey, client: client}
}

type agmarknetResponse struct {
	Records []agmarknetRecord `json:"records"`
}

type agmarknetRecord struct {
	State       string  `json:"state"`
	District    string  `json:"district"`
	Market      string  `json:"market"`
	Commodity   string  `json:"commodity"`
	ArrivalDate string  `json:"arrival_date"`
	MinPrice    flexInt `json:"min_price"`
	MaxPrice    flexInt `json:"max_price"`
	ModalPrice  flexInt `json:"modal_price"`
}

// flexInt accepts both JSON numbers and numeric strings; the resource has
// served both over time.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" || s == "NR" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return fmt.Errorf("agmarknet: bad price %q: %w", s, err)
	}
	*f = flexInt(v + 0.5)
	return nil
}

// Fetch returns up to the seven most recent records, newest first.
func (a *AgmarknetAPI) Fetch(ctx context.Context, target Target) ([]models.PriceRecord, error) {
	if target.Commodity == "" {
		return nil, models.NewError(models.ErrCodeInvalidInput, "commodity is required", nil)
	}

	query := map[string]string{
		"format":             "json",
		"limit":              "100",
		"filters[commodity]": target.Commodity,
	}
	if a.apiKey != "" {
		query["api-key"] = a.apiKey
	}
	if target.State != "" {
		query["filters[state]"] = target.State
	}
	if target.Market != "" {
		query["filters[market]"] = target.Market
	}

	body, err := getBody(ctx, a.client, a.url, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}
	return parseAgmarknet(body, a.name)
}

// parseAgmarknet decodes a resource payload into normalized records.
func parseAgmarknet(body []byte, tag string) ([]models.PriceRecord, error) {
	var resp agmarknetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("agmarknet: decode: %w", err)
	}

	records := make([]models.PriceRecord, 0, len(resp.Records))
	for _, r := range resp.Records {
		date, ok := parseDate(r.ArrivalDate)
		if !ok || r.ModalPrice <= 0 {
			continue
		}
		market := r.Market
		if market == "" {
			market = r.District
		}
		rec := models.PriceRecord{
			Date:       date,
			MinPrice:   int(r.MinPrice),
			MaxPrice:   int(r.MaxPrice),
			ModalPrice: int(r.ModalPrice),
			Commodity:  r.Commodity,
			Market:     market,
			State:      r.State,
			SourceTag:  tag,
		}
		rec.Normalize()
		records = append(records, rec)
	}
	return newestFirst(records), nil
}

// newestFirst sorts by date descending and keeps the most recent records.
func newestFirst(records []models.PriceRecord) []models.PriceRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
	if len(records) > maxRecentRecords {
		records = records[:maxRecentRecords]
	}
	return records
}

var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02 Jan 2006",
	"02-01-2006",
	"2 Jan 2006",
	time.RFC3339,
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
