package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/farmdata/models"
)

func searchSchemesTool() mcp.Tool {
	return mcp.NewTool("search_schemes",
		mcp.WithDescription("Search government agriculture schemes by keyword, category or status. Results are paginated."),
		mcp.WithString("query",
			mcp.Description("Keyword matched against scheme name, description and category, e.g. 'irrigation'"),
		),
		mcp.WithString("category",
			mcp.Description("Only schemes whose category contains this text, e.g. 'Insurance'"),
		),
		mcp.WithString("status",
			mcp.Description("Only schemes whose status contains this text, e.g. 'Active'"),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page number (default: 1)"),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Schemes per page (default: 20, max: 100)"),
		),
	)
}

func handleSearchSchemes(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := map[string]string{
			"q":        request.GetString("query", ""),
			"category": request.GetString("category", ""),
			"status":   request.GetString("status", ""),
		}
		if page := request.GetInt("page", 0); page > 0 {
			query["page"] = strconv.Itoa(page)
		}
		if size := request.GetInt("page_size", 0); size > 0 {
			query["page_size"] = strconv.Itoa(size)
		}

		var res models.SchemeSearchResult
		if err := c.get(ctx, "/api/v1/schemes", query, &res); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatSchemeList(res)), nil
	}
}

func getSchemeDetailsTool() mcp.Tool {
	return mcp.NewTool("get_scheme_details",
		mcp.WithDescription("Get the full details of a scheme: eligibility, benefits, required documents, deadline and how to apply."),
		mcp.WithString("scheme_id",
			mcp.Required(),
			mcp.Description("Scheme ID as returned by search_schemes, e.g. 'kisan-credit-card-kcc'"),
		),
	)
}

func handleGetSchemeDetails(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("scheme_id")
		if err != nil {
			return mcp.NewToolResultError("scheme_id is required"), nil
		}

		var resp models.SchemeResponse
		if err := c.get(ctx, "/api/v1/schemes/"+url.PathEscape(id), nil, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if resp.Scheme == nil {
			return mcp.NewToolResultError("scheme not found: " + id), nil
		}
		return mcp.NewToolResultText(formatScheme(*resp.Scheme)), nil
	}
}

func getMarketPricesTool() mcp.Tool {
	return mcp.NewTool("get_market_prices",
		mcp.WithDescription("Get the last week of daily mandi prices (Rs per quintal) for a commodity, newest first."),
		mcp.WithString("commodity",
			mcp.Required(),
			mcp.Description("Commodity name, e.g. 'Tomato', 'Wheat'"),
		),
		mcp.WithString("state",
			mcp.Description("State name, e.g. 'Maharashtra'"),
		),
		mcp.WithString("market",
			mcp.Description("Market (mandi) name, e.g. 'Pune'"),
		),
	)
}

func handleGetMarketPrices(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		commodity, err := request.RequireString("commodity")
		if err != nil {
			return mcp.NewToolResultError("commodity is required"), nil
		}

		var resp models.PricesResponse
		err = c.get(ctx, "/api/v1/prices", map[string]string{
			"commodity": commodity,
			"state":     request.GetString("state", ""),
			"market":    request.GetString("market", ""),
		}, &resp)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatPrices(resp)), nil
	}
}

func predictPricesTool() mcp.Tool {
	return mcp.NewTool("predict_prices",
		mcp.WithDescription("Forecast the daily modal price of a commodity with a confidence score per day."),
		mcp.WithString("commodity",
			mcp.Required(),
			mcp.Description("Commodity name, e.g. 'Onion'"),
		),
		mcp.WithString("state",
			mcp.Description("State name; adjusts the trend"),
		),
		mcp.WithString("market",
			mcp.Description("Market (mandi) name"),
		),
		mcp.WithNumber("days",
			mcp.Description("Forecast horizon in days (default: 30, max: 90)"),
		),
	)
}

func handlePredictPrices(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		commodity, err := request.RequireString("commodity")
		if err != nil {
			return mcp.NewToolResultError("commodity is required"), nil
		}
		query := map[string]string{
			"commodity": commodity,
			"state":     request.GetString("state", ""),
			"market":    request.GetString("market", ""),
		}
		if days := request.GetInt("days", 0); days > 0 {
			query["days"] = strconv.Itoa(days)
		}

		var resp models.PredictionResponse
		if err := c.get(ctx, "/api/v1/prices/prediction", query, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatPredictions(resp)), nil
	}
}

func checkEligibilityTool() mcp.Tool {
	return mcp.NewTool("check_eligibility",
		mcp.WithDescription("Check whether a farmer is eligible for a scheme and list missing documents."),
		mcp.WithString("scheme_id",
			mcp.Required(),
			mcp.Description("Scheme ID as returned by search_schemes"),
		),
		mcp.WithNumber("age",
			mcp.Description("Applicant age in years"),
		),
		mcp.WithString("land_ownership",
			mcp.Description("How the farmer holds land"),
			mcp.Enum("owner", "tenant", "sharecropper", "landless"),
		),
		mcp.WithNumber("land_size_acres",
			mcp.Description("Cultivated land in acres"),
		),
		mcp.WithNumber("annual_income",
			mcp.Description("Annual household income in rupees"),
		),
		mcp.WithString("state",
			mcp.Description("State of residence"),
		),
		mcp.WithArray("documents",
			mcp.Description("Documents the farmer already has, e.g. ['Aadhaar card', 'Bank account details']"),
			mcp.WithStringItems(),
		),
	)
}

func handleCheckEligibility(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("scheme_id")
		if err != nil {
			return mcp.NewToolResultError("scheme_id is required"), nil
		}
		profile := models.FarmerProfile{
			Age:           request.GetInt("age", 0),
			LandOwnership: request.GetString("land_ownership", ""),
			LandSizeAcres: request.GetFloat("land_size_acres", 0),
			AnnualIncome:  request.GetInt("annual_income", 0),
			State:         request.GetString("state", ""),
			Documents:     request.GetStringSlice("documents", nil),
		}

		var resp models.EligibilityResponse
		if err := c.post(ctx, "/api/v1/schemes/"+url.PathEscape(id)+"/eligibility", profile, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if resp.Result == nil {
			return mcp.NewToolResultError("eligibility check returned no result"), nil
		}
		return mcp.NewToolResultText(formatEligibility(*resp.Result)), nil
	}
}

func formatSchemeList(res models.SchemeSearchResult) string {
	var sb strings.Builder
	p := res.Pagination
	fmt.Fprintf(&sb, "Found %d schemes (page %d of %d)", p.TotalResults, p.CurrentPage, p.TotalPages)
	if res.SourceUsed == models.SourceTagFallback {
		sb.WriteString(" from the offline scheme list")
	}
	sb.WriteString("\n\n")
	for _, s := range res.Schemes {
		fmt.Fprintf(&sb, "- %s [%s]\n  id: %s | %s\n  %s\n", s.Name, s.Category, s.ID, s.Status, s.Description)
	}
	if p.HasNextPage {
		fmt.Fprintf(&sb, "\nMore results on page %d.\n", p.CurrentPage+1)
	}
	return sb.String()
}

func formatScheme(s models.Scheme) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\nCategory: %s | Status: %s\n", s.Name, s.Category, s.Status)
	if s.URL != "" {
		fmt.Fprintf(&sb, "Source: %s\n", s.URL)
	}
	fmt.Fprintf(&sb, "\n%s\n", s.Description)
	writeList(&sb, "Eligibility", s.Eligibility)
	writeList(&sb, "Benefits", s.Benefits)
	writeList(&sb, "Documents required", s.Documents)
	if s.Deadline != "" {
		fmt.Fprintf(&sb, "\nDeadline: %s\n", s.Deadline)
	}
	if s.ApplicationProcess != "" {
		fmt.Fprintf(&sb, "\nHow to apply:\n%s\n", s.ApplicationProcess)
	}
	if s.ContactInfo != "" {
		fmt.Fprintf(&sb, "\nContact: %s\n", s.ContactInfo)
	}
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(sb, "- %s\n", it)
	}
}

func formatPrices(resp models.PricesResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s prices (Rs/quintal)", resp.Commodity)
	if resp.Market != "" || resp.State != "" {
		fmt.Fprintf(&sb, " at %s", strings.Trim(resp.Market+", "+resp.State, ", "))
	}
	sb.WriteString("\n\n")
	synthetic := false
	for _, p := range resp.Prices {
		fmt.Fprintf(&sb, "%s  min %d  max %d  modal %d  (%s)\n",
			p.Date.Format("02 Jan 2006"), p.MinPrice, p.MaxPrice, p.ModalPrice, p.Market)
		if p.SourceTag == models.SourceTagSynthetic {
			synthetic = true
		}
	}
	if synthetic {
		sb.WriteString("\nNote: live market data was unavailable; these are estimated prices.\n")
	}
	return sb.String()
}

func formatPredictions(resp models.PredictionResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s price forecast for %d days (Rs/quintal)\n\n", resp.Commodity, resp.Days)
	for _, p := range resp.Predictions {
		fmt.Fprintf(&sb, "%s  %d  (confidence %.0f%%)\n", p.Date.Format("02 Jan 2006"), p.PredictedPrice, p.Confidence*100)
	}
	return sb.String()
}

func formatEligibility(r models.EligibilityResult) string {
	var sb strings.Builder
	verdict := "NOT eligible"
	if r.IsEligible {
		verdict = "eligible"
	}
	fmt.Fprintf(&sb, "%s: %s\n", r.SchemeName, verdict)
	writeList(&sb, "Reasons", r.Reasons)
	writeList(&sb, "Missing documents", r.MissingDocuments)
	return sb.String()
}
