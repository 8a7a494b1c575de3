package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/go-resty/resty/v2"
	"github.com/use-agent/farmdata/config"
	"github.com/use-agent/farmdata/models"
	"golang.org/x/net/html"
)

// PageFetcher renders a URL and returns its HTML. *browser.Manager
// implements it.
type PageFetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Default listing field values for portals that do not publish them.
const (
	defaultCategory = "Agriculture"
	defaultStatus   = "Active"
)

// newTextConverter builds the converter used to flatten description markup.
// Converters are safe for concurrent use.
func newTextConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
}

// compileSelector parses expr, returning nil for an empty expression.
func compileSelector(field, expr string) (cascadia.Sel, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	sel, err := cascadia.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("source: invalid %s selector %q: %w", field, expr, err)
	}
	return sel, nil
}

// selection wraps a node for goquery's text and attribute helpers.
func selection(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

// firstMatch returns the first descendant of n matching sel, or nil.
func firstMatch(n *html.Node, sel cascadia.Sel) *html.Node {
	if sel == nil {
		return nil
	}
	return cascadia.Query(n, sel)
}

// cleanText collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	return cleanText(selection(n).Text())
}

// listingParser extracts scheme listings from portal markup using the
// operator's selectors.
type listingParser struct {
	row, name, description, category, status, link cascadia.Sel
	conv                                           *converter.Converter
}

func newListingParser(sc config.SelectorConfig) (*listingParser, error) {
	if sc.Row == "" || sc.Name == "" {
		return nil, fmt.Errorf("source: listing selectors need row and name")
	}
	p := &listingParser{conv: newTextConverter()}
	fields := []struct {
		name string
		expr string
		dst  *cascadia.Sel
	}{
		{"row", sc.Row, &p.row},
		{"name", sc.Name, &p.name},
		{"description", sc.Description, &p.description},
		{"category", sc.Category, &p.category},
		{"status", sc.Status, &p.status},
		{"link", sc.Link, &p.link},
	}
	for _, f := range fields {
		sel, err := compileSelector(f.name, f.expr)
		if err != nil {
			return nil, err
		}
		*f.dst = sel
	}
	return p, nil
}

// parse returns one scheme per row with a non-empty name. Rows whose ID was
// already seen are dropped so IDs stay unique within the result.
func (p *listingParser) parse(raw, pageURL, sourceName string) ([]models.Scheme, error) {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("source: parse html: %w", err)
	}
	pageBase, _ := url.Parse(pageURL)

	rows := cascadia.QueryAll(root, p.row)
	schemes := make([]models.Scheme, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		name := nodeText(firstMatch(row, p.name))
		id := models.SchemeID(name)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		s := models.Scheme{
			ID:          id,
			Name:        name,
			Description: p.markdown(firstMatch(row, p.description)),
			Category:    nodeText(firstMatch(row, p.category)),
			Status:      nodeText(firstMatch(row, p.status)),
			URL:         resolveLink(pageBase, firstMatch(row, p.link)),
			Source:      sourceName,
		}
		if s.Category == "" {
			s.Category = defaultCategory
		}
		if s.Status == "" {
			s.Status = defaultStatus
		}
		if s.Description == "" {
			s.Description = name
		}
		schemes = append(schemes, s)
	}
	return schemes, nil
}

// markdown renders a description node to plain markdown text.
func (p *listingParser) markdown(n *html.Node) string {
	if n == nil {
		return ""
	}
	inner, err := selection(n).Html()
	if err != nil {
		return nodeText(n)
	}
	md, err := p.conv.ConvertString(inner)
	if err != nil {
		return nodeText(n)
	}
	return cleanText(md)
}

// resolveLink returns the absolute href of n, or of its first anchor.
func resolveLink(baseURL *url.URL, n *html.Node) string {
	if n == nil {
		return ""
	}
	sel := selection(n)
	href, ok := sel.Attr("href")
	if !ok {
		href, ok = sel.Find("a[href]").First().Attr("href")
	}
	if !ok || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if baseURL == nil {
		return ref.String()
	}
	return baseURL.ResolveReference(ref).String()
}

// PortalHTML reads a scheme listing from a server-rendered portal page.
type PortalHTML struct {
	name   string
	url    string
	client *resty.Client
	parser *listingParser
}

// NewPortalHTML validates the selectors and creates the adapter.
func NewPortalHTML(name, pageURL string, sc config.SelectorConfig, client *resty.Client) (*PortalHTML, error) {
	parser, err := newListingParser(sc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &PortalHTML{name: name, url: pageURL, client: client, parser: parser}, nil
}

func (p *PortalHTML) Fetch(ctx context.Context, _ Target) ([]models.Scheme, error) {
	body, err := getBody(ctx, p.client, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	return p.parser.parse(string(body), p.url, p.name)
}

// PortalBrowser reads a scheme listing from a page that needs JavaScript,
// rendering it on the shared browser session.
type PortalBrowser struct {
	name   string
	url    string
	pages  PageFetcher
	parser *listingParser
}

// NewPortalBrowser validates the selectors and creates the adapter.
func NewPortalBrowser(name, pageURL string, sc config.SelectorConfig, pages PageFetcher) (*PortalBrowser, error) {
	parser, err := newListingParser(sc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &PortalBrowser{name: name, url: pageURL, pages: pages, parser: parser}, nil
}

func (p *PortalBrowser) Fetch(ctx context.Context, _ Target) ([]models.Scheme, error) {
	raw, err := p.pages.FetchHTML(ctx, p.url)
	if err != nil {
		return nil, err
	}
	return p.parser.parse(raw, p.url, p.name)
}

// priceTableParser extracts daily price rows from a rendered table.
type priceTableParser struct {
	row, date, market, min, max, modal cascadia.Sel
}

func newPriceTableParser(sc config.SelectorConfig) (*priceTableParser, error) {
	if sc.Row == "" || sc.Modal == "" || sc.Date == "" {
		return nil, fmt.Errorf("source: price table selectors need row, date and modal")
	}
	p := &priceTableParser{}
	fields := []struct {
		name string
		expr string
		dst  *cascadia.Sel
	}{
		{"row", sc.Row, &p.row},
		{"date", sc.Date, &p.date},
		{"market", sc.Market, &p.market},
		{"min", sc.Min, &p.min},
		{"max", sc.Max, &p.max},
		{"modal", sc.Modal, &p.modal},
	}
	for _, f := range fields {
		sel, err := compileSelector(f.name, f.expr)
		if err != nil {
			return nil, err
		}
		*f.dst = sel
	}
	return p, nil
}

func (p *priceTableParser) parse(raw string, target Target, tag string) ([]models.PriceRecord, error) {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("source: parse html: %w", err)
	}

	var records []models.PriceRecord
	for _, row := range cascadia.QueryAll(root, p.row) {
		date, ok := parseDate(nodeText(firstMatch(row, p.date)))
		if !ok {
			continue
		}
		modal := parsePrice(nodeText(firstMatch(row, p.modal)))
		if modal <= 0 {
			continue
		}
		market := nodeText(firstMatch(row, p.market))
		if market == "" {
			market = target.Market
		}
		rec := models.PriceRecord{
			Date:       date,
			MinPrice:   parsePrice(nodeText(firstMatch(row, p.min))),
			MaxPrice:   parsePrice(nodeText(firstMatch(row, p.max))),
			ModalPrice: modal,
			Commodity:  target.Commodity,
			Market:     market,
			State:      target.State,
			SourceTag:  tag,
		}
		rec.Normalize()
		records = append(records, rec)
	}
	return newestFirst(records), nil
}

// parsePrice reads a rupee amount such as "1,250.00", returning 0 when the
// cell holds no number.
func parsePrice(s string) int {
	s = strings.NewReplacer(",", "", "₹", "", "Rs.", "", " ", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return int(v + 0.5)
}

// PriceTableBrowser renders a price search page on the shared browser
// session and parses its result table. The URL may contain {commodity},
// {state} and {market} placeholders.
type PriceTableBrowser struct {
	name   string
	url    string
	pages  PageFetcher
	parser *priceTableParser
}

// NewPriceTableBrowser validates the selectors and creates the adapter.
func NewPriceTableBrowser(name, pageURL string, sc config.SelectorConfig, pages PageFetcher) (*PriceTableBrowser, error) {
	parser, err := newPriceTableParser(sc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &PriceTableBrowser{name: name, url: pageURL, pages: pages, parser: parser}, nil
}

func (p *PriceTableBrowser) Fetch(ctx context.Context, target Target) ([]models.PriceRecord, error) {
	if target.Commodity == "" {
		return nil, models.NewError(models.ErrCodeInvalidInput, "commodity is required", nil)
	}
	raw, err := p.pages.FetchHTML(ctx, expandURL(p.url, target))
	if err != nil {
		return nil, err
	}
	return p.parser.parse(raw, target, p.name)
}

// expandURL fills the target placeholders of a URL template.
func expandURL(tmpl string, t Target) string {
	return strings.NewReplacer(
		"{commodity}", url.QueryEscape(t.Commodity),
		"{state}", url.QueryEscape(t.State),
		"{market}", url.QueryEscape(t.Market),
	).Replace(tmpl)
}
