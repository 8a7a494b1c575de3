package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/go-shiori/go-readability"
	"github.com/use-agent/farmdata/models"
)

// maxProcessLen bounds the application process text taken from a page body.
const maxProcessLen = 1200

// DetailPage enriches a scheme from its own detail page. The main content is
// isolated with readability and headed sections are mapped onto the detail
// fields.
type DetailPage struct {
	name   string
	client *resty.Client
	conv   *converter.Converter
}

// NewDetailPage creates the enricher.
func NewDetailPage(name string, client *resty.Client) *DetailPage {
	return &DetailPage{name: name, client: client, conv: newTextConverter()}
}

// Name returns the configured source name.
func (d *DetailPage) Name() string { return d.name }

// Enrich returns s with the fields found on its detail page filled in.
// Fields already present on s are kept.
func (d *DetailPage) Enrich(ctx context.Context, s models.Scheme) (models.Scheme, error) {
	if s.URL == "" {
		return s, models.NewError(models.ErrCodeScrape, "scheme has no detail url", nil)
	}
	pageURL, err := url.Parse(s.URL)
	if err != nil {
		return s, models.NewError(models.ErrCodeInvalidInput, "invalid detail url", err)
	}

	body, err := getBody(ctx, d.client, s.URL, nil)
	if err != nil {
		return s, fmt.Errorf("%s: %w", d.name, err)
	}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return s, models.NewError(models.ErrCodeScrape, "readability extraction failed", err)
	}

	return d.apply(s, article.Content, article.Excerpt), nil
}

// apply maps readable content onto the scheme's detail fields.
func (d *DetailPage) apply(s models.Scheme, content, excerpt string) models.Scheme {
	if excerpt = cleanText(excerpt); len(excerpt) > len(s.Description) {
		s.Description = excerpt
	}
	if content == "" {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return s
	}
	sections := headedLists(doc)

	if len(s.Eligibility) == 0 {
		s.Eligibility = sections["eligibility"]
	}
	if len(s.Benefits) == 0 {
		s.Benefits = sections["benefits"]
	}
	if len(s.Documents) == 0 {
		s.Documents = sections["documents"]
	}
	if s.ApplicationProcess == "" {
		if steps := sections["apply"]; len(steps) > 0 {
			s.ApplicationProcess = strings.Join(steps, " ")
		} else if md, err := d.conv.ConvertString(content); err == nil {
			s.ApplicationProcess = truncate(cleanText(md), maxProcessLen)
		}
	}
	if s.ContactInfo == "" {
		if lines := sections["contact"]; len(lines) > 0 {
			s.ContactInfo = strings.Join(lines, "; ")
		}
	}
	return s
}

// sectionKeys maps heading keywords to detail fields.
var sectionKeys = []struct {
	keyword string
	field   string
}{
	{"eligib", "eligibility"},
	{"benefit", "benefits"},
	{"document", "documents"},
	{"apply", "apply"},
	{"application process", "apply"},
	{"contact", "contact"},
	{"helpline", "contact"},
}

// headedLists collects the list items that follow each recognised heading,
// up to the next heading.
func headedLists(doc *goquery.Document) map[string][]string {
	out := make(map[string][]string)
	doc.Find("h1, h2, h3, h4, h5").Each(func(_ int, h *goquery.Selection) {
		heading := strings.ToLower(cleanText(h.Text()))
		field := ""
		for _, k := range sectionKeys {
			if strings.Contains(heading, k.keyword) {
				field = k.field
				break
			}
		}
		if field == "" || len(out[field]) > 0 {
			return
		}
		var items []string
		h.NextUntil("h1, h2, h3, h4, h5").Find("li").Each(func(_ int, li *goquery.Selection) {
			if t := cleanText(li.Text()); t != "" {
				items = append(items, t)
			}
		})
		if len(items) == 0 {
			if t := cleanText(h.NextUntil("h1, h2, h3, h4, h5").Filter("p").First().Text()); t != "" {
				items = []string{t}
			}
		}
		out[field] = items
	})
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := strings.LastIndexByte(s[:n], ' ')
	if cut <= 0 {
		cut = n
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
	}
	return s[:cut] + "…"
}
