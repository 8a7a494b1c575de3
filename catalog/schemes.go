package catalog

import (
	"context"
	"log/slog"

	"github.com/use-agent/farmdata/models"
	"github.com/use-agent/farmdata/search"
	"github.com/use-agent/farmdata/source"
	"github.com/use-agent/farmdata/synth"
)

func (c *Catalog) schemeRead() snapshotRead[models.Scheme] {
	return snapshotRead[models.Scheme]{
		key:   schemesKey,
		cache: c.schemeCache,
		fetch: func(ctx context.Context) *source.Result[models.Scheme] {
			return c.schemes.Fetch(ctx, source.Target{})
		},
		fallback: func() models.Snapshot[models.Scheme] {
			return models.Snapshot[models.Scheme]{
				Items:       synth.FallbackSchemes(c.now()),
				GeneratedAt: c.now(),
				SourceUsed:  models.SourceTagFallback,
				Fallback:    true,
			}
		},
	}
}

// SearchSchemes filters and pages the current scheme listing.
func (c *Catalog) SearchSchemes(ctx context.Context, q search.Query) models.SchemeSearchResult {
	snap := read(ctx, c, c.schemeRead())
	page := search.Paginate(snap.Items, q, search.SchemeField)
	return models.SchemeSearchResult{
		Schemes:    page.Items,
		Pagination: page.Pagination,
		SourceUsed: snap.SourceUsed,
	}
}

// GetSchemeDetails returns the scheme with its detail fields filled in.
// Schemes missing from the current listing are looked up in the fallback
// set. An unknown id yields a NOT_FOUND error.
func (c *Catalog) GetSchemeDetails(ctx context.Context, id string) (models.Scheme, error) {
	if s, ok := c.details.Get(id); ok {
		return s, nil
	}

	v, err, _ := c.flight.Do("detail:"+id, func() (any, error) {
		s, live, ok := c.findScheme(ctx, id)
		if !ok {
			return nil, models.NewError(models.ErrCodeNotFound, "scheme not found: "+id, nil)
		}
		s = c.enrich(ctx, s)
		s = c.withDefaultDetails(s)
		// Fallback views are rebuilt on every call so a recovered source
		// shows up as soon as the listing refreshes.
		if live {
			c.details.Add(id, s)
		}
		return s, nil
	})
	if err != nil {
		return models.Scheme{}, err
	}
	return v.(models.Scheme), nil
}

// findScheme looks id up in the current listing, then in the fallback set.
// live is true only for schemes taken from a real source's listing.
func (c *Catalog) findScheme(ctx context.Context, id string) (s models.Scheme, live, ok bool) {
	snap := read(ctx, c, c.schemeRead())
	for _, it := range snap.Items {
		if it.ID == id {
			return it, !snap.Fallback, true
		}
	}
	if !snap.Fallback {
		for _, it := range synth.FallbackSchemes(c.now()) {
			if it.ID == id {
				return it, false, true
			}
		}
	}
	return models.Scheme{}, false, false
}

// enrich runs the detail source under the request deadline. Failures keep
// the listing fields.
func (c *Catalog) enrich(ctx context.Context, s models.Scheme) models.Scheme {
	if c.detail == nil || s.URL == "" || s.HasDetails() {
		return s
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RequestDeadline)
	defer cancel()

	enriched, err := c.detail.Enrich(ctx, s)
	if err != nil {
		slog.Warn("catalog: detail enrichment failed", "scheme", s.ID, "error", err)
		return s
	}
	return enriched
}

// withDefaultDetails fills detail fields a source left empty, preferring the
// curated entry for the same scheme.
func (c *Catalog) withDefaultDetails(s models.Scheme) models.Scheme {
	var curated models.Scheme
	for _, f := range synth.FallbackSchemes(c.now()) {
		if f.ID == s.ID {
			curated = f
			break
		}
	}

	if len(s.Eligibility) == 0 {
		s.Eligibility = firstNonEmpty(curated.Eligibility, []string{"Indian farmers as notified in the scheme guidelines"})
	}
	if len(s.Benefits) == 0 {
		s.Benefits = firstNonEmpty(curated.Benefits, []string{"As notified in the scheme guidelines"})
	}
	if len(s.Documents) == 0 {
		s.Documents = firstNonEmpty(curated.Documents, []string{"Aadhaar card", "Bank account details", "Land records"})
	}
	if s.Deadline == "" {
		s.Deadline = orDefault(curated.Deadline, "Open throughout the year")
	}
	if s.ApplicationProcess == "" {
		s.ApplicationProcess = orDefault(curated.ApplicationProcess, "Apply online on the scheme portal or through the nearest Common Service Centre.")
	}
	if s.ContactInfo == "" {
		s.ContactInfo = orDefault(curated.ContactInfo, "Kisan Call Centre 1800-180-1551")
	}
	return s
}

func firstNonEmpty(a, b []string) []string {
	if len(a) > 0 {
		return a
	}
	return b
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
