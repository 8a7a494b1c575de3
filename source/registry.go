package source

import (
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/use-agent/farmdata/config"
	"github.com/use-agent/farmdata/models"
)

// Deps are the shared clients handed to the adapters.
type Deps struct {
	HTTP *resty.Client

	// Pages renders JavaScript pages. Browser-backed sources are skipped
	// when it is nil.
	Pages PageFetcher
}

// Registry holds the descriptors built from the source table.
type Registry struct {
	Schemes []Descriptor[models.Scheme]
	Prices  []Descriptor[models.PriceRecord]

	// Detail is the first enabled detail source, or nil.
	Detail *DetailPage
}

// Build constructs adapters for every enabled source. Disabled rows are
// skipped without validation so the built-in table can carry placeholders.
func Build(sources []config.SourceConfig, deps Deps) (*Registry, error) {
	if deps.HTTP == nil {
		deps.HTTP = NewHTTPClient(config.DefaultUserAgent)
	}
	reg := &Registry{}
	for _, sc := range sources {
		if !sc.Enabled {
			continue
		}
		if err := reg.add(sc, deps); err != nil {
			return nil, err
		}
	}
	slog.Info("sources configured",
		"schemes", len(reg.Schemes),
		"prices", len(reg.Prices),
		"detail", reg.Detail != nil,
	)
	return reg, nil
}

func (r *Registry) add(sc config.SourceConfig, deps Deps) error {
	switch sc.Kind {
	case config.KindAgmarknetAPI:
		if sc.Catalog != config.CatalogPrices {
			return kindMismatch(sc)
		}
		r.Prices = append(r.Prices, descriptor[models.PriceRecord](sc, NewAgmarknetAPI(sc.Name, sc.URL, sc.APIKey, deps.HTTP)))

	case config.KindPortalHTML:
		if sc.Catalog != config.CatalogSchemes {
			return kindMismatch(sc)
		}
		p, err := NewPortalHTML(sc.Name, sc.URL, sc.Selectors, deps.HTTP)
		if err != nil {
			return err
		}
		r.Schemes = append(r.Schemes, descriptor[models.Scheme](sc, p))

	case config.KindPortalBrowser:
		if sc.Catalog != config.CatalogSchemes {
			return kindMismatch(sc)
		}
		if deps.Pages == nil {
			slog.Warn("browser disabled, skipping source", "source", sc.Name)
			return nil
		}
		p, err := NewPortalBrowser(sc.Name, sc.URL, sc.Selectors, deps.Pages)
		if err != nil {
			return err
		}
		r.Schemes = append(r.Schemes, descriptor[models.Scheme](sc, p))

	case config.KindPriceTableBrowser:
		if sc.Catalog != config.CatalogPrices {
			return kindMismatch(sc)
		}
		if deps.Pages == nil {
			slog.Warn("browser disabled, skipping source", "source", sc.Name)
			return nil
		}
		p, err := NewPriceTableBrowser(sc.Name, sc.URL, sc.Selectors, deps.Pages)
		if err != nil {
			return err
		}
		r.Prices = append(r.Prices, descriptor[models.PriceRecord](sc, p))

	case config.KindDetailPage:
		if sc.Catalog != config.CatalogDetails {
			return kindMismatch(sc)
		}
		if r.Detail == nil {
			r.Detail = NewDetailPage(sc.Name, deps.HTTP)
		}

	default:
		return fmt.Errorf("source %q: unknown kind %q", sc.Name, sc.Kind)
	}
	return nil
}

func descriptor[T any](sc config.SourceConfig, f Fetcher[T]) Descriptor[T] {
	return Descriptor[T]{
		Name:     sc.Name,
		Priority: sc.Priority,
		Enabled:  sc.Enabled,
		Timeout:  sc.Timeout,
		Source:   f,
	}
}

func kindMismatch(sc config.SourceConfig) error {
	return fmt.Errorf("source %q: kind %q cannot serve catalog %q", sc.Name, sc.Kind, sc.Catalog)
}
