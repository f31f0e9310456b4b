package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"skin-analysis-service/logging"
	"skin-analysis-service/metrics"
)

// SearchEngine returns result links for a web query.
type SearchEngine interface {
	Search(ctx context.Context, query string, num int64) ([]string, error)
}

// GoogleConfig configures the Programmable Search client.
type GoogleConfig struct {
	APIKey   string
	EngineID string
	// Endpoint overrides the API base URL, e.g. for tests.
	Endpoint string
	Timeout  time.Duration
}

// GoogleSearch queries Google Programmable Search behind a circuit breaker.
type GoogleSearch struct {
	svc     *customsearch.Service
	cx      string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[[]string]
}

func NewGoogleSearch(ctx context.Context, cfg GoogleConfig) (*GoogleSearch, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create search client: %w", err)
	}

	const name = "google-search"
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return &GoogleSearch{
		svc:     svc,
		cx:      cfg.EngineID,
		timeout: cfg.Timeout,
		cb:      gobreaker.NewCircuitBreaker[[]string](st),
	}, nil
}

// Search returns up to num result links. An empty slice means the query had no
// results.
func (g *GoogleSearch) Search(ctx context.Context, query string, num int64) ([]string, error) {
	links, err := g.cb.Execute(func() ([]string, error) {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		res, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(num).Context(callCtx).Do()
		if err != nil {
			return nil, err
		}
		links := make([]string, 0, len(res.Items))
		for _, it := range res.Items {
			if it.Link != "" {
				links = append(links, it.Link)
			}
		}
		return links, nil
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.SearchRequests.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("search %q: %w", query, err)
	case err != nil:
		metrics.SearchRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search %q: %w", query, err)
	case len(links) == 0:
		metrics.SearchRequests.WithLabelValues("empty").Inc()
	default:
		metrics.SearchRequests.WithLabelValues("ok").Inc()
	}
	return links, nil
}
