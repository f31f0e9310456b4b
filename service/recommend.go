package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"skin-analysis-service/cache"
	"skin-analysis-service/catalog"
	"skin-analysis-service/logging"
	"skin-analysis-service/metrics"
	"skin-analysis-service/scraper"
)

// ErrUnknownIssue is returned for labels outside the classifier's label set.
var ErrUnknownIssue = errors.New("unknown skin issue")

// ProductSearcher finds products for a free-text query.
type ProductSearcher interface {
	Search(ctx context.Context, query string, count int, minRating *float64) ([]scraper.Product, error)
}

type RecommendService struct {
	products ProductSearcher
	cache    *cache.Cache[[]scraper.Product]
}

func NewRecommendService(products ProductSearcher, c *cache.Cache[[]scraper.Product]) *RecommendService {
	return &RecommendService{products: products, cache: c}
}

// QueryFor builds the search query for label. Keywords are crossed with the
// label's product types when it has any, otherwise used on their own.
func QueryFor(label string) (string, bool) {
	keywords, ok := catalog.Keywords(label)
	if !ok {
		return "", false
	}

	types := catalog.ProductTypes(label)
	if len(types) == 0 {
		return strings.Join(keywords[:min(len(keywords), 6)], " OR "), true
	}

	var queries []string
	for _, k := range keywords[:min(len(keywords), 2)] {
		for _, t := range types[:min(len(types), 2)] {
			queries = append(queries, k+" "+t)
		}
	}
	return strings.Join(queries[:min(len(queries), 6)], " OR "), true
}

// Recommend searches products for every label that has search keywords.
// Labels without keywords, such as catalog.NoIssueDetected, get no entry. A
// failed search yields an empty list for its label.
func (s *RecommendService) Recommend(ctx context.Context, labels []string, count int, minRating *float64) map[string][]scraper.Product {
	var (
		mu  sync.Mutex
		out = make(map[string][]scraper.Product, len(labels))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for _, label := range labels {
		query, ok := QueryFor(label)
		if !ok {
			continue
		}
		g.Go(func() error {
			products, err := s.products.Search(gctx, query, count, minRating)
			if err != nil {
				logging.Error().Err(err).Str("issue", label).Msg("product search failed")
				products = []scraper.Product{}
			}
			mu.Lock()
			out[label] = products
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// ProductsFor returns products for one label through the cache. Failed
// searches are returned as errors and not cached.
func (s *RecommendService) ProductsFor(ctx context.Context, label string, count int, minRating *float64) ([]scraper.Product, error) {
	if !catalog.IsLabel(label) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIssue, label)
	}

	key := CacheKey(label, count, minRating)
	if s.cache != nil {
		products, res := s.cache.Lookup(key)
		metrics.CacheRequests.WithLabelValues(res.String()).Inc()
		switch res {
		case cache.Hit:
			logging.Info().Str("key", key).Msg("cache hit")
			return products, nil
		case cache.Expired:
			logging.Info().Str("key", key).Msg("cache expired")
		}
		logging.Info().Str("key", key).Msg("cache miss, fetching products")
	}

	query, ok := QueryFor(label)
	if !ok {
		return []scraper.Product{}, nil
	}
	products, err := s.products.Search(ctx, query, count, minRating)
	if err != nil {
		return nil, fmt.Errorf("products for %s: %w", label, err)
	}

	if s.cache != nil {
		s.cache.Set(key, products)
	}
	return products, nil
}

// CacheKey is "<issue>_<count>_<rating|default>".
func CacheKey(label string, count int, minRating *float64) string {
	rating := "default"
	if minRating != nil {
		rating = strconv.FormatFloat(*minRating, 'f', -1, 64)
	}
	return label + "_" + strconv.Itoa(count) + "_" + rating
}
