package scraper

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"skin-analysis-service/logging"
)

// ProductSource extracts a product from its page URL.
type ProductSource interface {
	Extract(ctx context.Context, url string) (Product, error)
}

// Options tunes the search cascade.
type Options struct {
	// Site restricts searches and result links, e.g. "trendyol.com".
	Site string
	// MaxPerBrand caps accepted products sharing one brand.
	MaxPerBrand int
	// Concurrency bounds parallel page fetches.
	Concurrency int
	// Rand drives shuffling; nil seeds a new source.
	Rand *rand.Rand
}

// Scraper finds products for free-text queries.
type Scraper struct {
	engine      SearchEngine
	pages       ProductSource
	site        string
	maxPerBrand int
	concurrency int

	rngMu sync.Mutex
	rng   *rand.Rand
}

func New(engine SearchEngine, pages ProductSource, opts Options) *Scraper {
	if opts.Site == "" {
		opts.Site = "trendyol.com"
	}
	if opts.MaxPerBrand < 1 {
		opts.MaxPerBrand = 2
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Scraper{
		engine:      engine,
		pages:       pages,
		site:        opts.Site,
		maxPerBrand: opts.MaxPerBrand,
		concurrency: opts.Concurrency,
		rng:         opts.Rand,
	}
}

// Search returns at most count products matching query. With minRating set,
// products without a rating or rated below it are skipped. An error is only
// returned when the primary search fails.
func (s *Scraper) Search(ctx context.Context, query string, count int, minRating *float64) ([]Product, error) {
	if count < 1 {
		return []Product{}, nil
	}
	num := int64(min(count*5, 10))

	links, err := s.engine.Search(ctx, query+" site:"+s.site, num)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		if !isBlackCircleQuery(query) {
			logging.Info().Str("query", query).Msg("no search results")
			return []Product{}, nil
		}
		retry := s.pick(eyeCreamQueries)
		logging.Info().Str("query", query).Str("retry", retry).Msg("no results, retrying with eye cream query")
		links, err = s.engine.Search(ctx, retry, num)
		if err != nil || len(links) == 0 {
			return []Product{}, nil
		}
	}

	seen := make(map[string]struct{})
	urls := s.productURLs(links, seen)
	s.shuffle(urls)

	acc := newAcceptor(count, minRating, s.maxPerBrand)
	s.collect(ctx, urls, acc)

	if !acc.full() {
		alts := alternativeQueries(query)
		s.shuffle(alts)
		for _, q := range alts {
			if acc.full() || ctx.Err() != nil {
				break
			}
			logging.Debug().Str("query", q).Int("found", len(acc.products)).Msg("trying alternative query")
			more, err := s.engine.Search(ctx, q, num)
			if err != nil {
				logging.Warn().Err(err).Str("query", q).Msg("alternative search failed")
				continue
			}
			altURLs := s.productURLs(more, seen)
			s.shuffle(altURLs)
			s.collect(ctx, altURLs, acc)
		}
	}

	return acc.products, nil
}

// productURLs keeps unseen product pages on the configured site, in order.
func (s *Scraper) productURLs(links []string, seen map[string]struct{}) []string {
	var urls []string
	for _, l := range links {
		if !strings.Contains(l, s.site) || !IsProductPage(l) {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		urls = append(urls, l)
	}
	return urls
}

// collect fetches urls in batches sized to the number of products still
// needed and offers the results to acc in url order.
func (s *Scraper) collect(ctx context.Context, urls []string, acc *acceptor) {
	for len(urls) > 0 && !acc.full() && ctx.Err() == nil {
		n := min(acc.remaining(), s.concurrency, len(urls))
		batch := urls[:n]
		urls = urls[n:]

		results := make([]*Product, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for i, u := range batch {
			g.Go(func() error {
				p, err := s.pages.Extract(gctx, u)
				if err != nil {
					logging.Warn().Err(err).Str("url", u).Msg("product extraction failed")
					return nil
				}
				results[i] = &p
				return nil
			})
		}
		_ = g.Wait()

		for _, p := range results {
			if p != nil {
				acc.offer(*p)
			}
		}
	}
}

func (s *Scraper) shuffle(xs []string) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
}

func (s *Scraper) pick(xs []string) string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return xs[s.rng.IntN(len(xs))]
}

type acceptor struct {
	count       int
	minRating   *float64
	maxPerBrand int
	names       map[string]struct{}
	brands      map[string]int
	products    []Product
}

func newAcceptor(count int, minRating *float64, maxPerBrand int) *acceptor {
	return &acceptor{
		count:       count,
		minRating:   minRating,
		maxPerBrand: maxPerBrand,
		names:       make(map[string]struct{}),
		brands:      make(map[string]int),
		products:    make([]Product, 0, count),
	}
}

func (a *acceptor) full() bool { return len(a.products) >= a.count }

func (a *acceptor) remaining() int { return a.count - len(a.products) }

// offer accepts p if it has a new name, its brand is under the cap and it
// passes the rating filter.
func (a *acceptor) offer(p Product) bool {
	if a.full() || p.Name == "" {
		return false
	}
	if _, dup := a.names[p.Name]; dup {
		return false
	}
	if p.Brand != "" && a.brands[p.Brand] >= a.maxPerBrand {
		return false
	}
	if a.minRating != nil && (p.Rating == nil || *p.Rating < *a.minRating) {
		return false
	}
	a.names[p.Name] = struct{}{}
	if p.Brand != "" {
		a.brands[p.Brand]++
	}
	a.products = append(a.products, p)
	return true
}
