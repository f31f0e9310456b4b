package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
)

var (
	nameSelectors = []string{
		".pr-new-br",
		".prdct-desc-cntnr-name",
		"h1.pr-new-br",
		".product-name",
		".product-detail-name",
	}
	priceSelectors = []string{
		".prc-dsc",
		".product-price",
		".price-container",
		".pr-bx-w .prc-dsc",
		".pr-bx-nm .prc-dsc",
		".pr-bx-w .prc-org",
		"[data-testid='price-current-price']",
		".product-price-container .prc-dsc",
	}
	ratingSelectors = []string{
		".tltp-avg",
		".rating-score",
		".star-w .rt",
		"[data-testid='rating-score']",
	}
	imageSelectors = []string{
		".product-slide img",
		".gallery-modal-content img",
		".base-product-image",
		".product-img",
		"[data-testid='product-image']",
		".ph-gl-img",
	}
	brandSelectors = []string{
		".pr-new-br",
		".prdct-desc-cntnr-ttl",
		".product-brand",
		".brand-name",
	}

	priceStrip   = regexp.MustCompile(`[^\d,.]`)
	ratingNumber = regexp.MustCompile(`\d+\.\d+|\d+`)
)

// PageFetcher downloads a page body.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Extractor turns product pages into Products.
type Extractor struct {
	pages PageFetcher
}

func NewExtractor(pages PageFetcher) *Extractor {
	return &Extractor{pages: pages}
}

// Extract downloads url and parses the product on it.
func (e *Extractor) Extract(ctx context.Context, url string) (Product, error) {
	body, err := e.pages.Fetch(ctx, url)
	if err != nil {
		return Product{}, err
	}
	return ParseProduct(url, bytes.NewReader(body))
}

// ParseProduct reads a product page. CSS selectors are tried in priority
// order, then the page's JSON-LD block fills whatever is still missing.
func ParseProduct(link string, r io.Reader) (Product, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Product{}, fmt.Errorf("parse %s: %w", link, err)
	}

	p := Product{PurchaseLink: link}

	if s := firstMatch(doc, nameSelectors, anyElement); s != nil {
		p.Name = strings.TrimSpace(s.Text())
	}
	if s := firstMatch(doc, priceSelectors, anyElement); s != nil {
		p.Price = priceStrip.ReplaceAllString(strings.TrimSpace(s.Text()), "")
	}
	if s := firstMatch(doc, ratingSelectors, hasRating); s != nil {
		p.Rating = parseRating(s.Text())
	}
	if s := firstMatch(doc, imageSelectors, hasSrc); s != nil {
		src, _ := s.Attr("src")
		p.ImageURL = absoluteImage(src)
	}
	if s := firstMatch(doc, brandSelectors, anyElement); s != nil {
		p.Brand = strings.TrimSpace(s.Text())
	}

	if p.Name == "" || p.Price == "" || p.Rating == nil || p.ImageURL == "" || p.Brand == "" {
		applyJSONLD(doc, &p)
	}

	if p.Brand == "" && p.Name != "" {
		if first := strings.Fields(p.Name); len(first) > 0 && utf8.RuneCountInString(first[0]) > 2 {
			p.Brand = first[0]
		}
	}

	return p, nil
}

// firstMatch walks selectors in priority order and returns the first element
// that accept takes. Unusable elements fall through to the next selector.
func firstMatch(doc *goquery.Document, selectors []string, accept func(*goquery.Selection) bool) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 && accept(s) {
			return s
		}
	}
	return nil
}

func anyElement(*goquery.Selection) bool { return true }

func hasRating(s *goquery.Selection) bool { return parseRating(s.Text()) != nil }

// hasSrc skips lazy-loaded images that only carry data-src.
func hasSrc(s *goquery.Selection) bool {
	_, ok := s.Attr("src")
	return ok
}

func parseRating(text string) *float64 {
	m := ratingNumber.FindString(strings.ReplaceAll(strings.TrimSpace(text), ",", "."))
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}

func absoluteImage(src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}

func applyJSONLD(doc *goquery.Document, p *Product) {
	script := doc.Find(`script[type="application/ld+json"]`).First()
	if script.Length() == 0 {
		return
	}
	node := productNode([]byte(script.Text()))
	if node == nil {
		return
	}

	if p.Name == "" {
		if name, ok := node["name"].(string); ok {
			p.Name = strings.TrimSpace(name)
		}
	}
	if p.Price == "" {
		p.Price = ldPrice(node["offers"])
	}
	if p.Rating == nil {
		if agg, ok := node["aggregateRating"].(map[string]any); ok {
			p.Rating = ldNumber(agg["ratingValue"])
		}
	}
	if p.ImageURL == "" {
		p.ImageURL = ldImage(node["image"])
	}
	if p.Brand == "" {
		switch b := node["brand"].(type) {
		case map[string]any:
			if name, ok := b["name"].(string); ok {
				p.Brand = strings.TrimSpace(name)
			}
		case string:
			p.Brand = strings.TrimSpace(b)
		}
	}
}

// productNode picks the Product object out of a JSON-LD document, which may be
// a single object, an array of objects or an @graph container.
func productNode(raw []byte) map[string]any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case map[string]any:
		if graph, ok := t["@graph"].([]any); ok {
			if n := pickProduct(graph); n != nil {
				return n
			}
		}
		return t
	case []any:
		return pickProduct(t)
	}
	return nil
}

func pickProduct(items []any) map[string]any {
	var first map[string]any
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if first == nil {
			first = m
		}
		if typ, _ := m["@type"].(string); typ == "Product" {
			return m
		}
	}
	return first
}

func ldPrice(offers any) string {
	switch o := offers.(type) {
	case map[string]any:
		return ldString(o["price"])
	case []any:
		if len(o) > 0 {
			return ldPrice(o[0])
		}
	}
	return ""
}

func ldImage(v any) string {
	switch img := v.(type) {
	case string:
		return absoluteImage(img)
	case []any:
		if len(img) > 0 {
			return ldImage(img[0])
		}
	case map[string]any:
		if u, ok := img["url"].(string); ok {
			return absoluteImage(u)
		}
	}
	return ""
}

func ldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func ldNumber(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		return parseRating(t)
	}
	return nil
}
