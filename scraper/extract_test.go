package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectorPage = `<html><body>
<h1 class="pr-new-br">La Roche-Posay Effaclar Duo+</h1>
<div class="prdct-desc-cntnr-ttl">La Roche-Posay</div>
<div class="pr-bx-w"><span class="prc-dsc">1.249,90 TL</span></div>
<div class="tltp-avg">4,6</div>
<div class="product-slide"><img src="//cdn.dsmcdn.com/effaclar.jpg"></div>
</body></html>`

func TestParseProduct_Selectors(t *testing.T) {
	p, err := ParseProduct("https://www.trendyol.com/x/effaclar-p-1", strings.NewReader(selectorPage))
	require.NoError(t, err)

	assert.Equal(t, "La Roche-Posay Effaclar Duo+", p.Name)
	assert.Equal(t, "1.249,90", p.Price)
	require.NotNil(t, p.Rating)
	assert.InDelta(t, 4.6, *p.Rating, 1e-9)
	assert.Equal(t, "https://cdn.dsmcdn.com/effaclar.jpg", p.ImageURL)
	// .pr-new-br is the first brand selector too
	assert.Equal(t, "La Roche-Posay Effaclar Duo+", p.Brand)
	assert.Equal(t, "https://www.trendyol.com/x/effaclar-p-1", p.PurchaseLink)
}

func TestParseProduct_JSONLDFallback(t *testing.T) {
	page := `<html><head>
<script type="application/ld+json">
{"@type":"Product","name":"CeraVe Nemlendirici","image":["https://img/1.jpg","https://img/2.jpg"],
 "offers":{"price":249.9},"aggregateRating":{"ratingValue":"4.3"},"brand":{"name":"CeraVe"}}
</script></head><body></body></html>`

	p, err := ParseProduct("https://www.trendyol.com/cerave-p-2", strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "CeraVe Nemlendirici", p.Name)
	assert.Equal(t, "249.9", p.Price)
	require.NotNil(t, p.Rating)
	assert.InDelta(t, 4.3, *p.Rating, 1e-9)
	assert.Equal(t, "https://img/1.jpg", p.ImageURL)
	assert.Equal(t, "CeraVe", p.Brand)
}

func TestParseProduct_JSONLDGraph(t *testing.T) {
	page := `<script type="application/ld+json">
{"@graph":[{"@type":"BreadcrumbList"},{"@type":"Product","name":"Bioderma Sebium","brand":"Bioderma"}]}
</script>`

	p, err := ParseProduct("u", strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Bioderma Sebium", p.Name)
	assert.Equal(t, "Bioderma", p.Brand)
}

func TestParseProduct_BrandFromName(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		brand string
	}{
		{"long first word", `<div class="product-name">Garnier Vitamin C Serum</div>`, "Garnier"},
		{"short first word", `<div class="product-name">Dr Jart Cicapair</div>`, ""},
		{"no name", `<div class="prc-dsc">100</div>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseProduct("u", strings.NewReader(tt.html))
			require.NoError(t, err)
			assert.Equal(t, tt.brand, p.Brand)
		})
	}
}

func TestParseProduct_BadJSONLDIgnored(t *testing.T) {
	page := `<div class="product-name">Nivea Krem</div><script type="application/ld+json">{not json</script>`

	p, err := ParseProduct("u", strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Nivea Krem", p.Name)
	assert.Nil(t, p.Rating)
	assert.Equal(t, "Nivea", p.Brand)
}

func TestParseProduct_RatingFallsThroughEmptyElement(t *testing.T) {
	page := `<span class="tltp-avg"></span><div class="rating-score">4,3</div>`

	p, err := ParseProduct("u", strings.NewReader(page))
	require.NoError(t, err)
	require.NotNil(t, p.Rating)
	assert.InDelta(t, 4.3, *p.Rating, 1e-9)
}

func TestParseProduct_ImageSkipsLazyLoaded(t *testing.T) {
	page := `<div class="product-slide"><img data-src="//cdn/lazy.jpg"></div><img class="ph-gl-img" src="//cdn/a.jpg">`

	p, err := ParseProduct("u", strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.jpg", p.ImageURL)
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"4,5", ptr(4.5)},
		{" 3 ", ptr(3)},
		{"Puan: 4.2 / 5", ptr(4.2)},
		{"yok", nil},
	}
	for _, tt := range tests {
		got := parseRating(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, tt.in)
			continue
		}
		require.NotNil(t, got, tt.in)
		assert.InDelta(t, *tt.want, *got, 1e-9, tt.in)
	}
}

func TestExtractor_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing-p-1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-9")
		// "Göz Kremi" encoded as ISO-8859-9
		_, _ = w.Write([]byte("<div class=\"product-name\">G\xf6z Kremi</div>"))
	}))
	defer srv.Close()

	e := NewExtractor(NewFetcher(FetcherConfig{
		UserAgent: "test",
		Timeout:   time.Second,
		SizeCap:   1 << 20,
		RateLimit: 100,
		Burst:     10,
	}))

	p, err := e.Extract(context.Background(), srv.URL+"/goz-p-1")
	require.NoError(t, err)
	assert.Equal(t, "Göz Kremi", p.Name)

	_, err = e.Extract(context.Background(), srv.URL+"/missing-p-1")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestIsProductPage(t *testing.T) {
	assert.True(t, IsProductPage("https://www.trendyol.com/cerave/krem-p-12345"))
	assert.True(t, IsProductPage("https://www.trendyol.com/urun/abc"))
	assert.True(t, IsProductPage("https://shop.example/product/1"))
	assert.False(t, IsProductPage("https://www.trendyol.com/sr?q=krem"))
	assert.False(t, IsProductPage("https://www.trendyol.com/cilt-bakim-x-c1"))
}

func ptr(f float64) *float64 { return &f }
