// Package scraper finds product listings on a single retailer through a web
// search API and extracts their details from the product pages.
package scraper

import "strings"

// Product is one retailer listing. Fields the page did not expose are empty,
// or a null rating, but always present in JSON.
type Product struct {
	Name         string   `json:"name"`
	PurchaseLink string   `json:"purchase_link"`
	Price        string   `json:"price"`
	Rating       *float64 `json:"rating"`
	ImageURL     string   `json:"image_url"`
	Brand        string   `json:"brand,omitempty"`
}

var productPathMarkers = []string{"/p-", "-p-", "/urun/", "/product/"}

// IsProductPage reports whether url looks like a product detail page rather
// than a category, search or campaign page.
func IsProductPage(url string) bool {
	for _, m := range productPathMarkers {
		if strings.Contains(url, m) {
			return true
		}
	}
	return false
}
