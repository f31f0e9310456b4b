package catalog

var productKeywords = map[string][]string{
	"acne":     {"acne", "sivilce", "akne", "siyah nokta", "cilt lekesi", "blemish"},
	"pockmark": {"çukur", "yara izi", "iz", "scar", "gözenek", "pore", "pockmark"},
	"stain":    {"leke", "ton eşitsizliği", "pigment", "stain", "dark spot", "hiperpigmentasyon"},
	"wrinkle":  {"kırışıklık", "ince çizgi", "yaşlanma", "anti-aging", "sıkılaştırıcı", "wrinkle"},
	"black_circle": {
		"göz altı morluk kremi", "aydınlatıcı göz kremi", "göz torbası",
		"göz altı serum", "eye brightening cream", "göz çevresi aydınlatıcı",
	},
	"healthy": {"nemlendirici", "günlük bakım", "hassas cilt", "moisturizer", "hydrating"},
}

var productTypes = map[string][]string{
	"acne":         {"Akne Serumu", "Salisilik Asit", "Çay Ağacı Yağı", "Akne Temizleyici", "Siyah Nokta Maskesi"},
	"pockmark":     {"Retinol", "Vitamin C", "Peptit", "Hyaluronik Asit", "Kolajen"},
	"stain":        {"Leke Kremi", "Aydınlatıcı Serum", "Vitamin C", "AHA", "Kojik Asit"},
	"wrinkle":      {"Retinol", "Peptit Serum", "Kolajen", "Anti-aging Krem", "Sıkılaştırıcı"},
	"black_circle": {"Göz Kremi", "Kafein İçerikli", "Hyaluronik Asit", "Vitamin K", "Retinol"},
	"healthy":      {"Nemlendirici", "Güneş Koruyucu", "Temizleyici", "Tonik", "Serum"},
}

// Keywords returns the search keywords curated for label and whether any exist.
// The returned slice must not be modified.
func Keywords(label string) ([]string, bool) {
	k, ok := productKeywords[label]
	return k, ok
}

// ProductTypes returns the product categories curated for label.
func ProductTypes(label string) []string {
	return productTypes[label]
}
