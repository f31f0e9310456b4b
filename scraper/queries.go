package scraper

import "strings"

// eyeCreamQueries replace a black circle query that found nothing at all.
var eyeCreamQueries = []string{
	"göz altı morluk kremi site:trendyol.com",
	"göz altı halkası kremi site:trendyol.com",
	"dark circle eye cream site:trendyol.com",
	"göz çevresi bakım kremi site:trendyol.com",
}

type topic struct {
	markers []string
	queries []string
}

var topics = []topic{
	{
		markers: []string{"black_circle", "göz altı"},
		queries: []string{"göz altı bakım kremi trendyol", "göz çevresi bakım kremi trendyol", "göz altı morluk kremi trendyol"},
	},
	{
		markers: []string{"acne", "akne"},
		queries: []string{"akne karşıtı krem trendyol", "sivilce kremi trendyol", "akne bakım seti trendyol"},
	},
	{
		markers: []string{"wrinkle", "kırışık"},
		queries: []string{"kırışıklık karşıtı krem trendyol", "anti aging krem trendyol", "yaşlanma karşıtı serum trendyol"},
	},
	{
		markers: []string{"stain", "leke"},
		queries: []string{"leke karşıtı krem trendyol", "cilt lekesi kremi trendyol", "leke giderici serum trendyol"},
	},
	{
		markers: []string{"pockmark", "gözenek"},
		queries: []string{"gözenek sıkılaştırıcı krem trendyol", "gözenek bakım kremi trendyol", "gözenek minimizer trendyol"},
	},
}

func isBlackCircleQuery(query string) bool {
	return topics[0].matches(strings.ToLower(query))
}

func (t topic) matches(lower string) bool {
	for _, m := range t.markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// alternativeQueries returns broader queries for the topic of query. Unknown
// topics fall back to generic skincare queries built on the first word.
func alternativeQueries(query string) []string {
	lower := strings.ToLower(query)
	for _, t := range topics {
		if t.matches(lower) {
			return append([]string(nil), t.queries...)
		}
	}
	words := strings.Fields(query)
	if len(words) == 0 {
		return nil
	}
	w := words[0]
	return []string{
		w + " cilt bakım trendyol",
		w + " yüz bakım trendyol",
		w + " dermokozmetik trendyol",
	}
}
