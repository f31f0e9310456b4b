package catalog

// Info is the descriptive content shown on a skin issue detail page.
type Info struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Causes      []string `json:"causes"`
	DailyCare   []string `json:"daily_care"`
	Tips        []string `json:"tips"`
}

// LookupInfo returns the content for label. Labels without content, such as
// "healthy", report false.
func LookupInfo(label string) (Info, bool) {
	info, ok := issueInfo[label]
	return info, ok
}

var issueInfo = map[string]Info{
	"acne": {
		Title:       "Akne",
		Description: "Akne, kıl foliküllerinin yağ bezleri ile tıkanması sonucu oluşan yaygın bir cilt sorunudur. Sivilceler, siyah noktalar, beyaz noktalar ve daha büyük, kırmızı, ağrılı şişlikler şeklinde görülebilir.",
		Causes: []string{
			"Aşırı yağ üretimi",
			"Ölü deri hücrelerinin birikmesi",
			"Bakteriyel enfeksiyon",
			"Hormonel değişimler",
			"Stres",
			"Genetik faktörler",
		},
		DailyCare: []string{
			"Salisilik asit içeren temizleyici kullanın",
			"Yağsız nemlendirici tercih edin",
			"Yüzünüzü günde en fazla 2 kez yıkayın",
			"Sivilceleri sıkmaktan kaçının",
		},
		Tips: []string{
			"Saç ürünlerinin cildinize temas etmesini engelleyin",
			"Yastık kılıflarınızı düzenli olarak değiştirin",
			"Telefonunuzu düzenli temizleyin",
			"Makyaj ürünlerinde 'komedojenik olmayan' etiketini arayın",
		},
	},
	"pockmark": {
		Title:       "Gözenek",
		Description: "Gözenekler, ciltteki yağ bezlerinin çıkışlarıdır. Genişlemiş gözenekler genellikle yağlı cilt tiplerinde daha belirgin olur.",
		Causes: []string{
			"Aşırı yağ üretimi",
			"Genetik faktörler",
			"Yaşlanma",
			"Güneş hasarı",
			"Hormonal değişimler",
			"Düzensiz cilt bakımı",
		},
		DailyCare: []string{
			"BHA (Salisilik asit) içeren ürünler kullanın",
			"Kil maskeleri uygulayın",
			"Gözenek sıkılaştırıcı tonikler tercih edin",
			"Yağsız nemlendirici kullanın",
		},
		Tips: []string{
			"Makyaj temizliğine özen gösterin",
			"Komedojenik olmayan ürünler tercih edin",
			"Cildinizi ovmayın, nazikçe yıkayın",
			"Güneş koruyucu kullanımını ihmal etmeyin",
		},
	},
	"stain": {
		Title:       "Leke",
		Description: "Cilt lekeleri, güneş hasarı, hormonel değişimler veya sivilce izleri gibi nedenlerle ciltte oluşan pigment değişimleridir.",
		Causes: []string{
			"Güneş hasarı",
			"Hormonel değişimler",
			"Akne izleri",
			"Yaşlanma",
			"Genetik faktörler",
			"İlaçlar",
		},
		DailyCare: []string{
			"Aydınlatıcı özellikteki C vitamini serumları kullanın",
			"AHA/BHA içeren ürünlerle ölü deri hücrelerini uzaklaştırın",
			"Her gün SPF 30+ güneş koruyucu kullanın",
			"Gece niasinamid içeren ürünler uygulayın",
		},
		Tips: []string{
			"Lekelere dokunmaktan kaçının",
			"Limon, sirke gibi ev yapımı çözümlerden uzak durun",
			"İyileşme sürecine zaman tanıyın",
			"Düzenli cilt bakımını ihmal etmeyin",
		},
	},
	"wrinkle": {
		Title:       "Kırışıklık",
		Description: "Kırışıklıklar, yaşlanma, güneş hasarı ve diğer faktörler nedeniyle cildin elastikiyetini kaybetmesi sonucu oluşan çizgilerdir.",
		Causes: []string{
			"Yaşlanma",
			"Ultraviyole ışınlarına maruz kalma",
			"Sigara kullanımı",
			"Tekrarlanan yüz ifadeleri",
			"Yetersiz nem ve beslenme",
			"Genetik faktörler",
		},
		DailyCare: []string{
			"Retinol içeren ürünler kullanın",
			"Peptitler ve antioksidanlar içeren serumlar uygulayın",
			"Nemlendiriciyle cildinizi besleyin",
			"SPF 30+ güneş koruyucu kullanın",
		},
		Tips: []string{
			"Yüzünüzü yukarı doğru dairesel hareketlerle masaj yapın",
			"Yeterli su için",
			"Yeterli uyku alın",
			"C vitamini açısından zengin besinler tüketin",
		},
	},
	"black_circle": {
		Title:       "Koyu Halka",
		Description: "Göz altı koyu halkaları, genetik faktörler, yaşlanma, yorgunluk ve kan dolaşımı sorunları nedeniyle oluşabilir.",
		Causes: []string{
			"Genetik yatkınlık",
			"Yetersiz uyku",
			"Yaşlanma",
			"Alerjiler ve göz yorgunluğu",
			"Kan dolaşımı sorunları",
			"Güneş hasarı",
		},
		DailyCare: []string{
			"Kafein içeren göz kremleri kullanın",
			"Hyaluronik asit ve peptit içeren ürünlerle nemlenin",
			"K vitamini içeren göz kremleri tercih edin",
			"Her gün güneş koruyucu kullanın",
		},
		Tips: []string{
			"Göz çevrenize nazikçe masaj yapın",
			"Soğuk kompres uygulayın",
			"Yeterli su için",
			"Uyku düzeninize dikkat edin",
		},
	},
}
