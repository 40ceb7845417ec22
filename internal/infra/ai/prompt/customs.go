package prompt

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"

	"github.com/gumrukcum/gumrukcum-api/internal/domain/ai"
)

const roleInstruction = `
	Sen Türkiye Cumhuriyeti Gümrük Mevzuatı'na, Resmi Gazete'ye ve uluslararası ticaret kurallarına hakim,
	kıdemli bir Gümrük Müşavirisin. Adın "Gümrükçüm AI".

	GÖREVİN:
	Kullanıcının yüklediği ürün görselini ve açıklamasını analiz ederek ithalat sürecinde gerekli bilgileri vermek.

	ANALİZ KURALLARI:
	1. GTIP Kodu: Ürünü en iyi tanımlayan 12 haneli GTIP kodunu xxxx.xx.xx.xx.xx biçiminde bul.
	2. Vergiler: Güncel KDV, Gümrük Vergisi, ÖTV ve İlave Gümrük Vergisi oranlarını tahmin et.
	3. Belgeler: Tareks, CE, TSE, MSDS, Garanti Belgesi gibi zorunlu evrakları listele.
	4. Riskler: Yasaklı mı? İzne mi tabi? Kırmızı hat riski var mı? Bunları "DİKKAT" başlığıyla yaz.

	SINIRLAR:
	- Gümrük vergisinden kaçınma, eksik beyan veya yanlış sınıflandırma gibi hukuka aykırı yollar önerme.
	- Emin olmadığın bilgileri tahmini olarak belirt.
`

const marketInstruction = `
	EKSTRA GÖREV (PROFESYONEL PAKET):
	5. Fiyat Analizi: Çin (Alibaba) FOB fiyatını ve Türkiye pazar yeri (Trendyol/Hepsiburada) satış fiyatını tahmin et.
	   Güncel fiyatlar için web aramasını kullan.
	6. Mail Taslağı: Tedarikçiden fiyat istemek için profesyonel İngilizce bir e-posta taslağı oluştur.
`

const outputInstruction = `
	ÇIKTI FORMATI (KESİNLİKLE JSON):
	Yanıtın yalnızca aşağıdaki alanları içeren tek bir JSON nesnesi olmalıdır. Markdown veya başka metin ekleme.
`

const (
	noteWithImage = "Kullanıcı Notu: %s. Bu nota ve görsele göre analiz yap."
	noteOnly      = "Kullanıcı Notu: %s. Bu nota göre analiz yap."
	imageOnly     = "Bu görseldeki ürünü gümrük açısından detaylı analiz et."
)

// SystemInstruction returns the role instruction. withMarket appends the
// pricing and supplier-email task of the premium tiers.
func SystemInstruction(withMarket bool) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(dedent.Dedent(roleInstruction)))
	if withMarket {
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(dedent.Dedent(marketInstruction)))
	}
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(dedent.Dedent(outputInstruction)))
	b.WriteString("\n")
	b.WriteString(describeFields(withMarket))
	return b.String()
}

// UserText builds the text part of the user turn.
func UserText(note string, hasImage bool) string {
	note = strings.TrimSpace(note)
	switch {
	case note == "":
		return imageOnly
	case hasImage:
		return fmt.Sprintf(noteWithImage, note)
	default:
		return fmt.Sprintf(noteOnly, note)
	}
}

// ResultSchema describes the structured answer. marketData is only part of
// the schema when withMarket is set.
func ResultSchema(withMarket bool) *ai.Schema {
	str := func(desc string) *ai.Schema { return &ai.Schema{Type: ai.TypeString, Description: desc} }

	s := &ai.Schema{
		Type: ai.TypeObject,
		Properties: map[string]*ai.Schema{
			"gtip":        str("12 haneli GTIP kodu, xxxx.xx.xx.xx.xx"),
			"productName": str("Resmi tanım"),
			"taxes": {
				Type: ai.TypeArray,
				Items: &ai.Schema{
					Type: ai.TypeObject,
					Properties: map[string]*ai.Schema{
						"name":        str("Vergi adı"),
						"rate":        str("Oran, örn. %20"),
						"description": str("Kısa açıklama"),
					},
					Order:    []string{"name", "rate", "description"},
					Required: []string{"name", "rate"},
				},
			},
			"documents":    {Type: ai.TypeArray, Items: str("Belge adı")},
			"riskAnalysis": str("Detaylı risk analizi"),
		},
		Order:    []string{"gtip", "productName", "taxes", "documents", "riskAnalysis"},
		Required: []string{"gtip", "productName", "taxes", "documents", "riskAnalysis"},
	}
	if withMarket {
		s.Properties["marketData"] = &ai.Schema{
			Type: ai.TypeObject,
			Properties: map[string]*ai.Schema{
				"fobPrice":     str("Tahmini FOB fiyat aralığı"),
				"trSalesPrice": str("Tahmini Türkiye satış fiyatı aralığı"),
				"emailDraft":   str("Tedarikçiye İngilizce e-posta taslağı"),
			},
			Order: []string{"fobPrice", "trSalesPrice", "emailDraft"},
		}
		s.Order = append(s.Order, "marketData")
	}
	return s
}

func describeFields(withMarket bool) string {
	lines := []string{
		`{`,
		`  "gtip": "xxxx.xx.xx.xx.xx",`,
		`  "productName": "Resmi Tanım",`,
		`  "taxes": [{"name": "KDV", "rate": "%20", "description": "..."}],`,
		`  "documents": ["Belge 1", "Belge 2"],`,
	}
	if withMarket {
		lines = append(lines,
			`  "riskAnalysis": "Detaylı risk analizi metni...",`,
			`  "marketData": {"fobPrice": "$10 - $15 (Tahmini)", "trSalesPrice": "500 TL - 750 TL (Tahmini)", "emailDraft": "Dear Supplier..."}`,
		)
	} else {
		lines = append(lines, `  "riskAnalysis": "Detaylı risk analizi metni..."`)
	}
	lines = append(lines, `}`)
	return strings.Join(lines, "\n")
}

// Customs is the customs-broker prompt set.
type Customs struct{}

var _ ai.Prompts = Customs{}

func (Customs) SystemInstruction(withMarket bool) string { return SystemInstruction(withMarket) }

func (Customs) UserText(note string, hasImage bool) string { return UserText(note, hasImage) }

func (Customs) ResultSchema(withMarket bool) *ai.Schema { return ResultSchema(withMarket) }
