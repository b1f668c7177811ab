package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmflorece/tindahan-pos/pkg/db/models"
)

// Line is one printed item row.
type Line struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Receipt is the customer-facing view of a finalized sale.
type Receipt struct {
	ShopName      string          `json:"shop_name"`
	ShopAddress   string          `json:"shop_address,omitempty"`
	TaxID         string          `json:"tax_id,omitempty"`
	VATRegistered bool            `json:"vat_registered"`
	OrderNumber   string          `json:"order_number"`
	IssuedAt      time.Time       `json:"issued_at"`
	Lines         []Line          `json:"lines"`
	Total         decimal.Decimal `json:"total"`
	Net           decimal.Decimal `json:"net"`
	VAT           decimal.Decimal `json:"vat"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	PaymentMethod string          `json:"payment_method"`
	Tendered      decimal.Decimal `json:"tendered"`
	Change        decimal.Decimal `json:"change"`
	GatewayRef    string          `json:"gateway_reference,omitempty"`
}

// Build assembles a receipt from the sale snapshot and shop profile. The VAT
// breakdown is back-calculated from the tax-inclusive total.
func Build(sale *models.Sale, profile *models.ShopProfile) Receipt {
	r := Receipt{
		OrderNumber:   sale.OrderNumber,
		IssuedAt:      sale.CreatedAt,
		Total:         sale.Total,
		VATRate:       sale.VATRate,
		PaymentMethod: sale.PaymentMethod.String(),
		Tendered:      sale.AmountTendered,
		Change:        sale.ChangeDue,
	}
	if profile != nil {
		r.ShopName = profile.Name
		r.ShopAddress = profile.Address
		r.TaxID = profile.TaxID
		r.VATRegistered = profile.VATRegistered
	}
	if sale.GatewayReference != nil {
		r.GatewayRef = *sale.GatewayReference
	}

	r.Net = sale.Total.Div(decimal.NewFromInt(1).Add(sale.VATRate)).Round(2)
	r.VAT = sale.Total.Sub(r.Net)

	for _, item := range sale.Items {
		r.Lines = append(r.Lines, Line{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return r
}

// paperWidth is the character width of a 58mm thermal roll.
const paperWidth = 32

// Render produces the plain-text slip for a thermal printer.
func (r Receipt) Render() string {
	var b strings.Builder

	writeCentered(&b, r.ShopName)
	if r.ShopAddress != "" {
		writeCentered(&b, r.ShopAddress)
	}
	if r.TaxID != "" {
		writeCentered(&b, "TIN: "+r.TaxID)
	}
	b.WriteString(strings.Repeat("-", paperWidth) + "\n")

	fmt.Fprintf(&b, "%s\n", r.OrderNumber)
	fmt.Fprintf(&b, "%s\n", r.IssuedAt.Format("2006-01-02 15:04"))
	b.WriteString(strings.Repeat("-", paperWidth) + "\n")

	for _, line := range r.Lines {
		fmt.Fprintf(&b, "%s\n", line.Name)
		writeAmount(&b, fmt.Sprintf("  %d x %s", line.Quantity, line.UnitPrice.StringFixed(2)), line.LineTotal)
	}
	b.WriteString(strings.Repeat("-", paperWidth) + "\n")

	writeAmount(&b, "TOTAL", r.Total)
	if r.VATRegistered {
		writeAmount(&b, "  VATable", r.Net)
		writeAmount(&b, fmt.Sprintf("  VAT %s%%", r.VATRate.Mul(decimal.NewFromInt(100)).StringFixed(0)), r.VAT)
	}
	writeAmount(&b, strings.ToUpper(r.PaymentMethod), r.Tendered)
	if r.Change.IsPositive() {
		writeAmount(&b, "CHANGE", r.Change)
	}
	if r.GatewayRef != "" {
		fmt.Fprintf(&b, "REF %s\n", r.GatewayRef)
	}

	b.WriteString(strings.Repeat("-", paperWidth) + "\n")
	writeCentered(&b, "Salamat po!")
	return b.String()
}

func writeCentered(b *strings.Builder, text string) {
	if text == "" {
		return
	}
	pad := (paperWidth - len(text)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.Repeat(" ", pad) + text + "\n")
}

func writeAmount(b *strings.Builder, label string, amount decimal.Decimal) {
	value := amount.StringFixed(2)
	gap := paperWidth - len(label) - len(value)
	if gap < 1 {
		gap = 1
	}
	fmt.Fprintf(b, "%s%s%s\n", label, strings.Repeat(" ", gap), value)
}
