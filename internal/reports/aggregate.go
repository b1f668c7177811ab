package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmflorece/tindahan-pos/pkg/db/models"
)

// Totals summarizes one day of trading. VAT is back-calculated from the
// tax-inclusive gross: net = gross / (1 + rate), vat = gross - net.
type Totals struct {
	Count int             `json:"count"`
	Gross decimal.Decimal `json:"gross"`
	Net   decimal.Decimal `json:"net"`
	VAT   decimal.Decimal `json:"vat"`
}

// moneyScale rounds derived amounts to centavos.
const moneyScale = 2

// DailyTotals folds the sales that fall on asOf's calendar day. Sales carry
// their own VAT rate snapshot; fallbackRate applies only to rows predating
// that column.
func DailyTotals(sales []models.Sale, asOf time.Time, fallbackRate decimal.Decimal) Totals {
	totals := Totals{Gross: decimal.Zero, Net: decimal.Zero, VAT: decimal.Zero}
	for _, sale := range sales {
		if !sameDay(sale.CreatedAt, asOf) {
			continue
		}
		rate := sale.VATRate
		if rate.IsZero() {
			rate = fallbackRate
		}
		net := sale.Total.Div(decimal.NewFromInt(1).Add(rate)).Round(moneyScale)

		totals.Count++
		totals.Gross = totals.Gross.Add(sale.Total)
		totals.Net = totals.Net.Add(net)
		totals.VAT = totals.VAT.Add(sale.Total.Sub(net))
	}
	return totals
}

// HourlyVelocity buckets a day's gross by hour of sale. Hours with no sales
// are absent from the map.
func HourlyVelocity(sales []models.Sale, day time.Time) map[int]decimal.Decimal {
	buckets := make(map[int]decimal.Decimal)
	for _, sale := range sales {
		if !sameDay(sale.CreatedAt, day) {
			continue
		}
		hour := sale.CreatedAt.Hour()
		current, ok := buckets[hour]
		if !ok {
			current = decimal.Zero
		}
		buckets[hour] = current.Add(sale.Total)
	}
	return buckets
}

// LowStock filters products at or below their threshold. A product without
// its own threshold uses defaultThreshold.
func LowStock(products []models.Product, defaultThreshold int) []models.Product {
	var out []models.Product
	for _, product := range products {
		threshold := defaultThreshold
		if product.LowStockThreshold != nil {
			threshold = *product.LowStockThreshold
		}
		if product.Stock <= threshold {
			out = append(out, product)
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
