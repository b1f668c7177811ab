package checkout

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jmflorece/tindahan-pos/pkg/db/models"
)

// counterTTL keeps the daily sequence alive well past midnight so late
// receipts keep their day's numbering.
const orderCounterTTL = 48 * time.Hour

type orderCounter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(name string) string
}

// OrderNumberGenerator issues receipt numbers like OR-20260831-0042. The
// sequence resets each day; redis carries it, with a database fallback when
// redis is unreachable or absent.
type OrderNumberGenerator struct {
	prefix  string
	counter orderCounter
}

func NewOrderNumberGenerator(prefix string, counter orderCounter) *OrderNumberGenerator {
	if prefix == "" {
		prefix = "OR"
	}
	return &OrderNumberGenerator{prefix: prefix, counter: counter}
}

// Next returns the next order number for the business day containing now.
// The tx is only touched on the fallback path.
func (g *OrderNumberGenerator) Next(ctx context.Context, tx *gorm.DB, now time.Time) (string, error) {
	day := now.Format("20060102")

	if g.counter != nil {
		key := g.counter.CounterKey("orders:" + day)
		seq, err := g.counter.IncrWithTTL(ctx, key, orderCounterTTL)
		if err == nil {
			return g.format(day, seq), nil
		}
	}

	if tx == nil {
		return "", fmt.Errorf("order number fallback requires a transaction")
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Sale{}).
		Where("created_at >= ? AND created_at < ?", dayStart, dayStart.Add(24*time.Hour)).
		Count(&count).Error
	if err != nil {
		return "", fmt.Errorf("counting sales for order number: %w", err)
	}
	return g.format(day, count+1), nil
}

func (g *OrderNumberGenerator) format(day string, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", g.prefix, day, seq)
}
