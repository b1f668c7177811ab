package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jmflorece/tindahan-pos/pkg/logger"
	pkgredis "github.com/jmflorece/tindahan-pos/pkg/redis"
)

// ChangeOp labels a row-level change on the feed.
type ChangeOp string

const (
	ChangeOpCreated ChangeOp = "created"
	ChangeOpUpdated ChangeOp = "updated"
	ChangeOpDeleted ChangeOp = "deleted"
)

// ChangeEvent is the payload published on a table's change channel. Delivery
// is at-least-once; consumers merge idempotently by (table, id, occurred_at).
type ChangeEvent struct {
	Table      string    `json:"table"`
	Op         ChangeOp  `json:"op"`
	ID         uuid.UUID `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FeedPublisher pushes change events to subscribed terminals.
type FeedPublisher interface {
	PublishChange(ctx context.Context, event ChangeEvent) error
}

type feedPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
	ChangeFeedChannel(table string) string
}

type redisFeed struct {
	client feedPublisher
	logg   *logger.Logger
}

// NewRedisFeed builds a FeedPublisher backed by redis pub/sub. A nil client
// yields a no-op feed so local test wiring stays simple.
func NewRedisFeed(client *pkgredis.Client, logg *logger.Logger) FeedPublisher {
	if client == nil {
		return noopFeed{}
	}
	return &redisFeed{client: client, logg: logg}
}

func (f *redisFeed) PublishChange(ctx context.Context, event ChangeEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	channel := f.client.ChangeFeedChannel(event.Table)
	if err := f.client.Publish(ctx, channel, payload); err != nil {
		// The feed is advisory; a dropped notification must not fail the write.
		if f.logg != nil {
			f.logg.Warn(f.logg.WithFields(ctx, map[string]any{
				"channel": channel,
				"op":      event.Op,
			}), "change feed publish failed")
		}
	}
	return nil
}

type noopFeed struct{}

func (noopFeed) PublishChange(context.Context, ChangeEvent) error { return nil }
