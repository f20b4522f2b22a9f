// Package kafkaconsumer consumes directory-change events and purges the
// response cache.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/emsdir/searchd/internal/invalidation"
	"github.com/emsdir/searchd/internal/observability"
)

// Purger is the cache surface the consumer drives. Any directory change
// can affect any cached page, so invalidation is all-or-nothing.
type Purger interface {
	PurgeAll(ctx context.Context) (int, error)
}

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	cache  Purger
	dedupe *versionDedupe
}

func New(cfg Config, logger *slog.Logger, cache Purger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		cfg:    cfg,
		logger: logger,
		cache:  cache,
		dedupe: newVersionDedupe(cfg.DedupeSize),
	}
}

// Start runs the consumer group loop until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.cache == nil {
		return errors.New("kafkaconsumer: missing cache dependency")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("kafka invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("kafka invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.logger.Error("consumer error", "err", err)
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single change-event message.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.IncInvalidation("decode_error")
		c.logger.Error("invalidation decode failed",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		// Malformed messages are logged and skipped; re-delivery cannot fix them.
		return nil
	}
	if err := ev.Validate(); err != nil {
		observability.IncInvalidation("invalid")
		c.logger.Warn("invalidation event rejected", "err", err, "company_id", ev.CompanyID)
		return nil
	}

	if !c.dedupe.shouldApply(ev.CompanyID, ev.Seq) {
		observability.IncInvalidation("duplicate")
		c.logger.Debug("stale invalidation skipped", "company_id", ev.CompanyID, "seq", ev.Seq)
		return nil
	}

	n, err := c.cache.PurgeAll(ctx)
	if err != nil {
		observability.IncInvalidation("purge_error")
		c.logger.Error("cache purge failed",
			"company_id", ev.CompanyID, "op", ev.Op, "err", err)
		return fmt.Errorf("cache purge: %w", err)
	}

	observability.IncInvalidation("applied")
	c.logger.Info("cache purged",
		"company_id", ev.CompanyID, "op", ev.Op, "seq", ev.Seq, "keys", n)
	return nil
}
