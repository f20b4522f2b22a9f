package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/emsdir/searchd/internal/invalidation"
)

type fakePurger struct {
	calls int
	err   error
}

func (f *fakePurger) PurgeAll(ctx context.Context) (int, error) {
	f.calls++
	return 3, f.err
}

func newTestConsumer(purger Purger) *Consumer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(NewConfig("localhost:9092", "directory-invalidation", "search-invalidator"), logger, purger)
}

func message(t *testing.T, ev invalidation.Event) *sarama.ConsumerMessage {
	t.Helper()
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return &sarama.ConsumerMessage{Topic: "directory-invalidation", Value: raw}
}

func TestProcessOne_PurgesOnValidEvent(t *testing.T) {
	purger := &fakePurger{}
	c := newTestConsumer(purger)

	ev := invalidation.Event{Version: 1, Op: "update", CompanyID: "c-1", Seq: 1, TS: time.Now()}
	if err := c.ProcessOne(context.Background(), message(t, ev)); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if purger.calls != 1 {
		t.Fatalf("purge calls=%d want 1", purger.calls)
	}
}

func TestProcessOne_DeduplicatesBySeq(t *testing.T) {
	purger := &fakePurger{}
	c := newTestConsumer(purger)

	mk := func(seq uint64) *sarama.ConsumerMessage {
		return message(t, invalidation.Event{Version: 1, Op: "update", CompanyID: "c-1", Seq: seq, TS: time.Now()})
	}

	ctx := context.Background()
	for _, seq := range []uint64{5, 5, 4, 6} {
		if err := c.ProcessOne(ctx, mk(seq)); err != nil {
			t.Fatalf("ProcessOne seq=%d: %v", seq, err)
		}
	}
	// seq 5 applies, the replayed 5 and the older 4 are dropped, 6 applies
	if purger.calls != 2 {
		t.Fatalf("purge calls=%d want 2", purger.calls)
	}
}

func TestProcessOne_SkipsMalformedAndInvalid(t *testing.T) {
	purger := &fakePurger{}
	c := newTestConsumer(purger)
	ctx := context.Background()

	garbage := &sarama.ConsumerMessage{Topic: "directory-invalidation", Value: []byte("{not json")}
	if err := c.ProcessOne(ctx, garbage); err != nil {
		t.Fatalf("malformed message must be skipped, got %v", err)
	}

	bad := message(t, invalidation.Event{Version: 1, Op: "upsert", CompanyID: "c-1", Seq: 1, TS: time.Now()})
	if err := c.ProcessOne(ctx, bad); err != nil {
		t.Fatalf("invalid event must be skipped, got %v", err)
	}

	if purger.calls != 0 {
		t.Fatalf("purge calls=%d want 0", purger.calls)
	}
}

func TestProcessOne_PropagatesPurgeError(t *testing.T) {
	purger := &fakePurger{err: errors.New("redis down")}
	c := newTestConsumer(purger)

	ev := invalidation.Event{Version: 1, Op: "delete", CompanyID: "c-2", Seq: 1, TS: time.Now()}
	if err := c.ProcessOne(context.Background(), message(t, ev)); err == nil {
		t.Fatalf("want purge error")
	}
}

func TestStart_RequiresCache(t *testing.T) {
	c := newTestConsumer(nil)
	if err := c.Start(context.Background()); err == nil {
		t.Fatalf("want error without cache dependency")
	}
}
