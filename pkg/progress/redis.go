package progress

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/marktegna/netwalker/pkg/audit"
	"github.com/marktegna/netwalker/pkg/util"
)

// progressChannel is the pub/sub channel external watchers subscribe to
// for live crawl events when [progress] sink = redis.
const progressChannel = "netwalker:progress"

// RedisSink publishes every event as JSON on a Redis pub/sub channel, in
// addition to the same local accumulation LogSink performs — a disconnect
// from Redis here never loses the summary, only the live broadcast.
type RedisSink struct {
	rdb     *redis.Client
	summary *Summary
}

// NewRedisSink dials addr and returns a RedisSink, or an error if the
// server cannot be reached — the caller (NewSink) falls back to LogSink in
// that case, per the same advisory-cache posture as pkg/inventory's Cache.
func NewRedisSink(addr string, summary *Summary) (*RedisSink, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return &RedisSink{rdb: rdb, summary: summary}, nil
}

func (s *RedisSink) Report(event *audit.Event) {
	s.summary.Record(event)

	payload, err := json.Marshal(event)
	if err != nil {
		util.Warnf("progress: could not marshal event for %s: %v", event.Device, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.rdb.Publish(ctx, progressChannel, payload).Err(); err != nil {
		util.Warnf("progress: redis publish failed, continuing without it: %v", err)
	}
}

func (s *RedisSink) Close() error {
	return s.rdb.Close()
}
