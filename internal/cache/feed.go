package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const DefaultChannel = "frequencia:changes"

type Entity string

const (
	EntityMember     Entity = "member"
	EntityAttendance Entity = "attendance"
	EntityCabinet    Entity = "cabinet"
	EntityLeader     Entity = "leader"
	EntitySettings   Entity = "settings"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// ChangeEvent describes one row change made by a bot instance.
type ChangeEvent struct {
	Origin  string          `json:"origin"`
	Entity  Entity          `json:"entity"`
	Op      Op              `json:"op"`
	Payload json.RawMessage `json:"payload"`
}

func NewEvent(origin string, entity Entity, op Op, row any) (ChangeEvent, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return ChangeEvent{}, fmt.Errorf("encode %s payload: %w", entity, err)
	}
	return ChangeEvent{Origin: origin, Entity: entity, Op: op, Payload: payload}, nil
}

// Decode unmarshals the payload into dest.
func (e ChangeEvent) Decode(dest any) error {
	return json.Unmarshal(e.Payload, dest)
}

// Feed broadcasts change events over redis Pub/Sub. A Feed without a client drops events.
type Feed struct {
	rdb     *redis.Client
	channel string
	logger  *logrus.Logger
}

func NewFeed(rdb *redis.Client, channel string) *Feed {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if channel == "" {
		channel = DefaultChannel
	}
	return &Feed{rdb: rdb, channel: channel, logger: logger}
}

func (f *Feed) Enabled() bool {
	return f != nil && f.rdb != nil
}

func (f *Feed) Publish(ctx context.Context, ev ChangeEvent) error {
	if !f.Enabled() {
		return nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return f.rdb.Publish(ctx, f.channel, data).Err()
}

// Subscribe delivers events to handle until ctx is cancelled.
func (f *Feed) Subscribe(ctx context.Context, handle func(ChangeEvent)) error {
	if !f.Enabled() {
		<-ctx.Done()
		return nil
	}

	sub := f.rdb.Subscribe(ctx, f.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	f.logger.WithField("channel", f.channel).Info("Listening for changes")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				f.logger.WithError(err).Warn("Dropping malformed change event")
				continue
			}
			handle(ev)
		}
	}
}
