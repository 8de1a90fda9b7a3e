package broker_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bluestream/channelhub/internal/app/system/broker"
)

func TestRedisPublisher_Publish(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sub := rdb.Subscribe(context.Background(), broker.TopicChannelRemoveSucceeded)
	defer sub.Close()
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	pub := broker.NewRedisPublisher(rdb, zap.NewNop())
	err := pub.Publish(context.Background(), broker.TopicChannelRemoveSucceeded, broker.ChannelRemoved{ID: "abc123"})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var ev broker.Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			t.Fatalf("failed to parse event: %v", err)
		}
		if ev.Topic != broker.TopicChannelRemoveSucceeded {
			t.Errorf("topic: got %q, want %q", ev.Topic, broker.TopicChannelRemoveSucceeded)
		}
		if ev.ID == "" {
			t.Error("expected event ID to be set")
		}
		data, _ := json.Marshal(ev.Data)
		var removed broker.ChannelRemoved
		if err := json.Unmarshal(data, &removed); err != nil {
			t.Fatalf("failed to parse payload: %v", err)
		}
		if removed.ID != "abc123" {
			t.Errorf("payload id: got %q, want %q", removed.ID, "abc123")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestRedisPublisher_PublishError(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	pub := broker.NewRedisPublisher(rdb, zap.NewNop())
	if err := pub.Publish(context.Background(), "topic", broker.ChannelRemoved{ID: "x"}); err == nil {
		t.Error("expected error publishing to a closed redis")
	}
}

func TestNop_Publish(t *testing.T) {
	if err := (broker.Nop{}).Publish(context.Background(), "any", nil); err != nil {
		t.Errorf("Nop.Publish: got %v, want nil", err)
	}
}
