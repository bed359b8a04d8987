package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const pacientID = "507f191e810c19729de860ea"

func receive(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case msg := <-client.Send:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return ev
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
	return Event{}
}

func expectSilence(t *testing.T, client *Client) {
	t.Helper()
	select {
	case msg := <-client.Send:
		t.Fatalf("unexpected message %s", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubPublishLocal(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register(pacientID)
	defer hub.Unregister(client)
	other := hub.Register("000000000000000000000000")
	defer hub.Unregister(other)

	if err := hub.Publish(context.Background(), pacientID, "minigame_overview", map[string]int{"round": 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ev := receive(t, client)
	if ev.Type != "minigame_overview" || ev.PacientID != pacientID {
		t.Fatalf("unexpected event: %+v", ev)
	}
	expectSilence(t, other)
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "pacient:abc:overviews" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if pacientIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected pacient id")
	}
	for _, bad := range []string{"bad", "pacient::overviews", "tracking:abc:broadcast"} {
		if pacientIDFromChannel(bad) != "" {
			t.Fatalf("expected empty pacient id for %q", bad)
		}
	}
}

func TestUnregisterClosesOnce(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register(pacientID)
	hub.Unregister(client)
	hub.Unregister(client)
	if _, ok := <-client.Send; ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisFanOut(t *testing.T) {
	s := miniredis.RunT(t)
	rdbA := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbA.Close()
	rdbB := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbB.Close()

	hubA := NewHub(rdbA, nil)
	defer hubA.Close()
	hubB := NewHub(rdbB, nil)
	defer hubB.Close()
	<-hubA.Ready()
	<-hubB.Ready()

	local := hubA.Register(pacientID)
	defer hubA.Unregister(local)
	remote := hubB.Register(pacientID)
	defer hubB.Unregister(remote)

	if err := hubA.Publish(context.Background(), pacientID, "calibration_overview", "payload"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if ev := receive(t, local); ev.Type != "calibration_overview" {
		t.Fatalf("unexpected local event: %+v", ev)
	}
	if ev := receive(t, remote); ev.Type != "calibration_overview" || ev.Data != "payload" {
		t.Fatalf("unexpected remote event: %+v", ev)
	}
	// the publishing instance must not deliver its own message twice
	expectSilence(t, local)
}

func TestHubIgnoresMalformedRedisMessages(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()

	hub := NewHub(rdb, nil)
	defer hub.Close()
	<-hub.Ready()

	client := hub.Register(pacientID)
	defer hub.Unregister(client)

	if err := rdb.Publish(context.Background(), redisChannel(pacientID), "not json").Err(); err != nil {
		t.Fatalf("publish: %v", err)
	}
	expectSilence(t, client)
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client, nil)
	defer hub.Close()
	<-hub.Ready()

	local := hub.Register(pacientID)
	defer hub.Unregister(local)

	if err := hub.Publish(context.Background(), pacientID, "minigame_overview", nil); err == nil {
		t.Fatalf("expected publish error")
	}
	// local subscribers are still served
	receive(t, local)
}
