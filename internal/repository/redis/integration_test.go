//go:build integration

package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/starlane-games/expanse/internal/testutil"
)

var testRDB *goredis.Client

func setup(t *testing.T) *Client {
	t.Helper()
	if testRDB == nil {
		testRDB = testutil.SetupRedis(t)
	}
	testutil.CleanupRedis(t, testRDB)
	return &Client{rdb: testRDB}
}

func TestStateRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-1"

	state := json.RawMessage(`{"turn":4,"planets":{"p1":{"owner":"player"}}}`)

	if err := c.SaveState(ctx, gameID, state); err != nil {
		t.Fatalf("save state: %v", err)
	}

	got, err := c.GetState(ctx, gameID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if got == nil {
		t.Fatal("expected non-nil state")
	}

	var fetched map[string]any
	json.Unmarshal(got, &fetched)
	if fetched["turn"].(float64) != 4 {
		t.Fatalf("state round-trip failed: %s", string(got))
	}
}

func TestStateNotFound(t *testing.T) {
	c := setup(t)

	got, err := c.GetState(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("get missing state: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing game state")
	}
}

func TestQueueAndDrainCommands(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-2"

	c.QueueCommands(ctx, gameID, "player", json.RawMessage(`[{"type":"build"}]`))
	c.QueueCommands(ctx, gameID, "player", json.RawMessage(`[{"type":"colonize"}]`))
	c.QueueCommands(ctx, gameID, "ai_0", json.RawMessage(`[{"type":"research"}]`))

	drained, err := c.DrainCommands(ctx, gameID, []string{"player", "ai_0", "ai_1"})
	if err != nil {
		t.Fatalf("drain commands: %v", err)
	}
	if len(drained["player"]) != 2 {
		t.Fatalf("expected 2 player batches, got %d", len(drained["player"]))
	}
	if string(drained["player"][0]) != `[{"type":"build"}]` {
		t.Fatalf("expected submission order, got %s first", drained["player"][0])
	}
	if len(drained["ai_0"]) != 1 {
		t.Fatalf("expected 1 ai_0 batch, got %d", len(drained["ai_0"]))
	}
	if _, ok := drained["ai_1"]; ok {
		t.Fatal("did not expect ai_1 in results")
	}

	// Drain clears the queues
	again, err := c.DrainCommands(ctx, gameID, []string{"player", "ai_0"})
	if err != nil {
		t.Fatalf("second drain: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected empty queues after drain, got %v", again)
	}
}

func TestTurnTimerWithTTL(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-3"

	deadline := time.Now().Add(10 * time.Second)
	if err := c.SetTurnTimer(ctx, gameID, deadline); err != nil {
		t.Fatalf("set turn timer: %v", err)
	}

	ttl := testRDB.TTL(ctx, timerKey(gameID)).Val()
	if ttl <= 0 || ttl > 16*time.Second {
		t.Fatalf("expected TTL ~15s, got %v", ttl)
	}

	c.ClearTurnTimer(ctx, gameID)
	exists := testRDB.Exists(ctx, timerKey(gameID)).Val()
	if exists != 0 {
		t.Fatal("expected timer key to be deleted")
	}
}

func TestTurnTimerPastDeadline(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-3b"

	deadline := time.Now().Add(-10 * time.Second)
	if err := c.SetTurnTimer(ctx, gameID, deadline); err != nil {
		t.Fatalf("set timer past deadline: %v", err)
	}

	ttl := testRDB.TTL(ctx, timerKey(gameID)).Val()
	if ttl <= 0 || ttl > 2*time.Second {
		t.Fatalf("expected TTL ~1s for past deadline, got %v", ttl)
	}
}

func TestDeleteGameData(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	gameID := "test-game-4"
	factions := []string{"player", "ai_0"}

	c.SaveState(ctx, gameID, json.RawMessage(`{"turn":1}`))
	c.QueueCommands(ctx, gameID, "player", json.RawMessage(`[]`))
	c.SetTurnTimer(ctx, gameID, time.Now().Add(10*time.Second))

	if err := c.DeleteGameData(ctx, gameID, factions); err != nil {
		t.Fatalf("delete game data: %v", err)
	}

	state, _ := c.GetState(ctx, gameID)
	if state != nil {
		t.Fatal("expected game state deleted")
	}
	drained, _ := c.DrainCommands(ctx, gameID, factions)
	if len(drained) != 0 {
		t.Fatal("expected command queues deleted")
	}
	exists := testRDB.Exists(ctx, timerKey(gameID)).Val()
	if exists != 0 {
		t.Fatal("expected timer deleted")
	}
}
