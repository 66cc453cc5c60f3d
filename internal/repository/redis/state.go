package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis game state.
func stateKey(gameID string) string             { return "game:" + gameID + ":state" }
func commandsKey(gameID, faction string) string { return "game:" + gameID + ":commands:" + faction }
func timerKey(gameID string) string             { return "game:" + gameID + ":timer" }

// SaveState stores the live simulation state JSON.
func (c *Client) SaveState(ctx context.Context, gameID string, state json.RawMessage) error {
	return c.rdb.Set(ctx, stateKey(gameID), []byte(state), 0).Err()
}

// GetState retrieves the live simulation state JSON, or nil if absent.
func (c *Client) GetState(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	return json.RawMessage(data), nil
}

// QueueCommands appends a faction's command batch to its pending queue.
// Multiple submissions within a turn accumulate in submission order.
func (c *Client) QueueCommands(ctx context.Context, gameID, factionID string, commands json.RawMessage) error {
	return c.rdb.RPush(ctx, commandsKey(gameID, factionID), []byte(commands)).Err()
}

// DrainCommands atomically takes and clears every faction's pending
// command batches. Called once per turn resolution.
func (c *Client) DrainCommands(ctx context.Context, gameID string, factionIDs []string) (map[string][]json.RawMessage, error) {
	pipe := c.rdb.TxPipeline()
	ranges := make(map[string]*redis.StringSliceCmd, len(factionIDs))
	for _, id := range factionIDs {
		key := commandsKey(gameID, id)
		ranges[id] = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("drain commands: %w", err)
	}

	result := make(map[string][]json.RawMessage)
	for id, cmd := range ranges {
		batches, err := cmd.Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("drain commands for %s: %w", id, err)
		}
		for _, b := range batches {
			result[id] = append(result[id], json.RawMessage(b))
		}
	}
	return result, nil
}

// turnGracePeriod is the extra time after the displayed deadline before
// turn resolution triggers, giving clients a few seconds of leeway.
const turnGracePeriod = 5 * time.Second

// SetTurnTimer creates a timer key with a TTL. When the key expires,
// Redis keyspace notifications trigger turn resolution.
func (c *Client) SetTurnTimer(ctx context.Context, gameID string, deadline time.Time) error {
	ttl := time.Until(deadline) + turnGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, timerKey(gameID), deadline.Unix(), ttl).Err()
}

// GetTurnTimer returns the deadline stored in the timer key, or false when
// no timer is set (never set, cleared, or already expired).
func (c *Client) GetTurnTimer(ctx context.Context, gameID string) (time.Time, bool, error) {
	unix, err := c.rdb.Get(ctx, timerKey(gameID)).Int64()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get turn timer: %w", err)
	}
	return time.Unix(unix, 0), true, nil
}

// ClearTurnTimer removes the turn timer for a game.
func (c *Client) ClearTurnTimer(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, timerKey(gameID)).Err()
}

// DeleteGameData removes all Redis data for a game (on game end).
func (c *Client) DeleteGameData(ctx context.Context, gameID string, factionIDs []string) error {
	keys := []string{stateKey(gameID), timerKey(gameID)}
	for _, id := range factionIDs {
		keys = append(keys, commandsKey(gameID, id))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
