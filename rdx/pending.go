package rdx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aichef/models"
)

const keyPrefix = "aichef:pending:"

func recipeKey(sessionID string) string   { return keyPrefix + sessionID + ":recipe" }
func redirectKey(sessionID string) string { return keyPrefix + sessionID + ":redirect" }

// PendingStores hands out session-scoped pending-recipe stores sharing one
// client. Both keys expire after TTL so an abandoned stash does not linger.
type PendingStores struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewPendingStores(client redis.Cmdable, ttl time.Duration) *PendingStores {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PendingStores{client: client, ttl: ttl}
}

// For returns the store for one session.
func (s *PendingStores) For(sessionID string) *PendingStore {
	return &PendingStore{client: s.client, ttl: s.ttl, session: sessionID}
}

// PendingStore keeps the recipe payload and the redirect flag in two keys.
type PendingStore struct {
	client  redis.Cmdable
	ttl     time.Duration
	session string
}

func (p *PendingStore) Load(ctx context.Context) (*models.PendingRecipe, error) {
	vals, err := p.client.MGet(ctx, recipeKey(p.session), redirectKey(p.session)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget pending: %w", err)
	}
	raw, ok := vals[0].(string)
	if !ok || raw == "" {
		return nil, nil
	}

	var recipe models.Recipe
	if err := json.Unmarshal([]byte(raw), &recipe); err != nil {
		// a corrupt payload can never be flushed; drop it
		if delErr := p.Clear(ctx); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return nil, fmt.Errorf("decode pending recipe: %w", err)
	}
	flag, _ := vals[1].(string)
	return &models.PendingRecipe{Recipe: recipe, Redirect: flag == "true"}, nil
}

func (p *PendingStore) Save(ctx context.Context, pr models.PendingRecipe) error {
	data, err := json.Marshal(pr.Recipe)
	if err != nil {
		return fmt.Errorf("encode pending recipe: %w", err)
	}
	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recipeKey(p.session), data, p.ttl)
		if pr.Redirect {
			pipe.Set(ctx, redirectKey(p.session), "true", p.ttl)
		} else {
			pipe.Del(ctx, redirectKey(p.session))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save pending: %w", err)
	}
	return nil
}

func (p *PendingStore) Clear(ctx context.Context) error {
	if err := p.client.Del(ctx, recipeKey(p.session), redirectKey(p.session)).Err(); err != nil {
		return fmt.Errorf("redis clear pending: %w", err)
	}
	return nil
}
