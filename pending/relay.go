package pending

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"aichef/models"
)

// PersistFunc saves a recipe through the persistence API and returns the
// stored copy.
type PersistFunc func(ctx context.Context, r models.Recipe) (models.Recipe, error)

type Outcome int

const (
	// Skipped: not authenticated, nothing stashed, or the redirect flag unset.
	Skipped Outcome = iota
	// Busy: another flush for this relay is still running.
	Busy
	Flushed
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Busy:
		return "busy"
	case Flushed:
		return "flushed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type FlushResult struct {
	Outcome Outcome
	Saved   models.Recipe
	Err     error
}

var ErrNoRecipeName = errors.New("pending: recipe has no name")

// Relay holds at most one recipe across the login redirect and saves it once
// the user is authenticated.
type Relay struct {
	store    Store
	log      *zap.Logger
	inFlight atomic.Bool

	mu sync.Mutex
	// delivered is a recipe already persisted whose stash could not be
	// cleared. It is never persisted a second time.
	delivered *models.Recipe
}

const clearAttempts = 3

func NewRelay(store Store, log *zap.Logger) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{store: store, log: log}
}

// Stash stores r as the pending recipe and sets the redirect flag. An earlier
// stash is overwritten.
func (r *Relay) Stash(ctx context.Context, recipe models.Recipe) error {
	if recipe.RecipeName == "" {
		return ErrNoRecipeName
	}
	p := models.PendingRecipe{Recipe: recipe.WithoutTempID(), Redirect: true}
	if err := r.store.Save(ctx, p); err != nil {
		return fmt.Errorf("stash pending recipe: %w", err)
	}
	r.setDelivered(nil)
	r.log.Info("recipe stashed until sign-in", zap.String("recipe", recipe.RecipeName))
	return nil
}

// Pending returns the stashed recipe, or nil.
func (r *Relay) Pending(ctx context.Context) (*models.PendingRecipe, error) {
	return r.store.Load(ctx)
}

// Abandon drops the stash without saving it.
func (r *Relay) Abandon(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return err
	}
	r.setDelivered(nil)
	return nil
}

func (r *Relay) setDelivered(recipe *models.Recipe) {
	r.mu.Lock()
	r.delivered = recipe
	r.mu.Unlock()
}

func (r *Relay) wasDelivered(recipe models.Recipe) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delivered != nil && reflect.DeepEqual(*r.delivered, recipe)
}

func (r *Relay) clear(ctx context.Context) error {
	var err error
	for i := 0; i < clearAttempts; i++ {
		if err = r.store.Clear(ctx); err == nil || ctx.Err() != nil {
			return err
		}
	}
	return err
}

// TryFlush saves the stashed recipe when the user is authenticated. On
// success both slots are cleared; on failure they are left for a later
// attempt. A stash that was saved but could not be cleared is only cleared on
// later calls, never saved again. A call made while another flush is running
// returns Busy without touching the store.
func (r *Relay) TryFlush(ctx context.Context, authenticated bool, persist PersistFunc) FlushResult {
	if !authenticated {
		return FlushResult{Outcome: Skipped}
	}
	if !r.inFlight.CompareAndSwap(false, true) {
		return FlushResult{Outcome: Busy}
	}
	defer r.inFlight.Store(false)

	p, err := r.store.Load(ctx)
	if err != nil {
		return FlushResult{Outcome: Failed, Err: fmt.Errorf("load pending recipe: %w", err)}
	}
	if p == nil || !p.Redirect {
		return FlushResult{Outcome: Skipped}
	}
	if r.wasDelivered(p.Recipe) {
		if err := r.clear(ctx); err != nil {
			r.log.Warn("clear delivered pending recipe", zap.Error(err))
		} else {
			r.setDelivered(nil)
		}
		return FlushResult{Outcome: Skipped}
	}

	saved, err := persist(ctx, p.Recipe)
	if err != nil {
		r.log.Warn("pending recipe save failed; keeping it for retry",
			zap.String("recipe", p.Recipe.RecipeName), zap.Error(err))
		return FlushResult{Outcome: Failed, Err: err}
	}

	if err := r.clear(ctx); err != nil {
		r.log.Error("clear pending recipe", zap.Error(err))
		delivered := p.Recipe
		r.setDelivered(&delivered)
	}
	r.log.Info("pending recipe saved", zap.String("id", saved.ID))
	return FlushResult{Outcome: Flushed, Saved: saved}
}
