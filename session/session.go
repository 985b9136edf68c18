// Package session wires one browser session's cookbook, notification queue
// and pending-recipe relay to the recipe store. Every user-facing flow posts
// exactly one notification describing its outcome.
package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aichef/auth"
	"aichef/cookbook"
	"aichef/models"
	"aichef/notify"
	"aichef/pending"
	"aichef/recipes"
)

const (
	MsgLoadPersonalFailed  = "Failed to load your recipes. Please try again."
	MsgLoadCommunityFailed = "Failed to load community recipes. Please try again."
	MsgSaved               = "Recipe saved successfully!"
	MsgSaveFailed          = "Failed to save recipe. Please try again."
	MsgSignInToSave        = "Please sign in to save this recipe."
	MsgPendingSaveFailed   = "Failed to save your pending recipe. It will be retried automatically."
	MsgDeleted             = "Recipe deleted successfully!"
	MsgDeleteFailed        = "Failed to delete recipe. Please try again."
	MsgFavoriteAdded       = "Added to favorites! ❤️"
	MsgFavoriteRemoved     = "Removed from favorites"
	MsgFavoriteFailed      = "Failed to update favorite status"
	MsgShared              = "Recipe shared with community! 🌎"
	MsgUnshared            = "Recipe removed from community"
	MsgShareFailed         = "Failed to update shared status"
	MsgFiltersCleared      = "Filters cleared"
)

// Publisher receives encoded notification snapshots for a session.
type Publisher interface {
	Publish(room string, data []byte)
}

type Session struct {
	ID string

	store    recipes.Store
	coll     *cookbook.Collection
	queue    *notify.Queue
	relay    *pending.Relay
	tracker  auth.Tracker
	log      *zap.Logger
	lastSeen atomic.Int64
	// flushWarned is set once the current stash has failed to flush.
	flushWarned atomic.Bool
}

func newSession(id string, store recipes.Store, ps pending.Store, opts notify.Options, pub Publisher, log *zap.Logger) *Session {
	log = log.With(zap.String("session", id))
	opts.Logger = log
	s := &Session{
		ID:    id,
		store: store,
		coll:  cookbook.New(),
		queue: notify.NewQueue(opts),
		relay: pending.NewRelay(ps, log),
		log:   log,
	}
	if pub != nil {
		s.queue.OnChange(func(ns []models.Notification) {
			pub.Publish(id, notify.EncodeSnapshot(ns))
		})
	}
	s.touch(time.Now())
	return s
}

func (s *Session) touch(t time.Time) {
	s.lastSeen.Store(t.UnixNano())
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) notify(message string, hint models.Severity) {
	if _, err := s.queue.Enqueue(message, hint); err != nil {
		s.log.Warn("notification dropped", zap.Error(err))
	}
}

// Refresh loads the personal and community lists concurrently. An anonymous
// principal gets an empty personal list without a failure notice.
func (s *Session) Refresh(ctx context.Context, p recipes.Principal) error {
	var g errgroup.Group
	g.Go(func() error {
		err := s.refreshPersonal(ctx, p)
		if errors.Is(err, recipes.ErrUnauthorized) {
			return nil
		}
		if err != nil {
			s.notify(MsgLoadPersonalFailed, models.SeverityError)
		}
		return err
	})
	g.Go(func() error {
		err := s.refreshCommunity(ctx)
		if err != nil {
			s.notify(MsgLoadCommunityFailed, models.SeverityError)
		}
		return err
	})
	return g.Wait()
}

func (s *Session) refreshPersonal(ctx context.Context, p recipes.Principal) error {
	if !p.Authenticated() {
		s.coll.SetPersonal(nil)
		return nil
	}
	list, err := s.store.ListByUser(ctx, p)
	if err != nil {
		if errors.Is(err, recipes.ErrUnauthorized) {
			s.coll.SetPersonal(nil)
		}
		s.log.Warn("load personal recipes", zap.Error(err))
		return err
	}
	s.coll.SetPersonal(list)
	return nil
}

func (s *Session) refreshCommunity(ctx context.Context) error {
	list, err := s.store.ListShared(ctx)
	if err != nil {
		s.log.Warn("load community recipes", zap.Error(err))
		return err
	}
	s.coll.SetCommunity(list)
	return nil
}

// resync quietly reloads server state after a failed mutation.
func (s *Session) resync(ctx context.Context, p recipes.Principal, community bool) {
	if err := s.refreshPersonal(ctx, p); err != nil {
		s.log.Debug("corrective refetch of personal recipes failed", zap.Error(err))
	}
	if !community {
		return
	}
	if err := s.refreshCommunity(ctx); err != nil {
		s.log.Debug("corrective refetch of community recipes failed", zap.Error(err))
	}
}

type SaveResult struct {
	Saved models.Recipe
	// NeedsLogin is set when the recipe was stashed until the user signs in.
	NeedsLogin bool
}

// Save persists r for an authenticated user. Anonymous users, and users whose
// token the store rejects, get the recipe stashed for after sign-in.
func (s *Session) Save(ctx context.Context, p recipes.Principal, r models.Recipe) (SaveResult, error) {
	if !p.Authenticated() {
		return s.stashForLogin(ctx, r)
	}
	saved, err := s.store.Save(ctx, p, r)
	if errors.Is(err, recipes.ErrUnauthorized) {
		return s.stashForLogin(ctx, r)
	}
	if err != nil {
		s.log.Warn("save recipe", zap.String("recipe", r.RecipeName), zap.Error(err))
		s.notify(MsgSaveFailed, models.SeverityError)
		return SaveResult{}, err
	}
	s.coll.Add(saved)
	s.notify(MsgSaved, models.SeveritySuccess)
	return SaveResult{Saved: saved}, nil
}

func (s *Session) stashForLogin(ctx context.Context, r models.Recipe) (SaveResult, error) {
	if err := s.relay.Stash(ctx, r); err != nil {
		s.notify(MsgSaveFailed, models.SeverityError)
		return SaveResult{}, err
	}
	s.flushWarned.Store(false)
	s.notify(MsgSignInToSave, models.SeverityInfo)
	return SaveResult{NeedsLogin: true}, nil
}

// ObserveAuth runs on every request. A change of user posts the welcome or
// farewell notice. Every authenticated request retries a pending recipe, and
// a failing stash is reported once until it is flushed or replaced.
func (s *Session) ObserveAuth(ctx context.Context, p recipes.Principal) pending.FlushResult {
	s.touch(time.Now())
	switch s.tracker.Observe(p.UserID) {
	case auth.LoggedIn:
		s.notify(auth.WelcomeMessage(p.Name), models.SeverityInfo)
	case auth.LoggedOut:
		s.notify(auth.LogoutMessage, models.SeverityInfo)
	}
	if !p.Authenticated() {
		return pending.FlushResult{Outcome: pending.Skipped}
	}

	res := s.relay.TryFlush(ctx, true, func(ctx context.Context, r models.Recipe) (models.Recipe, error) {
		return s.store.Save(ctx, p, r)
	})
	switch res.Outcome {
	case pending.Flushed:
		s.flushWarned.Store(false)
		s.coll.Add(res.Saved)
		s.notify(MsgSaved, models.SeveritySuccess)
		if err := s.refreshPersonal(ctx, p); err != nil {
			s.log.Debug("refresh after pending save", zap.Error(err))
		}
	case pending.Failed:
		// a rejected token was already answered with the sign-in prompt
		if errors.Is(res.Err, recipes.ErrUnauthorized) {
			break
		}
		if s.flushWarned.CompareAndSwap(false, true) {
			s.notify(MsgPendingSaveFailed, models.SeverityError)
		}
	}
	return res
}

// Delete removes a recipe remotely first, then locally.
func (s *Session) Delete(ctx context.Context, p recipes.Principal, id string) error {
	if err := s.store.Delete(ctx, p, id); err != nil {
		s.log.Warn("delete recipe", zap.String("id", id), zap.Error(err))
		s.notify(MsgDeleteFailed, models.SeverityError)
		if !errors.Is(err, recipes.ErrUnauthorized) {
			s.resync(ctx, p, true)
		}
		return err
	}
	s.coll.Remove(id)
	s.notify(MsgDeleted, models.SeveritySuccess)
	return nil
}

func (s *Session) SetFavorite(ctx context.Context, p recipes.Principal, id string, favorite bool) error {
	if _, err := s.store.SetFavorite(ctx, p, id, favorite); err != nil {
		s.log.Warn("update favorite", zap.String("id", id), zap.Error(err))
		s.notify(MsgFavoriteFailed, models.SeverityError)
		if !errors.Is(err, recipes.ErrUnauthorized) {
			s.resync(ctx, p, false)
		}
		return err
	}
	s.coll.ToggleFavorite(id, favorite)
	if favorite {
		s.notify(MsgFavoriteAdded, models.SeveritySuccess)
	} else {
		s.notify(MsgFavoriteRemoved, models.SeveritySuccess)
	}
	return nil
}

func (s *Session) SetShared(ctx context.Context, p recipes.Principal, id string, shared bool) error {
	if _, err := s.store.SetShared(ctx, p, id, shared); err != nil {
		s.log.Warn("update shared", zap.String("id", id), zap.Error(err))
		s.notify(MsgShareFailed, models.SeverityError)
		if !errors.Is(err, recipes.ErrUnauthorized) {
			s.resync(ctx, p, true)
		}
		return err
	}
	s.coll.ToggleShared(id, shared)
	if shared {
		s.notify(MsgShared, models.SeveritySuccess)
	} else {
		s.notify(MsgUnshared, models.SeveritySuccess)
	}
	return nil
}

func (s *Session) ClearFilters() models.ViewState {
	v := s.coll.ClearFilters()
	s.notify(MsgFiltersCleared, models.SeverityInfo)
	return v
}

func (s *Session) SetView(v models.ViewState) error {
	return s.coll.SetView(v)
}

func (s *Session) UpdateView(fn func(*models.ViewState)) (models.ViewState, error) {
	return s.coll.UpdateView(fn)
}

func (s *Session) View() models.ViewState {
	return s.coll.View()
}

// Recipes is the list the cookbook view currently shows.
func (s *Session) Recipes() []models.Recipe {
	return s.coll.Derived()
}

// Find looks a recipe up in the personal list, then the community list.
func (s *Session) Find(id string) (models.Recipe, bool) {
	return s.coll.Find(id)
}

func (s *Session) Pending(ctx context.Context) (*models.PendingRecipe, error) {
	return s.relay.Pending(ctx)
}

func (s *Session) AbandonPending(ctx context.Context) error {
	return s.relay.Abandon(ctx)
}

func (s *Session) Notifications() []models.Notification {
	return s.queue.Snapshot()
}

func (s *Session) Dismiss(id int64) {
	s.queue.Dismiss(id)
}

// Notify posts a message on behalf of a caller outside the flows above.
func (s *Session) Notify(message string, hint models.Severity) {
	s.notify(message, hint)
}

// Close cancels every pending notification timer.
func (s *Session) Close() {
	s.queue.Close()
}
