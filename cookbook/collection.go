package cookbook

import (
	"slices"
	"sync"

	"aichef/models"
)

// Collection is the cookbook view-model: the personal and community recipe
// lists plus the view state. It is the only writer of those lists; every
// mutation happens under one lock so Derived never sees a half-applied change.
type Collection struct {
	mu        sync.RWMutex
	personal  []models.Recipe
	community []models.Recipe
	view      models.ViewState
}

func New() *Collection {
	return &Collection{view: models.DefaultViewState()}
}

// Derived recomputes the visible list from the current state.
func (c *Collection) Derived() []models.Recipe {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Derive(Sources{Personal: c.personal, Community: c.community}, c.view)
}

func (c *Collection) View() models.ViewState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// SetView replaces the view state after validating it. Empty fields take
// their defaults.
func (c *Collection) SetView(v models.ViewState) error {
	v = v.Normalized()
	if err := v.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
	return nil
}

// UpdateView applies fn to a copy of the view state and stores the result if
// it is valid.
func (c *Collection) UpdateView(fn func(*models.ViewState)) (models.ViewState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.view
	fn(&next)
	next = next.Normalized()
	if err := next.Validate(); err != nil {
		return c.view, err
	}
	c.view = next
	return next, nil
}

// ClearFilters restores every view field except the scope.
func (c *Collection) ClearFilters() models.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = c.view.Cleared()
	return c.view
}

func (c *Collection) SetPersonal(recipes []models.Recipe) {
	next := cloneAll(recipes)
	c.mu.Lock()
	c.personal = next
	c.mu.Unlock()
}

func (c *Collection) SetCommunity(recipes []models.Recipe) {
	next := cloneAll(recipes)
	c.mu.Lock()
	c.community = next
	c.mu.Unlock()
}

func (c *Collection) Personal() []models.Recipe {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAll(c.personal)
}

func (c *Collection) Community() []models.Recipe {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAll(c.community)
}

// Find looks the id up in the personal list first, then in the community
// list.
func (c *Collection) Find(id string) (models.Recipe, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := indexOf(c.personal, id); i >= 0 {
		return c.personal[i].Clone(), true
	}
	if i := indexOf(c.community, id); i >= 0 {
		return c.community[i].Clone(), true
	}
	return models.Recipe{}, false
}

// Add appends a freshly saved recipe to the personal list, replacing an entry
// with the same id. A shared recipe is mirrored into the community list.
func (c *Collection) Add(r models.Recipe) {
	r = r.Clone()
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.personal, r.ID); i >= 0 {
		c.personal[i] = r
	} else {
		c.personal = append(c.personal, r)
	}
	if r.IsShared {
		c.community = upsert(c.community, r)
	}
}

// ToggleFavorite sets is_favorite on the personal entry. Unknown ids are
// ignored; the return value reports whether an entry was updated.
func (c *Collection) ToggleFavorite(id string, favorite bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := indexOf(c.personal, id)
	if i < 0 {
		return false
	}
	c.personal[i].IsFavorite = favorite
	return true
}

// ToggleShared sets is_shared on the personal entry and keeps the community
// list in step: sharing appends the recipe if it is absent, unsharing drops
// it.
func (c *Collection) ToggleShared(id string, shared bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := indexOf(c.personal, id)
	if i < 0 {
		return false
	}
	c.personal[i].IsShared = shared
	if shared {
		if j := indexOf(c.community, id); j >= 0 {
			c.community[j].IsShared = true
		} else {
			c.community = append(c.community, c.personal[i].Clone())
		}
	} else {
		c.community = slices.DeleteFunc(c.community, func(r models.Recipe) bool { return r.ID == id })
	}
	return true
}

// Remove deletes the recipe from the personal list. A deleted recipe also
// leaves the community list so it stops being visible there.
func (c *Collection) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := indexOf(c.personal, id)
	if i < 0 {
		return false
	}
	c.personal = slices.Delete(c.personal, i, i+1)
	c.community = slices.DeleteFunc(c.community, func(r models.Recipe) bool { return r.ID == id })
	return true
}

func indexOf(list []models.Recipe, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(list, func(r models.Recipe) bool { return r.ID == id })
}

func upsert(list []models.Recipe, r models.Recipe) []models.Recipe {
	if i := indexOf(list, r.ID); i >= 0 {
		list[i] = r.Clone()
		return list
	}
	return append(list, r.Clone())
}

func cloneAll(in []models.Recipe) []models.Recipe {
	out := make([]models.Recipe, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
