package cookbook

import (
	"slices"
	"strings"

	"aichef/models"
)

// Sources are the two raw collections a view can draw from. They are separate
// id scopes and are never merged.
type Sources struct {
	Personal  []models.Recipe
	Community []models.Recipe
}

// Derive returns the displayable list for a view state. It is pure: the
// inputs are not modified and equal inputs give equal output.
func Derive(src Sources, view models.ViewState) []models.Recipe {
	view = view.Normalized()

	source := src.Personal
	if view.Scope == models.ScopeCommunity {
		source = src.Community
	}

	term := strings.ToLower(view.SearchTerm)
	out := make([]models.Recipe, 0, len(source))
	for _, r := range source {
		if !matchesScope(r, view.Scope) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(r.RecipeName), term) {
			continue
		}
		if !view.IngredientCount.Matches(len(r.Ingredients)) {
			continue
		}
		if !view.StepCount.Matches(len(r.Instructions)) {
			continue
		}
		out = append(out, r.Clone())
	}

	switch view.SortOrder {
	case models.SortNewest:
		slices.SortStableFunc(out, func(a, b models.Recipe) int {
			return b.SavedDate.Compare(a.SavedDate.Time)
		})
	case models.SortOldest:
		slices.SortStableFunc(out, func(a, b models.Recipe) int {
			return a.SavedDate.Compare(b.SavedDate.Time)
		})
	}
	return out
}

func matchesScope(r models.Recipe, scope models.Scope) bool {
	if scope == models.ScopeFavorites {
		return r.IsFavorite
	}
	return true
}
