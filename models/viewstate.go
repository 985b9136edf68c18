package models

import "fmt"

// Scope selects which collection the cookbook is browsing.
type Scope string

const (
	ScopeAll       Scope = "all"
	ScopeFavorites Scope = "favorites"
	ScopeCommunity Scope = "community"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeAll, ScopeFavorites, ScopeCommunity:
		return true
	}
	return false
}

// Bucket is a coarse numeric range for ingredient and step counts.
type Bucket string

const (
	BucketAny     Bucket = "any"
	BucketUnder10 Bucket = "<10"
	Bucket10To20  Bucket = "10-20"
	BucketOver20  Bucket = ">20"
)

func (b Bucket) Valid() bool {
	switch b {
	case BucketAny, BucketUnder10, Bucket10To20, BucketOver20:
		return true
	}
	return false
}

// Matches reports whether n falls in the bucket. Unknown buckets match
// everything.
func (b Bucket) Matches(n int) bool {
	switch b {
	case BucketUnder10:
		return n < 10
	case Bucket10To20:
		return n >= 10 && n <= 20
	case BucketOver20:
		return n > 20
	default:
		return true
	}
}

type SortOrder string

const (
	SortDefault SortOrder = "default"
	SortNewest  SortOrder = "newest"
	SortOldest  SortOrder = "oldest"
)

func (o SortOrder) Valid() bool {
	switch o {
	case SortDefault, SortNewest, SortOldest:
		return true
	}
	return false
}

// ViewState is the user-controlled browsing state of the cookbook.
type ViewState struct {
	Scope           Scope     `json:"scope"`
	SearchTerm      string    `json:"searchTerm"`
	IngredientCount Bucket    `json:"ingredientCountBucket"`
	StepCount       Bucket    `json:"stepCountBucket"`
	SortOrder       SortOrder `json:"sortOrder"`
}

// DefaultViewState is the state a fresh cookbook view starts in.
func DefaultViewState() ViewState {
	return ViewState{
		Scope:           ScopeAll,
		IngredientCount: BucketAny,
		StepCount:       BucketAny,
		SortOrder:       SortDefault,
	}
}

// Cleared resets every filter to its default but keeps the scope.
func (v ViewState) Cleared() ViewState {
	out := DefaultViewState()
	out.Scope = v.Scope
	return out
}

// Normalized fills empty fields with their defaults.
func (v ViewState) Normalized() ViewState {
	if v.Scope == "" {
		v.Scope = ScopeAll
	}
	if v.IngredientCount == "" {
		v.IngredientCount = BucketAny
	}
	if v.StepCount == "" {
		v.StepCount = BucketAny
	}
	if v.SortOrder == "" {
		v.SortOrder = SortDefault
	}
	return v
}

func (v ViewState) Validate() error {
	if !v.Scope.Valid() {
		return fmt.Errorf("invalid scope %q", v.Scope)
	}
	if !v.IngredientCount.Valid() {
		return fmt.Errorf("invalid ingredient count bucket %q", v.IngredientCount)
	}
	if !v.StepCount.Valid() {
		return fmt.Errorf("invalid step count bucket %q", v.StepCount)
	}
	if !v.SortOrder.Valid() {
		return fmt.Errorf("invalid sort order %q", v.SortOrder)
	}
	return nil
}
