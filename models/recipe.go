package models

import "strings"

// Recipe is a saved recipe as the persistence API and the Mongo store see it.
// UserEmail and ImageURL are optional; use the accessor methods instead of
// dereferencing them directly.
type Recipe struct {
	ID           string    `json:"id" bson:"id"`
	TempID       string    `json:"_temp_id,omitempty" bson:"-"`
	RecipeName   string    `json:"recipe_name" bson:"recipe_name"`
	Ingredients  []string  `json:"ingredients" bson:"ingredients"`
	Instructions []string  `json:"instructions" bson:"instructions"`
	CookingTips  []string  `json:"cooking_tips,omitempty" bson:"cooking_tips"`
	SavedDate    Timestamp `json:"saved_date" bson:"saved_date"`
	IsFavorite   bool      `json:"is_favorite" bson:"is_favorite"`
	IsShared     bool      `json:"is_shared" bson:"is_shared"`
	UserID       string    `json:"user_id" bson:"user_id"`
	UserEmail    *string   `json:"user_email,omitempty" bson:"user_email,omitempty"`
	ImageURL     *string   `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
}

// Email returns the owner's email when the record carries one.
func (r Recipe) Email() (string, bool) {
	if r.UserEmail == nil || strings.TrimSpace(*r.UserEmail) == "" {
		return "", false
	}
	return *r.UserEmail, true
}

// Image returns the generated image URL when present.
func (r Recipe) Image() (string, bool) {
	if r.ImageURL == nil || strings.TrimSpace(*r.ImageURL) == "" {
		return "", false
	}
	return *r.ImageURL, true
}

func (r Recipe) HasTips() bool {
	return len(r.CookingTips) > 0
}

// Clone returns a deep copy so callers can hand recipes out without sharing
// slice backing arrays.
func (r Recipe) Clone() Recipe {
	out := r
	out.Ingredients = cloneStrings(r.Ingredients)
	out.Instructions = cloneStrings(r.Instructions)
	out.CookingTips = cloneStrings(r.CookingTips)
	if r.UserEmail != nil {
		v := *r.UserEmail
		out.UserEmail = &v
	}
	if r.ImageURL != nil {
		v := *r.ImageURL
		out.ImageURL = &v
	}
	return out
}

// WithoutTempID strips the client-only temporary id before the payload is
// sent to the persistence API.
func (r Recipe) WithoutTempID() Recipe {
	out := r.Clone()
	out.TempID = ""
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// StringPtr is a helper for optional string fields.
func StringPtr(s string) *string {
	return &s
}
