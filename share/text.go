// Package share renders saved recipes for sharing outside the app: plain
// text, a printable PDF card with a QR link, and image thumbnails.
package share

import (
	"fmt"
	"strings"

	"aichef/models"
)

const footer = "Shared from AI Chef"

// Text formats a recipe for the clipboard and social share targets.
func Text(r models.Recipe) string {
	var b strings.Builder
	b.WriteString(r.RecipeName)
	b.WriteString("\n\nINGREDIENTS:\n")
	writeBullets(&b, r.Ingredients)
	b.WriteString("\n\nINSTRUCTIONS:\n")
	for i, step := range r.Instructions {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, step)
	}
	if r.HasTips() {
		b.WriteString("\n\nTIPS:\n")
		writeBullets(&b, r.CookingTips)
	}
	b.WriteString("\n\n")
	b.WriteString(footer)
	return b.String()
}

func writeBullets(b *strings.Builder, items []string) {
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• ")
		b.WriteString(item)
	}
}

// DisplayUser names a recipe's owner for community listings: the email when
// known, otherwise the provider prefix of an "provider|id" user id.
func DisplayUser(r models.Recipe) string {
	if r.UserID == "" {
		return "Unknown user"
	}
	if email, ok := r.Email(); ok {
		return email
	}
	if prefix, _, found := strings.Cut(r.UserID, "|"); found {
		return prefix
	}
	return r.UserID
}

// Byline is the caption under a recipe title.
func Byline(r models.Recipe, community bool) string {
	date := r.SavedDate.Format("Jan 2, 2006")
	if community {
		return fmt.Sprintf("Shared by %s on %s", DisplayUser(r), date)
	}
	return "Saved on " + date
}
