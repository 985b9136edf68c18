package auth

import "sync"

type Transition int

const (
	NoChange Transition = iota
	LoggedIn
	LoggedOut
)

// Tracker remembers which user was last seen on one browser session so
// sign-in and sign-out are reported once each. A fresh token for the same
// user is not a new sign-in.
type Tracker struct {
	mu   sync.Mutex
	user string
}

// Observe records the user seen on a request, "" when anonymous.
func (t *Tracker) Observe(userID string) Transition {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.user
	t.user = userID
	switch {
	case userID == prev:
		return NoChange
	case userID == "":
		return LoggedOut
	}
	return LoggedIn
}

// User is the last observed user id.
func (t *Tracker) User() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.user
}

// Seed sets the last observed user without reporting a transition.
func (t *Tracker) Seed(userID string) {
	t.mu.Lock()
	t.user = userID
	t.mu.Unlock()
}

// WelcomeMessage greets a freshly signed-in user by name when one is known.
func WelcomeMessage(name string) string {
	if name != "" {
		return "Welcome, " + name + "! 👋"
	}
	return "Successfully logged in! 👋"
}

const LogoutMessage = "You have been logged out. See you soon! 👋"
