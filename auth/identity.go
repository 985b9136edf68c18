// Package auth verifies identity-provider tokens and builds the provider's
// login and logout redirect URLs. Credentials never pass through this service.
package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"aichef/recipes"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the OpenID profile claims the cookbook uses.
type Claims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret   []byte
	Issuer   string
	Audience string
	// Domain and ClientID address the hosted login pages.
	Domain   string
	ClientID string
}

type Identity struct {
	cfg    Config
	parser *jwt.Parser
}

func NewIdentity(cfg Config) *Identity {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Identity{cfg: cfg, parser: jwt.NewParser(opts...)}
}

// Verify checks a raw bearer token and returns the principal it names. The
// token is kept on the principal for forwarding to the recipe API.
func (id *Identity) Verify(raw string) (recipes.Principal, error) {
	if raw == "" {
		return recipes.Principal{}, ErrMissingToken
	}
	claims := &Claims{}
	token, err := id.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return id.cfg.Secret, nil
	})
	if err != nil || !token.Valid {
		return recipes.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return recipes.Principal{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return recipes.Principal{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Token:  raw,
	}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(header[7:]), true
}

// LoginURL is where the browser goes to sign in; the provider sends it back
// to returnTo afterwards.
func (id *Identity) LoginURL(returnTo string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", id.cfg.ClientID)
	q.Set("redirect_uri", returnTo)
	q.Set("scope", "openid profile email")
	if id.cfg.Audience != "" {
		q.Set("audience", id.cfg.Audience)
	}
	return id.base() + "/authorize?" + q.Encode()
}

func (id *Identity) LogoutURL(returnTo string) string {
	q := url.Values{}
	q.Set("client_id", id.cfg.ClientID)
	q.Set("returnTo", returnTo)
	return id.base() + "/v2/logout?" + q.Encode()
}

func (id *Identity) base() string {
	d := strings.TrimRight(id.cfg.Domain, "/")
	if strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://") {
		return d
	}
	return "https://" + d
}
