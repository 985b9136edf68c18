package chefapi

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"aichef/models"
	"aichef/recipes"
)

func (c *Client) Save(ctx context.Context, p recipes.Principal, r models.Recipe) (models.Recipe, error) {
	if !p.Authenticated() {
		return models.Recipe{}, recipes.ErrUnauthorized
	}
	data, err := c.call(ctx, http.MethodPost, "/recipes/save", p.Token, r.WithoutTempID())
	if err != nil {
		return models.Recipe{}, err
	}
	saved, err := decode[models.Recipe](data, "saved recipe")
	if err != nil {
		return models.Recipe{}, err
	}
	c.log.Debug("recipe saved", zap.String("id", saved.ID))
	return saved, nil
}

func (c *Client) ListByUser(ctx context.Context, p recipes.Principal) ([]models.Recipe, error) {
	if !p.Authenticated() {
		return nil, recipes.ErrUnauthorized
	}
	data, err := c.call(ctx, http.MethodGet, "/recipes/user", p.Token, nil)
	if err != nil {
		return nil, err
	}
	list, err := decode[[]models.Recipe](data, "user recipes")
	return nonNil(list), err
}

func (c *Client) Delete(ctx context.Context, p recipes.Principal, id string) error {
	if !p.Authenticated() {
		return recipes.ErrUnauthorized
	}
	_, err := c.call(ctx, http.MethodDelete, "/recipes/"+url.PathEscape(id), p.Token, nil)
	return err
}

func (c *Client) SetFavorite(ctx context.Context, p recipes.Principal, id string, favorite bool) (models.Recipe, error) {
	return c.setFlag(ctx, p, id, "favorite", map[string]bool{"is_favorite": favorite})
}

func (c *Client) SetShared(ctx context.Context, p recipes.Principal, id string, shared bool) (models.Recipe, error) {
	return c.setFlag(ctx, p, id, "shared", map[string]bool{"is_shared": shared})
}

func (c *Client) ListShared(ctx context.Context) ([]models.Recipe, error) {
	data, err := c.call(ctx, http.MethodGet, "/recipes/community", "", nil)
	if err != nil {
		return nil, err
	}
	list, err := decode[[]models.Recipe](data, "community recipes")
	return nonNil(list), err
}

func (c *Client) setFlag(ctx context.Context, p recipes.Principal, id, flag string, body map[string]bool) (models.Recipe, error) {
	if !p.Authenticated() {
		return models.Recipe{}, recipes.ErrUnauthorized
	}
	data, err := c.call(ctx, http.MethodPost, "/recipes/"+url.PathEscape(id)+"/"+flag, p.Token, body)
	if err != nil {
		return models.Recipe{}, err
	}
	return decode[models.Recipe](data, flag+" update")
}
