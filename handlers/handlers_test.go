package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aichef/chefapi"
	"aichef/handlers"
	"aichef/models"
	"aichef/recipes"
	"aichef/session"
	"aichef/share"
	"aichef/utils"
)

var (
	alice = recipes.Principal{UserID: "auth0|alice", Name: "Alice", Token: "t"}
	anon  = recipes.Principal{}
)

type fakeStore struct {
	mu      sync.Mutex
	recipes map[string]models.Recipe
	seq     int
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{recipes: make(map[string]models.Recipe)}
}

func (f *fakeStore) Save(_ context.Context, p recipes.Principal, r models.Recipe) (models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Recipe{}, f.err
	}
	f.seq++
	r.ID = fmt.Sprintf("r-%d", f.seq)
	r.UserID = p.UserID
	f.recipes[r.ID] = r
	return r, nil
}

func (f *fakeStore) ListByUser(_ context.Context, p recipes.Principal) ([]models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Recipe{}
	for _, r := range f.recipes {
		if r.UserID == p.UserID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, _ recipes.Principal, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.recipes[id]; !ok {
		return recipes.ErrNotFound
	}
	delete(f.recipes, id)
	return nil
}

func (f *fakeStore) SetFavorite(_ context.Context, _ recipes.Principal, id string, v bool) (models.Recipe, error) {
	return f.update(id, func(r *models.Recipe) { r.IsFavorite = v })
}

func (f *fakeStore) SetShared(_ context.Context, _ recipes.Principal, id string, v bool) (models.Recipe, error) {
	return f.update(id, func(r *models.Recipe) { r.IsShared = v })
}

func (f *fakeStore) update(id string, fn func(*models.Recipe)) (models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Recipe{}, f.err
	}
	r, ok := f.recipes[id]
	if !ok {
		return models.Recipe{}, recipes.ErrNotFound
	}
	fn(&r)
	f.recipes[id] = r
	return r, nil
}

func (f *fakeStore) ListShared(context.Context) ([]models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Recipe{}
	for _, r := range f.recipes {
		if r.IsShared {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type fakeGenerator struct {
	lastAssistant chefapi.AssistantRequest
	lastUpload    chefapi.Upload
	lastPrompt    string
	err           error
	imageErr      error
}

func (g *fakeGenerator) Generate(_ context.Context, req chefapi.GenerateRequest) (json.RawMessage, error) {
	if g.err != nil {
		return nil, g.err
	}
	return json.RawMessage(fmt.Sprintf(`{"recipe_name":"Soup of %s"}`, strings.Join(req.Ingredients, " and "))), nil
}

func (g *fakeGenerator) Assistant(_ context.Context, req chefapi.AssistantRequest) (chefapi.AssistantReply, error) {
	g.lastAssistant = req
	if g.err != nil {
		return chefapi.AssistantReply{}, g.err
	}
	return chefapi.AssistantReply{Response: "Stir gently."}, nil
}

func (g *fakeGenerator) Suggestions(_ context.Context, req chefapi.SuggestionsRequest) (chefapi.Suggestions, error) {
	if g.err != nil {
		return chefapi.Suggestions{}, g.err
	}
	return chefapi.Suggestions{Suggestions: []chefapi.Suggestion{{RecipeName: "Bowl of " + req.Ingredients}}}, nil
}

func (g *fakeGenerator) FullRecipe(_ context.Context, name string) (chefapi.Generated, error) {
	return g.generated(name)
}

func (g *fakeGenerator) Direct(_ context.Context, query string) (chefapi.Generated, error) {
	return g.generated("Direct " + query)
}

func (g *fakeGenerator) DirectWithImage(_ context.Context, query string, img chefapi.Upload) (chefapi.Generated, error) {
	g.lastUpload = img
	out, err := g.generated("Photo " + query)
	out.DetectedIngredients = []string{"eggs"}
	return out, err
}

func (g *fakeGenerator) GenerateImage(_ context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	if g.imageErr != nil {
		return "", g.imageErr
	}
	return "data:image/png;base64,aGk=", nil
}

func (g *fakeGenerator) generated(name string) (chefapi.Generated, error) {
	if g.err != nil {
		return chefapi.Generated{}, g.err
	}
	return chefapi.Generated{Recipe: chefapi.GeneratedRecipe{RecipeName: name, Ingredients: []string{"salt"}}}, nil
}

type fakeThumbs struct{}

func (fakeThumbs) Thumbnail(_ context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, share.ErrNoImage
	}
	return []byte("jpeg"), nil
}

type fakeLinks struct{}

func (fakeLinks) LoginURL(rt string) string  { return "https://id.example/login?to=" + rt }
func (fakeLinks) LogoutURL(rt string) string { return "https://id.example/logout?to=" + rt }

type fixture struct {
	h     *handlers.Handler
	store *fakeStore
	gen   *fakeGenerator
	reg   *session.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	reg := session.NewRegistry(session.Deps{Store: store})
	t.Cleanup(reg.Close)
	gen := &fakeGenerator{}
	return &fixture{
		h: &handlers.Handler{
			Sessions:  reg,
			Generator: gen,
			Thumbs:    fakeThumbs{},
			Links:     fakeLinks{},
			PublicURL: "https://chef.example",
		},
		store: store,
		gen:   gen,
		reg:   reg,
	}
}

const sid = "0b0c7c52-54a4-4c3e-9a51-5b1f1d0b9f10"

func (f *fixture) do(h httprouter.Handle, method, target, body string, p recipes.Principal, ps ...httprouter.Param) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := utils.WithSessionID(req.Context(), sid)
	if p.Authenticated() {
		ctx = utils.WithPrincipal(ctx, p)
	}
	rec := httptest.NewRecorder()
	h(rec, req.WithContext(ctx), ps)
	return rec
}

func (f *fixture) messages() []string {
	var out []string
	for _, n := range f.reg.Notifications(sid) {
		out = append(out, n.Message)
	}
	return out
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const pasta = `{"recipe_name":"Garlic Butter Pasta","ingredients":["pasta","garlic","butter"],"instructions":["boil","toss"]}`

func idParam(id string) httprouter.Param { return httprouter.Param{Key: "id", Value: id} }

func TestSaveAnonymousStashesAndAsksForLogin(t *testing.T) {
	f := newFixture(t)
	rec := f.do(f.h.SaveRecipe, http.MethodPost, "/api/recipes/save", pasta, anon)
	require.Equal(t, http.StatusAccepted, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, true, body["needs_login"])
	assert.Equal(t, "https://id.example/login?to=https://chef.example/", body["login_url"])
	assert.Equal(t, []string{session.MsgSignInToSave}, f.messages())

	rec = f.do(f.h.GetPending, http.MethodGet, "/api/pending", "", anon)
	pending := decodeBody[struct {
		Pending *models.PendingRecipe `json:"pending"`
	}](t, rec)
	require.NotNil(t, pending.Pending)
	assert.Equal(t, "Garlic Butter Pasta", pending.Pending.Recipe.RecipeName)

	rec = f.do(f.h.AbandonPending, http.MethodDelete, "/api/pending", "", anon)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(f.h.GetPending, http.MethodGet, "/api/pending", "", anon)
	assert.JSONEq(t, `{"pending":null}`, rec.Body.String())
}

func TestSaveValidatesBody(t *testing.T) {
	f := newFixture(t)
	rec := f.do(f.h.SaveRecipe, http.MethodPost, "/api/recipes/save", `{"recipe_name":"  "}`, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(f.h.SaveRecipe, http.MethodPost, "/api/recipes/save", `not json`, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.messages())
}

func TestSaveAcceptsGeneratorExtras(t *testing.T) {
	f := newFixture(t)
	body := `{"recipe_name":"Miso Soup","ingredients":["miso","tofu"],"instructions":["simmer"],` +
		`"context":["doc-1"],"detected_ingredients":["tofu"],"difficulty":"easy"}`
	rec := f.do(f.h.SaveRecipe, http.MethodPost, "/api/recipes/save", body, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Miso Soup", decodeBody[models.Recipe](t, rec).RecipeName)
	assert.Equal(t, []string{session.MsgSaved}, f.messages())
}

func TestSaveThenBrowseAndToggle(t *testing.T) {
	f := newFixture(t)
	rec := f.do(f.h.SaveRecipe, http.MethodPost, "/api/recipes/save", pasta, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	saved := decodeBody[models.Recipe](t, rec)
	assert.Equal(t, "r-1", saved.ID)

	rec = f.do(f.h.GetCookbook, http.MethodGet, "/api/cookbook", "", alice)
	cb := decodeBody[struct {
		Authenticated bool            `json:"authenticated"`
		Recipes       []models.Recipe `json:"recipes"`
	}](t, rec)
	assert.True(t, cb.Authenticated)
	require.Len(t, cb.Recipes, 1)

	rec = f.do(f.h.SetFavorite, http.MethodPost, "/", `{"is_favorite":true}`, alice, idParam("r-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[models.Recipe](t, rec).IsFavorite)

	rec = f.do(f.h.SetShared, http.MethodPost, "/", `{"is_shared":true}`, alice, idParam("r-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[models.Recipe](t, rec).IsShared)

	rec = f.do(f.h.DeleteRecipe, http.MethodDelete, "/", "", alice, idParam("r-1"))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, []string{
		session.MsgSaved,
		session.MsgFavoriteAdded,
		session.MsgShared,
		session.MsgDeleted,
	}, f.messages())
}

func TestToggleRequiresFlag(t *testing.T) {
	f := newFixture(t)
	rec := f.do(f.h.SetFavorite, http.MethodPost, "/", `{}`, alice, idParam("r-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(f.h.SetShared, http.MethodPost, "/", `{"is_favorite":true}`, alice, idParam("r-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"unauthorized", recipes.ErrUnauthorized, http.StatusUnauthorized, `{"error":"Unauthorized","login_url":"https://id.example/login?to=https://chef.example/"}`},
		{"not found", recipes.ErrNotFound, http.StatusNotFound, `{"error":"Recipe not found"}`},
		{"client app error", &recipes.AppError{Status: 422, Reason: "Recipe is invalid"}, 422, `{"error":"Recipe is invalid"}`},
		{"server app error", &recipes.AppError{Status: 500, Reason: "API error: 500"}, http.StatusBadGateway, `{"error":"API error: 500"}`},
		{"transport", &recipes.TransportError{Op: "DELETE /recipes/x", Err: errors.New("refused")}, http.StatusBadGateway, `{"error":"Failed to delete recipe"}`},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, `{"error":"Failed to delete recipe"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.store.fail(tt.err)
			rec := f.do(f.h.DeleteRecipe, http.MethodDelete, "/", "", alice, idParam("x"))
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestUpdateViewPatchesAndValidates(t *testing.T) {
	f := newFixture(t)
	rec := f.do(f.h.UpdateView, http.MethodPut, "/", `{"searchTerm":"garlic","sortOrder":"newest"}`, anon)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[struct {
		View models.ViewState `json:"view"`
	}](t, rec).View
	assert.Equal(t, "garlic", view.SearchTerm)
	assert.Equal(t, models.SortNewest, view.SortOrder)
	assert.Equal(t, models.ScopeAll, view.Scope)

	rec = f.do(f.h.UpdateView, http.MethodPut, "/", `{"scope":"everything"}`, anon)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(f.h.ClearFilters, http.MethodPost, "/", "", anon)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeBody[struct {
		View models.ViewState `json:"view"`
	}](t, rec).View
	assert.Empty(t, view.SearchTerm)
	assert.Equal(t, models.SortDefault, view.SortOrder)
	assert.Equal(t, []string{session.MsgFiltersCleared}, f.messages())
}

func TestRefreshAnonymousShowsCommunity(t *testing.T) {
	f := newFixture(t)
	f.store.recipes["c-1"] = models.Recipe{ID: "c-1", RecipeName: "Shared Stew", IsShared: true, UserID: "auth0|bob"}

	rec := f.do(f.h.UpdateView, http.MethodPut, "/", `{"scope":"community"}`, anon)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(f.h.Refresh, http.MethodPost, "/", "", anon)
	require.Equal(t, http.StatusOK, rec.Code)
	cb := decodeBody[struct {
		Authenticated bool            `json:"authenticated"`
		Recipes       []models.Recipe `json:"recipes"`
	}](t, rec)
	assert.False(t, cb.Authenticated)
	require.Len(t, cb.Recipes, 1)
	assert.Equal(t, "Shared Stew", cb.Recipes[0].RecipeName)
	assert.Empty(t, f.messages())
}

func TestShareFormats(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(f.h.SaveRecipe, http.MethodPost, "/", pasta, alice).Code)

	rec := f.do(f.h.ShareRecipe, http.MethodGet, "/?format=text", "", alice, idParam("r-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Garlic Butter Pasta\n"))

	rec = f.do(f.h.ShareRecipe, http.MethodGet, "/?format=qr", "", alice, idParam("r-1"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(f.h.ShareRecipe, http.MethodGet, "/?format=pdf", "", alice, idParam("r-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `garlic-butter-pasta.pdf`)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	require.Equal(t, http.StatusOK, f.do(f.h.SetShared, http.MethodPost, "/", `{"is_shared":true}`, alice, idParam("r-1")).Code)
	rec = f.do(f.h.ShareRecipe, http.MethodGet, "/?format=qr", "", alice, idParam("r-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = f.do(f.h.ShareRecipe, http.MethodGet, "/?format=gif", "", alice, idParam("r-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(f.h.ShareRecipe, http.MethodGet, "/", "", alice, idParam("missing"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestThumbnail(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(f.h.SaveRecipe, http.MethodPost, "/", pasta, alice).Code)
	rec := f.do(f.h.Thumbnail, http.MethodGet, "/", "", alice, idParam("r-1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	withImage := `{"recipe_name":"Toast","ingredients":["bread"],"instructions":["toast"],"imageUrl":"https://img.example/toast.png"}`
	require.Equal(t, http.StatusCreated, f.do(f.h.SaveRecipe, http.MethodPost, "/", withImage, alice).Code)
	rec = f.do(f.h.Thumbnail, http.MethodGet, "/", "", alice, idParam("r-2"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "jpeg", rec.Body.String())
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	f.do(f.h.ClearFilters, http.MethodPost, "/", "", anon)

	rec := f.do(f.h.GetNotifications, http.MethodGet, "/", "", anon)
	ns := decodeBody[[]models.Notification](t, rec)
	require.Len(t, ns, 1)

	rec = f.do(f.h.DismissNotification, http.MethodDelete, "/", "", anon, idParam(fmt.Sprint(ns[0].ID)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, f.reg.Notifications(sid)[0].IsExiting)

	rec = f.do(f.h.DismissNotification, http.MethodDelete, "/", "", anon, idParam("abc"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateAndAssistant(t *testing.T) {
	f := newFixture(t)
	rec := f.do(f.h.Generate, http.MethodPost, "/", `{"ingredients":[]}`, anon)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(f.h.Generate, http.MethodPost, "/", `{"ingredients":["leek","potato"]}`, anon)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"recipe_name":"Soup of leek and potato"}`, rec.Body.String())

	rec = f.do(f.h.Assistant, http.MethodPost, "/", `{"message":"what next?","currentStep":2}`, anon)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"Stir gently."}`, rec.Body.String())
	assert.Equal(t, sid, f.gen.lastAssistant.SessionID)
	assert.Equal(t, 2, f.gen.lastAssistant.CurrentStep)

	rec = f.do(f.h.Assistant, http.MethodPost, "/", `{"message":" "}`, anon)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, f.messages())

	f.gen.err = &recipes.TransportError{Op: "POST /generate", Err: errors.New("timeout")}
	rec = f.do(f.h.Generate, http.MethodPost, "/", `{"ingredients":["leek"]}`, anon)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, []string{handlers.MsgGenerateFailed}, f.messages())

	rec = f.do(f.h.Assistant, http.MethodPost, "/", `{"message":"and now?"}`, anon)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, []string{handlers.MsgGenerateFailed, handlers.MsgAssistantFailed}, f.messages())
}

func TestGenerationFailuresPostOneNotice(t *testing.T) {
	cases := []struct {
		name   string
		handle func(*handlers.Handler) httprouter.Handle
		body   string
		notice string
	}{
		{"suggestions", func(h *handlers.Handler) httprouter.Handle { return h.Suggestions }, `{"ingredients":"rice"}`, handlers.MsgSuggestionsFailed},
		{"full", func(h *handlers.Handler) httprouter.Handle { return h.FullRecipe }, `{"selected_recipe":"Congee"}`, handlers.MsgFullRecipeFailed},
		{"direct", func(h *handlers.Handler) httprouter.Handle { return h.DirectRecipe }, `{"query":"soup"}`, handlers.MsgGenerateFailed},
		{"image", func(h *handlers.Handler) httprouter.Handle { return h.RecipeImage }, `{"recipe_name":"Soup"}`, handlers.MsgImageFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			down := &recipes.TransportError{Op: "POST /recipe", Err: errors.New("refused")}
			f.gen.err = down
			f.gen.imageErr = down
			rec := f.do(tc.handle(f.h), http.MethodPost, "/", tc.body, anon)
			assert.Equal(t, http.StatusBadGateway, rec.Code)
			assert.Equal(t, []string{tc.notice}, f.messages())
		})
	}
}

func TestSuggestionsThenFullRecipe(t *testing.T) {
	f := newFixture(t)
	rec := f.do(f.h.Suggestions, http.MethodPost, "/", `{"ingredients":"  "}`, anon)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Please enter some ingredients first."}`, rec.Body.String())

	rec = f.do(f.h.Suggestions, http.MethodPost, "/", `{"ingredients":"rice","meal_type":"dinner","serving_size":2}`, anon)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[chefapi.Suggestions](t, rec)
	require.Len(t, list.Suggestions, 1)
	assert.Equal(t, "Bowl of rice", list.Suggestions[0].RecipeName)

	rec = f.do(f.h.FullRecipe, http.MethodPost, "/", `{"selected_recipe":""}`, anon)
	assert.JSONEq(t, `{"error":"Please select a recipe suggestion first."}`, rec.Body.String())

	rec = f.do(f.h.FullRecipe, http.MethodPost, "/", `{"selected_recipe":"Bowl of rice"}`, anon)
	require.Equal(t, http.StatusOK, rec.Code)
	full := decodeBody[chefapi.Generated](t, rec)
	assert.Equal(t, "data:image/png;base64,aGk=", full.Recipe.ImageURL)
	assert.Contains(t, f.gen.lastPrompt, "Food photography masterpiece of Bowl of rice,")
	assert.Empty(t, f.messages())
}

func TestImageFailureKeepsRecipe(t *testing.T) {
	f := newFixture(t)
	f.gen.imageErr = context.DeadlineExceeded

	rec := f.do(f.h.FullRecipe, http.MethodPost, "/", `{"selected_recipe":"Congee"}`, anon)
	require.Equal(t, http.StatusOK, rec.Code)
	full := decodeBody[chefapi.Generated](t, rec)
	assert.Equal(t, "Congee", full.Recipe.RecipeName)
	assert.Empty(t, full.Recipe.ImageURL)
	assert.Equal(t, []string{handlers.MsgFullImageFailed}, f.messages())
	assert.Equal(t, models.SeverityInfo, f.reg.Notifications(sid)[0].Severity)

	// a plain query stays quiet about the picture
	rec = f.do(f.h.DirectRecipe, http.MethodPost, "/", `{"query":"soup"}`, anon)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Direct soup", decodeBody[chefapi.Generated](t, rec).Recipe.RecipeName)
	assert.Len(t, f.messages(), 1)
}

func photoRequest(t *testing.T, query string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if query != "" {
		require.NoError(t, mw.WriteField("user_query", query))
	}
	if image != nil {
		part, err := mw.CreateFormFile("file", "fridge.jpg")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/recipe/direct_with_image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(utils.WithSessionID(req.Context(), sid))
}

func TestDirectWithImage(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.h.DirectWithImage(rec, photoRequest(t, "lunch", nil), nil)
	assert.JSONEq(t, `{"error":"Please upload an image of your ingredients."}`, rec.Body.String())

	rec = httptest.NewRecorder()
	f.h.DirectWithImage(rec, photoRequest(t, "", []byte("jpeg")), nil)
	assert.JSONEq(t, `{"error":"Please enter a query about what you want to cook."}`, rec.Body.String())

	rec = httptest.NewRecorder()
	f.h.DirectWithImage(rec, photoRequest(t, "lunch", []byte("jpeg")), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody[chefapi.Generated](t, rec)
	assert.Equal(t, "Photo lunch", out.Recipe.RecipeName)
	assert.Equal(t, []string{"eggs"}, out.DetectedIngredients)
	assert.Equal(t, "fridge.jpg", f.gen.lastUpload.Filename)
	assert.Equal(t, []byte("jpeg"), f.gen.lastUpload.Data)
	assert.Empty(t, f.messages())

	f.gen.imageErr = errors.New("quota")
	rec = httptest.NewRecorder()
	f.h.DirectWithImage(rec, photoRequest(t, "lunch", []byte("jpeg")), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{handlers.MsgPhotoImageFailed}, f.messages())

	f.gen.err = &recipes.AppError{Status: http.StatusServiceUnavailable, Reason: "busy"}
	rec = httptest.NewRecorder()
	f.h.DirectWithImage(rec, photoRequest(t, "lunch", []byte("jpeg")), nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, []string{handlers.MsgPhotoImageFailed, handlers.MsgPhotoRecipeFailed}, f.messages())
}

func TestLoginLogoutLinks(t *testing.T) {
	f := newFixture(t)
	rec := f.do(f.h.Login, http.MethodGet, "/api/auth/login?returnTo=https://chef.example/cookbook", "", anon)
	assert.JSONEq(t, `{"login_url":"https://id.example/login?to=https://chef.example/cookbook"}`, rec.Body.String())

	rec = f.do(f.h.Login, http.MethodGet, "/api/auth/login?returnTo=https://evil.example/", "", anon)
	assert.JSONEq(t, `{"login_url":"https://id.example/login?to=https://chef.example/"}`, rec.Body.String())

	rec = f.do(f.h.Logout, http.MethodGet, "/api/auth/logout", "", alice)
	assert.JSONEq(t, `{"logout_url":"https://id.example/logout?to=https://chef.example/"}`, rec.Body.String())
}
