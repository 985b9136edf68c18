package chefapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/tidwall/gjson"
)

type SuggestionsRequest struct {
	Ingredients       string `json:"ingredients"`
	MealType          string `json:"meal_type,omitempty"`
	CuisineType       string `json:"cuisine_type,omitempty"`
	ServingSize       int    `json:"serving_size,omitempty"`
	DietaryPreference string `json:"dietary_preference,omitempty"`
	CookingTime       int    `json:"cooking_time,omitempty"`
	Difficulty        string `json:"difficulty,omitempty"`
}

type Suggestion struct {
	RecipeName  string `json:"recipe_name"`
	Description string `json:"description"`
}

type Suggestions struct {
	Suggestions []Suggestion    `json:"suggestions"`
	Context     json.RawMessage `json:"context,omitempty"`
}

// GeneratedRecipe is a recipe fresh from the generator, not yet saved.
// ImageURL is a data URL when an image was produced.
type GeneratedRecipe struct {
	RecipeName   string   `json:"recipe_name"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	CookingTips  []string `json:"cooking_tips,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
}

// Generated is the generator's answer: the recipe, the retrieval context it
// was built from and, for photo queries, what was seen in the photo.
type Generated struct {
	Recipe              GeneratedRecipe `json:"recipe"`
	Context             json.RawMessage `json:"context,omitempty"`
	DetectedIngredients []string        `json:"detected_ingredients,omitempty"`
}

// Upload is an image sent along with a query.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Suggestions lists recipe ideas for the given ingredients and preferences.
func (c *Client) Suggestions(ctx context.Context, req SuggestionsRequest) (Suggestions, error) {
	data, err := c.call(ctx, http.MethodPost, "/recipe/suggestions", "", req)
	if err != nil {
		return Suggestions{}, err
	}
	// the list is nested one level under a second "suggestions" key
	list := gjson.GetBytes(data, "suggestions.suggestions")
	if !list.IsArray() {
		list = gjson.GetBytes(data, "suggestions")
	}
	out := Suggestions{Suggestions: []Suggestion{}}
	if list.IsArray() {
		if err := json.Unmarshal([]byte(list.Raw), &out.Suggestions); err != nil {
			return Suggestions{}, fmt.Errorf("decode suggestions: %w", err)
		}
	}
	if ctxRes := gjson.GetBytes(data, "context"); ctxRes.Exists() {
		out.Context = json.RawMessage(ctxRes.Raw)
	}
	return out, nil
}

// FullRecipe expands one suggestion into a complete recipe.
func (c *Client) FullRecipe(ctx context.Context, recipeName string) (Generated, error) {
	data, err := c.call(ctx, http.MethodPost, "/recipe/full", "", map[string]string{"selected_recipe": recipeName})
	if err != nil {
		return Generated{}, err
	}
	return decode[Generated](data, "full recipe")
}

// Direct generates a recipe from a free-text query.
func (c *Client) Direct(ctx context.Context, query string) (Generated, error) {
	data, err := c.call(ctx, http.MethodPost, "/recipe/direct", "", map[string]string{"query": query})
	if err != nil {
		return Generated{}, err
	}
	return decode[Generated](data, "recipe")
}

// DirectWithImage generates a recipe from a query and a photo of the
// ingredients at hand.
func (c *Client) DirectWithImage(ctx context.Context, query string, img Upload) (Generated, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("user_query", query); err != nil {
		return Generated{}, fmt.Errorf("encode query: %w", err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, uploadName(img.Filename)))
	h.Set("Content-Type", uploadType(img.ContentType))
	part, err := mw.CreatePart(h)
	if err != nil {
		return Generated{}, fmt.Errorf("encode image: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return Generated{}, fmt.Errorf("encode image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Generated{}, fmt.Errorf("encode image: %w", err)
	}

	data, err := c.send(ctx, http.MethodPost, "/recipe/direct_with_image", "", mw.FormDataContentType(), buf.Bytes())
	if err != nil {
		return Generated{}, err
	}
	return decode[Generated](data, "recipe")
}

// GenerateImage renders a picture for prompt and returns it as a PNG data
// URL. An empty string means the API produced no image.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	data, err := c.call(ctx, http.MethodPost, "/recipe/generate_image_gemini", "", map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}
	first := gjson.GetBytes(data, "images.0")
	if first.Type != gjson.String || first.Str == "" {
		return "", nil
	}
	return "data:image/png;base64," + first.Str, nil
}

// ImagePrompt describes r for the image generator.
func ImagePrompt(r GeneratedRecipe) string {
	return "Food photography masterpiece of " + r.RecipeName +
		", professionally styled and plated on a modern ceramic dish. " +
		"Shot with a macro lens (85mm, f/2.8) for exquisite detail, capturing textures. " +
		"Dramatic, slightly angled overhead lighting (softbox from top-left) highlighting the ingredients: " +
		strings.Join(r.Ingredients, ", ") +
		". Realistic, vibrant colors, sharp focus on the main elements with a softly blurred elegant background " +
		"(e.g., dark wood table, linen napkin). Aim for photorealistic quality with appetizing appeal, 8K resolution."
}

func uploadName(name string) string {
	if name == "" {
		return "ingredients.jpg"
	}
	return name
}

func uploadType(ct string) string {
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
