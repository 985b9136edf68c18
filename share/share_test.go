package share_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aichef/models"
	"aichef/share"
)

func pancakes() models.Recipe {
	return models.Recipe{
		ID:           "p1",
		RecipeName:   "Pancakes",
		Ingredients:  []string{"flour", "milk", "egg"},
		Instructions: []string{"whisk", "fry"},
		UserID:       "google-oauth2|12345",
		SavedDate:    models.NewTimestamp(time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)),
	}
}

func TestTextWithoutTips(t *testing.T) {
	want := "Pancakes\n\nINGREDIENTS:\n• flour\n• milk\n• egg\n\nINSTRUCTIONS:\n1. whisk\n2. fry\n\nShared from AI Chef"
	assert.Equal(t, want, share.Text(pancakes()))
}

func TestTextWithTips(t *testing.T) {
	r := pancakes()
	r.CookingTips = []string{"rest the batter"}
	want := "Pancakes\n\nINGREDIENTS:\n• flour\n• milk\n• egg\n\nINSTRUCTIONS:\n1. whisk\n2. fry\n\nTIPS:\n• rest the batter\n\nShared from AI Chef"
	assert.Equal(t, want, share.Text(r))
}

func TestDisplayUser(t *testing.T) {
	cases := []struct {
		name   string
		userID string
		email  *string
		want   string
	}{
		{"email wins", "auth0|abc", models.StringPtr("cook@example.com"), "cook@example.com"},
		{"provider prefix", "auth0|abc", nil, "auth0"},
		{"blank email ignored", "auth0|abc", models.StringPtr(" "), "auth0"},
		{"plain id", "dev-user-123", nil, "dev-user-123"},
		{"no owner", "", models.StringPtr("cook@example.com"), "Unknown user"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := models.Recipe{UserID: tc.userID, UserEmail: tc.email}
			assert.Equal(t, tc.want, share.DisplayUser(r))
		})
	}
}

func TestByline(t *testing.T) {
	r := pancakes()
	assert.Equal(t, "Saved on Mar 9, 2025", share.Byline(r, false))
	assert.Equal(t, "Shared by google-oauth2 on Mar 9, 2025", share.Byline(r, true))
}

func TestQRIsPNG(t *testing.T) {
	png, err := share.QR(share.CommunityLink("https://chef.example.com/", "p1"), 128)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
	assert.Equal(t, "https://chef.example.com/community/p1", share.CommunityLink("https://chef.example.com/", "p1"))
}

func TestPDFCard(t *testing.T) {
	r := pancakes()
	r.CookingTips = []string{"serve warm"}
	doc, err := share.PDF(r, "https://chef.example.com/community/p1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))

	plain, err := share.PDF(pancakes(), "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(plain, []byte("%PDF")))
}

func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func decodedBounds(t *testing.T, data []byte) image.Rectangle {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds()
}

func TestThumbnailFromDataURL(t *testing.T) {
	src := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testImage(t, 640, 480))
	thumb, err := share.NewThumbnailer(nil).Thumbnail(context.Background(), src)
	require.NoError(t, err)
	b := decodedBounds(t, thumb)
	assert.Equal(t, 320, b.Dx())
	assert.Equal(t, 240, b.Dy())
}

func TestThumbnailFromHTTP(t *testing.T) {
	data := testImage(t, 200, 800)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	thumb, err := share.NewThumbnailer(srv.Client()).Thumbnail(context.Background(), srv.URL+"/img.png")
	require.NoError(t, err)
	b := decodedBounds(t, thumb)
	assert.Equal(t, 80, b.Dx())
	assert.Equal(t, 320, b.Dy())
}

func TestThumbnailErrors(t *testing.T) {
	th := share.NewThumbnailer(nil)
	_, err := th.Thumbnail(context.Background(), "")
	assert.ErrorIs(t, err, share.ErrNoImage)

	_, err = th.Thumbnail(context.Background(), "ftp://example.com/x.png")
	assert.Error(t, err)

	_, err = th.Thumbnail(context.Background(), "data:image/png,notbase64")
	assert.Error(t, err)

	_, err = th.Thumbnail(context.Background(), "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("not an image")))
	assert.Error(t, err)
}
