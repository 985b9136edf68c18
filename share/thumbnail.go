package share

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	ThumbSize    = 320
	thumbQuality = 85
	maxImageSize = 10 << 20
)

var ErrNoImage = errors.New("recipe has no image")

// Thumbnailer fetches recipe images and shrinks them for list views.
// Generated images usually arrive as base64 data URLs; http(s) URLs are
// fetched with the given client.
type Thumbnailer struct {
	client *http.Client
}

func NewThumbnailer(client *http.Client) *Thumbnailer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Thumbnailer{client: client}
}

// Thumbnail returns a JPEG that fits in ThumbSize x ThumbSize.
func (t *Thumbnailer) Thumbnail(ctx context.Context, imageURL string) ([]byte, error) {
	if imageURL == "" {
		return nil, ErrNoImage
	}
	raw, err := t.load(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	thumb := imaging.Fit(img, ThumbSize, ThumbSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(thumbQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func (t *Thumbnailer) load(ctx context.Context, imageURL string) ([]byte, error) {
	if strings.HasPrefix(imageURL, "data:") {
		return decodeDataURL(imageURL)
	}
	if !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
		return nil, fmt.Errorf("unsupported image url scheme")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
}

func decodeDataURL(u string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(u, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data url")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, errors.New("data url is not base64")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return data, nil
}
