package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rareport/importcenter/internal/config"
	"github.com/rareport/importcenter/internal/shopify"
)

// 1x1 transparent PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func newTestTransfer(t *testing.T) *Transfer {
	return NewTransfer(config.MediaConfig{FetchTimeout: 5 * time.Second, UploadTimeout: 5 * time.Second}, zaptest.NewLogger(t))
}

func TestFetch_SniffsImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// wrong header on purpose; the bytes decide
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	img, err := newTestTransfer(t).Fetch(context.Background(), srv.URL+"/base1-4_hires.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, pngBytes, img.Data)
}

func TestFetch_RejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html><body>not found</body></html>")
	}))
	defer srv.Close()

	_, err := newTestTransfer(t).Fetch(context.Background(), srv.URL+"/card.png")
	assert.ErrorContains(t, err, "unexpected content type")
}

func TestFetch_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestTransfer(t).Fetch(context.Background(), srv.URL+"/card.png")
	assert.ErrorContains(t, err, "status 404")
}

func TestUpload_SendsParametersThenFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mr, err := r.MultipartReader()
		if !assert.NoError(t, err) {
			return
		}
		var names []string
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if !assert.NoError(t, err) {
				return
			}
			names = append(names, part.FormName())
			if part.FormName() == "file" {
				assert.Equal(t, "charizard-base-4.png", part.FileName())
				assert.Equal(t, "image/png", part.Header.Get("Content-Type"))
				data, _ := io.ReadAll(part)
				assert.Equal(t, pngBytes, data)
			}
		}
		assert.Equal(t, []string{"key", "policy", "file"}, names)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	target := &shopify.StagedTarget{
		URL: srv.URL,
		Parameters: []shopify.StagedUploadParameter{
			{Name: "key", Value: "tmp/1/charizard.png"},
			{Name: "policy", Value: "abc"},
		},
	}
	err := newTestTransfer(t).Upload(context.Background(), target, "charizard-base-4.png", &Image{Data: pngBytes, MimeType: "image/png"})
	require.NoError(t, err)
}

func TestUpload_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "AccessDenied")
	}))
	defer srv.Close()

	err := newTestTransfer(t).Upload(context.Background(), &shopify.StagedTarget{URL: srv.URL}, "a.png", &Image{Data: pngBytes})
	assert.ErrorContains(t, err, "status 403")
}

func TestGuessMimeType(t *testing.T) {
	tests := map[string]string{
		"https://images.pokemontcg.io/base1/4_hires.png":     "image/png",
		"https://images.pokemontcg.io/base1/4.JPG":           "image/jpeg",
		"https://cdn.example.com/card.webp?width=600":        "image/webp",
		"https://cdn.example.com/card":                       DefaultMimeType,
		"https://cdn.example.com/download.php?file=card.gif": DefaultMimeType,
	}
	for in, want := range tests {
		assert.Equal(t, want, GuessMimeType(in), in)
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "charizard-base-4.png", Filename("Charizard  Base / 4", "image/png"))
	assert.Equal(t, "card.jpg", Filename("  ***  ", "image/jpeg"))
	assert.Equal(t, "mr-mime-jungle-6.webp", Filename("Mr. Mime - Jungle 6", "image/webp"))
	assert.Equal(t, "pikachu.jpg", Filename("Pikachu", "application/unknown"))
}
