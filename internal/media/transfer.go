package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/rareport/importcenter/internal/config"
	"github.com/rareport/importcenter/internal/shopify"
)

// MaxImageBytes is the largest image Shopify accepts through staged uploads
const MaxImageBytes = 20 << 20

// DefaultMimeType is used when the URL has no recognizable image extension
const DefaultMimeType = "image/jpeg"

// Image is a fetched source image
type Image struct {
	Data     []byte
	MimeType string
}

// Transfer moves card images from the source API into Shopify staged uploads
type Transfer struct {
	fetchClient  *http.Client
	uploadClient *http.Client
	logger       *zap.Logger
}

// NewTransfer creates a Transfer with separate fetch and upload timeouts
func NewTransfer(cfg config.MediaConfig, logger *zap.Logger) *Transfer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transfer{
		fetchClient:  &http.Client{Timeout: cfg.FetchTimeout},
		uploadClient: &http.Client{Timeout: cfg.UploadTimeout},
		logger:       logger,
	}
}

// Fetch downloads the image and sniffs its real type. Non-image payloads are rejected.
func (t *Transfer) Fetch(ctx context.Context, imageURL string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}

	resp, err := t.fetchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("fetch image: empty body")
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("fetch image: larger than %d bytes", MaxImageBytes)
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, fmt.Errorf("fetch image: unexpected content type %s", detected.String())
	}

	t.logger.Debug("Fetched card image",
		zap.String("url", imageURL),
		zap.String("mime_type", detected.String()),
		zap.Int("bytes", len(data)),
	)
	return &Image{Data: data, MimeType: detected.String()}, nil
}

// Upload posts the image to a staged target. Target parameters go first and the
// file last, as the storage backend requires.
func (t *Transfer) Upload(ctx context.Context, target *shopify.StagedTarget, filename string, img *Image) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, p := range target.Parameters {
		if err := writer.WriteField(p.Name, p.Value); err != nil {
			return fmt.Errorf("write upload field %s: %w", p.Name, err)
		}
	}
	contentType := img.MimeType
	if contentType == "" {
		contentType = DefaultMimeType
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create upload file part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return fmt.Errorf("write upload file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &body)
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.uploadClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("upload image: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// GuessMimeType maps the URL's file extension to an image MIME type
func GuessMimeType(imageURL string) string {
	p := imageURL
	if u, err := url.Parse(imageURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return DefaultMimeType
	}
}

// Filename builds an upload filename from a product title, e.g. "charizard-base-4.png"
func Filename(title, mimeType string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if len(name) > 80 {
		name = strings.TrimSuffix(name[:80], "-")
	}
	if name == "" {
		name = "card"
	}

	ext := ".jpg"
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		ext = m.Extension()
	}
	return name + ext
}
