package engine

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// maxImageBytes caps the fixed image download.
const maxImageBytes = 20 << 20

// LoadImage downloads the image at url for vision prompts. A nil client
// uses http.DefaultClient; timeout bounds the whole fetch.
func LoadImage(ctx context.Context, client *http.Client, url string, timeout time.Duration) (*Image, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrDependencyUnavailable("no image url configured")
	}
	if client == nil {
		client = http.DefaultClient
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, ErrDependencyUnavailable(fmt.Sprintf("fetch image %s: %v", url, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, ErrDependencyUnavailable(fmt.Sprintf("fetch image %s: %s", url, resp.Status))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, ErrDependencyUnavailable(fmt.Sprintf("read image %s: %v", url, err))
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image %s exceeds %d bytes", url, maxImageBytes)
	}
	if len(data) == 0 {
		return nil, ErrDependencyUnavailable(fmt.Sprintf("image %s is empty", url))
	}
	mt := ""
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if parsed, _, perr := mime.ParseMediaType(ct); perr == nil && strings.HasPrefix(parsed, "image/") {
			mt = parsed
		}
	}
	if mt == "" {
		mt = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mt, "image/") {
		return nil, fmt.Errorf("image %s has non-image content type %q", url, mt)
	}
	return &Image{Data: data, MIME: mt}, nil
}
