package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestLoadImage_ContentTypeHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg; charset=binary")
		w.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
	}))
	defer ts.Close()

	img, err := LoadImage(context.Background(), ts.Client(), ts.URL, time.Second)
	if err != nil {
		t.Fatalf("LoadImage() error: %v", err)
	}
	if img.MIME != "image/jpeg" || len(img.Data) != 4 {
		t.Fatalf("unexpected image: %s %d bytes", img.MIME, len(img.Data))
	}
}

func TestLoadImage_SniffsType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pngHeader)
	}))
	defer ts.Close()

	img, err := LoadImage(context.Background(), nil, ts.URL, time.Second)
	if err != nil {
		t.Fatalf("LoadImage() error: %v", err)
	}
	if img.MIME != "image/png" {
		t.Fatalf("MIME = %q", img.MIME)
	}
}

func TestLoadImage_Failures(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()
	if _, err := LoadImage(context.Background(), nil, notFound.URL, time.Second); !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable on 404, got %v", err)
	}

	text := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer text.Close()
	if _, err := LoadImage(context.Background(), nil, text.URL, time.Second); err == nil {
		t.Fatalf("expected error for non-image body")
	}

	if _, err := LoadImage(context.Background(), nil, " ", time.Second); !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable for empty url, got %v", err)
	}
}

func TestLoadImage_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	if _, err := LoadImage(context.Background(), nil, ts.URL, 20*time.Millisecond); !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable on timeout, got %v", err)
	}
}
