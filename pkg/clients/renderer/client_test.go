package renderer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/flocktrack/internal/config"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderReturnsImage(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/screenshot" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngMagic)
	}))
	defer srv.Close()

	client := NewClient(config.RendererConfig{BaseURL: srv.URL + "/", APIKey: "k", Timeout: time.Second})
	img, err := client.Render(context.Background(), RenderRequest{URL: "http://app/summary/f1/03/2024"})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if string(img) != string(pngMagic) {
		t.Fatalf("unexpected body %v", img)
	}
	if auth != "Bearer k" {
		t.Fatalf("unexpected authorization header %q", auth)
	}
	if got["url"] != "http://app/summary/f1/03/2024" || got["format"] != "png" {
		t.Fatalf("unexpected payload %v", got)
	}
}

func TestRenderSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"navigation timeout"}`))
	}))
	defer srv.Close()

	client := NewClient(config.RendererConfig{BaseURL: srv.URL})
	_, err := client.Render(context.Background(), RenderRequest{URL: "http://app/summary/f1/03/2024"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "navigation timeout") || !strings.Contains(err.Error(), "502") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRenderRejectsEmptyURL(t *testing.T) {
	client := NewClient(config.RendererConfig{BaseURL: "http://unused"})
	if _, err := client.Render(context.Background(), RenderRequest{}); err == nil {
		t.Fatal("expected an error for an empty url")
	}
}
