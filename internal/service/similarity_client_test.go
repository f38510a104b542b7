package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestSimilarityClientDisabledWithoutBaseURL(t *testing.T) {
	c := NewSimilarityClient("", zerolog.Nop())
	dup, err := c.IsDuplicate(context.Background(), "designs/abc/original.png")
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if dup {
		t.Error("expected screening disabled, every design should pass")
	}
}

func TestSimilarityClientVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/similarity/check" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			StoragePath string `json:"storage_path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		dup := req.StoragePath == "designs/dup/original.png"
		json.NewEncoder(w).Encode(map[string]any{"duplicate": dup, "score": 0.97})
	}))
	defer srv.Close()

	c := NewSimilarityClient(srv.URL, zerolog.Nop())
	dup, err := c.IsDuplicate(context.Background(), "designs/dup/original.png")
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if !dup {
		t.Error("expected duplicate verdict")
	}
	dup, err = c.IsDuplicate(context.Background(), "designs/fresh/original.png")
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if dup {
		t.Error("expected fresh design to pass")
	}
}

func TestSimilarityClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewSimilarityClient(srv.URL, zerolog.Nop())
	if _, err := c.IsDuplicate(context.Background(), "designs/abc/original.png"); err == nil {
		t.Error("expected error on non-200 response")
	}
}
