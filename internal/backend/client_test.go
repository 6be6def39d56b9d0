package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type item struct {
	Name string `json:"name"`
}

func newTestBackend(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/items", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "default"
		}
		w.Header().Set("X-Echo-Request-ID", r.Header.Get("X-Request-ID"))
		json.NewEncoder(w).Encode(item{Name: name})
	})
	r.Post("/items", func(w http.ResponseWriter, r *http.Request) {
		var in item
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(in)
	})
	r.Delete("/items/{name}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "name") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"item missing not found"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"backend exploded"}`))
	})
	s := httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func TestGet(t *testing.T) {
	s := newTestBackend(t)
	c := New(s.URL+"/", 0)

	got, err := Get[item](context.Background(), c, "/items", url.Values{"name": {"churn"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "churn" {
		t.Errorf("expected churn, got %s", got.Name)
	}
}

func TestGet_ForwardsRequestID(t *testing.T) {
	var seen string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{}`))
	}))
	defer s.Close()

	ctx := context.WithValue(context.Background(), chimw.RequestIDKey, "req-123")
	if _, err := Get[item](ctx, New(s.URL, 0), "/", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "req-123" {
		t.Errorf("expected forwarded request id, got %q", seen)
	}

	if _, err := Get[item](context.Background(), New(s.URL, 0), "/", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == "" || seen == "req-123" {
		t.Errorf("expected a generated request id, got %q", seen)
	}
}

func TestGet_HTTPError(t *testing.T) {
	s := newTestBackend(t)
	_, err := Get[item](context.Background(), New(s.URL, 0), "/broken", nil)

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %T: %v", err, err)
	}
	if httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.StatusCode)
	}
	if httpErr.Message != "backend exploded" {
		t.Errorf("unexpected message %q", httpErr.Message)
	}
}

func TestPost(t *testing.T) {
	s := newTestBackend(t)
	got, err := Post[item](context.Background(), New(s.URL, 0), "/items", item{Name: "credit-risk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "credit-risk" {
		t.Errorf("expected echo of posted body, got %s", got.Name)
	}
}

func TestDelete(t *testing.T) {
	s := newTestBackend(t)
	c := New(s.URL, 0)

	if err := c.Delete(context.Background(), "/items/churn", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := c.Delete(context.Background(), "/items/missing", nil)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if httpErr.Message != "item missing not found" {
		t.Errorf("expected detail message, got %q", httpErr.Message)
	}
}

func TestGet_ConnectionRefused(t *testing.T) {
	s := httptest.NewServer(http.NotFoundHandler())
	addr := s.URL
	s.Close()

	if _, err := Get[item](context.Background(), New(addr, 0), "/items", nil); err == nil {
		t.Fatal("expected error for closed server")
	}
}
