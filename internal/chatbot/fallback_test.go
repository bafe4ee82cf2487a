package chatbot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestFallback_UnconfiguredSkipsNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	for _, key := range []string{"", "   ", "YOUR_API_KEY_HERE"} {
		f := &Fallback{APIKey: key, BaseURL: srv.URL}
		if got := f.Respond(context.Background(), "anything", GuestContext()); got != MaintenanceReply {
			t.Fatalf("key %q: reply = %q; want maintenance message", key, got)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("unconfigured fallback made %d network calls; want 0", n)
	}
}

func TestFallback_SuccessReturnsAnswerVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k-123" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != DefaultModel {
			t.Errorf("model = %q; want default", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "what do you do?" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[0].Content, "Name: Ada") {
			t.Errorf("system prompt missing identity: %q", req.Messages[0].Content)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  We fight food waste!  "}},
			},
		})
	}))
	defer srv.Close()

	f := &Fallback{APIKey: "k-123", BaseURL: srv.URL}
	got := f.Respond(context.Background(), "what do you do?", Context{Name: "Ada", Role: "donor"})
	// The model's answer passes through verbatim, whitespace included.
	if got != "  We fight food waste!  " {
		t.Fatalf("reply = %q", got)
	}
}

func TestFallback_ServerErrorYieldsApology(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream on fire", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := &Fallback{APIKey: "k-123", BaseURL: srv.URL}
	if got := f.Respond(context.Background(), "hi there model", GuestContext()); got != ApologyReply {
		t.Fatalf("reply = %q; want apology", got)
	}
}

func TestFallback_EmptyChoicesYieldsApology(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	f := &Fallback{APIKey: "k-123", BaseURL: srv.URL}
	if got := f.Respond(context.Background(), "x", GuestContext()); got != ApologyReply {
		t.Fatalf("reply = %q; want apology", got)
	}
}

func TestFallback_UnreachableHostYieldsApology(t *testing.T) {
	f := &Fallback{APIKey: "k-123", BaseURL: "http://127.0.0.1:1"}
	if got := f.Respond(context.Background(), "x", GuestContext()); got != ApologyReply {
		t.Fatalf("reply = %q; want apology", got)
	}
}

func TestConfigured(t *testing.T) {
	if (&Fallback{}).Configured() {
		t.Fatalf("empty key must be unconfigured")
	}
	if (&Fallback{APIKey: " YOUR_API_KEY_HERE "}).Configured() {
		t.Fatalf("placeholder key must be unconfigured")
	}
	if !(&Fallback{APIKey: "k"}).Configured() {
		t.Fatalf("real key must be configured")
	}
}
