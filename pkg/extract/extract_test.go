package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/watanaberin/retro-bio/pkg/errors"
)

func candidateResponse(t *testing.T, profileJSON string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{
				"parts": []map[string]string{{"text": profileJSON}},
				"role":  "model",
			}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestProfileExtraction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "I'm Ada, a Go developer in Berlin" {
			t.Errorf("request contents = %+v", req.Contents)
		}
		if req.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Errorf("mime type = %s", req.GenerationConfig.ResponseMIMEType)
		}

		w.Write(candidateResponse(t, `{"username":"@ada","bio":"Go developer","lines":[{"label":"Location","value":"Berlin"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient("test-key", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	p, err := c.Profile(context.Background(), "I'm Ada, a Go developer in Berlin")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if p.Username != "@ada" || p.Bio != "Go developer" {
		t.Errorf("profile = %+v", p)
	}
	if len(p.Lines) != 1 || p.Lines[0].Label != "Location" {
		t.Errorf("lines = %+v", p.Lines)
	}
}

func TestProfileRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(candidateResponse(t, `{"username":"@ada","lines":[]}`))
	}))
	defer srv.Close()

	c, _ := NewClient("k", WithBaseURL(srv.URL))
	if _, err := c.Profile(context.Background(), "text"); err != nil {
		t.Fatalf("Profile() error = %v after retries", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestProfileDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c, _ := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Profile(context.Background(), "text")
	if errors.GetCode(err) != errors.ErrCodeExtraction {
		t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeExtraction)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (4xx must not retry)", calls.Load())
	}
}

func TestProfileRejectsMalformedModelOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateResponse(t, "this is not json"))
	}))
	defer srv.Close()

	c, _ := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Profile(context.Background(), "text")
	if errors.GetCode(err) != errors.ErrCodeExtraction {
		t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeExtraction)
	}
}

func TestProfileRejectsEmptyInput(t *testing.T) {
	c, _ := NewClient("k")
	_, err := c.Profile(context.Background(), "   \n")
	if errors.GetCode(err) != errors.ErrCodeExtraction {
		t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeExtraction)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Error("expected error for missing api key")
	}
}
