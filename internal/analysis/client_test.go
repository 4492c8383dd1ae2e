package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleBody = `{"result":{"type":"news","credibilityScore":72,"analysis":"Mostly consistent with sources.",` +
	`"flags":{"potentialMisinformation":false,"needsFactChecking":true,"biasDetected":true,"manipulatedContent":false},` +
	`"sources":["https://example.org/a"],"details":{"sentiment":"neutral","confidence":0.8,"keyTerms":["election","turnout"]}}}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(ClientOptions{BaseURL: srv.URL + "/"})
}

func TestAnalyzeTextSendsJSON(t *testing.T) {
	var gotPath, gotType string
	var gotBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, sampleBody)
	})

	res, err := c.AnalyzeText(context.Background(), "turnout was 98%")
	if err != nil {
		t.Fatalf("AnalyzeText error: %v", err)
	}
	if gotPath != "/analyze/text" {
		t.Fatalf("expected /analyze/text, got %q", gotPath)
	}
	if gotType != "application/json" {
		t.Fatalf("expected JSON content type, got %q", gotType)
	}
	if gotBody["text"] != "turnout was 98%" {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
	if res == nil || res.CredibilityScore != 72 || !res.Flags.BiasDetected || len(res.Details.KeyTerms) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAnalyzeURLSendsJSON(t *testing.T) {
	var gotBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze/url" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, sampleBody)
	})

	if _, err := c.AnalyzeURL(context.Background(), "https://news.example/story"); err != nil {
		t.Fatalf("AnalyzeURL error: %v", err)
	}
	if gotBody["url"] != "https://news.example/story" {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
}

func TestAnalyzeImageSendsMultipart(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	var (
		gotName, gotPartType string
		gotData              []byte
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			http.Error(w, "not multipart", http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotName = hdr.Filename
		gotPartType = hdr.Header.Get("Content-Type")
		gotData, _ = io.ReadAll(f)
		_, _ = io.WriteString(w, sampleBody)
	})

	if _, err := c.AnalyzeImage(context.Background(), "photo.png", strings.NewReader(string(png))); err != nil {
		t.Fatalf("AnalyzeImage error: %v", err)
	}
	if gotName != "photo.png" {
		t.Fatalf("expected filename photo.png, got %q", gotName)
	}
	if gotPartType != "image/png" {
		t.Fatalf("expected image/png part, got %q", gotPartType)
	}
	if string(gotData) != string(png) {
		t.Fatalf("file bytes were altered")
	}
}

func TestClientErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "status with body",
			status: http.StatusInternalServerError,
			body:   "server exploded",
			check: func(t *testing.T, err error) {
				var se *HTTPStatusError
				if !errors.As(err, &se) || se.StatusCode != 500 {
					t.Fatalf("expected HTTPStatusError 500, got %v", err)
				}
				if err.Error() != "HTTP 500: server exploded" {
					t.Fatalf("unexpected message %q", err.Error())
				}
			},
		},
		{
			name:   "status without body",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				if err == nil || err.Error() != "HTTP 502: Unknown error" {
					t.Fatalf("unexpected error %v", err)
				}
			},
		},
		{
			name:   "whitespace body",
			status: http.StatusOK,
			body:   "  \n\t",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrEmptyResponse) {
					t.Fatalf("expected ErrEmptyResponse, got %v", err)
				}
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   "not json",
			check: func(t *testing.T, err error) {
				var de *DecodeError
				if !errors.As(err, &de) {
					t.Fatalf("expected DecodeError, got %v", err)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			res, err := c.AnalyzeText(context.Background(), "x")
			if res != nil {
				t.Fatalf("expected no result, got %+v", res)
			}
			tc.check(t, err)
		})
	}
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(ClientOptions{BaseURL: base})
	_, err := c.AnalyzeURL(context.Background(), "https://example.org")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestClientMissingResultIsAbsent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	res, err := c.AnalyzeText(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != nil {
		t.Fatalf("expected nil result, got %+v", res)
	}
}

func TestNewClientTrimsBaseURL(t *testing.T) {
	c := NewClient(ClientOptions{BaseURL: " https://api.example.com/// "})
	if c.BaseURL() != "https://api.example.com" {
		t.Fatalf("unexpected base URL %q", c.BaseURL())
	}
}
