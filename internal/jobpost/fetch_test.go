package jobpost

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const postingHTML = `<!doctype html>
<html><head><title>Go Engineer</title><style>.x{}</style></head>
<body>
<nav>Home Jobs About</nav>
<header>Acme Careers</header>
<div class="job-description">
  <h2>Senior Go Engineer</h2>
  <p>We build   distributed systems in Go.</p>
  <ul><li><p>Kubernetes experience</p></li><li>PostgreSQL</li></ul>
</div>
<footer>© Acme</footer>
<script>track()</script>
</body></html>`

func TestMainTextPrefersJobSelectors(t *testing.T) {
	text, err := MainText(postingHTML)
	if err != nil {
		t.Fatalf("MainText: %v", err)
	}
	want := "Senior Go Engineer\nWe build distributed systems in Go.\nKubernetes experience\nPostgreSQL"
	if text != want {
		t.Fatalf("unexpected text:\n%q\nwant\n%q", text, want)
	}
	for _, noise := range []string{"Home Jobs", "Acme Careers", "track()", "©"} {
		if strings.Contains(text, noise) {
			t.Fatalf("expected %q to be stripped", noise)
		}
	}
}

func TestMainTextFallsBackToBody(t *testing.T) {
	text, err := MainText(`<html><body><div>Plain   posting text</div></body></html>`)
	if err != nil {
		t.Fatalf("MainText: %v", err)
	}
	if text != "Plain posting text" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestFetch(t *testing.T) {
	var ua string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(postingHTML))
	}))
	defer server.Close()

	text, err := NewFetcher().Fetch(context.Background(), server.URL+"/jobs/1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.HasPrefix(text, "Senior Go Engineer") {
		t.Fatalf("unexpected text %q", text)
	}
	if ua != DefaultUserAgent {
		t.Fatalf("unexpected user agent %q", ua)
	}
}

func TestFetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			_, _ = w.Write([]byte(`<html><body></body></html>`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	tests := []struct {
		name    string
		url     string
		wantMsg string
	}{
		{name: "bad scheme", url: "ftp://example.com/job", wantMsg: "invalid URL"},
		{name: "no host", url: "https://", wantMsg: "invalid URL"},
		{name: "not found", url: server.URL + "/missing", wantMsg: "HTTP status 404"},
		{name: "empty page", url: server.URL + "/empty", wantMsg: "no text content"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFetcher().Fetch(context.Background(), tt.url)
			var fetchErr *Error
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if fetchErr.Message != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, fetchErr.Message)
			}
		})
	}
}
