// Package testutil provides test helper utilities for taskvoice tests.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// ClipBytes is a stand-in recording payload. Nothing downstream decodes it.
var ClipBytes = []byte("RIFF\x24\x00\x00\x00WAVEfmt ")

// TempDataDir creates a temporary data directory holding the given files
// and returns its path. Files is a map of relative path -> content.
// Directories are created as needed and removed when the test finishes.
func TempDataDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// WriteClip writes ClipBytes to name inside dir and returns the full path.
func WriteClip(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, ClipBytes, 0o644); err != nil {
		t.Fatalf("writing clip: %v", err)
	}
	return path
}

// Submission is one multipart request received by a GatewayServer.
type Submission struct {
	Platform string
	Config   string
	Audio    []byte
}

// GatewayServer is a fake assistant backend that answers every upload
// with a fixed body and remembers what it received.
type GatewayServer struct {
	*httptest.Server

	mu          sync.Mutex
	submissions []Submission
}

// NewGatewayServer starts a GatewayServer replying with status and body.
// It is closed when the test finishes.
func NewGatewayServer(t *testing.T, status int, body string) *GatewayServer {
	t.Helper()
	g := &GatewayServer{}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sub := Submission{
			Platform: r.FormValue("platform"),
			Config:   r.FormValue("config"),
		}
		if f, _, err := r.FormFile("audio"); err == nil {
			sub.Audio, _ = io.ReadAll(f)
			_ = f.Close()
		}
		g.mu.Lock()
		g.submissions = append(g.submissions, sub)
		g.mu.Unlock()

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(g.Close)
	return g
}

// Submissions returns a copy of every upload received so far.
func (g *GatewayServer) Submissions() []Submission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Submission(nil), g.submissions...)
}

// NewTrelloServer starts a fake Trello API that serves boardsJSON to
// requests carrying token and rejects everything else with 401.
func NewTrelloServer(t *testing.T, token, boardsJSON string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != token {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, boardsJSON)
	}))
	t.Cleanup(srv.Close)
	return srv
}
