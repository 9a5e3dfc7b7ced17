package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/taskvoice/taskvoice/internal/platform"
)

func TestSubmitSendsMultipartForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		file, hdr, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("audio part missing: %v", err)
			return
		}
		defer file.Close()
		audio, _ := io.ReadAll(file)
		if string(audio) != "RIFFdata" {
			t.Errorf("audio = %q", audio)
		}
		if hdr.Filename != "recording.wav" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		if got := r.FormValue("platform"); got != "linear" {
			t.Errorf("platform = %q, want linear", got)
		}
		if got := r.FormValue("config"); got != `{"apiKey":"k1","workspaceId":"w1"}` {
			t.Errorf("config = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transcript":"buy milk"}`))
	}))
	defer server.Close()

	client, err := New(Config{URL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	body, err := client.Submit(context.Background(), Request{
		Audio:    []byte("RIFFdata"),
		Platform: platform.Linear,
		Config:   platform.LinearConfig{APIKey: "k1", WorkspaceID: "w1"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if string(body) != `{"transcript":"buy milk"}` {
		t.Fatalf("body = %s", body)
	}
}

func TestSubmitOmitsAbsentPlatformAndConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, ok := r.MultipartForm.Value["platform"]; ok {
			t.Error("platform field should be omitted")
		}
		if _, ok := r.MultipartForm.Value["config"]; ok {
			t.Error("config field should be omitted")
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, _ := New(Config{URL: server.URL, HTTPClient: server.Client()})
	if _, err := client.Submit(context.Background(), Request{Audio: []byte("x")}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestSubmitServerErrorIsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client, _ := New(Config{URL: server.URL, HTTPClient: server.Client()})
	_, err := client.Submit(context.Background(), Request{Audio: []byte("x")})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestSubmitUnreachableIsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, _ := New(Config{URL: url, HTTPClient: &http.Client{Timeout: time.Second}})
	_, err := client.Submit(context.Background(), Request{Audio: []byte("x")})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"transcript":"hi","results":[{"success":true,"operation":"create","task":"Buy milk"},{"success":false,"error":"rate limited"}]}`))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.Transcript == nil || *resp.Transcript != "hi" {
		t.Fatalf("transcript = %v", resp.Transcript)
	}
	if len(resp.Results) != 2 || resp.Results[0].Operation != "create" || resp.Results[1].Error != "rate limited" {
		t.Fatalf("results = %+v", resp.Results)
	}

	empty, err := ParseResponse([]byte(`{}`))
	if err != nil || empty.Transcript != nil || len(empty.Results) != 0 {
		t.Fatalf("empty reply = %+v, %v", empty, err)
	}

	for _, body := range []string{"<html>oops</html>", "", "[1,2]", "null", "  null\n", `"done"`, "42"} {
		if _, err := ParseResponse([]byte(body)); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("ParseResponse(%q) err = %v, want ErrMalformedResponse", body, err)
		}
	}
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestPickHTTPClientUsesLongerTimeout(t *testing.T) {
	if got := pickHTTPClient(nil); got.Timeout != defaultGatewayTimeout {
		t.Fatalf("timeout = %s, want %s", got.Timeout, defaultGatewayTimeout)
	}
	custom := &http.Client{}
	if pickHTTPClient(custom) != custom {
		t.Fatal("custom client should be honored")
	}
}
