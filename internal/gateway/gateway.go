// Package gateway talks to the remote assistant backend that turns captured
// audio into a transcript and platform operations.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/taskvoice/taskvoice/internal/platform"
)

const defaultGatewayTimeout = 2 * time.Minute

// maxResponseBytes bounds how much of a reply is read.
const maxResponseBytes = 4 << 20

var (
	// ErrTransport wraps every failure to complete the exchange.
	ErrTransport = errors.New("gateway unreachable")
	// ErrMalformedResponse is returned when a reply body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed gateway response")
)

// Request is one captured utterance plus the configuration in effect when
// it was dispatched.
type Request struct {
	Audio    []byte
	Platform platform.Platform
	Config   platform.Config
}

// Response is the decoded reply body.
type Response struct {
	Transcript *string  `json:"transcript,omitempty"`
	Results    []Result `json:"results,omitempty"`
}

// Result reports one operation the backend attempted.
type Result struct {
	Success   bool   `json:"success"`
	Operation string `json:"operation,omitempty"`
	Task      string `json:"task,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Submitter sends a request and returns the raw reply body.
type Submitter interface {
	Submit(ctx context.Context, req Request) ([]byte, error)
}

// Config describes how to reach the backend.
type Config struct {
	URL        string
	HTTPClient *http.Client
}

// Client is the HTTP implementation of Submitter.
type Client struct {
	url    string
	client *http.Client
}

// New builds a Client for cfg.URL.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("gateway URL is not configured")
	}
	return &Client{url: cfg.URL, client: pickHTTPClient(cfg.HTTPClient)}, nil
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Transcription plus platform calls can take well over a minute.
	return &http.Client{Timeout: defaultGatewayTimeout}
}

// URL returns the endpoint requests are posted to.
func (c *Client) URL() string {
	return c.url
}

// Submit posts the audio as multipart form data. A non-2xx status counts
// as a transport failure; the body of a 2xx reply is returned undecoded.
func (c *Client) Submit(ctx context.Context, req Request) ([]byte, error) {
	body, contentType, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading reply: %v", ErrTransport, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s (%s)", ErrTransport, resp.Status, clip(string(data), 200))
	}
	return data, nil
}

func encodeRequest(req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="audio"; filename="recording.wav"`)
	header.Set("Content-Type", "audio/wav")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("encode audio part: %w", err)
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, "", fmt.Errorf("encode audio part: %w", err)
	}

	if req.Platform != platform.None {
		if err := mw.WriteField("platform", string(req.Platform)); err != nil {
			return nil, "", fmt.Errorf("encode platform field: %w", err)
		}
	}
	if req.Config != nil {
		raw, err := platform.Encode(req.Config)
		if err != nil {
			return nil, "", err
		}
		if err := mw.WriteField("config", string(raw)); err != nil {
			return nil, "", fmt.Errorf("encode config field: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("finish multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// ParseResponse decodes a reply body.
func ParseResponse(body []byte) (Response, error) {
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '{' {
		return Response{}, fmt.Errorf("%w: reply is not a JSON object: %q", ErrMalformedResponse, clip(string(trimmed), 64))
	}
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return resp, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
