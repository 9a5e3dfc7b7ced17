// Package boards lists the boards a discovery-capable platform exposes so
// the user can pick a target.
package boards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taskvoice/taskvoice/internal/platform"
)

// DefaultTrelloAPI is Trello's public REST base URL.
const DefaultTrelloAPI = "https://api.trello.com"

const defaultDiscoveryTimeout = 15 * time.Second

// ErrTransport wraps failures to reach the provider at all.
var ErrTransport = errors.New("board discovery failed")

// ProviderError is an error reported by the provider itself.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider error (%d): %s", e.Status, e.Message)
	}
	return "provider error: " + e.Message
}

// Board is one selectable board.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Client lists boards.
type Client struct {
	apiBase string
	client  *http.Client
}

// New builds a Client. An empty apiBase means DefaultTrelloAPI.
func New(apiBase string, httpClient *http.Client) *Client {
	if apiBase == "" {
		apiBase = DefaultTrelloAPI
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultDiscoveryTimeout}
	}
	return &Client{apiBase: strings.TrimRight(apiBase, "/"), client: httpClient}
}

// Discover fetches the boards visible to cfg. Platforms without discovery
// return nil, nil. An empty list with a nil error means no boards exist;
// any failure is returned as an error with no boards. Not retried.
func (c *Client) Discover(ctx context.Context, cfg platform.Config) ([]Board, error) {
	if trello, ok := cfg.(platform.TrelloConfig); ok {
		return c.trelloBoards(ctx, trello)
	}
	return nil, nil
}

type trelloBoard struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Closed bool   `json:"closed"`
}

func (c *Client) trelloBoards(ctx context.Context, cfg platform.TrelloConfig) ([]Board, error) {
	if cfg.APIKey == "" || cfg.Token == "" {
		return nil, &ProviderError{Message: "an API key and token are required to list boards"}
	}

	q := url.Values{}
	q.Set("key", cfg.APIKey)
	q.Set("token", cfg.Token)
	q.Set("fields", "name,url,closed")
	endpoint := c.apiBase + "/1/members/me/boards?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, redact(err.Error(), cfg))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading reply: %v", ErrTransport, err)
	}

	if msg, ok := providerMessage(body); ok {
		return nil, &ProviderError{Status: resp.StatusCode, Message: msg}
	}
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return nil, &ProviderError{Status: resp.StatusCode, Message: msg}
	}

	var raw []trelloBoard
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ProviderError{Status: resp.StatusCode, Message: "unexpected board list format"}
	}
	result := make([]Board, 0, len(raw))
	for _, b := range raw {
		if b.Closed {
			continue
		}
		result = append(result, Board{ID: b.ID, Name: b.Name, URL: b.URL})
	}
	return result, nil
}

// providerMessage extracts the message of an error object such as
// {"message":"invalid token"}.
func providerMessage(body []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}
	var obj struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(body, &obj); err != nil || obj.Message == nil {
		return "", false
	}
	return *obj.Message, true
}

// redact keeps credentials out of error strings that embed the request URL.
func redact(s string, cfg platform.TrelloConfig) string {
	for _, secret := range []string{cfg.APIKey, cfg.Token} {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, "***")
		}
	}
	return s
}
