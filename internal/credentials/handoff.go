package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/taskvoice/taskvoice/internal/platform"
)

// Handoff is the navigation payload left for the next activation by the
// platform picker or by OAuth completion. Config is optional.
type Handoff struct {
	Platform platform.Platform `json:"platform"`
	Config   json.RawMessage   `json:"config,omitempty"`
}

// NewHandoff builds a handoff for p, optionally carrying cfg.
func NewHandoff(p platform.Platform, cfg platform.Config) (Handoff, error) {
	h := Handoff{Platform: p}
	if cfg == nil {
		return h, nil
	}
	if cfg.Platform() != p {
		return Handoff{}, fmt.Errorf("handoff for %s carries a %s config", p, cfg.Platform())
	}
	raw, err := platform.Encode(cfg)
	if err != nil {
		return Handoff{}, err
	}
	h.Config = raw
	return h, nil
}

// Encode serializes h for the navigation tier.
func (h Handoff) Encode() ([]byte, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encode handoff: %w", err)
	}
	return data, nil
}

// DecodeHandoff parses a navigation payload.
func DecodeHandoff(raw []byte) (Handoff, error) {
	var h Handoff
	if err := json.Unmarshal(raw, &h); err != nil {
		return Handoff{}, fmt.Errorf("decode handoff: %w", err)
	}
	p, err := platform.Parse(string(h.Platform))
	if err != nil {
		return Handoff{}, fmt.Errorf("decode handoff: %w", err)
	}
	h.Platform = p
	return h, nil
}

// PlatformConfig decodes the carried config, or returns nil when none.
func (h Handoff) PlatformConfig() (platform.Config, error) {
	if len(h.Config) == 0 || string(h.Config) == "null" {
		return nil, nil
	}
	return platform.Decode(h.Platform, h.Config)
}

// handoffFile is the navigation tier: a single file consumed on first read.
type handoffFile struct {
	path string
	mu   sync.Mutex
}

func (h *handoffFile) get(_ context.Context, _ string) ([]byte, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := os.ReadFile(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading handoff: %w", err)
	}
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, false, fmt.Errorf("consuming handoff: %w", err)
	}
	return data, true, nil
}

func (h *handoffFile) put(_ context.Context, _ string, value []byte, _ time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return writeFileAtomic(h.path, value)
}

func (h *handoffFile) del(_ context.Context, _ string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing handoff: %w", err)
	}
	return nil
}
