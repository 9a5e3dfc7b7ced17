// Package credentials persists platform credentials across the three
// storage tiers the resolver consults: a one-shot navigation handoff,
// durable keyed storage, and the legacy per-field cookie jar.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/taskvoice/taskvoice/internal/platform"
)

// Tier names one persistence backend.
type Tier int

const (
	// TierNavigation is the one-shot handoff left by platform selection or
	// OAuth completion. Reading it consumes it.
	TierNavigation Tier = iota + 1
	// TierDurable is SQLite keyed storage, one record per platform.
	TierDurable
	// TierCookie is the legacy per-field cookie jar.
	TierCookie
)

func (t Tier) String() string {
	switch t {
	case TierNavigation:
		return "navigation"
	case TierDurable:
		return "durable"
	case TierCookie:
		return "cookie"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// CookieTTL is the expiry given to legacy cookie fields: fifty years,
// effectively permanent.
const CookieTTL = 50 * 365 * 24 * time.Hour

// HandoffKey is the only key the navigation tier holds.
const HandoffKey = "handoff"

// ErrUnknownTier is returned for tiers outside the three defined ones.
var ErrUnknownTier = errors.New("unknown storage tier")

// File names inside the data directory.
const (
	HandoffFile = "handoff.json"
	DurableFile = "credentials.db"
	CookieFile  = "cookies.yaml"
)

type backend interface {
	get(ctx context.Context, key string) ([]byte, bool, error)
	put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	del(ctx context.Context, key string) error
}

// Store is the single entry point to every tier. Call sites name the tier
// explicitly; precedence between tiers lives in the resolver.
type Store struct {
	tiers   map[Tier]backend
	durable *durableStore
}

// Open opens (creating if necessary) every tier under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create credential directory: %w", err)
	}

	durable, err := openDurable(filepath.Join(dir, DurableFile))
	if err != nil {
		return nil, err
	}

	return &Store{
		tiers: map[Tier]backend{
			TierNavigation: &handoffFile{path: filepath.Join(dir, HandoffFile)},
			TierDurable:    durable,
			TierCookie:     newCookieJar(filepath.Join(dir, CookieFile)),
		},
		durable: durable,
	}, nil
}

// Close releases the durable database handle.
func (s *Store) Close() error {
	if s.durable == nil {
		return nil
	}
	return s.durable.close()
}

func (s *Store) tier(t Tier) (backend, error) {
	b, ok := s.tiers[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTier, t)
	}
	return b, nil
}

// Read returns the raw value stored under key in tier t. The boolean is
// false when nothing (or nothing unexpired) is stored. Reading the
// navigation tier consumes it.
func (s *Store) Read(ctx context.Context, t Tier, key string) ([]byte, bool, error) {
	b, err := s.tier(t)
	if err != nil {
		return nil, false, err
	}
	value, ok, err := b.get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("read %s tier %q: %w", t, key, err)
	}
	return value, ok, nil
}

// Write stores value under key in tier t. ttl only applies to the cookie
// tier; zero means CookieTTL there.
func (s *Store) Write(ctx context.Context, t Tier, key string, value []byte, ttl time.Duration) error {
	b, err := s.tier(t)
	if err != nil {
		return err
	}
	if err := b.put(ctx, key, value, ttl); err != nil {
		return fmt.Errorf("write %s tier %q: %w", t, key, err)
	}
	return nil
}

// Remove deletes key from tier t. Removing an absent key is not an error.
func (s *Store) Remove(ctx context.Context, t Tier, key string) error {
	b, err := s.tier(t)
	if err != nil {
		return err
	}
	if err := b.del(ctx, key); err != nil {
		return fmt.Errorf("remove %s tier %q: %w", t, key, err)
	}
	return nil
}

// WriteCookies stores every field in the cookie tier in one write. Either
// all fields are stored or none are.
func (s *Store) WriteCookies(ctx context.Context, fields []platform.Field, ttl time.Duration) error {
	jar, ok := s.tiers[TierCookie].(*cookieJar)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTier, TierCookie)
	}
	if err := jar.putAll(ctx, fields, ttl); err != nil {
		return fmt.Errorf("write cookie tier: %w", err)
	}
	return nil
}

// ClearCookies deletes every credential cookie and the platform marker.
// The navigation and durable tiers are left alone so returning to a
// platform restores its saved credentials.
func (s *Store) ClearCookies(ctx context.Context) error {
	jar, ok := s.tiers[TierCookie].(*cookieJar)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTier, TierCookie)
	}
	keys := append(platform.AllFieldNames(), platform.MarkerField)
	if err := jar.delAll(ctx, keys); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}
