// Package resolver decides, on every activation, which platform is active
// and which credentials are in effect, and owns every later change to that
// decision.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/taskvoice/taskvoice/internal/credentials"
	"github.com/taskvoice/taskvoice/internal/log"
	"github.com/taskvoice/taskvoice/internal/platform"
)

var (
	// ErrIncomplete is returned by Save when a required field is empty.
	ErrIncomplete = errors.New("configuration is incomplete")
	// ErrNoBoardTarget is returned by SelectBoard without an active Trello config.
	ErrNoBoardTarget = errors.New("board selection needs an active Trello configuration")
)

// Session is the authoritative record of the active platform and config.
// Configured is true iff Config is present and complete for Platform.
type Session struct {
	Platform   platform.Platform
	Config     platform.Config
	Configured bool
}

func newSession(p platform.Platform, cfg platform.Config) Session {
	return Session{Platform: p, Config: cfg, Configured: platform.IsComplete(p, cfg)}
}

// Resolver resolves and mutates the active Session.
type Resolver struct {
	store *credentials.Store
	sink  log.Sink

	mu      sync.RWMutex
	current Session
}

// New creates a resolver over store that reports to sink.
func New(store *credentials.Store, sink log.Sink) *Resolver {
	return &Resolver{store: store, sink: sink}
}

// Current returns a snapshot of the active session.
func (r *Resolver) Current() Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Resolver) set(s Session) {
	r.mu.Lock()
	r.current = s
	r.mu.Unlock()
}

func (r *Resolver) emit(e log.Entry) {
	if r.sink != nil {
		r.sink.Append(e)
	}
}

// Activate consumes the navigation tier and resolves the session from it
// and the lower tiers.
func (r *Resolver) Activate(ctx context.Context) Session {
	var nav *credentials.Handoff
	raw, ok, err := r.store.Read(ctx, credentials.TierNavigation, credentials.HandoffKey)
	switch {
	case err != nil:
		r.emit(log.Error("Could not read the platform handoff", err))
	case ok:
		h, err := credentials.DecodeHandoff(raw)
		if err != nil {
			r.emit(log.Error("Ignored an unreadable platform handoff", err))
		} else {
			nav = &h
		}
	}
	return r.Resolve(ctx, nav)
}

// Resolve computes the session from nav and the stored tiers, first match
// wins, and records exactly one informational entry describing the outcome.
func (r *Resolver) Resolve(ctx context.Context, nav *credentials.Handoff) Session {
	s := r.resolve(ctx, nav)
	r.set(s)
	return s
}

func (r *Resolver) resolve(ctx context.Context, nav *credentials.Handoff) Session {
	candidates := platform.Durable
	only := platform.None

	if nav != nil && nav.Platform != platform.None {
		only = nav.Platform
		cfg, err := nav.PlatformConfig()
		if err != nil {
			r.emit(log.Error(fmt.Sprintf("Ignored unreadable %s credentials from handoff", only.DisplayName()), err))
		}
		if platform.IsComplete(only, cfg) {
			r.emit(log.Info(fmt.Sprintf("Connected to %s", only.DisplayName())))
			return newSession(only, cfg)
		}
		candidates = nil
		if only.UsesDurableStorage() {
			candidates = []platform.Platform{only}
		}
	}

	for _, p := range candidates {
		cfg, ok := r.readDurable(ctx, p)
		if !ok {
			continue
		}
		r.emit(log.Info(fmt.Sprintf("Loaded %s configuration from saved settings", p.DisplayName())))
		return newSession(p, cfg)
	}

	if s, ok := r.readCookies(ctx, only); ok {
		r.emit(log.Info(fmt.Sprintf("Restored %s configuration from legacy settings", s.Platform.DisplayName())))
		return s
	}

	if only != platform.None {
		r.emit(log.Info(fmt.Sprintf("%s selected; enter credentials to continue", only.DisplayName())))
		return Session{Platform: only}
	}
	r.emit(log.Info("No platform configured; choose a platform to get started"))
	return Session{}
}

// readDurable returns p's tier-2 config when a complete record decodes.
// Decode failures are reported and treated as absence.
func (r *Resolver) readDurable(ctx context.Context, p platform.Platform) (platform.Config, bool) {
	raw, ok, err := r.store.Read(ctx, credentials.TierDurable, p.RecordKey())
	if err != nil {
		r.emit(log.Error(fmt.Sprintf("Could not read saved %s settings", p.DisplayName()), err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	cfg, err := platform.Decode(p, raw)
	if err != nil {
		r.emit(log.Error(fmt.Sprintf("Saved %s settings are unreadable", p.DisplayName()), err))
		return nil, false
	}
	if !cfg.Complete() {
		return nil, false
	}
	return cfg, true
}

// readCookies rebuilds the marker platform's config from the legacy
// per-field cookies. When only is set, a marker naming another platform is
// ignored.
func (r *Resolver) readCookies(ctx context.Context, only platform.Platform) (Session, bool) {
	raw, ok, err := r.store.Read(ctx, credentials.TierCookie, platform.MarkerField)
	if err != nil {
		r.emit(log.Error("Could not read legacy settings", err))
		return Session{}, false
	}
	if !ok {
		return Session{}, false
	}
	p, err := platform.Parse(string(raw))
	if err != nil || p == platform.None {
		return Session{}, false
	}
	if only != platform.None && p != only {
		return Session{}, false
	}

	names, err := platform.FieldNames(p)
	if err != nil {
		return Session{}, false
	}
	values := make(map[string]string, len(names))
	for _, name := range names {
		v, ok, err := r.store.Read(ctx, credentials.TierCookie, name)
		if err != nil {
			r.emit(log.Error("Could not read legacy settings", err))
			return Session{}, false
		}
		if !ok {
			return Session{}, false
		}
		values[name] = string(v)
	}
	cfg, err := platform.FromFields(p, values)
	if err != nil || !cfg.Complete() {
		return Session{}, false
	}
	return newSession(p, cfg), true
}

// Save validates cfg, persists it and makes it the active session. An
// incomplete cfg returns ErrIncomplete and changes nothing.
func (r *Resolver) Save(ctx context.Context, cfg platform.Config) error {
	if cfg == nil || !cfg.Complete() {
		return ErrIncomplete
	}
	p := cfg.Platform()
	if err := r.persist(ctx, cfg); err != nil {
		return fmt.Errorf("saving %s settings: %w", p.DisplayName(), err)
	}

	r.set(newSession(p, cfg))
	r.emit(log.Success(fmt.Sprintf("%s configuration saved", p.DisplayName())))
	return nil
}

// persist writes cfg to the durable tier (when the platform uses it) and
// to the cookie tier. A failure leaves both tiers as they were.
func (r *Resolver) persist(ctx context.Context, cfg platform.Config) error {
	p := cfg.Platform()
	fields := append(cfg.Fields(), platform.Field{Name: platform.MarkerField, Value: string(p)})

	if !p.UsesDurableStorage() {
		return r.store.WriteCookies(ctx, fields, credentials.CookieTTL)
	}

	raw, err := platform.Encode(cfg)
	if err != nil {
		return err
	}
	key := p.RecordKey()
	prev, hadPrev, err := r.store.Read(ctx, credentials.TierDurable, key)
	if err != nil {
		return err
	}
	if err := r.store.Write(ctx, credentials.TierDurable, key, raw, 0); err != nil {
		return err
	}
	if err := r.store.WriteCookies(ctx, fields, credentials.CookieTTL); err != nil {
		if rbErr := r.restoreDurable(ctx, key, prev, hadPrev); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}

// restoreDurable puts the durable record back the way it was before a
// failed Save.
func (r *Resolver) restoreDurable(ctx context.Context, key string, prev []byte, hadPrev bool) error {
	if hadPrev {
		return r.store.Write(ctx, credentials.TierDurable, key, prev, 0)
	}
	return r.store.Remove(ctx, credentials.TierDurable, key)
}

// SwitchPlatform clears the active session and the legacy cookies in one
// step. Durable records are kept so returning to a platform restores it.
func (r *Resolver) SwitchPlatform(ctx context.Context) error {
	// The session survives a failed clear so memory and disk agree.
	if err := r.store.ClearCookies(ctx); err != nil {
		r.emit(log.Error("Could not clear legacy settings", err))
		return err
	}

	r.mu.Lock()
	prev := r.current.Platform
	r.current = Session{}
	r.mu.Unlock()
	if prev == platform.None {
		r.emit(log.Info("Switching platform"))
	} else {
		r.emit(log.Info(fmt.Sprintf("Disconnected from %s; choose a platform", prev.DisplayName())))
	}
	return nil
}

// SelectBoard retargets the active Trello config at boardID and persists it.
func (r *Resolver) SelectBoard(ctx context.Context, boardID string) error {
	current := r.Current()
	trello, ok := current.Config.(platform.TrelloConfig)
	if !ok || current.Platform != platform.Trello {
		return ErrNoBoardTarget
	}
	trello.BoardID = boardID
	return r.Save(ctx, trello)
}
