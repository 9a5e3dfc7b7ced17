package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskvoice/taskvoice/internal/platform"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func TestNavigationTierIsConsumedOnRead(t *testing.T) {
	s, dir := openTestStore(t)
	ctx := context.Background()

	if err := s.Write(ctx, TierNavigation, HandoffKey, []byte(`{"platform":"trello"}`), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, ok, err := s.Read(ctx, TierNavigation, HandoffKey)
	if err != nil || !ok {
		t.Fatalf("first Read = (%q, %v, %v), want payload", raw, ok, err)
	}
	if string(raw) != `{"platform":"trello"}` {
		t.Fatalf("payload = %s", raw)
	}

	if _, ok, err := s.Read(ctx, TierNavigation, HandoffKey); err != nil || ok {
		t.Fatalf("second Read ok=%v err=%v, want absent", ok, err)
	}
	if _, err := os.Stat(filepath.Join(dir, HandoffFile)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("handoff file should be gone, stat err = %v", err)
	}
}

func TestDurableTierRoundTripAndOverwrite(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	key := platform.Linear.RecordKey()

	if _, ok, err := s.Read(ctx, TierDurable, key); err != nil || ok {
		t.Fatalf("empty Read ok=%v err=%v", ok, err)
	}
	if err := s.Write(ctx, TierDurable, key, []byte(`{"apiKey":"k1"}`), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(ctx, TierDurable, key, []byte(`{"apiKey":"k2"}`), 0); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	raw, ok, err := s.Read(ctx, TierDurable, key)
	if err != nil || !ok || string(raw) != `{"apiKey":"k2"}` {
		t.Fatalf("Read = (%s, %v, %v)", raw, ok, err)
	}
	if err := s.Remove(ctx, TierDurable, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := s.Read(ctx, TierDurable, key); ok {
		t.Fatal("record still present after Remove")
	}
}

func TestDurableTierSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Write(ctx, TierDurable, "asana_config", []byte("x"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_ = s.Close()

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, ok, err := reopened.Read(ctx, TierDurable, "asana_config"); err != nil || !ok {
		t.Fatalf("record lost across reopen: ok=%v err=%v", ok, err)
	}
}

func TestCookieTierDefaultsToLongExpiry(t *testing.T) {
	s, dir := openTestStore(t)
	ctx := context.Background()

	if err := s.Write(ctx, TierCookie, platform.FieldAPIKey, []byte("key"), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	jar := newCookieJar(filepath.Join(dir, CookieFile))
	cookies, err := jar.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	if time.Until(cookies[0].Expires) < 49*365*24*time.Hour {
		t.Errorf("expiry %v is not effectively permanent", cookies[0].Expires)
	}
}

func TestCookieTierExpiredReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	jar := newCookieJar(filepath.Join(dir, CookieFile))
	ctx := context.Background()
	if err := jar.put(ctx, platform.FieldToken, []byte("t"), time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	jar.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, ok, err := jar.get(ctx, platform.FieldToken); err != nil || ok {
		t.Fatalf("expired cookie ok=%v err=%v, want absent", ok, err)
	}
}

func TestWriteCookiesStoresAllOrNothing(t *testing.T) {
	s, dir := openTestStore(t)
	ctx := context.Background()

	fields := []platform.Field{{Name: "apiKey", Value: "k"}, {Name: "token", Value: "t"}}
	if err := s.WriteCookies(ctx, fields, 0); err != nil {
		t.Fatalf("WriteCookies: %v", err)
	}
	for _, f := range fields {
		v, ok, err := s.Read(ctx, TierCookie, f.Name)
		if err != nil || !ok || string(v) != f.Value {
			t.Fatalf("Read(%s) = (%q, %v, %v)", f.Name, v, ok, err)
		}
	}

	path := filepath.Join(dir, CookieFile)
	if err := os.WriteFile(path, []byte("cookies: [unterminated"), 0o600); err != nil {
		t.Fatalf("corrupting jar: %v", err)
	}
	if err := s.WriteCookies(ctx, []platform.Field{{Name: "apiKey", Value: "k2"}}, 0); err == nil {
		t.Fatal("WriteCookies over a corrupt jar should fail")
	}
	after, _ := os.ReadFile(path)
	if string(after) != "cookies: [unterminated" {
		t.Fatalf("failed write changed the jar: %q", after)
	}
}

func TestClearCookiesLeavesOtherTiers(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	for name, value := range map[string]string{
		platform.FieldAPIKey:      "k",
		platform.FieldWorkspaceID: "w",
		platform.MarkerField:      "linear",
	} {
		if err := s.Write(ctx, TierCookie, name, []byte(value), 0); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
	}
	if err := s.Write(ctx, TierDurable, "linear_config", []byte("{}"), 0); err != nil {
		t.Fatalf("Write durable: %v", err)
	}
	if err := s.Write(ctx, TierNavigation, HandoffKey, []byte(`{"platform":"linear"}`), 0); err != nil {
		t.Fatalf("Write navigation: %v", err)
	}

	if err := s.ClearCookies(ctx); err != nil {
		t.Fatalf("ClearCookies: %v", err)
	}

	for _, name := range []string{platform.FieldAPIKey, platform.FieldWorkspaceID, platform.MarkerField} {
		if _, ok, _ := s.Read(ctx, TierCookie, name); ok {
			t.Errorf("cookie %s survived ClearCookies", name)
		}
	}
	if _, ok, _ := s.Read(ctx, TierDurable, "linear_config"); !ok {
		t.Error("durable record must survive ClearCookies")
	}
	if _, ok, _ := s.Read(ctx, TierNavigation, HandoffKey); !ok {
		t.Error("navigation payload must survive ClearCookies")
	}
}

func TestUnknownTierIsRejected(t *testing.T) {
	s, _ := openTestStore(t)
	_, _, err := s.Read(context.Background(), Tier(9), "x")
	if !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("err = %v, want ErrUnknownTier", err)
	}
}

func TestHandoffCarriesConfig(t *testing.T) {
	h, err := NewHandoff(platform.Trello, platform.TrelloConfig{APIKey: "k", Token: "t", BoardID: "b"})
	if err != nil {
		t.Fatalf("NewHandoff: %v", err)
	}
	raw, err := h.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := DecodeHandoff(raw)
	if err != nil {
		t.Fatalf("DecodeHandoff: %v", err)
	}
	cfg, err := decoded.PlatformConfig()
	if err != nil {
		t.Fatalf("PlatformConfig: %v", err)
	}
	if !platform.IsComplete(platform.Trello, cfg) {
		t.Fatalf("config not complete: %#v", cfg)
	}

	if _, err := NewHandoff(platform.Asana, platform.TrelloConfig{}); err == nil {
		t.Fatal("mismatched handoff config should be rejected")
	}
}

func TestHandoffWithoutConfig(t *testing.T) {
	decoded, err := DecodeHandoff([]byte(`{"platform":"asana"}`))
	if err != nil {
		t.Fatalf("DecodeHandoff: %v", err)
	}
	cfg, err := decoded.PlatformConfig()
	if err != nil || cfg != nil {
		t.Fatalf("PlatformConfig = (%v, %v), want (nil, nil)", cfg, err)
	}
	if _, err := DecodeHandoff([]byte(`{"platform":"monday"}`)); err == nil {
		t.Fatal("unknown platform should fail to decode")
	}
}
