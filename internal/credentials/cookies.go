package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taskvoice/taskvoice/internal/platform"
)

// cookie is one named legacy credential field.
type cookie struct {
	Name    string    `yaml:"name"`
	Value   string    `yaml:"value"`
	Expires time.Time `yaml:"expires"`
}

type cookieFile struct {
	Cookies []cookie `yaml:"cookies"`
}

// cookieJar is the legacy per-field store, persisted as YAML.
type cookieJar struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func newCookieJar(path string) *cookieJar {
	return &cookieJar{path: path, now: time.Now}
}

func (j *cookieJar) load() ([]cookie, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cookie jar: %w", err)
	}
	var f cookieFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing cookie jar: %w", err)
	}
	return f.Cookies, nil
}

func (j *cookieJar) save(cookies []cookie) error {
	data, err := yaml.Marshal(cookieFile{Cookies: cookies})
	if err != nil {
		return fmt.Errorf("marshalling cookie jar: %w", err)
	}
	return writeFileAtomic(j.path, data)
}

func (j *cookieJar) get(_ context.Context, key string) ([]byte, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	cookies, err := j.load()
	if err != nil {
		return nil, false, err
	}
	now := j.now()
	for _, c := range cookies {
		if c.Name != key {
			continue
		}
		if !c.Expires.IsZero() && !now.Before(c.Expires) {
			return nil, false, nil
		}
		return []byte(c.Value), true, nil
	}
	return nil, false, nil
}

func (j *cookieJar) put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return j.putAll(ctx, []platform.Field{{Name: key, Value: string(value)}}, ttl)
}

// putAll sets every field in a single file write, so either all of them
// land or none do.
func (j *cookieJar) putAll(_ context.Context, fields []platform.Field, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = CookieTTL
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	cookies, err := j.load()
	if err != nil {
		return err
	}
	expires := j.now().Add(ttl).UTC()
	for _, f := range fields {
		next := cookie{Name: f.Name, Value: f.Value, Expires: expires}
		replaced := false
		for i := range cookies {
			if cookies[i].Name == f.Name {
				cookies[i] = next
				replaced = true
				break
			}
		}
		if !replaced {
			cookies = append(cookies, next)
		}
	}
	return j.save(cookies)
}

func (j *cookieJar) del(ctx context.Context, key string) error {
	return j.delAll(ctx, []string{key})
}

func (j *cookieJar) delAll(_ context.Context, keys []string) error {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	cookies, err := j.load()
	if err != nil {
		return err
	}
	kept := cookies[:0]
	for _, c := range cookies {
		if !drop[c.Name] {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(cookies) {
		return nil
	}
	return j.save(kept)
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
