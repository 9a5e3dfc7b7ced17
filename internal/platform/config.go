package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Credential field names. They double as the legacy cookie names.
const (
	FieldAPIKey              = "apiKey"
	FieldToken               = "token"
	FieldBoardID             = "boardId"
	FieldWorkspaceID         = "workspaceId"
	FieldPersonalAccessToken = "personalAccessToken"
	FieldProjectID           = "projectId"
)

// MarkerField is the cookie holding the active platform tag.
const MarkerField = "platform"

// ErrMissingField is returned when a required field is absent or empty.
var ErrMissingField = errors.New("missing required field")

// Field is one named credential value.
type Field struct {
	Name  string
	Value string
}

// Config is the credential set of exactly one platform. The set of
// implementations is closed: TrelloConfig, LinearConfig and AsanaConfig.
type Config interface {
	Platform() Platform
	// Complete reports whether every field is non-empty.
	Complete() bool
	// Fields returns the named fields in a stable order.
	Fields() []Field
	sealed()
}

// TrelloConfig holds a Trello API key, user token and target board.
type TrelloConfig struct {
	APIKey  string `json:"apiKey"`
	Token   string `json:"token"`
	BoardID string `json:"boardId"`
}

// LinearConfig holds a Linear API key and workspace.
type LinearConfig struct {
	APIKey      string `json:"apiKey"`
	WorkspaceID string `json:"workspaceId"`
}

// AsanaConfig holds an Asana personal access token and project.
type AsanaConfig struct {
	PersonalAccessToken string `json:"personalAccessToken"`
	ProjectID           string `json:"projectId"`
}

func (TrelloConfig) Platform() Platform { return Trello }
func (LinearConfig) Platform() Platform { return Linear }
func (AsanaConfig) Platform() Platform  { return Asana }

func (TrelloConfig) sealed() {}
func (LinearConfig) sealed() {}
func (AsanaConfig) sealed()  {}

func (c TrelloConfig) Fields() []Field {
	return []Field{
		{Name: FieldAPIKey, Value: c.APIKey},
		{Name: FieldToken, Value: c.Token},
		{Name: FieldBoardID, Value: c.BoardID},
	}
}

func (c LinearConfig) Fields() []Field {
	return []Field{
		{Name: FieldAPIKey, Value: c.APIKey},
		{Name: FieldWorkspaceID, Value: c.WorkspaceID},
	}
}

func (c AsanaConfig) Fields() []Field {
	return []Field{
		{Name: FieldPersonalAccessToken, Value: c.PersonalAccessToken},
		{Name: FieldProjectID, Value: c.ProjectID},
	}
}

func (c TrelloConfig) Complete() bool { return allSet(c.Fields()) }
func (c LinearConfig) Complete() bool { return allSet(c.Fields()) }
func (c AsanaConfig) Complete() bool  { return allSet(c.Fields()) }

func allSet(fields []Field) bool {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			return false
		}
	}
	return true
}

// IsComplete reports whether cfg is present and complete for p.
func IsComplete(p Platform, cfg Config) bool {
	return cfg != nil && cfg.Platform() == p && cfg.Complete()
}

// FieldNames lists the credential fields p requires.
func FieldNames(p Platform) ([]string, error) {
	switch p {
	case Trello:
		return []string{FieldAPIKey, FieldToken, FieldBoardID}, nil
	case Linear:
		return []string{FieldAPIKey, FieldWorkspaceID}, nil
	case Asana:
		return []string{FieldPersonalAccessToken, FieldProjectID}, nil
	case Jira:
		return nil, ErrUnsupported
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, string(p))
	}
}

// AllFieldNames lists every field name used by any platform, without duplicates.
func AllFieldNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, p := range All {
		fields, err := FieldNames(p)
		if err != nil {
			continue
		}
		for _, name := range fields {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// FromFields builds p's config from named values. Missing names are left
// empty; callers decide whether an incomplete result is acceptable.
func FromFields(p Platform, values map[string]string) (Config, error) {
	get := func(name string) string { return strings.TrimSpace(values[name]) }
	switch p {
	case Trello:
		return TrelloConfig{APIKey: get(FieldAPIKey), Token: get(FieldToken), BoardID: get(FieldBoardID)}, nil
	case Linear:
		return LinearConfig{APIKey: get(FieldAPIKey), WorkspaceID: get(FieldWorkspaceID)}, nil
	case Asana:
		return AsanaConfig{PersonalAccessToken: get(FieldPersonalAccessToken), ProjectID: get(FieldProjectID)}, nil
	case Jira:
		return nil, ErrUnsupported
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, string(p))
	}
}

// Missing returns the names of cfg's empty fields.
func Missing(cfg Config) []string {
	var names []string
	for _, f := range cfg.Fields() {
		if strings.TrimSpace(f.Value) == "" {
			names = append(names, f.Name)
		}
	}
	return names
}

// Encode serializes cfg as a single JSON record.
func Encode(cfg Config) ([]byte, error) {
	if cfg == nil {
		return nil, errors.New("encode config: nil config")
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode %s config: %w", cfg.Platform(), err)
	}
	return data, nil
}

// Decode parses a JSON record produced by Encode into p's variant.
func Decode(p Platform, raw []byte) (Config, error) {
	switch p {
	case Trello:
		var c TrelloConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode trello config: %w", err)
		}
		return c, nil
	case Linear:
		var c LinearConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode linear config: %w", err)
		}
		return c, nil
	case Asana:
		var c AsanaConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode asana config: %w", err)
		}
		return c, nil
	case Jira:
		return nil, ErrUnsupported
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, string(p))
	}
}
