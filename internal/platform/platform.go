// Package platform defines the supported project-management providers and
// the credential set each one needs.
package platform

import (
	"errors"
	"fmt"
	"strings"
)

// Platform identifies one external project-management provider.
type Platform string

const (
	None   Platform = ""
	Trello Platform = "trello"
	Linear Platform = "linear"
	Asana  Platform = "asana"
	Jira   Platform = "jira" // listed in the picker, not configurable yet
)

// ErrUnknownPlatform is returned when a tag does not name a known provider.
var ErrUnknownPlatform = errors.New("unknown platform")

// ErrUnsupported is returned for providers that have no credential variant.
var ErrUnsupported = errors.New("platform is not supported yet")

// All lists every provider in picker order.
var All = []Platform{Trello, Linear, Asana, Jira}

// Durable lists the providers whose whole config is also kept in durable
// keyed storage, in the order the resolver consults them.
var Durable = []Platform{Linear, Asana}

// Parse converts a tag into a Platform. The empty string parses as None.
func Parse(tag string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(tag)))
	if p == None || p.Valid() {
		return p, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownPlatform, tag)
}

// Valid reports whether p is one of the known providers.
func (p Platform) Valid() bool {
	switch p {
	case Trello, Linear, Asana, Jira:
		return true
	default:
		return false
	}
}

// DisplayName returns the human-readable provider name.
func (p Platform) DisplayName() string {
	switch p {
	case Trello:
		return "Trello"
	case Linear:
		return "Linear"
	case Asana:
		return "Asana"
	case Jira:
		return "Jira"
	default:
		return "no platform"
	}
}

// UsesDurableStorage reports whether p keeps a record in durable keyed storage.
func (p Platform) UsesDurableStorage() bool {
	for _, d := range Durable {
		if d == p {
			return true
		}
	}
	return false
}

// SupportsDiscovery reports whether boards can be listed for p.
func (p Platform) SupportsDiscovery() bool {
	return p == Trello
}

// RecordKey is the durable storage key holding p's encoded config.
func (p Platform) RecordKey() string {
	return string(p) + "_config"
}

func (p Platform) String() string {
	if p == None {
		return "none"
	}
	return string(p)
}
