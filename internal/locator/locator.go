package locator

import (
	"fmt"
	"net/url"
)

// Kind tags a Locator as remote or local.
type Kind int

const (
	// KindLocal is a plain filesystem path; it is never fetched.
	KindLocal Kind = iota
	// KindRemote is an absolute URL with a non-empty scheme.
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindLocal:
		return "local"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Locator is an immutable, already classified source locator.
type Locator struct {
	Raw  string
	Kind Kind
	// URL is only set for KindRemote.
	URL *url.URL
}

// Parse classifies raw. Strings that url.Parse rejects are reported as errors
// rather than silently treated as paths.
func Parse(raw string) (Locator, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return Locator{}, fmt.Errorf("parse locator %q: %w", raw, err)
	}
	if parsed.Scheme == "" {
		return Locator{Raw: raw, Kind: KindLocal}, nil
	}
	return Locator{Raw: raw, Kind: KindRemote, URL: parsed}, nil
}

// IsRemote reports whether raw parses with a non-empty scheme.
func IsRemote(raw string) bool {
	loc, err := Parse(raw)
	if err != nil {
		return false
	}
	return loc.Remote()
}

// Remote reports whether the locator must be fetched.
func (l Locator) Remote() bool {
	return l.Kind == KindRemote
}

func (l Locator) String() string {
	return l.Raw
}
