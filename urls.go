package userfetch

import (
	"fmt"
	"net/url"
)

// DefaultUsersPath is the relative reference joined onto the base URL to
// reach the users collection.
const DefaultUsersPath = "users"

// JoinURL resolves ref against base using RFC 3986 reference resolution.
// A relative ref replaces the last path segment of base, so "http://h/api"
// and "http://h/api/" give different results. The query and fragment of
// base are never carried over.
func JoinURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidBaseURL, base, err)
	}
	if !b.IsAbs() || b.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidBaseURL, base)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidReference, ref, err)
	}
	return b.ResolveReference(r).String(), nil
}

// UsersURL joins base with DefaultUsersPath.
func UsersURL(base string) (string, error) {
	return JoinURL(base, DefaultUsersPath)
}
