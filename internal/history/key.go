package history

import (
	"net/url"
	"strings"
)

const keySeparator = "-"

// Key identifies the conversation between an unordered pair of participants.
// Both names are lower-cased, sorted and escaped so that Key(a, b) == Key(b, a).
type Key string

// CanonicalKey derives the conversation key for two participant names.
func CanonicalKey(a, b string) Key {
	x, y := strings.ToLower(a), strings.ToLower(b)
	if y < x {
		x, y = y, x
	}
	return Key(escapeComponent(x) + keySeparator + escapeComponent(y))
}

// Participants decodes the two lower-cased names the key was built from.
func (k Key) Participants() (string, string, bool) {
	parts := strings.Split(string(k), keySeparator)
	if len(parts) != 2 {
		return "", "", false
	}
	a, err := url.PathUnescape(parts[0])
	if err != nil {
		return "", "", false
	}
	b, err := url.PathUnescape(parts[1])
	if err != nil {
		return "", "", false
	}
	return a, b, true
}

// Canonical reports whether k is exactly the encoding CanonicalKey produces
// for its own components.
func (k Key) Canonical() bool {
	a, b, ok := k.Participants()
	return ok && CanonicalKey(a, b) == k
}

// Has reports whether name is one of the key's components. Comparison is
// exact on the lower-cased name, never a substring match.
func (k Key) Has(name string) bool {
	a, b, ok := k.Participants()
	if !ok {
		return false
	}
	n := strings.ToLower(name)
	return a == n || b == n
}

// Peer returns the component that is not name.
func (k Key) Peer(name string) (string, bool) {
	a, b, ok := k.Participants()
	if !ok {
		return "", false
	}
	switch strings.ToLower(name) {
	case a:
		return b, true
	case b:
		return a, true
	}
	return "", false
}

func escapeComponent(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), keySeparator, "%2D")
}
