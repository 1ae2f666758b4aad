// Package naming derives store-safe, collision-free namespace names from
// document titles.
package naming

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// MaxNameLen caps namespace names at what the store accepts.
const MaxNameLen = 60

// fallbackName is used when a title reduces to nothing at all.
const fallbackName = "GDefault"

var wordSplit = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// NamespaceLister is the capability the uniquify step needs from the store:
// the names of all namespaces that currently exist. The graph driver
// satisfies it; tests inject an in-memory fake.
type NamespaceLister interface {
	ListNamespaces(ctx context.Context) ([]string, error)
}

// DeriveName converts a free-text title into a namespace name: split on
// non-alphanumeric runs, capitalize each word, and concatenate with no
// separators. The result is non-empty, starts with a letter, and is at most
// MaxNameLen characters.
func DeriveName(title string) string {
	var b strings.Builder
	for _, word := range wordSplit.Split(title, -1) {
		if word == "" {
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(strings.ToLower(word[1:]))
	}
	name := b.String()

	if name == "" {
		return fallbackName
	}
	if !unicode.IsLetter(rune(name[0])) {
		name = "G" + name
	}
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	return name
}

// Service resolves base names to unused namespace names against a store.
type Service struct {
	lister NamespaceLister
}

// NewService creates a naming service backed by the given lister.
func NewService(lister NamespaceLister) *Service {
	return &Service{lister: lister}
}

// Uniquify returns baseName if no namespace of that name exists, otherwise
// the first free of baseName-2, baseName-3, ..., shortening the base as
// needed so the suffix always fits under MaxNameLen. When the existence
// check itself is unavailable the base name is returned unchanged and any
// conflict surfaces at creation time.
func (s *Service) Uniquify(ctx context.Context, baseName string) string {
	names, err := s.lister.ListNamespaces(ctx)
	if err != nil {
		return baseName
	}
	existing := make(map[string]struct{}, len(names))
	for _, n := range names {
		existing[n] = struct{}{}
	}

	if _, taken := existing[baseName]; !taken {
		return baseName
	}
	for idx := 2; ; idx++ {
		suffix := fmt.Sprintf("-%d", idx)
		base := baseName
		if len(base)+len(suffix) > MaxNameLen {
			base = base[:MaxNameLen-len(suffix)]
		}
		candidate := base + suffix
		if _, taken := existing[candidate]; !taken {
			return candidate
		}
	}
}
