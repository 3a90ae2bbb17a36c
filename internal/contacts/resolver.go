package contacts

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/divantrade/masareef/internal/textnorm"
)

// Resolver maps a free-text name, alias or relation token to a canonical
// contact. Matching is fold-insensitive (case, diacritics, punctuation) and
// bidirectionally substring-tolerant; the first registry entry that matches
// wins. This is a deliberate simplicity/recall tradeoff, not a scored
// matcher.
type Resolver struct {
	registry Registry
	log      zerolog.Logger
}

func NewResolver(registry Registry, log zerolog.Logger) *Resolver {
	return &Resolver{registry: registry, log: log}
}

// Resolve returns the matching contact, or nil when nothing matches or the
// registry cannot be read. Callers fall back to the raw text as a
// provisional counterparty label; a registry failure never aborts the
// message.
func (r *Resolver) Resolve(ctx context.Context, rawName string) *Contact {
	query := textnorm.Fold(rawName)
	if query == "" {
		return nil
	}

	entries, err := r.registry.ListActiveContacts(ctx)
	if err != nil {
		r.log.Warn().Err(err).Str("query", rawName).Msg("contact registry read failed, keeping raw text")
		return nil
	}

	for i := range entries {
		if matches(query, &entries[i]) {
			return &entries[i]
		}
	}
	return nil
}

// matches checks one registry entry against the folded query: exact equality
// with code, name, relation or any alias, then bidirectional containment
// with the name or any alias.
func matches(query string, c *Contact) bool {
	code := textnorm.Fold(c.Code)
	name := textnorm.Fold(c.DisplayName)
	relation := textnorm.Fold(c.Relation)

	if query == code || query == name || (relation != "" && query == relation) {
		return true
	}
	for _, alias := range c.Aliases {
		if query == textnorm.Fold(alias) {
			return true
		}
	}

	if contains(query, name) {
		return true
	}
	for _, alias := range c.Aliases {
		if contains(query, textnorm.Fold(alias)) {
			return true
		}
	}
	return false
}

func contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
