// Package contacts holds the canonical contact registry and the fuzzy
// resolver that maps free-text party names to contact codes.
package contacts

import "context"

// Contact is one canonical registry entry. The resolver only reads it.
type Contact struct {
	Code               string
	DisplayName        string
	Relation           string
	Aliases            []string
	CurrencyPreference string
	Active             bool
}

// Registry lists canonical contacts. Implementations must preserve a stable
// order: the resolver uses registry order as the tie-break between matches.
type Registry interface {
	ListActiveContacts(ctx context.Context) ([]Contact, error)
}

// StaticRegistry serves a fixed in-memory contact list. Used in tests and
// for single-household deployments without a registry table.
type StaticRegistry struct {
	Contacts []Contact
}

func (r *StaticRegistry) ListActiveContacts(ctx context.Context) ([]Contact, error) {
	out := make([]Contact, 0, len(r.Contacts))
	for _, c := range r.Contacts {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}
