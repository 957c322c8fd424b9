// Package ports resolves vessel destinations, given as UN/LOCODEs or
// free-text port names, to coordinates.
package ports

import (
	"context"
	"regexp"
	"strings"

	"github.com/ngmaloney/routewatch/internal/models"
)

// Repository is a stored port list.
type Repository interface {
	// FindByLocode returns the active port with the code, or an error
	// wrapping apperr.ErrNotFound.
	FindByLocode(ctx context.Context, locode string) (*models.Port, error)
	// FindByName matches the name or an alternative name exactly, ignoring
	// case.
	FindByName(ctx context.Context, name string) (*models.Port, error)
	// Search does a substring match on name, code, country and
	// alternative names, ordered by name.
	Search(ctx context.Context, query string, limit int) ([]models.Port, error)
	Upsert(ctx context.Context, p *models.Port) error
	Count(ctx context.Context) (int, error)
}

// Resolver turns a destination string into a port.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*models.Port, error)
}

var locodePattern = regexp.MustCompile(`^[A-Z]{2}[A-Z2-9]{3}$`)

// NormalizeLocode uppercases s and drops inner spaces ("NL RTM" -> "NLRTM").
// ok is false when the result is not shaped like a UN/LOCODE.
func NormalizeLocode(s string) (string, bool) {
	code := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	return code, locodePattern.MatchString(code)
}

// BestMatch picks the candidate whose name, code or alternative name
// contains the query or is contained in it. It falls back to the first
// candidate.
func BestMatch(query string, candidates []models.Port) *models.Port {
	if len(candidates) == 0 {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	for i := range candidates {
		p := &candidates[i]
		if overlaps(q, p.Name) || overlaps(q, p.Locode) {
			return p
		}
		for _, alt := range p.AlternativeNames {
			if overlaps(q, alt) {
				return p
			}
		}
	}
	return &candidates[0]
}

func overlaps(q, s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if q == "" || s == "" {
		return false
	}
	return strings.Contains(s, q) || strings.Contains(q, s)
}

// escapeLike escapes LIKE wildcards for use with ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
