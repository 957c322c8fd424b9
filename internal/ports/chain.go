package ports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/models"
)

// RepositoryResolver adapts a Repository: exact code, exact or alternative
// name, then a fuzzy search.
type RepositoryResolver struct {
	repo   Repository
	source string
}

// NewRepositoryResolver wraps repo. source labels resolved ports.
func NewRepositoryResolver(repo Repository, source string) *RepositoryResolver {
	return &RepositoryResolver{repo: repo, source: source}
}

func (r *RepositoryResolver) Resolve(ctx context.Context, query string) (*models.Port, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("empty destination: %w", apperr.ErrNotFound)
	}

	if code, ok := NormalizeLocode(q); ok {
		p, err := r.repo.FindByLocode(ctx, code)
		if err == nil {
			return r.label(p), nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}

	p, err := r.repo.FindByName(ctx, q)
	if err == nil {
		return r.label(p), nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	// "Rotterdam, NL" style destinations: search on the part before the comma.
	term := q
	if i := strings.Index(term, ","); i > 0 {
		term = strings.TrimSpace(term[:i])
	}
	candidates, err := r.repo.Search(ctx, term, 10)
	if err != nil {
		return nil, err
	}
	if best := BestMatch(q, candidates); best != nil {
		return r.label(best), nil
	}
	return nil, fmt.Errorf("port %q: %w", q, apperr.ErrNotFound)
}

func (r *RepositoryResolver) label(p *models.Port) *models.Port {
	p.Source = r.source
	return p
}

// Chain tries resolvers in order. A not-found result moves on to the next
// resolver, as does a failing one; the error is kept for the final report.
type Chain struct {
	resolvers []Resolver
	logger    *slog.Logger
}

// NewChain builds a chain. nil resolvers are skipped.
func NewChain(logger *slog.Logger, resolvers ...Resolver) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Chain{logger: logger}
	for _, r := range resolvers {
		if r != nil {
			c.resolvers = append(c.resolvers, r)
		}
	}
	return c
}

func (c *Chain) Resolve(ctx context.Context, query string) (*models.Port, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Unresolvable("destination", errors.New("destination is empty"))
	}

	var errs []error
	for _, r := range c.resolvers {
		p, err := r.Resolve(ctx, query)
		if err == nil && p != nil {
			c.logger.Debug("destination resolved", "query", query, "port", p.Name, "source", p.Source)
			return p, nil
		}
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			c.logger.Warn("port resolver failed", "query", query, "error", err)
			errs = append(errs, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("port %q: %w", query, errors.Join(append([]error{apperr.ErrNotFound}, errs...)...))
	}
	return nil, fmt.Errorf("port %q: %w", query, apperr.ErrNotFound)
}
