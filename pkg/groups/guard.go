package groups

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/portalgate/portal/pkg/observability"
)

// MembershipSource is the read side of the membership store consumed by
// the guard. *Store satisfies it.
type MembershipSource interface {
	Exists(ctx context.Context, userID, groupName string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]string, error)
}

// Guard answers authorization questions over group membership. Every
// failure collapses to the safe default; the guard never returns an error.
type Guard struct {
	source MembershipSource
	logger *observability.Logger
	cache  *expirable.LRU[string, bool]
}

// NewGuard creates an authorization guard. cacheTTL <= 0 disables caching.
func NewGuard(source MembershipSource, logger *observability.Logger, cacheTTL time.Duration) *Guard {
	g := &Guard{
		source: source,
		logger: logger,
	}
	if cacheTTL > 0 {
		g.cache = expirable.NewLRU[string, bool](1024, nil, cacheTTL)
	}
	return g
}

// IsUserInGroup reports whether a membership row exists for the pair.
// Lookup failures resolve to false, never an error.
func (g *Guard) IsUserInGroup(ctx context.Context, userID, groupName string) bool {
	if userID == "" || groupName == "" {
		return false
	}

	cacheKey := userID + "|" + groupName
	if g.cache != nil {
		if allowed, ok := g.cache.Get(cacheKey); ok {
			return allowed
		}
	}

	exists, err := g.source.Exists(ctx, userID, groupName)
	if err != nil {
		g.logger.WithError(err).WithField("user_id", userID).Warn("membership lookup failed, denying")
		// Failures are never cached; the next check retries the source
		return false
	}

	if g.cache != nil {
		g.cache.Add(cacheKey, exists)
	}
	return exists
}

// ListUserGroups returns all groups for the user; failures resolve to an
// empty list
func (g *Guard) ListUserGroups(ctx context.Context, userID string) []string {
	if userID == "" {
		return nil
	}

	names, err := g.source.ListForUser(ctx, userID)
	if err != nil {
		g.logger.WithError(err).WithField("user_id", userID).Warn("group listing failed, returning none")
		return nil
	}
	return names
}

// IsAdmin reports whether the given user is in the admin group. An empty
// user ID (no authenticated user) is never an admin.
func (g *Guard) IsAdmin(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	return g.IsUserInGroup(ctx, userID, AdminGroup)
}
