package groups

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/portalgate/portal/pkg/observability"
)

type fakeSource struct {
	memberships map[string]bool
	err         error
	existsCalls int
}

func (f *fakeSource) Exists(ctx context.Context, userID, groupName string) (bool, error) {
	f.existsCalls++
	if f.err != nil {
		return false, f.err
	}
	return f.memberships[userID+"|"+groupName], nil
}

func (f *fakeSource) ListForUser(ctx context.Context, userID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var names []string
	for key, ok := range f.memberships {
		if ok && len(key) > len(userID) && key[:len(userID)+1] == userID+"|" {
			names = append(names, key[len(userID)+1:])
		}
	}
	return names, nil
}

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func TestGuardIsUserInGroup(t *testing.T) {
	source := &fakeSource{memberships: map[string]bool{"user-1|admin": true}}
	guard := NewGuard(source, testLogger(), 0)
	ctx := context.Background()

	assert.True(t, guard.IsUserInGroup(ctx, "user-1", "admin"))
	assert.False(t, guard.IsUserInGroup(ctx, "user-2", "admin"))
	assert.False(t, guard.IsUserInGroup(ctx, "user-1", "operators"))
}

func TestGuardFailsClosed(t *testing.T) {
	source := &fakeSource{
		memberships: map[string]bool{"user-1|admin": true},
		err:         errors.New("connection refused"),
	}
	guard := NewGuard(source, testLogger(), 0)

	// membership exists, but the lookup failing means denial
	assert.False(t, guard.IsUserInGroup(context.Background(), "user-1", "admin"))
}

func TestGuardEmptyInputs(t *testing.T) {
	source := &fakeSource{}
	guard := NewGuard(source, testLogger(), 0)
	ctx := context.Background()

	assert.False(t, guard.IsUserInGroup(ctx, "", "admin"))
	assert.False(t, guard.IsUserInGroup(ctx, "user-1", ""))
	assert.Zero(t, source.existsCalls)
}

func TestGuardCachesDecisions(t *testing.T) {
	source := &fakeSource{memberships: map[string]bool{"user-1|admin": true}}
	guard := NewGuard(source, testLogger(), time.Minute)
	ctx := context.Background()

	assert.True(t, guard.IsUserInGroup(ctx, "user-1", "admin"))
	assert.True(t, guard.IsUserInGroup(ctx, "user-1", "admin"))
	assert.Equal(t, 1, source.existsCalls)

	// negative decisions are cached too
	assert.False(t, guard.IsUserInGroup(ctx, "user-2", "admin"))
	assert.False(t, guard.IsUserInGroup(ctx, "user-2", "admin"))
	assert.Equal(t, 2, source.existsCalls)
}

func TestGuardNeverCachesFailures(t *testing.T) {
	source := &fakeSource{err: errors.New("connection refused")}
	guard := NewGuard(source, testLogger(), time.Minute)
	ctx := context.Background()

	assert.False(t, guard.IsUserInGroup(ctx, "user-1", "admin"))
	assert.Equal(t, 1, source.existsCalls)

	// source recovers; the guard retries instead of serving a cached denial
	source.err = nil
	source.memberships = map[string]bool{"user-1|admin": true}
	assert.True(t, guard.IsUserInGroup(ctx, "user-1", "admin"))
	assert.Equal(t, 2, source.existsCalls)
}

func TestGuardListUserGroups(t *testing.T) {
	source := &fakeSource{memberships: map[string]bool{"user-1|admin": true}}
	guard := NewGuard(source, testLogger(), 0)
	ctx := context.Background()

	assert.Equal(t, []string{"admin"}, guard.ListUserGroups(ctx, "user-1"))
	assert.Nil(t, guard.ListUserGroups(ctx, ""))

	source.err = errors.New("connection refused")
	assert.Nil(t, guard.ListUserGroups(ctx, "user-1"))
}

func TestGuardIsAdmin(t *testing.T) {
	source := &fakeSource{memberships: map[string]bool{"user-1|admin": true}}
	guard := NewGuard(source, testLogger(), 0)
	ctx := context.Background()

	assert.True(t, guard.IsAdmin(ctx, "user-1"))
	assert.False(t, guard.IsAdmin(ctx, "user-2"))
	assert.False(t, guard.IsAdmin(ctx, ""))
}
