package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portalgate/portal/pkg/identity"
)

func TestObserverStartsLoading(t *testing.T) {
	o := NewObserver()

	user, loading := o.Snapshot()
	assert.Nil(t, user)
	assert.True(t, loading)
}

func TestObserverSeedFlipsLoadingOnce(t *testing.T) {
	o := NewObserver()
	ctx := context.Background()

	var states []State
	o.Subscribe(func(s State) { states = append(states, s) })

	o.Seed(ctx, func(context.Context) (*identity.User, error) {
		return &identity.User{UserID: "user-1", LoginID: "u@example.com"}, nil
	})

	user, loading := o.Snapshot()
	require.NotNil(t, user)
	assert.Equal(t, "user-1", user.UserID)
	assert.False(t, loading)

	// a second seed is ignored
	o.Seed(ctx, func(context.Context) (*identity.User, error) {
		return &identity.User{UserID: "someone-else"}, nil
	})
	user, loading = o.Snapshot()
	assert.Equal(t, "user-1", user.UserID)
	assert.False(t, loading)

	// initial subscription state plus exactly one seed notification
	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.False(t, states[1].Loading)
}

func TestObserverSeedFailureMeansNoUser(t *testing.T) {
	o := NewObserver()

	o.Seed(context.Background(), func(context.Context) (*identity.User, error) {
		return nil, errors.New("no current user")
	})

	user, loading := o.Snapshot()
	assert.Nil(t, user)
	assert.False(t, loading)
}

func TestObserverSignedOutNeverReentersLoading(t *testing.T) {
	o := NewObserver()

	o.Seed(context.Background(), func(context.Context) (*identity.User, error) {
		return &identity.User{UserID: "user-1", LoginID: "u@example.com"}, nil
	})
	o.SignedOut()

	user, loading := o.Snapshot()
	assert.Nil(t, user)
	assert.False(t, loading)
}

func TestObserverSignedInNotifiesSubscribers(t *testing.T) {
	o := NewObserver()

	var last State
	var calls int
	unsub := o.Subscribe(func(s State) {
		last = s
		calls++
	})

	o.SignedIn(&identity.User{UserID: "user-1", LoginID: "u@example.com"})
	require.NotNil(t, last.User)
	assert.Equal(t, "user-1", last.User.UserID)
	assert.False(t, last.Loading)

	// after unsubscribing no further notifications arrive
	unsub()
	before := calls
	o.SignedOut()
	assert.Equal(t, before, calls)
}
