package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mahmoodhamdi/lg-branchs/internal/application/services"
)

func TestLocationCoordinator(t *testing.T) {
	c := services.NewLocationCoordinator()

	firstCtx, first := c.Begin(context.Background(), "s1")
	otherCtx, other := c.Begin(context.Background(), "s2")
	assert.True(t, c.Current("s1", first))
	assert.True(t, c.Locating("s1"))
	assert.False(t, c.Locating("s3"))
	assert.Equal(t, 2, c.Pending())

	_, second := c.Begin(context.Background(), "s1")
	assert.False(t, c.Current("s1", first))
	assert.True(t, c.Current("s1", second))
	assert.ErrorIs(t, firstCtx.Err(), context.Canceled)
	assert.NoError(t, otherCtx.Err())

	// a stale finish leaves the newer request in place
	c.Finish("s1", first)
	assert.True(t, c.Current("s1", second))

	c.Finish("s1", second)
	c.Finish("s2", other)
	assert.False(t, c.Locating("s1"))
	assert.Equal(t, 0, c.Pending())
	assert.Error(t, otherCtx.Err())
}
