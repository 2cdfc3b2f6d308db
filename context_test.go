package jwtstrategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserFromContext(t *testing.T) {
	t.Run("it returns the stored user", func(t *testing.T) {
		ctx := WithUser(context.Background(), &user{ID: "1"})

		got, err := UserFromContext[*user](ctx)
		require.NoError(t, err)
		assert.Equal(t, &user{ID: "1"}, got)
		assert.True(t, HasUser(ctx))
	})

	t.Run("it fails when no user is stored", func(t *testing.T) {
		_, err := UserFromContext[*user](context.Background())
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.False(t, HasUser(context.Background()))
	})

	t.Run("it fails on a type mismatch", func(t *testing.T) {
		ctx := WithUser(context.Background(), "a string")

		_, err := UserFromContext[*user](ctx)
		assert.ErrorIs(t, err, ErrUserType)
		assert.EqualError(t, err, "user type assertion failed: have string, want *jwtstrategy.user")
	})
}

func TestMustUserFromContext(t *testing.T) {
	ctx := WithUser(context.Background(), 42)
	assert.Equal(t, 42, MustUserFromContext[int](ctx))
	assert.Panics(t, func() { MustUserFromContext[int](context.Background()) })
}
