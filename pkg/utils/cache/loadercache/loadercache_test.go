package loadercache

import (
	"context"
	"errors"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/NissanArmada/GazooRazoo/pkg/utils/cache"
)

type counter struct {
	calls int
	err   error
}

func (c *counter) load(_ context.Context, key string) (*int, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	v := len(key) * 10
	return &v, nil
}

func TestGetLoadsOnce(t *testing.T) {
	ctr := &counter{}
	c := New(WithLoader[string, int](ctr.load))
	ctx := context.Background()

	v, err := c.Get(ctx, "abc")
	assert.NilError(t, err)
	assert.Equal(t, *v, 30)
	_, err = c.Get(ctx, "abc")
	assert.NilError(t, err)
	assert.Equal(t, ctr.calls, 1)

	c.Invalidate(ctx, "abc")
	_, err = c.Get(ctx, "abc")
	assert.NilError(t, err)
	assert.Equal(t, ctr.calls, 2)

	_, _ = c.Get(ctx, "de")
	c.InvalidateAll(ctx)
	_, _ = c.Get(ctx, "abc")
	_, _ = c.Get(ctx, "de")
	assert.Equal(t, ctr.calls, 5)
}

func TestExpiration(t *testing.T) {
	ctr := &counter{}
	now := time.Date(2025, 9, 7, 12, 0, 0, 0, time.UTC)
	c := New(
		WithLoader[string, int](ctr.load),
		WithExpiration[string, int](time.Minute),
		withClock[string, int](func() time.Time { return now }))
	ctx := context.Background()

	_, _ = c.Get(ctx, "a")
	now = now.Add(59 * time.Second)
	_, _ = c.Get(ctx, "a")
	assert.Equal(t, ctr.calls, 1)
	now = now.Add(2 * time.Second)
	_, _ = c.Get(ctx, "a")
	assert.Equal(t, ctr.calls, 2)
}

func TestLoaderError(t *testing.T) {
	ctr := &counter{err: errors.New("boom")}
	c := New(WithLoader[string, int](ctr.load))
	_, err := c.Get(context.Background(), "a")
	assert.ErrorContains(t, err, "boom")
	_, _ = c.Get(context.Background(), "a")
	assert.Equal(t, ctr.calls, 2, "errors are not cached")
}

func TestNoLoader(t *testing.T) {
	c := New[string, int]()
	_, err := c.Get(context.Background(), "a")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
