package decorator_test

import (
	"context"
	"errors"
	"testing"

	decorator "github.com/ikk-contest/backend/srvccqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingParams struct{ N int }

func TestCmdLoggingPassesThrough(t *testing.T) {
	var got int
	h := decorator.WithCmdLogging[pingParams](decorator.CmdFunc[pingParams](func(ctx context.Context, p pingParams) error {
		got = p.N
		return nil
	}))
	require.NoError(t, h.Handle(context.Background(), pingParams{N: 7}))
	assert.Equal(t, 7, got)

	boom := errors.New("boom")
	h = decorator.WithCmdLogging[pingParams](decorator.CmdFunc[pingParams](func(ctx context.Context, p pingParams) error {
		return boom
	}))
	assert.ErrorIs(t, h.Handle(context.Background(), pingParams{}), boom)
}

func TestQueryLoggingPassesThrough(t *testing.T) {
	h := decorator.WithQueryLogging[string, int](decorator.QueryFunc[string, int](func(ctx context.Context, q string) (int, error) {
		return len(q), nil
	}))
	n, err := h.Handle(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
