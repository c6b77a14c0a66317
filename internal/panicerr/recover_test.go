package panicerr_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/forthen-lang/forthen/internal/panicerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Recover(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		err := panicerr.Recover("clean", func() error { return nil })
		require.NoError(t, err)
	})

	t.Run("returned error", func(t *testing.T) {
		sentinel := errors.New("boom")
		err := panicerr.Recover("returned", func() error { return sentinel })
		require.Equal(t, sentinel, err)
	})

	t.Run("panic", func(t *testing.T) {
		err := panicerr.Recover("panics", func() error { panic("kaboom") })
		require.Error(t, err)
		assert.True(t, panicerr.IsPanic(err))
		assert.Contains(t, err.Error(), "kaboom")
		assert.NotEmpty(t, panicerr.PanicStack(err))
	})

	t.Run("goexit", func(t *testing.T) {
		err := panicerr.Recover("exits", func() error {
			runtime.Goexit()
			return nil
		})
		require.Error(t, err)
		assert.True(t, panicerr.IsExit(err))
	})
}
