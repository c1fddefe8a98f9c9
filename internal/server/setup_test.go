package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "4000")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("HTTP_TIMEOUT", "5s")

	srv, err := Setup("test", SetupOptions{})
	require.NoError(t, err)
	assert.Equal(t, ":4000", srv.config.HTTP.ListenAddr)
	assert.Equal(t, "test", srv.version)

	srv, err = Setup("test", SetupOptions{ListenAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", srv.config.HTTP.ListenAddr)
}

func TestSetupErrors(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	t.Run("bad configuration", func(t *testing.T) {
		t.Setenv("HTTP_TIMEOUT", "soon")
		_, err := Setup("test", SetupOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load configuration")
	})

	t.Run("bad schedule", func(t *testing.T) {
		t.Setenv("AI_STATUS_SCHEDULE", "whenever")
		_, err := Setup("test", SetupOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create server")
	})
}
