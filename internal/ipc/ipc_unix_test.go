//go:build !windows

package ipc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathPrecedence(t *testing.T) {
	t.Setenv(EnvSocket, "/tmp/from-env.sock")
	assert.Equal(t, "/tmp/flag.sock", Path("/tmp/flag.sock"))
	assert.Equal(t, "/tmp/from-env.sock", Path(""))

	t.Setenv(EnvSocket, "")
	assert.Equal(t, "clipkeep.sock", filepath.Base(Path("")))
}

func TestListenDial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ck.sock")
	assert.False(t, IsRunning(path))

	ln, err := Listen(path)
	require.NoError(t, err)
	defer ln.Close()

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()
	assert.True(t, IsRunning(path))

	c, err := Dial(context.Background(), path)
	require.NoError(t, err)
	_ = c.Close()

	_, err = Listen(path)
	assert.Error(t, err, "a live socket must not be replaced")
}

func TestListenReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	ln, err := Listen(path)
	require.NoError(t, err)
	_ = ln.Close()
}
