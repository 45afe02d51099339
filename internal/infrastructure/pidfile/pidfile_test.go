package pidfile_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/mediator-go/internal/infrastructure/pidfile"
)

func TestAcquire_WritesCurrentPID(t *testing.T) {
	// Arrange
	p := pidfile.New(filepath.Join(t.TempDir(), "mediator.pid"))

	// Act
	require.NoError(t, p.Acquire())

	// Assert
	pid, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestAcquire_ReplacesGarbageFile(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "mediator.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o644))
	p := pidfile.New(path)

	// Act
	err := p.Acquire()

	// Assert
	require.NoError(t, err)
	pid, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestAcquire_FailsWhenOwnerIsAlive(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "mediator.pid")
	// the parent test binary process is alive for the duration of the test
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getppid())), 0o644))
	p := pidfile.New(path)

	// Act
	err := p.Acquire()

	// Assert
	assert.ErrorIs(t, err, pidfile.ErrAlreadyRunning)
}

func TestRelease_IsIdempotent(t *testing.T) {
	// Arrange
	p := pidfile.New(filepath.Join(t.TempDir(), "mediator.pid"))
	require.NoError(t, p.Acquire())

	// Act & Assert
	require.NoError(t, p.Release())
	require.NoError(t, p.Release())
	_, err := p.Read()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
