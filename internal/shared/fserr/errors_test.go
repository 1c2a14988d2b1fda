package fserr

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	err := New(KindNotFound, "read", "a/b.txt", fs.ErrNotExist)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrDenied))
	assert.True(t, errors.Is(err, fs.ErrNotExist), "underlying cause should stay reachable")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, `read: no such file or directory: "a/b.txt": file does not exist`, err.Error())
}

func TestWrappedErrorKeepsKind(t *testing.T) {
	err := fmt.Errorf("copy step: %w", New(KindDenied, "copy", "x", nil))

	assert.True(t, errors.Is(err, ErrDenied))
	assert.Equal(t, KindDenied, KindOf(err))
}

func TestSecurityViolation(t *testing.T) {
	err := error(&SecurityViolation{AttemptedPath: "../secret.txt", WorkspaceRoot: "/ws"})

	assert.True(t, errors.Is(err, ErrSecurityViolation))
	assert.Equal(t, KindSecurityViolation, KindOf(err))
	assert.Contains(t, err.Error(), "../secret.txt")
	assert.NotContains(t, err.Error(), "/ws")

	var sv *SecurityViolation
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &sv))
	assert.Equal(t, "/ws", sv.WorkspaceRoot)
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestKindTextRoundTrip(t *testing.T) {
	for kind := range kindNames {
		text, err := kind.MarshalText()
		require.NoError(t, err)

		var parsed Kind
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, kind, parsed)
	}

	var k Kind
	assert.Error(t, k.UnmarshalText([]byte("nope")))
}

func TestFromOS(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, statErr := os.Stat(filepath.Join(dir, "missing"))
	mkdirErr := os.Mkdir(file, 0o755)
	_, notDirErr := os.Stat(filepath.Join(file, "child"))

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not exist", statErr, KindNotFound},
		{"exists", mkdirErr, KindAlreadyExists},
		{"not a directory", notDirErr, KindNotADirectory},
		{"is a directory", &fs.PathError{Op: "open", Path: dir, Err: syscall.EISDIR}, KindIsADirectory},
		{"link error", &os.LinkError{Op: "rename", Old: "a", New: "b", Err: syscall.ENOENT}, KindNotFound},
		{"other", &fs.PathError{Op: "open", Path: dir, Err: syscall.EACCES}, KindIOFailure},
		{"already classified", New(KindDenied, "write", "x", nil), KindDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			got := FromOS("op", "rel/path", tt.err)
			assert.Equal(t, tt.want, KindOf(got))
			if tt.want != KindDenied {
				assert.NotContains(t, got.Error(), dir, "host path must not leak")
			}
		})
	}

	assert.Nil(t, FromOS("op", "x", nil))
}
