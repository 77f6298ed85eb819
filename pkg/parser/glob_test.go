package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("test"), 0644))
}

func TestExpandGlobs_SingleFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "access.log")
	touch(t, file)

	result, err := ExpandGlobs([]string{file})
	require.NoError(t, err)
	assert.Equal(t, []string{file}, result)
}

func TestExpandGlobs_GlobPattern(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"c.log", "a.log", "b.log", "d.txt"} {
		touch(t, filepath.Join(dir, f))
	}

	result, err := ExpandGlobs([]string{filepath.Join(dir, "*.log")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.log"),
		filepath.Join(dir, "b.log"),
		filepath.Join(dir, "c.log"),
	}, result)
}

func TestExpandGlobs_NoMatch(t *testing.T) {
	pattern := filepath.Join(t.TempDir(), "*.nonexistent")

	result, err := ExpandGlobs([]string{pattern})
	require.NoError(t, err)
	assert.Equal(t, []string{pattern}, result)
}

func TestExpandGlobs_Deduplication(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "access.log")
	touch(t, file)

	result, err := ExpandGlobs([]string{file, filepath.Join(dir, "*.log"), file})
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestExpandGlobs_InvalidPattern(t *testing.T) {
	_, err := ExpandGlobs([]string{"[invalid"})
	assert.Error(t, err)
}

func TestExpandGlobs_KeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "z.log")
	second := filepath.Join(dir, "a.log")
	touch(t, first)
	touch(t, second)

	result, err := ExpandGlobs([]string{first, second})
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, result)
}

func TestExpandGlobs_EmptyInput(t *testing.T) {
	result, err := ExpandGlobs([]string{})
	require.NoError(t, err)
	assert.Empty(t, result)
}
