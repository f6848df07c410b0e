package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveInput_Explicit(t *testing.T) {
	path, sample, err := ResolveInput("data", "mine.csv", true)
	require.NoError(t, err)
	assert.Equal(t, "mine.csv", path)
	assert.False(t, sample)
}

func TestResolveInput_UserFileWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("x"), 0o644))

	path, sample, err := ResolveInput(dir, "", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultFile), path)
	assert.False(t, sample)
}

func TestResolveInput_FallsBackToSample(t *testing.T) {
	dir := t.TempDir()
	path, sample, err := ResolveInput(dir, "", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SampleFile), path)
	assert.True(t, sample)
}

func TestResolveInput_ForceSample(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("x"), 0o644))

	path, sample, err := ResolveInput(dir, "", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SampleFile), path)
	assert.True(t, sample)
}
