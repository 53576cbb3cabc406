package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvFilePathIsNextToBinary(t *testing.T) {
	path := envFilePath()
	assert.Equal(t, ".env", filepath.Base(path))

	exe, err := os.Executable()
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(exe), filepath.Dir(path))
	assert.True(t, filepath.IsAbs(path))
}
