package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	content := "OAKWOOD ESTATES\n\n# a comment\n  SUNSET RIDGE  \nWILLOW CREEK HOA\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	names, err := readNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"OAKWOOD ESTATES", "SUNSET RIDGE", "WILLOW CREEK HOA"}, names)
}

func TestReadNamesMissingFile(t *testing.T) {
	_, err := readNames(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
