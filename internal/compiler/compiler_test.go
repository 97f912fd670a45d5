package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "out/Ads.srs", OutputPath("out/Ads.json"))
	assert.Equal(t, "out/Ads.srs", OutputPath("out/Ads"))
}

// fakeCompiler writes a shell script that behaves like the compiler CLI.
func fakeCompiler(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "fake-compiler")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestCompile(t *testing.T) {
	bin := fakeCompiler(t, `[ "$1 $2 $3" = "rule-set compile --output" ] || exit 2
cp "$5" "$4"
`)
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "Ads.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{}"), 0o644))

	srsPath, err := New(bin).Compile(context.Background(), jsonPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Ads.srs"), srsPath)
	assert.FileExists(t, srsPath)
}

func TestCompile_Failure(t *testing.T) {
	bin := fakeCompiler(t, "echo 'invalid rule-set' >&2\nexit 1\n")

	_, err := New(bin).Compile(context.Background(), "Ads.json")

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Ads.json", ce.JSONPath)
	assert.Contains(t, ce.Output, "invalid rule-set")
	assert.Contains(t, err.Error(), "invalid rule-set")
}

func TestCompile_MissingBinary(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "no-such-compiler")).Compile(context.Background(), "Ads.json")

	var ce *CompileError
	assert.True(t, errors.As(err, &ce))
}
