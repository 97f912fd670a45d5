// Package compiler invokes an external rule-set compiler on rendered documents.
package compiler

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CompileError reports a failed compiler run.
type CompileError struct {
	JSONPath string
	Output   string
	Err      error
}

func (e *CompileError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("compile %s: %v", e.JSONPath, e.Err)
	}
	return fmt.Sprintf("compile %s: %v: %s", e.JSONPath, e.Err, out)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Compiler runs `<binary> rule-set compile --output <x.srs> <x.json>`.
type Compiler struct {
	binary string
}

// New creates a Compiler for the given binary, looked up in PATH when not absolute.
func New(binary string) *Compiler {
	return &Compiler{binary: binary}
}

// OutputPath returns the compiled artifact path for jsonPath.
func OutputPath(jsonPath string) string {
	return strings.TrimSuffix(jsonPath, ".json") + ".srs"
}

// Compile compiles jsonPath and returns the artifact path.
func (c *Compiler) Compile(ctx context.Context, jsonPath string) (string, error) {
	srsPath := OutputPath(jsonPath)
	cmd := exec.CommandContext(ctx, c.binary, "rule-set", "compile", "--output", srsPath, jsonPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", &CompileError{JSONPath: jsonPath, Output: string(out), Err: err}
	}
	return srsPath, nil
}
