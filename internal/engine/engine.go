// Package engine wraps the external conversion engines behind a single
// capability interface. Each adapter owns its engine's invocation quirks:
// flag and export-filter mapping, locating the artifact the engine actually
// produced, and renaming it to the path the dispatcher expects.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/swiftconvert/backend/internal/models"
)

// Engine is the capability interface the dispatcher's fallback loop iterates
// over. Convert writes exactly one file into outputDir on success and returns
// its path; on failure any partial output is removed before returning.
type Engine interface {
	ID() models.EngineID
	Convert(ctx context.Context, inputPath, outputDir string, in, out models.Format) (string, error)
}

const stderrExcerptLimit = 512

// outputName derives the artifact name the dispatcher expects:
// the input's base name with the target extension.
func outputName(inputPath string, out models.Format) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + out.Ext()
}

// runCommand executes an engine subprocess, capturing a bounded stderr
// excerpt. Timeouts and cancellation arrive through ctx; both are reported
// as EngineExecutionError so the dispatcher falls back exactly as it would
// for a process exit failure.
func runCommand(ctx context.Context, id models.EngineID, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	execErr := &models.EngineExecutionError{
		Engine: id,
		Stderr: excerpt(stderr.String()),
		Cause:  err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execErr.ExitCode = exitErr.ExitCode()
	}
	if ctx.Err() != nil {
		execErr.Cause = fmt.Errorf("engine timed out or was cancelled: %w", ctx.Err())
	}
	return execErr
}

// verifyArtifact checks that the engine produced a non-empty file at path.
// A missing or empty artifact counts as an engine failure even on exit 0.
func verifyArtifact(id models.EngineID, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &models.EngineExecutionError{
			Engine: id,
			Cause:  fmt.Errorf("output artifact missing: %w", err),
		}
	}
	if info.Size() == 0 {
		os.Remove(path)
		return &models.EngineExecutionError{
			Engine: id,
			Cause:  fmt.Errorf("output artifact is empty"),
		}
	}
	return nil
}

// cleanupPartial removes a partial artifact, ignoring absence.
func cleanupPartial(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrExcerptLimit {
		s = s[:stderrExcerptLimit] + "..."
	}
	return s
}
