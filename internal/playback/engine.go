// Package playback hands a manifest URL to an external player process.
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
)

// Engine drives playback of a single stream at a time.
type Engine interface {
	// Initialize starts playback of manifestURL. target names the surface
	// the stream is bound to (window title for external players).
	Initialize(ctx context.Context, target, manifestURL string) error
	// Dispose stops playback and releases the underlying resources.
	// Disposing an engine that was never initialized is a no-op.
	Dispose() error
}

const defaultPlayerBinary = "ffplay"

// ExecEngine launches an external media player as a child process.
type ExecEngine struct {
	binary string
	log    *slog.Logger

	mu  sync.Mutex
	cmd *exec.Cmd
}

func NewExecEngine(binary string, log *slog.Logger) *ExecEngine {
	if binary == "" {
		binary = defaultPlayerBinary
	}
	if log == nil {
		log = slog.Default()
	}
	return &ExecEngine{binary: binary, log: log}
}

func (e *ExecEngine) Initialize(ctx context.Context, target, manifestURL string) error {
	if manifestURL == "" {
		return fmt.Errorf("no manifest url")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd != nil {
		if err := e.stopLocked(); err != nil {
			return fmt.Errorf("failed to stop previous playback: %w", err)
		}
	}

	cmd := exec.CommandContext(ctx, e.binary, "-window_title", target, "-autoexit", manifestURL)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start player %s: %w", e.binary, err)
	}

	e.log.Info("playback started", "binary", e.binary, "manifest_url", manifestURL)
	e.cmd = cmd
	return nil
}

func (e *ExecEngine) Dispose() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked()
}

func (e *ExecEngine) stopLocked() error {
	if e.cmd == nil {
		return nil
	}
	cmd := e.cmd
	e.cmd = nil

	if cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to stop player: %w", err)
		}
	}
	// Reap the child; the kill above makes Wait return promptly.
	_ = cmd.Wait()
	return nil
}

// NopEngine satisfies Engine without starting any process. Used when the
// gallery runs headless.
type NopEngine struct{}

func (NopEngine) Initialize(ctx context.Context, target, manifestURL string) error { return nil }
func (NopEngine) Dispose() error                                                   { return nil }
