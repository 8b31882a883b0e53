package link

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/sourcegraph/conc/panics"
)

// AfterEmitPayload travels down the after-emit chain.
type AfterEmitPayload struct {
	Linker *Linker
	Result *Result
	// Value is free for subscribers to pass data to later subscribers.
	Value interface{}
}

// AfterEmitFunc is one subscriber. It receives the previous subscriber's
// payload and returns the payload for the next one.
type AfterEmitFunc func(ctx context.Context, payload AfterEmitPayload) (AfterEmitPayload, error)

// Hooks owns the subscribers of one linker.
type Hooks struct {
	mu        sync.RWMutex
	afterEmit []AfterEmitFunc
}

// NewHooks creates hooks with the given after-emit subscribers.
func NewHooks(afterEmit ...AfterEmitFunc) *Hooks {
	return &Hooks{afterEmit: append([]AfterEmitFunc(nil), afterEmit...)}
}

// TapAfterEmit appends a subscriber.
func (h *Hooks) TapAfterEmit(fn AfterEmitFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterEmit = append(h.afterEmit, fn)
}

// RunAfterEmit calls the subscribers in order, each with the payload the
// previous one returned. The chain stops at the first error; a panicking
// subscriber counts as an error.
func (h *Hooks) RunAfterEmit(ctx context.Context, payload AfterEmitPayload) (AfterEmitPayload, error) {
	h.mu.RLock()
	subscribers := append([]AfterEmitFunc(nil), h.afterEmit...)
	h.mu.RUnlock()

	for i, fn := range subscribers {
		var (
			next AfterEmitPayload
			err  error
			pc   panics.Catcher
		)
		pc.Try(func() { next, err = fn(ctx, payload) })
		if recovered := pc.Recovered(); recovered != nil {
			err = recovered.AsError()
		}
		if err != nil {
			return payload, fmt.Errorf("after-emit subscriber %d: %w", i, err)
		}
		payload = next
	}
	return payload, nil
}

// Len returns the number of subscribers.
func (h *Hooks) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.afterEmit)
}

// CommandHook runs a shell command after every emission with PUGLINK_OUTPUT
// set to the emitted template's path. The payload passes through unchanged.
func CommandHook(command string) AfterEmitFunc {
	return func(ctx context.Context, payload AfterEmitPayload) (AfterEmitPayload, error) {
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Env = append(os.Environ(), "PUGLINK_OUTPUT="+payload.Result.OutputPath)
		if out, err := cmd.CombinedOutput(); err != nil {
			return payload, fmt.Errorf("%s: %w: %s", command, err, out)
		}
		return payload, nil
	}
}
