// SPDX-License-Identifier: MPL-2.0

package task

import "sync"

// Emitter is the task body's handle for publishing events. It enforces the
// stream invariants: progress never repeats a value and never goes
// backwards.
type Emitter struct {
	t *Task

	mu   sync.Mutex
	last int
}

// Log publishes one line.
func (em *Emitter) Log(level, message string) {
	em.t.events <- LogEvent{Level: level, Message: message}
}

// Debug publishes a debug line.
func (em *Emitter) Debug(message string) { em.Log("debug", message) }

// Info publishes an info line.
func (em *Emitter) Info(message string) { em.Log("info", message) }

// Warn publishes a warning line.
func (em *Emitter) Warn(message string) { em.Log("warn", message) }

// Progress publishes a completion percentage. Values are clamped to
// [last, 100]; a value equal to the last published one is suppressed
// entirely, stage change or not.
func (em *Emitter) Progress(percent int, stage string) {
	em.mu.Lock()
	if percent < em.last {
		percent = em.last
	}
	if percent > 100 {
		percent = 100
	}
	if percent == em.last {
		em.mu.Unlock()
		return
	}
	em.last = percent
	em.mu.Unlock()

	em.t.events <- ProgressEvent{Percent: percent, Stage: stage}
}
