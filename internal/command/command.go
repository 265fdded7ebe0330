// Package command implements the main-thread-to-audio-thread control
// channel: a fixed-size record type, a bounded SPSC queue of them, and a
// batch accumulator so callers can coalesce several control changes into
// one queue submission.
package command

import "audiomix/internal/ring"

// Kind identifies what a Command asks the audio callback to do.
type Kind uint8

const (
	Noop Kind = iota
	Play
	Stop
	Pause
	Resume
	SetVolume
	SetPitch
	SetPan
	SetLoop
	FadeVolume
	Seek
	StopAll
)

// Command is a single control-plane instruction, sized to be cheap to copy
// through the ring buffer by value.
type Command struct {
	Kind      Kind
	VoiceID   int32
	Param0    float32 // primary scalar: volume / pitch / pan
	Param1    float32 // fade target
	Duration  float32 // fade duration in seconds
	SeekFrame int64   // Seek: target frame index, avoids float precision loss

	// ScheduleSample is carried for wire compatibility with sample-accurate
	// scheduling but is not interpreted by the mixer: every command is
	// applied at the start of the callback it's drained in, regardless of
	// this value.
	ScheduleSample uint64
}

// queueCapacity matches the original engine's 1024-slot queue, sized to
// absorb bursts of roughly a thousand commands between callbacks.
const queueCapacity = 1024

// Queue is the main-thread → audio-thread command channel.
type Queue = ring.Buffer[Command]

// NewQueue returns an empty command Queue.
func NewQueue() *Queue {
	return ring.New[Command](queueCapacity)
}

// maxBatch caps how many commands a single Batch can accumulate before
// Add silently drops further additions.
const maxBatch = 64

// Batch accumulates commands from non-realtime call sites (e.g. several
// property setters invoked back to back) so they can be submitted to the
// Queue in one go instead of one TryPush per call.
type Batch struct {
	commands [maxBatch]Command
	count    int
}

// Add appends cmd to the batch. Once the batch is full, further calls are
// silently dropped — callers that need more than 64 pending commands should
// Submit first.
func (b *Batch) Add(cmd Command) {
	if b.count < maxBatch {
		b.commands[b.count] = cmd
		b.count++
	}
}

// Submit pushes every accumulated command to queue in order and clears the
// batch, returning how many were actually pushed (fewer than Count if the
// queue didn't have room for all of them).
func (b *Batch) Submit(queue *Queue) int {
	pushed := queue.TryPushBatch(b.commands[:b.count])
	b.count = 0
	return pushed
}

// Count returns the number of commands currently accumulated.
func (b *Batch) Count() int {
	return b.count
}

// Clear discards accumulated commands without submitting them.
func (b *Batch) Clear() {
	b.count = 0
}
