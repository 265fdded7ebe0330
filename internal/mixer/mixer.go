// Package mixer implements the audio callback: the single function that
// runs on the realtime thread once per buffer, pulling together the
// command queue, the source registry's snapshot, the frame arena, and the
// seqlocked clock into one allocation-free, lock-free pass.
package mixer

import (
	"math"
	"sync/atomic"

	"audiomix/internal/arena"
	"audiomix/internal/clock"
	"audiomix/internal/command"
	"audiomix/internal/dsp"
	"audiomix/internal/voice"
)

// Mixer runs the per-callback mix. A single instance is owned by exactly
// one audio thread; Process must never be called concurrently with itself.
// MasterVolume/PeakLevel may be read from any thread; FinishedVoices and
// LoopedVoices return unsynchronized slices and are for the thread that
// calls Process.
type Mixer struct {
	registry *voice.Registry
	commands *command.Queue
	arena    *arena.Arena
	clk      *clock.Clock

	masterVolume atomic.Uint32 // float32 bits, default 1.0
	peakLevel    atomic.Uint32 // float32 bits

	finishedVoices []int32
	loopedVoices   []int32

	// scratchFallback backs the per-voice decode buffer when the arena is
	// exhausted. It's grown, never shrunk, and reused callback to callback —
	// a persistent heap fallback, not a per-callback allocation.
	scratchFallback []float32

	commandBuf [64]command.Command
}

// New returns a Mixer driven by registry's published snapshots, draining
// commands from queue and advancing clk once per Process call.
func New(registry *voice.Registry, queue *command.Queue, a *arena.Arena, clk *clock.Clock) *Mixer {
	m := &Mixer{registry: registry, commands: queue, arena: a, clk: clk}
	m.masterVolume.Store(math.Float32bits(1.0))
	return m
}

// SetMasterVolume sets the gain applied to the summed output after all
// voices are mixed.
func (m *Mixer) SetMasterVolume(v float32) { m.masterVolume.Store(math.Float32bits(v)) }

// MasterVolume returns the current master gain.
func (m *Mixer) MasterVolume() float32 { return math.Float32frombits(m.masterVolume.Load()) }

// PeakLevel returns the peak absolute sample value from the most recently
// completed Process call.
func (m *Mixer) PeakLevel() float32 { return math.Float32frombits(m.peakLevel.Load()) }

// FinishedVoices returns the handles that reached end-of-stream during the
// most recently completed Process call. The returned slice is reused by
// the next Process call; callers that need to keep it must copy.
func (m *Mixer) FinishedVoices() []int32 { return m.finishedVoices }

// LoopedVoices returns the handles that wrapped back to their start during
// the most recently completed Process call. The returned slice is reused
// by the next Process call; callers that need to keep it must copy.
func (m *Mixer) LoopedVoices() []int32 { return m.loopedVoices }

// Process runs one callback's worth of mixing: drain commands, decode and
// sum every playing voice into output, apply master gain, meter the peak,
// report finished voices, and advance the clock. output must hold
// frames*channels interleaved samples.
func (m *Mixer) Process(output []float32, frames, channels int) {
	m.arena.Reset()
	snap := m.registry.Snapshot()
	m.drainCommands(snap)

	dsp.Clear(output)
	m.finishedVoices = m.finishedVoices[:0]
	m.loopedVoices = m.loopedVoices[:0]

	scratchLen := frames * channels
	scratch := m.arena.AllocFloat32(scratchLen)
	if scratch == nil {
		if cap(m.scratchFallback) < scratchLen {
			m.scratchFallback = make([]float32, scratchLen)
		}
		scratch = m.scratchFallback[:scratchLen]
	}

	for _, entry := range snap.Entries() {
		m.mixVoice(entry, scratch, output, frames, channels)
	}

	mv := m.MasterVolume()
	if mv != 1.0 {
		dsp.ApplyGain(output, mv)
	}

	m.peakLevel.Store(math.Float32bits(dsp.PeakLevel(output)))

	for _, h := range m.finishedVoices {
		if src := snap.Lookup(h); src != nil {
			src.SetState(voice.Stopped)
		}
	}

	m.clk.Advance(frames)
}

// mixVoice decodes and mixes one snapshot entry into output, appending to
// m.finishedVoices on end-of-stream.
func (m *Mixer) mixVoice(entry voice.SnapshotEntry, scratch, output []float32, frames, channels int) {
	src := entry.Source
	if src.Decoder == nil || src.State() != voice.Playing {
		return
	}

	dsp.Clear(scratch)
	produced := src.Decoder.Decode(scratch, frames)
	if produced == 0 {
		if src.Loop() {
			src.Decoder.Seek(0)
			produced = src.Decoder.Decode(scratch, frames)
			if produced > 0 {
				m.loopedVoices = append(m.loopedVoices, entry.Handle)
			}
		}
		if produced == 0 {
			m.finishedVoices = append(m.finishedVoices, entry.Handle)
			return
		}
	}

	srcChannels := int(src.Decoder.Format().Channels)
	if srcChannels == 1 && channels == 2 {
		upmixMonoToStereo(scratch, frames)
	}

	pan := src.Pan()
	if channels == 2 && pan != 0 {
		dsp.ApplyStereoPan(scratch, pan, frames)
	}

	n := produced * channels
	dsp.MixAdd(output[:n], scratch[:n], src.Volume())
}

// upmixMonoToStereo duplicates mono samples into both channels of a
// stereo-sized buffer, walking backwards so the in-place expansion never
// overwrites a mono sample it hasn't read yet.
func upmixMonoToStereo(buf []float32, frames int) {
	for i := frames - 1; i >= 0; i-- {
		buf[i*2+0] = buf[i]
		buf[i*2+1] = buf[i]
	}
}

// drainCommands applies every queued command to the addressed source
// before any voice decodes this callback, so a Seek issued this tick takes
// effect now rather than next callback. snap resolves each command's
// VoiceID without ever touching the registry's mutex.
func (m *Mixer) drainCommands(snap *voice.Snapshot) {
	for {
		n := m.commands.TryPopBatch(m.commandBuf[:])
		if n == 0 {
			return
		}
		for _, cmd := range m.commandBuf[:n] {
			m.applyCommand(cmd, snap)
		}
		if n < len(m.commandBuf) {
			return
		}
	}
}

// applyCommand mutates the addressed source's atomic fields, or its
// decoder for Seek. Play from a Stopped source and Stop both seek the
// decoder back to frame 0 — state=Stopped implies the next Play must
// logically restart from the beginning — while Resume preserves position.
// SetPitch is accepted and otherwise ignored — this mixer has no resampler
// to act on it. FadeVolume jumps straight to the target (Param1) rather
// than ramping over Duration; sample-accurate volume ramps are not
// implemented.
func (m *Mixer) applyCommand(cmd command.Command, snap *voice.Snapshot) {
	if cmd.Kind == command.StopAll {
		for _, entry := range snap.Entries() {
			entry.Source.SetState(voice.Stopped)
		}
		return
	}

	src := snap.Lookup(cmd.VoiceID)
	if src == nil {
		return
	}

	switch cmd.Kind {
	case command.Play:
		if src.State() == voice.Stopped && src.Decoder != nil {
			src.Decoder.Seek(0)
		}
		src.SetState(voice.Playing)
	case command.Resume:
		src.SetState(voice.Playing)
	case command.Stop:
		if src.Decoder != nil {
			src.Decoder.Seek(0)
		}
		src.SetState(voice.Stopped)
	case command.Pause:
		src.SetState(voice.Paused)
	case command.SetVolume:
		src.SetVolume(cmd.Param0)
	case command.SetPan:
		src.SetPan(cmd.Param0)
	case command.SetLoop:
		src.SetLoop(cmd.Param0 != 0)
	case command.FadeVolume:
		src.SetVolume(cmd.Param1)
	case command.Seek:
		if src.Decoder != nil {
			src.Decoder.Seek(cmd.SeekFrame)
		}
	case command.SetPitch, command.Noop:
		// no-op: see doc comment above.
	}
}
