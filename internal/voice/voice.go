// Package voice implements the handle-indexed source registry: the slab of
// loaded sources, their atomic per-voice state, and the double-buffered
// snapshot the mixer reads without ever taking a lock.
package voice

import (
	"log"
	"math"
	"sync"
	"sync/atomic"

	"audiomix/decoder"
)

// State is a voice's playback state, mirroring audiomix.State one-for-one
// so the engine facade can convert between them with a plain cast.
type State int32

const (
	Stopped State = iota
	Playing
	Paused
)

// CompressionMode mirrors audiomix.CompressionMode one-for-one.
type CompressionMode int32

const (
	CompressInMemory CompressionMode = iota
	DecompressOnLoad
	Streaming
)

// ClipInfo is the immutable-after-load metadata of a source, mirroring
// audiomix.ClipInfo field-for-field.
type ClipInfo struct {
	SampleRate      int32
	Channels        int32
	BitsPerSample   int32
	LengthInSeconds float32
	TotalFrames     int64
	CompressionMode CompressionMode
}

// Source is a loaded voice. Its atomic fields are read by the audio thread
// without locking; its Decoder is touched only by the audio thread once
// Load has published the source. audioData keeps the decoder's backing
// buffer alive for exactly as long as the decoder needs it.
type Source struct {
	Decoder    decoder.Decoder
	audioData  []byte
	ClipInfo   ClipInfo
	Generation uint32 // detects a stale Handle after its slot is reused

	state atomic.Int32
	// volume and pan are stored as float32 bits in an atomic.Uint32 — the
	// same pattern the teacher uses for its own atomic float fields
	// (e.g. notifScale in audio.go).
	volume atomic.Uint32
	pan    atomic.Uint32
	loop   atomic.Bool

	compressedBytes uint64
}

func newSource() *Source {
	s := &Source{}
	s.volume.Store(math.Float32bits(1.0))
	return s
}

// State returns the voice's current playback state.
func (s *Source) State() State { return State(s.state.Load()) }

// SetState sets the voice's playback state.
func (s *Source) SetState(st State) { s.state.Store(int32(st)) }

// Volume returns the voice's current gain.
func (s *Source) Volume() float32 { return math.Float32frombits(s.volume.Load()) }

// SetVolume sets the voice's gain. Negative values are not rejected here or
// by Engine.SetVolume; a negative or absurd value won't corrupt any
// invariant the mixer relies on.
func (s *Source) SetVolume(v float32) { s.volume.Store(math.Float32bits(v)) }

// Pan returns the voice's current stereo pan, in [-1, 1].
func (s *Source) Pan() float32 { return math.Float32frombits(s.pan.Load()) }

// SetPan sets the voice's stereo pan, clamping to [-1, 1].
func (s *Source) SetPan(p float32) {
	if p < -1 {
		p = -1
	}
	if p > 1 {
		p = 1
	}
	s.pan.Store(math.Float32bits(p))
}

// Loop reports whether the voice restarts at end-of-stream instead of
// finishing.
func (s *Source) Loop() bool { return s.loop.Load() }

// SetLoop sets the voice's loop flag.
func (s *Source) SetLoop(l bool) { s.loop.Store(l) }

// CompressedBytes returns how many bytes this source's encoded data
// reserved against the memory budget at load time.
func (s *Source) CompressedBytes() uint64 { return s.compressedBytes }

// SnapshotEntry is one element of a published snapshot: everything the
// mixer needs for one voice, assembled once per publish instead of fetched
// through a per-voice callback on the hot path (spec's "direct snapshot
// pass" design note).
type SnapshotEntry struct {
	Handle int32
	Source *Source
}

// Snapshot is an immutable, point-in-time view of the active voice set.
type Snapshot struct {
	entries []SnapshotEntry
}

// Entries returns the snapshot's voices in registry order.
func (s *Snapshot) Entries() []SnapshotEntry { return s.entries }

// Lookup scans the snapshot for handle, returning its Source or nil. This is
// the audio thread's only way to resolve a handle to a Source — it never
// takes Registry.mu, which the control thread can hold across Load/Unload.
func (s *Snapshot) Lookup(handle int32) *Source {
	for _, e := range s.entries {
		if e.Handle == handle {
			return e.Source
		}
	}
	return nil
}

// Registry is the handle-indexed slab of loaded sources. Its structure
// (slot table) is mutated only under mu; the audio thread never touches mu
// — it reads only the double-buffered snapshot and each Source's atomic
// fields.
type Registry struct {
	mu    sync.Mutex
	slots []*Source // index == handle; nil means vacant

	// generations[i] is the Generation given to the latest Source loaded
	// into slot i; it survives Unload and is bumped each time the slot is
	// reused.
	generations []uint32

	// Double-buffered snapshot publication: the control thread writes the
	// inactive buffer, then flips active with a release store; the audio
	// thread loads active with an acquire load. This is RCU-style
	// publication, matching spec.md §3's double-buffered snapshot.
	buffers [2]atomic.Pointer[Snapshot]
	active  atomic.Int32
}

// NewRegistry returns an empty Registry with both snapshot buffers
// pointing at an empty Snapshot.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := &Snapshot{}
	r.buffers[0].Store(empty)
	r.buffers[1].Store(empty)
	return r
}

// Load assigns a handle to a new Source built from decoder d, which must
// have already had Open called successfully, and publishes a new snapshot
// including it. audioData is retained to keep d's backing buffer alive.
func (r *Registry) Load(d decoder.Decoder, audioData []byte, clip ClipInfo, compressedBytes uint64) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	src := newSource()
	src.Decoder = d
	src.audioData = audioData
	src.ClipInfo = clip
	src.compressedBytes = compressedBytes

	var handle int32 = -1
	for i, slot := range r.slots {
		if slot == nil {
			handle = int32(i)
			break
		}
	}
	if handle < 0 {
		handle = int32(len(r.slots))
		r.slots = append(r.slots, nil)
		r.generations = append(r.generations, 0)
	} else {
		r.generations[handle]++ // reusing a vacated slot
	}
	src.Generation = r.generations[handle]
	r.slots[handle] = src

	r.publishLocked()
	log.Printf("[voice] loaded handle=%d generation=%d", handle, src.Generation)
	return handle
}

// Unload vacates handle's slot and publishes a snapshot that omits it. It
// does not wait for the audio thread: a callback already holding the
// previous snapshot may still mix the Source until that callback returns,
// and the garbage collector keeps the Source alive until then. Neither
// this method nor Engine.UnloadAudio waits for that callback.
func (r *Registry) Unload(handle int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if handle < 0 || int(handle) >= len(r.slots) {
		return
	}
	r.slots[handle] = nil
	r.publishLocked()
}

// Get returns the Source at handle, or nil if the slot is vacant or out of
// range. Safe to call from either thread: it reads the mutex-guarded slot
// table, which the audio thread itself never does directly — this exists
// for control-thread queries like GetVolume/GetState.
func (r *Registry) Get(handle int32) *Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	if handle < 0 || int(handle) >= len(r.slots) {
		return nil
	}
	return r.slots[handle]
}

// publishLocked rebuilds the inactive snapshot from the current slot table
// and flips the active index. Callers must hold mu.
func (r *Registry) publishLocked() {
	entries := make([]SnapshotEntry, 0, len(r.slots))
	for i, s := range r.slots {
		if s != nil {
			entries = append(entries, SnapshotEntry{Handle: int32(i), Source: s})
		}
	}
	next := (r.active.Load() + 1) % 2
	r.buffers[next].Store(&Snapshot{entries: entries})
	r.active.Store(next)
}

// Snapshot returns the currently published Snapshot. Called by the audio
// thread once per callback.
func (r *Registry) Snapshot() *Snapshot {
	return r.buffers[r.active.Load()].Load()
}
