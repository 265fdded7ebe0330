package audiomix

import (
	"log"
	"sync"
	"sync/atomic"

	"audiomix/decoder"
	"audiomix/internal/arena"
	"audiomix/internal/clock"
	"audiomix/internal/command"
	"audiomix/internal/membudget"
	"audiomix/internal/mixer"
	"audiomix/internal/voice"
)

// defaultArenaBytes is the per-callback scratch arena size, matching the
// original engine's 128 KiB default.
const defaultArenaBytes = 128 * 1024

// Engine is the facade a host embeds: lifecycle, source control, and the
// realtime Process entry point a platform output driver calls once per
// callback. The zero value is not usable — construct with New or Default.
type Engine struct {
	mu          sync.Mutex
	initialized atomic.Bool

	prefs  Preferences
	config OutputConfig

	registry *voice.Registry
	mix      *mixer.Mixer
	arena    *arena.Arena
	commands *command.Queue
	events   *eventQueue
	budget   *membudget.Budget
	clk      *clock.Clock
}

// New returns a host-owned Engine, not yet initialized. prefs seeds the
// memory budget ceilings and the initial master volume; the output
// configuration comes only from Initialize's cfg, and prefs' output fields
// are not read. Pass DefaultPreferences() for the stock settings.
func New(prefs Preferences) *Engine {
	return &Engine{prefs: prefs}
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// Default returns the process-wide singleton Engine, constructing it on
// first use the way the original engine's Meyers-singleton
// AudioEngine::Instance() did. Most hosts with a single audio output want
// this; hosts embedding multiple independent mixers should use New.
func Default() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine = New(LoadPreferences())
	})
	return defaultEngine
}

// Initialize brings the engine up with cfg: allocates the mixer, the
// per-callback scratch arena, the command/event queues, and the memory
// budget. Returns ErrAlreadyInitialized on a double call, matching the
// idempotence guard of the engine this was ported from.
func (e *Engine) Initialize(cfg OutputConfig) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized.Load() {
		return ErrAlreadyInitialized
	}
	if cfg.SampleRate <= 0 || cfg.Channels <= 0 || cfg.BufferSize <= 0 {
		return ErrInvalidParam
	}

	e.config = cfg
	e.registry = voice.NewRegistry()
	e.commands = command.NewQueue()
	e.events = newEventQueue()
	e.arena = arena.New(defaultArenaBytes)
	e.clk = clock.New(cfg.SampleRate, cfg.BufferSize)
	e.mix = mixer.New(e.registry, e.commands, e.arena, e.clk)
	e.budget = membudget.New(membudget.Config{
		MaxCompressedBytes: e.prefs.MaxCompressedBytes,
		MaxDecodedBytes:    e.prefs.MaxDecodedBytes,
		WarningThreshold:   0.85,
	})
	e.mix.SetMasterVolume(e.prefs.MasterVolume)

	e.initialized.Store(true)
	log.Printf("[engine] initialized sampleRate=%d channels=%d bufferSize=%d", cfg.SampleRate, cfg.Channels, cfg.BufferSize)
	return OK
}

// Shutdown tears down the engine's internal state. It does not touch a
// platform output driver — that's an external collaborator the caller
// stops first (see output/portaudio), since the driver owns the audio
// thread that would otherwise still be calling Process.
func (e *Engine) Shutdown() Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized.Load() {
		return ErrNotInitialized
	}
	e.initialized.Store(false)
	e.registry = nil
	e.mix = nil
	e.arena = nil
	e.commands = nil
	e.events = nil
	e.budget = nil
	e.clk = nil
	log.Println("[engine] shutdown")
	return OK
}

// IsInitialized reports whether Initialize has succeeded and Shutdown has
// not since been called.
func (e *Engine) IsInitialized() bool {
	return e.initialized.Load()
}

// Process runs one callback's worth of mixing into output (frames*channels
// interleaved samples) and publishes any resulting events. Called by the
// platform output driver on its own audio thread, once per buffer; must
// never be called concurrently with itself.
func (e *Engine) Process(output []float32, frames, channels int) {
	if !e.initialized.Load() {
		return
	}
	e.mix.Process(output, frames, channels)

	// Resolve via the published snapshot, not registry.Get: this runs on
	// the audio thread, and Get takes the control thread's mutex.
	snap := e.registry.Snapshot()
	for _, h := range e.mix.LoopedVoices() {
		var gen uint32
		if src := snap.Lookup(h); src != nil {
			gen = src.Generation
		}
		e.events.TryPush(Event{Kind: EventLoopPoint, Voice: Handle(h), Generation: gen})
	}
	for _, h := range e.mix.FinishedVoices() {
		var gen uint32
		if src := snap.Lookup(h); src != nil {
			gen = src.Generation
		}
		e.events.TryPush(Event{Kind: EventVoiceFinished, Voice: Handle(h), Generation: gen})
	}
}

// LoadAudio parses data through the decoder chain and registers a new
// source under compressionMode, failing with ErrOutOfMemory if doing so
// would exceed the compressed-byte budget.
func (e *Engine) LoadAudio(data []byte, compressionMode CompressionMode) (Handle, Result) {
	if !e.initialized.Load() {
		return InvalidHandle, ErrNotInitialized
	}
	if len(data) == 0 {
		return InvalidHandle, ErrInvalidParam
	}

	d := decoder.Open(data)
	if d == nil {
		log.Printf("[engine] load audio: no decoder in the chain accepted %d bytes", len(data))
		return InvalidHandle, ErrDecodeFailed
	}

	compressedBytes := uint64(len(data))
	if !e.budget.TryAllocCompressed(compressedBytes) {
		log.Printf("[engine] load audio: %d bytes would exceed the compressed budget", compressedBytes)
		return InvalidHandle, ErrOutOfMemory
	}

	format := d.Format()
	clip := voice.ClipInfo{
		SampleRate:      format.SampleRate,
		Channels:        format.Channels,
		BitsPerSample:   format.BitsPerSample,
		TotalFrames:     d.TotalFrames(),
		CompressionMode: voice.CompressionMode(compressionMode),
	}
	if format.SampleRate > 0 {
		clip.LengthInSeconds = float32(d.TotalFrames()) / float32(format.SampleRate)
	}

	h := e.registry.Load(d, data, clip, compressedBytes)
	return Handle(h), OK
}

// UnloadAudio vacates handle's slot, publishing a snapshot that omits it,
// and releases its compressed-byte budget reservation.
func (e *Engine) UnloadAudio(handle Handle) Result {
	if !e.initialized.Load() {
		return ErrNotInitialized
	}
	src := e.registry.Get(int32(handle))
	if src == nil {
		return ErrInvalidParam
	}
	e.registry.Unload(int32(handle))
	e.budget.FreeCompressed(src.CompressedBytes())
	return OK
}

// sourceCommand pushes a zero-payload command addressed to handle, failing
// with ErrInvalidParam if the handle doesn't name a loaded source.
func (e *Engine) sourceCommand(handle Handle, kind command.Kind) Result {
	if !e.initialized.Load() {
		return ErrNotInitialized
	}
	if e.registry.Get(int32(handle)) == nil {
		return ErrInvalidParam
	}
	e.commands.TryPush(command.Command{Kind: kind, VoiceID: int32(handle)})
	return OK
}

// Play transitions handle to PLAYING on the next callback.
func (e *Engine) Play(handle Handle) Result { return e.sourceCommand(handle, command.Play) }

// Pause transitions handle to PAUSED on the next callback.
func (e *Engine) Pause(handle Handle) Result { return e.sourceCommand(handle, command.Pause) }

// Stop transitions handle to STOPPED on the next callback.
func (e *Engine) Stop(handle Handle) Result { return e.sourceCommand(handle, command.Stop) }

// SetVolume queues a volume change for handle, applied before the next
// callback's decode.
func (e *Engine) SetVolume(handle Handle, volume float32) Result {
	if !e.initialized.Load() {
		return ErrNotInitialized
	}
	if e.registry.Get(int32(handle)) == nil {
		return ErrInvalidParam
	}
	e.commands.TryPush(command.Command{Kind: command.SetVolume, VoiceID: int32(handle), Param0: volume})
	return OK
}

// SetPan queues a stereo pan change for handle, clamped to [-1, 1] by the
// mixer when applied.
func (e *Engine) SetPan(handle Handle, pan float32) Result {
	if !e.initialized.Load() {
		return ErrNotInitialized
	}
	if e.registry.Get(int32(handle)) == nil {
		return ErrInvalidParam
	}
	e.commands.TryPush(command.Command{Kind: command.SetPan, VoiceID: int32(handle), Param0: pan})
	return OK
}

// SetLoop queues a loop-flag change for handle.
func (e *Engine) SetLoop(handle Handle, loop bool) Result {
	if !e.initialized.Load() {
		return ErrNotInitialized
	}
	if e.registry.Get(int32(handle)) == nil {
		return ErrInvalidParam
	}
	var p float32
	if loop {
		p = 1
	}
	e.commands.TryPush(command.Command{Kind: command.SetLoop, VoiceID: int32(handle), Param0: p})
	return OK
}

// Seek queues a seek to frame for handle, applied before the next
// callback's decode. Returns false if handle doesn't name a loaded source.
func (e *Engine) Seek(handle Handle, frame int64) bool {
	if !e.initialized.Load() {
		return false
	}
	if e.registry.Get(int32(handle)) == nil {
		return false
	}
	e.commands.TryPush(command.Command{Kind: command.Seek, VoiceID: int32(handle), SeekFrame: frame})
	return true
}

// GetState returns handle's current playback state, or STOPPED if handle
// doesn't name a loaded source.
func (e *Engine) GetState(handle Handle) State {
	if !e.initialized.Load() {
		return Stopped
	}
	src := e.registry.Get(int32(handle))
	if src == nil {
		return Stopped
	}
	return State(src.State())
}

// GetVolume returns handle's current gain, or 0 if handle doesn't name a
// loaded source.
func (e *Engine) GetVolume(handle Handle) float32 {
	if !e.initialized.Load() {
		return 0
	}
	src := e.registry.Get(int32(handle))
	if src == nil {
		return 0
	}
	return src.Volume()
}

// GetPan returns handle's current stereo pan, or 0 if handle doesn't name
// a loaded source.
func (e *Engine) GetPan(handle Handle) float32 {
	if !e.initialized.Load() {
		return 0
	}
	src := e.registry.Get(int32(handle))
	if src == nil {
		return 0
	}
	return src.Pan()
}

// GetClipInfo returns handle's immutable-after-load metadata.
func (e *Engine) GetClipInfo(handle Handle) (ClipInfo, Result) {
	if !e.initialized.Load() {
		return ClipInfo{}, ErrNotInitialized
	}
	src := e.registry.Get(int32(handle))
	if src == nil {
		return ClipInfo{}, ErrInvalidParam
	}
	c := src.ClipInfo
	return ClipInfo{
		SampleRate:      c.SampleRate,
		Channels:        c.Channels,
		BitsPerSample:   c.BitsPerSample,
		LengthInSeconds: c.LengthInSeconds,
		TotalFrames:     c.TotalFrames,
		CompressionMode: CompressionMode(c.CompressionMode),
	}, OK
}

// SetMasterVolume sets the gain applied after all voices are summed. Takes
// effect immediately — the mixer exposes this as an atomic singleton, not
// a queued command, matching the original engine's direct
// SetMasterVolume call.
func (e *Engine) SetMasterVolume(volume float32) {
	if !e.initialized.Load() {
		return
	}
	e.mix.SetMasterVolume(volume)
}

// GetMasterVolume returns the current master gain.
func (e *Engine) GetMasterVolume() float32 {
	if !e.initialized.Load() {
		return 0
	}
	return e.mix.MasterVolume()
}

// SetBufferSize stores frames as the configured buffer size. It is only
// accepted while the engine is not initialized, and Initialize replaces the
// whole output configuration with its cfg argument, so a size set here
// reaches neither the mixer nor GetCurrentLatency; the size in effect is
// always cfg.BufferSize.
func (e *Engine) SetBufferSize(frames int32) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized.Load() {
		return ErrAlreadyInitialized
	}
	if frames <= 0 {
		return ErrInvalidParam
	}
	e.config.BufferSize = frames
	return OK
}

// GetCurrentLatency returns the nominal output latency in seconds: buffer
// size times buffer count, divided by sample rate.
func (e *Engine) GetCurrentLatency() float64 {
	if !e.initialized.Load() || e.config.SampleRate <= 0 {
		return 0
	}
	bufferCount := e.config.BufferCount
	if bufferCount <= 0 {
		bufferCount = 1
	}
	return float64(e.config.BufferSize) * float64(bufferCount) / float64(e.config.SampleRate)
}

// GetPeakLevel returns the peak absolute sample value from the most
// recently completed Process call.
func (e *Engine) GetPeakLevel() float32 {
	if !e.initialized.Load() {
		return 0
	}
	return e.mix.PeakLevel()
}

// GetMemoryUsage reports current compressed/decoded byte consumption
// against the configured budget.
func (e *Engine) GetMemoryUsage() MemoryUsage {
	if !e.initialized.Load() {
		return MemoryUsage{}
	}
	u := e.budget.Usage()
	return MemoryUsage{
		CompressedBytes:   u.CompressedBytes,
		DecodedBytes:      u.DecodedBytes,
		TotalBytes:        u.TotalBytes,
		CompressedPercent: u.CompressedPercent,
		DecodedPercent:    u.DecodedPercent,
	}
}

// PollEvent returns the oldest pending event and true, or the zero Event
// and false if none are pending. Call regularly from a control thread to
// drain voice-finished and loop-point events, the only kinds the engine
// itself emits.
func (e *Engine) PollEvent() (Event, bool) {
	if !e.initialized.Load() {
		return Event{}, false
	}
	return e.events.TryPop()
}
