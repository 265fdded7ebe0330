// Package audiomix implements a realtime multi-voice software mixer: a
// lock-free command/event bridge between a control thread and a single
// audio thread, a per-callback bump arena, and a seqlock-protected clock,
// built around the contract that the audio thread never allocates, never
// blocks, and never takes a lock.
package audiomix

import "audiomix/decoder"

// Handle identifies a loaded source. Assigned at LoadAudio, stable for the
// lifetime of the load, never reused while that load is live.
type Handle int32

// InvalidHandle is returned by LoadAudio on failure.
const InvalidHandle Handle = -1

// Format describes the sample layout of a loaded or decoded stream. It's an
// alias for decoder.Format so the decoder contract and the engine facade
// share one definition without an import cycle (decoder can't depend on
// this package).
type Format = decoder.Format

// OutputConfig configures the platform output driver at Initialize.
type OutputConfig struct {
	SampleRate    int32
	Channels      int32
	BufferSize    int32 // frames per callback: 64, 128, 256, 512
	BufferCount   int32 // double/triple buffering: 2, 3, 4
	ExclusiveMode bool  // true = exclusive (e.g. WASAPI), false = shared
}

// CompressionMode selects how a loaded clip's samples are held in memory.
type CompressionMode int32

const (
	CompressInMemory CompressionMode = iota // compressed in memory, decode on play
	DecompressOnLoad                        // decompress fully when loaded
	Streaming                               // stream from disk
)

// State is a voice's playback state.
type State int32

const (
	Stopped State = iota
	Playing
	Paused
)

// Result is the synchronous outcome of a control operation, mirroring the
// original engine's result codes so callers ported from it see the same
// contract.
type Result int32

const (
	OK                    Result = 0
	ErrInvalidParam       Result = -1
	ErrNotInitialized     Result = -2
	ErrDecodeFailed       Result = -3
	ErrOutputFailed       Result = -4
	ErrOutOfMemory        Result = -5
	ErrFileNotFound       Result = -6
	ErrFormatNotSupported Result = -7
	ErrAlreadyInitialized Result = -8
)

// String renders a Result the way a log line or error message would.
func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case ErrInvalidParam:
		return "invalid parameter"
	case ErrNotInitialized:
		return "not initialized"
	case ErrDecodeFailed:
		return "decode failed"
	case ErrOutputFailed:
		return "output failed"
	case ErrOutOfMemory:
		return "out of memory"
	case ErrFileNotFound:
		return "file not found"
	case ErrFormatNotSupported:
		return "format not supported"
	case ErrAlreadyInitialized:
		return "already initialized"
	default:
		return "unknown result"
	}
}

// ClipInfo is the immutable-after-load metadata of a source.
type ClipInfo struct {
	SampleRate      int32
	Channels        int32
	BitsPerSample   int32
	LengthInSeconds float32
	TotalFrames     int64
	CompressionMode CompressionMode
}

// MemoryUsage reports the engine's compressed/decoded byte consumption.
type MemoryUsage struct {
	CompressedBytes   uint64
	DecodedBytes      uint64
	TotalBytes        uint64
	CompressedPercent float32
	DecodedPercent    float32
}
