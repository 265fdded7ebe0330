// Package decoder specifies the contract the mixer demands of any codec and
// provides the fixed, compile-time set of variants this engine ships:
// PCM/WAV, Opus, and intentionally-declining stubs for Vorbis, MP3, and
// FLAC.
package decoder

// Format describes the sample layout a Decoder produces.
type Format struct {
	SampleRate    int32
	Channels      int32
	BitsPerSample int32
	BlockAlign    int32
}

// Decoder is the capability set the mixer needs from any codec. A single
// Decoder instance is owned exclusively by the audio thread after a
// successful Open; the control thread never calls Decode or Seek directly,
// it enqueues a command instead.
type Decoder interface {
	// Open parses data and prepares the decoder to produce samples. It
	// returns false on any parse failure. data must remain live for the
	// decoder's lifetime — implementations keep a reference, not a copy.
	Open(data []byte) bool

	// Decode fills out with up to frameCount frames of interleaved float
	// samples (channel count per Format) and returns the number of frames
	// actually produced. Fewer than requested signals approaching or
	// reaching end-of-stream; 0 signals EOS.
	Decode(out []float32, frameCount int) int

	// Seek repositions to frame, clamped to [0, TotalFrames()]. Returns
	// false if the decoder cannot seek (never for PCMDecoder or
	// OpusDecoder; the declining Vorbis/MP3/FLAC stubs always return false,
	// and streaming variants may return false on I/O error).
	Seek(frame int64) bool

	// Format returns the decoded sample layout.
	Format() Format

	// SupportsStreaming reports whether this variant decodes from a live
	// I/O source rather than an in-memory buffer.
	SupportsStreaming() bool

	// TotalFrames returns the total frame count, or 0 if unknown.
	TotalFrames() int64
}

// newFuncs lists the decoder constructors in load-chain order: first
// successful Open wins. PCM is tried first because it's the only container
// this engine can always parse (and falls back to raw PCM internally);
// Opus follows since the rest of this engine's dependency stack is built
// around it; Vorbis/MP3/FLAC close the chain and always decline (§ their
// own files). Because PCM's raw fallback accepts any non-empty data, Open
// returns a PCMDecoder for every non-empty input; the later variants are
// never selected by Open.
var newFuncs = []func() Decoder{
	func() Decoder { return &PCMDecoder{} },
	func() Decoder { return &OpusDecoder{} },
	func() Decoder { return &VorbisDecoder{} },
	func() Decoder { return &MP3Decoder{} },
	func() Decoder { return &FLACDecoder{} },
}

// Open tries every registered variant in chain order against data, in
// memory order, and returns the first one whose Open call succeeds. It
// returns nil if no variant can parse data.
func Open(data []byte) Decoder {
	for _, newFn := range newFuncs {
		d := newFn()
		if d.Open(data) {
			return d
		}
	}
	return nil
}
