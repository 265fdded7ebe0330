package decoder

import (
	"encoding/binary"
	"math"
	"testing"
)

// buildWav assembles a minimal 16-bit PCM mono WAV file around the given
// sample values.
func buildWav(t *testing.T, sampleRate, channels, bitsPerSample int, samples []int16) []byte {
	t.Helper()
	blockAlign := channels * bitsPerSample / 8
	dataBytes := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(dataBytes[i*2:], uint16(s))
	}

	fmtChunk := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtChunk[0:2], 1) // PCM
	binary.LittleEndian.PutUint16(fmtChunk[2:4], uint16(channels))
	binary.LittleEndian.PutUint32(fmtChunk[4:8], uint32(sampleRate))
	binary.LittleEndian.PutUint32(fmtChunk[8:12], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(fmtChunk[12:14], uint16(blockAlign))
	binary.LittleEndian.PutUint16(fmtChunk[14:16], uint16(bitsPerSample))

	buf := make([]byte, 0, 44+len(dataBytes))
	buf = append(buf, []byte("RIFF")...)
	buf = append(buf, make([]byte, 4)...) // size, unused by the decoder
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(fmtChunk)))
	buf = append(buf, fmtChunk...)
	buf = append(buf, []byte("data")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(dataBytes)))
	buf = append(buf, dataBytes...)
	return buf
}

func TestPCMDecoderOpenValidWav(t *testing.T) {
	samples := []int16{0, 16384, -16384, 32767}
	wav := buildWav(t, 44100, 1, 16, samples)

	var d PCMDecoder
	if !d.Open(wav) {
		t.Fatal("expected valid WAV to open")
	}
	if d.Format().SampleRate != 44100 || d.Format().Channels != 1 {
		t.Errorf("format: got %+v", d.Format())
	}
	if d.TotalFrames() != int64(len(samples)) {
		t.Errorf("total frames: got %d, want %d", d.TotalFrames(), len(samples))
	}
}

func TestPCMDecoderDecode16Bit(t *testing.T) {
	samples := []int16{0, 16384, -32768, 32767}
	wav := buildWav(t, 44100, 1, 16, samples)

	var d PCMDecoder
	d.Open(wav)
	out := make([]float32, len(samples))
	produced := d.Decode(out, len(samples))
	if produced != len(samples) {
		t.Fatalf("produced: got %d, want %d", produced, len(samples))
	}
	if math.Abs(float64(out[0])) > 1e-6 {
		t.Errorf("out[0]: got %f, want ~0", out[0])
	}
	if math.Abs(float64(out[2])+1.0) > 1e-6 {
		t.Errorf("out[2]: got %f, want -1.0", out[2])
	}
}

func TestPCMDecoderFallsBackToRawPCM(t *testing.T) {
	raw := make([]byte, 16) // not a valid WAV header
	var d PCMDecoder
	if !d.Open(raw) {
		t.Fatal("expected raw PCM fallback to always succeed")
	}
	if d.Format().SampleRate != 44100 || d.Format().Channels != 2 || d.Format().BitsPerSample != 16 {
		t.Errorf("fallback format: got %+v", d.Format())
	}
}

func TestPCMDecoderEmptyDataFailsOpen(t *testing.T) {
	var d PCMDecoder
	if d.Open(nil) {
		t.Error("expected Open on empty data to fail")
	}
}

func TestPCMDecoderSeekClamps(t *testing.T) {
	samples := []int16{1, 2, 3, 4}
	wav := buildWav(t, 44100, 1, 16, samples)
	var d PCMDecoder
	d.Open(wav)

	if !d.Seek(-5) {
		t.Fatal("expected seek to succeed")
	}
	if d.Decode(make([]float32, 1), 1) == 0 {
		t.Error("expected decode after negative seek (clamped to 0) to produce a frame")
	}

	d.Seek(1000) // beyond total frames
	if produced := d.Decode(make([]float32, 1), 1); produced != 0 {
		t.Errorf("decode after seek past end: got %d frames, want 0", produced)
	}
}

func TestPCMDecoderSeekZeroRoundTrip(t *testing.T) {
	samples := []int16{100, -200, 300, -400, 500, -600}
	wav := buildWav(t, 44100, 1, 16, samples)
	var d PCMDecoder
	d.Open(wav)

	buf1 := make([]float32, len(samples))
	d.Seek(0)
	d.Decode(buf1, len(samples))

	buf2 := make([]float32, len(samples))
	d.Seek(0)
	d.Decode(buf2, len(samples))

	for i := range buf1 {
		if buf1[i] != buf2[i] {
			t.Errorf("sample %d: got %f and %f, want equal", i, buf1[i], buf2[i])
		}
	}
}

func TestPCMDecoderEOSReturnsZero(t *testing.T) {
	samples := []int16{1, 2}
	wav := buildWav(t, 44100, 1, 16, samples)
	var d PCMDecoder
	d.Open(wav)

	d.Decode(make([]float32, 2), 2)
	if produced := d.Decode(make([]float32, 2), 2); produced != 0 {
		t.Errorf("decode at EOS: got %d, want 0", produced)
	}
}

func TestPCMDecoderUnsupportedBitDepthIsSilence(t *testing.T) {
	// 8-bit PCM isn't one of the supported depths; the decoder should
	// produce silence rather than fail.
	wav := buildWav(t, 44100, 1, 16, []int16{1, 2, 3})
	// Corrupt the declared bits-per-sample field to 8 post-hoc.
	binary.LittleEndian.PutUint16(wav[34:36], 8)

	var d PCMDecoder
	if !d.Open(wav) {
		t.Fatal("expected open to succeed even with unsupported bit depth")
	}
	out := make([]float32, 3)
	d.Decode(out, 3)
	for i, v := range out {
		if v != 0 {
			t.Errorf("out[%d]: got %f, want 0 (silence)", i, v)
		}
	}
}
