package decoder

import (
	"encoding/binary"
	"math"
)

// PCMDecoder parses a WAV (RIFF/WAVE) container, or failing that, treats
// the whole buffer as raw 16-bit stereo 44.1kHz PCM. Ported from the
// original engine's PCMDecoder: chunk-walk fmt/data, 2-byte chunk
// alignment, int or IEEE-float sample format.
type PCMDecoder struct {
	data     []byte
	format   Format
	isFloat  bool
	pcmData  []byte
	curFrame int64
	total    int64
}

// Open implements Decoder.
func (d *PCMDecoder) Open(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	d.data = data
	d.curFrame = 0

	if d.parseWavHeader(data) {
		return true
	}

	d.format = Format{SampleRate: 44100, Channels: 2, BitsPerSample: 16}
	d.format.BlockAlign = d.format.Channels * (d.format.BitsPerSample / 8)
	d.isFloat = false
	d.pcmData = data
	if d.format.BlockAlign > 0 {
		d.total = int64(len(data)) / int64(d.format.BlockAlign)
	}
	return true
}

// parseWavHeader walks the RIFF chunk list looking for "fmt " and "data".
// Chunks are 2-byte aligned: an odd-sized chunk's payload is followed by a
// pad byte not counted in its declared size.
func (d *PCMDecoder) parseWavHeader(data []byte) bool {
	if len(data) < 44 {
		return false
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return false
	}

	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))

		switch chunkID {
		case "fmt ":
			if pos+8+chunkSize > len(data) {
				return false
			}
			fmtChunk := data[pos+8:]
			audioFormat := binary.LittleEndian.Uint16(fmtChunk[0:2])
			if audioFormat != 1 && audioFormat != 3 {
				return false
			}
			d.isFloat = audioFormat == 3
			d.format.Channels = int32(binary.LittleEndian.Uint16(fmtChunk[2:4]))
			d.format.SampleRate = int32(binary.LittleEndian.Uint32(fmtChunk[4:8]))
			d.format.BitsPerSample = int32(binary.LittleEndian.Uint16(fmtChunk[14:16]))
			d.format.BlockAlign = d.format.Channels * (d.format.BitsPerSample / 8)

		case "data":
			start := pos + 8
			end := start + chunkSize
			if end > len(data) {
				end = len(data)
			}
			d.pcmData = data[start:end]
			if d.format.BlockAlign > 0 {
				d.total = int64(len(d.pcmData)) / int64(d.format.BlockAlign)
			}
			return true
		}

		pos += 8 + chunkSize
		if chunkSize&1 != 0 {
			pos++ // pad byte on odd-sized chunk
		}
	}

	return false
}

// Decode implements Decoder.
func (d *PCMDecoder) Decode(out []float32, frameCount int) int {
	if d.pcmData == nil || d.curFrame >= d.total {
		return 0
	}

	framesAvailable := d.total - d.curFrame
	toDecode := int64(frameCount)
	if toDecode > framesAvailable {
		toDecode = framesAvailable
	}

	channels := int(d.format.Channels)
	totalSamples := int(toDecode) * channels
	byteOffset := d.curFrame * int64(d.format.BlockAlign)

	switch {
	case d.isFloat && d.format.BitsPerSample == 32:
		for i := 0; i < totalSamples; i++ {
			bits := binary.LittleEndian.Uint32(d.pcmData[int(byteOffset)+i*4:])
			out[i] = math.Float32frombits(bits)
		}

	case !d.isFloat && d.format.BitsPerSample == 16:
		const scale = 1.0 / 32768.0
		for i := 0; i < totalSamples; i++ {
			v := int16(binary.LittleEndian.Uint16(d.pcmData[int(byteOffset)+i*2:]))
			out[i] = float32(v) * scale
		}

	case !d.isFloat && d.format.BitsPerSample == 24:
		const scale = 1.0 / 8388608.0
		for i := 0; i < totalSamples; i++ {
			o := int(byteOffset) + i*3
			sample := int32(d.pcmData[o+2])<<24 | int32(d.pcmData[o+1])<<16 | int32(d.pcmData[o])<<8
			sample >>= 8 // sign extend
			out[i] = float32(sample) * scale
		}

	default:
		for i := 0; i < totalSamples; i++ {
			out[i] = 0
		}
	}

	d.curFrame += toDecode
	return int(toDecode)
}

// Seek implements Decoder, clamping to [0, TotalFrames()].
func (d *PCMDecoder) Seek(frame int64) bool {
	if frame < 0 {
		frame = 0
	}
	if frame > d.total {
		frame = d.total
	}
	d.curFrame = frame
	return true
}

// Format implements Decoder.
func (d *PCMDecoder) Format() Format { return d.format }

// SupportsStreaming implements Decoder; PCM decodes entirely from an
// in-memory buffer.
func (d *PCMDecoder) SupportsStreaming() bool { return false }

// TotalFrames implements Decoder.
func (d *PCMDecoder) TotalFrames() int64 { return d.total }
