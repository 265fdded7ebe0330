package decoder

import (
	"encoding/binary"

	"gopkg.in/hraban/opus.v2"
)

// opusMagic tags the small custom packet-container format this decoder
// reads: a 12-byte header ("OPUS" + little-endian uint32 sample rate +
// uint32 channel count) followed by a sequence of (uint32 length, packet
// bytes) entries. There's no off-the-shelf Opus file container in scope
// here (Ogg demuxing is a separate concern this engine doesn't need), so
// this is the minimal container for raw Opus packets. decoder.Open never
// selects this variant: PCMDecoder is tried first and its raw-PCM fallback
// accepts any non-empty buffer, an Opus container included, so LoadAudio
// plays such data as raw PCM. An OpusDecoder is obtained only by
// constructing one and calling its Open directly.
const opusMagic = "OPUS"

// maxOpusFrameSamples is the largest number of samples per channel a single
// Opus frame can decode to (120ms at 48kHz).
const maxOpusFrameSamples = 5760

// OpusDecoder decodes the packet-container format above using
// gopkg.in/hraban/opus.v2.
type OpusDecoder struct {
	format  Format
	dec     *opus.Decoder
	packets [][]byte

	// frameOffsets[i] is the cumulative decoded frame count before packet
	// i; frameOffsets[len(packets)] is the total.
	frameOffsets []int64

	curFrame int64

	// scratch holds one decoded Opus frame. Allocated once in Open and
	// reused by every Decode call so a voice mixed on the audio thread
	// never allocates there.
	scratch []float32
}

// Open implements Decoder.
func (d *OpusDecoder) Open(data []byte) bool {
	if len(data) < 12 || string(data[0:4]) != opusMagic {
		return false
	}
	sampleRate := int32(binary.LittleEndian.Uint32(data[4:8]))
	channels := int32(binary.LittleEndian.Uint32(data[8:12]))
	if sampleRate <= 0 || channels <= 0 {
		return false
	}

	dec, err := opus.NewDecoder(int(sampleRate), int(channels))
	if err != nil {
		return false
	}

	packets, ok := splitOpusPackets(data[12:])
	if !ok || len(packets) == 0 {
		return false
	}

	// Pre-scan with a throwaway decoder to build a frame index. A separate
	// instance keeps the prediction state this produces from leaking into
	// the decoder actually used for playback.
	scanDec, err := opus.NewDecoder(int(sampleRate), int(channels))
	if err != nil {
		return false
	}
	scratch := make([]float32, maxOpusFrameSamples*int(channels))
	offsets := make([]int64, len(packets)+1)
	for i, pkt := range packets {
		n, err := scanDec.DecodeFloat32(pkt, scratch)
		if err != nil {
			return false
		}
		offsets[i+1] = offsets[i] + int64(n)
	}

	d.format = Format{SampleRate: sampleRate, Channels: channels, BitsPerSample: 32, BlockAlign: channels * 4}
	d.dec = dec
	d.packets = packets
	d.frameOffsets = offsets
	d.curFrame = 0
	d.scratch = make([]float32, maxOpusFrameSamples*int(channels))
	return true
}

func splitOpusPackets(data []byte) ([][]byte, bool) {
	var packets [][]byte
	pos := 0
	for pos+4 <= len(data) {
		length := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if length < 0 || pos+length > len(data) {
			return nil, false
		}
		packets = append(packets, data[pos:pos+length])
		pos += length
	}
	return packets, true
}

// Decode implements Decoder. Seeking to the middle of a packet re-decodes
// that packet from its start and discards the leading frames it doesn't
// need — Opus decode is stateful across packets, so there's no cheaper way
// to recover an arbitrary mid-packet offset without a full resynchronize.
func (d *OpusDecoder) Decode(out []float32, frameCount int) int {
	total := d.totalFrames()
	if d.dec == nil || d.curFrame >= total {
		return 0
	}

	channels := int(d.format.Channels)
	scratch := d.scratch
	produced := 0

	for produced < frameCount && d.curFrame < total {
		idx := d.packetIndexForFrame(d.curFrame)
		if idx >= len(d.packets) {
			break
		}
		n, err := d.dec.DecodeFloat32(d.packets[idx], scratch)
		if err != nil {
			break
		}

		packetStart := d.frameOffsets[idx]
		offsetInPacket := int(d.curFrame - packetStart)
		available := n - offsetInPacket
		if available <= 0 {
			d.curFrame = d.frameOffsets[idx+1]
			continue
		}

		need := frameCount - produced
		take := available
		if take > need {
			take = need
		}
		copy(out[produced*channels:(produced+take)*channels], scratch[offsetInPacket*channels:(offsetInPacket+take)*channels])
		produced += take
		d.curFrame += int64(take)
	}

	return produced
}

func (d *OpusDecoder) packetIndexForFrame(frame int64) int {
	for i := 0; i < len(d.packets); i++ {
		if frame < d.frameOffsets[i+1] {
			return i
		}
	}
	return len(d.packets)
}

func (d *OpusDecoder) totalFrames() int64 {
	if len(d.frameOffsets) == 0 {
		return 0
	}
	return d.frameOffsets[len(d.frameOffsets)-1]
}

// Seek implements Decoder, clamping to [0, TotalFrames()].
func (d *OpusDecoder) Seek(frame int64) bool {
	if frame < 0 {
		frame = 0
	}
	total := d.totalFrames()
	if frame > total {
		frame = total
	}
	d.curFrame = frame
	return true
}

// Format implements Decoder.
func (d *OpusDecoder) Format() Format { return d.format }

// SupportsStreaming implements Decoder; this variant decodes entirely from
// an in-memory packet list.
func (d *OpusDecoder) SupportsStreaming() bool { return false }

// TotalFrames implements Decoder.
func (d *OpusDecoder) TotalFrames() int64 { return d.totalFrames() }
