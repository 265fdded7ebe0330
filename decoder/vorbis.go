package decoder

// VorbisDecoder always declines to open. Ogg Vorbis support was stubbed in
// the original engine too; the stub's unconditional false return is the
// intended v1 behavior ("skip this format"), not unfinished work.
type VorbisDecoder struct{}

func (d *VorbisDecoder) Open(data []byte) bool         { return false }
func (d *VorbisDecoder) Decode(out []float32, n int) int { return 0 }
func (d *VorbisDecoder) Seek(frame int64) bool         { return false }
func (d *VorbisDecoder) Format() Format                { return Format{} }
func (d *VorbisDecoder) SupportsStreaming() bool       { return false }
func (d *VorbisDecoder) TotalFrames() int64            { return 0 }
