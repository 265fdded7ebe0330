package decoder

// FLACDecoder always declines to open — see vorbis.go for the rationale.
type FLACDecoder struct{}

func (d *FLACDecoder) Open(data []byte) bool           { return false }
func (d *FLACDecoder) Decode(out []float32, n int) int { return 0 }
func (d *FLACDecoder) Seek(frame int64) bool           { return false }
func (d *FLACDecoder) Format() Format                  { return Format{} }
func (d *FLACDecoder) SupportsStreaming() bool         { return false }
func (d *FLACDecoder) TotalFrames() int64              { return 0 }
