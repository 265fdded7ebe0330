package decoder

// MP3Decoder always declines to open — see vorbis.go for the rationale.
type MP3Decoder struct{}

func (d *MP3Decoder) Open(data []byte) bool           { return false }
func (d *MP3Decoder) Decode(out []float32, n int) int { return 0 }
func (d *MP3Decoder) Seek(frame int64) bool           { return false }
func (d *MP3Decoder) Format() Format                  { return Format{} }
func (d *MP3Decoder) SupportsStreaming() bool         { return false }
func (d *MP3Decoder) TotalFrames() int64              { return 0 }
