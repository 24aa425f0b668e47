package movie

import "github.com/smazurov/ddsmovie/pkg/dds"

// Status is a point-in-time view of a session.
type Status struct {
	ID           string
	Directory    string
	Extension    string
	State        string
	Frames       int
	CurrentFrame int
	CurrentTime  float64
	Duration     float64
	FrameRate    float64
	PlayRate     float64
	AverageFPS   float64
	Loop         bool
	Dropped      uint64
	Decoded      uint64
	DecodeErrors uint64
	ReadErrors   uint64
	LastError    string
	Image        *ImageInfo
}

// ImageInfo describes the current decoded frame.
type ImageInfo struct {
	Frame    int
	Path     string
	Width    uint32
	Height   uint32
	Format   dds.Format
	MipCount int
	Cubemap  bool
	Surfaces []dds.Surface
}

// Status returns the current session state.
func (m *Movie) Status() Status {
	s := Status{
		ID:           m.id,
		Directory:    m.index.Dir(),
		Extension:    m.index.Ext(),
		State:        string(m.engine.State()),
		Frames:       m.NumFrames(),
		CurrentFrame: m.CurrentFrame(),
		CurrentTime:  m.CurrentTime(),
		Duration:     m.Duration(),
		FrameRate:    m.frameRate,
		PlayRate:     m.PlayRate(),
		AverageFPS:   m.AverageFPS(),
		Loop:         m.Loop(),
		Dropped:      m.engine.Dropped(),
		Decoded:      m.decoded.Load(),
		DecodeErrors: m.decodeErrors.Load(),
		ReadErrors:   m.readErrors.Load(),
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	s.LastError = m.lastError
	if m.image != nil {
		s.Image = &ImageInfo{
			Frame:    m.imageFrame,
			Path:     m.imagePath,
			Width:    m.image.Width,
			Height:   m.image.Height,
			Format:   m.image.Format,
			MipCount: m.image.MipCount,
			Cubemap:  m.image.Cubemap,
			Surfaces: m.image.Surfaces,
		}
	}
	return s
}
