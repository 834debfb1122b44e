package playback

import (
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/HugoSmits86/nativewebp"
)

// ExportFrame is one captured playback frame: the rendered image and
// how long it should be shown.
type ExportFrame struct {
	Image    image.Image
	Duration time.Duration
}

// Exporter buffers rendered frames during a playback session. The
// buffer is reset at the start of every session and read back after
// playback completes.
type Exporter struct {
	mu     sync.Mutex
	frames []ExportFrame
}

// NewExporter creates an empty export buffer.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Reset discards all buffered frames.
func (e *Exporter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frames = e.frames[:0]
}

// Append records one rendered frame with its display duration.
func (e *Exporter) Append(img image.Image, d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frames = append(e.frames, ExportFrame{Image: img, Duration: d})
}

// Frames returns a copy of the buffered frames.
func (e *Exporter) Frames() []ExportFrame {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ExportFrame, len(e.frames))
	copy(out, e.frames)
	return out
}

// Len returns the number of buffered frames.
func (e *Exporter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.frames)
}

// EncodeWebP writes the buffer as an animated WebP, one animation
// frame per captured frame with its recorded duration.
func (e *Exporter) EncodeWebP(w io.Writer) error {
	frames := e.Frames()
	if len(frames) == 0 {
		return fmt.Errorf("export buffer is empty")
	}

	ani := nativewebp.Animation{
		Images:    make([]image.Image, len(frames)),
		Durations: make([]uint, len(frames)),
		Disposals: make([]uint, len(frames)),
		LoopCount: 1,
	}
	for i, f := range frames {
		ani.Images[i] = f.Image
		ms := f.Duration.Milliseconds()
		if ms < 1 {
			ms = 1
		}
		ani.Durations[i] = uint(ms)
	}

	if err := nativewebp.EncodeAll(w, &ani, nil); err != nil {
		return fmt.Errorf("encode webp animation: %w", err)
	}
	return nil
}
