package app

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/motion_parallax/internal/orientation"
	"github.com/relabs-tech/motion_parallax/internal/parallax"
)

type fakeScreen struct {
	frames []image.Image
}

func (f *fakeScreen) Bounds() image.Rectangle { return image.Rect(0, 0, screenW, screenH) }

func (f *fakeScreen) Draw(_ image.Rectangle, src image.Image, _ image.Point) error {
	f.frames = append(f.frames, src)
	return nil
}

func TestPixelScale(t *testing.T) {
	assert.Equal(t, 12.0/50, pixelScale(parallax.Symmetric(50)))
	assert.Equal(t, 3.0, pixelScale(parallax.Range{Min: -4, Max: 2}))
	assert.Zero(t, pixelScale(parallax.Range{}))
}

func TestCardRect(t *testing.T) {
	scale := pixelScale(parallax.Symmetric(5))
	centre := cardRect(parallax.Offset{}, scale)
	assert.Equal(t, image.Rect(14, 18, 42, 38), centre)

	moved := cardRect(parallax.Offset{X: 5, Y: 5}, scale)
	assert.Equal(t, centre.Min.X+maxShiftP, moved.Min.X)
	// positive Y moves the card up the screen
	assert.Equal(t, centre.Min.Y-maxShiftP, moved.Min.Y)

	// never leaves the viewport
	far := cardRect(parallax.Offset{X: 1000, Y: -1000}, scale)
	assert.True(t, far.In(image.Rect(0, 0, viewport, viewport)))
}

func TestRenderFrame(t *testing.T) {
	scale := pixelScale(parallax.Symmetric(5))

	img := renderFrame(parallax.Offset{}, orientation.Portrait, false, scale)
	assert.Equal(t, image1bit.Off, img.BitAt(viewport/2, viewport/2), "no card before data")
	assert.Equal(t, image1bit.On, img.BitAt(0, 0), "viewport frame")

	img = renderFrame(parallax.Offset{}, orientation.Portrait, true, scale)
	assert.Equal(t, image1bit.On, img.BitAt(viewport/2, viewport/2))

	img = renderFrame(parallax.Offset{X: -5}, orientation.Portrait, true, scale)
	assert.Equal(t, image1bit.Off, img.BitAt(viewport/2+cardW/2-1, viewport/2))
	assert.Equal(t, image1bit.On, img.BitAt(viewport/2-maxShiftP, viewport/2))
}

func TestDisplayStateAnimates(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state := newDisplayState()

	_, _, ok := state.snapshot(base)
	assert.False(t, ok)

	require.NoError(t, state.handle([]byte(`{"x":4,"y":-2,"orientation":"landscapeLeft","interval_ms":100}`), base))
	off, o, ok := state.snapshot(base.Add(50 * time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, orientation.LandscapeLeft, o)
	assert.InDelta(t, 2.0, off.X, 1e-9)
	assert.InDelta(t, -1.0, off.Y, 1e-9)

	off, _, _ = state.snapshot(base.Add(time.Second))
	assert.Equal(t, parallax.Offset{X: 4, Y: -2}, off)

	assert.Error(t, state.handle([]byte("nope"), base))
}

func TestDrawState(t *testing.T) {
	screen := &fakeScreen{}
	state := newDisplayState()
	require.NoError(t, drawState(screen, state, 1, time.Now()))
	require.Len(t, screen.frames, 1)
	assert.Equal(t, image.Rect(0, 0, screenW, screenH), screen.frames[0].Bounds())
}

func TestShortOrientationFitsScreen(t *testing.T) {
	for o := orientation.Unknown; o <= orientation.FaceDown; o++ {
		// the readout column is 72px wide at 7px per glyph
		assert.LessOrEqual(t, len(shortOrientation(o)), 10, o.String())
	}
}
