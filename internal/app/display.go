package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/motion_parallax/internal/config"
	"github.com/relabs-tech/motion_parallax/internal/orientation"
	"github.com/relabs-tech/motion_parallax/internal/parallax"
)

const (
	screenW = 128
	screenH = 64

	// the card is drawn inside a square viewport on the left of the screen
	viewport  = 56
	cardW     = 28
	cardH     = 20
	maxShiftP = 12 // pixels at the edge of the offset range
)

// screen is the part of *ssd1306.Dev the display loop draws on.
type screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// displayState holds the latest offset received from MQTT and animates
// towards it between frames.
type displayState struct {
	anim *parallax.Animator

	mu          sync.RWMutex
	orientation orientation.Orientation
	haveData    bool
}

func newDisplayState() *displayState {
	return &displayState{anim: parallax.NewAnimator(parallax.DefaultSampleInterval)}
}

func (d *displayState) handle(payload []byte, now time.Time) error {
	var m OffsetMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return err
	}
	if m.IntervalMS > 0 {
		d.anim.SetDuration(time.Duration(m.IntervalMS * float64(time.Millisecond)))
	}
	d.anim.Push(m.Offset, now)

	d.mu.Lock()
	d.orientation = m.Orientation
	d.haveData = true
	d.mu.Unlock()
	return nil
}

func (d *displayState) snapshot(now time.Time) (parallax.Offset, orientation.Orientation, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.anim.At(now), d.orientation, d.haveData
}

// RunDisplay draws the parallax card on an SSD1306 OLED, moved by the offsets
// the producer publishes, until ctx is done.
func RunDisplay(ctx context.Context) error {
	cfg := config.Get()
	log := zap.L().Named("display").Sugar()

	pc, err := PipelineConfig(cfg)
	if err != nil {
		return err
	}
	scale := pixelScale(pc.Range)

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, cfg.DisplayI2CAddr, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Infof("display initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := dev.Draw(dev.Bounds(), splashFrame(), image.Point{}); err != nil {
		log.Warnf("error showing splash: %v", err)
	}

	state := newDisplayState()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicOffset, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := state.handle(msg.Payload(), time.Now()); err != nil {
			log.Warnf("offset unmarshal error: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()
	log.Info("starting update loop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := drawState(dev, state, scale, now); err != nil {
				log.Warnf("error updating display: %v", err)
			}
		}
	}
}

func drawState(s screen, state *displayState, scale float64, now time.Time) error {
	off, o, ok := state.snapshot(now)
	return s.Draw(s.Bounds(), renderFrame(off, o, ok, scale), image.Point{})
}

// pixelScale maps the larger bound of r to maxShiftP pixels.
func pixelScale(r parallax.Range) float64 {
	m := math.Max(math.Abs(r.Min), math.Abs(r.Max))
	if m == 0 {
		return 0
	}
	return maxShiftP / m
}

// cardRect is where the card lands for off. Screen y grows downwards, so a
// positive Y offset moves the card up.
func cardRect(off parallax.Offset, scale float64) image.Rectangle {
	cx := viewport/2 + int(math.Round(off.X*scale))
	cy := viewport/2 - int(math.Round(off.Y*scale))
	r := image.Rect(cx-cardW/2, cy-cardH/2, cx+cardW/2, cy+cardH/2)
	return r.Intersect(image.Rect(0, 0, viewport, viewport))
}

func newFrame() *image1bit.VerticalLSB {
	return image1bit.NewVerticalLSB(image.Rect(0, 0, screenW, screenH))
}

func textDrawer(img *image1bit.VerticalLSB) *font.Drawer {
	return &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
}

func outline(img *image1bit.VerticalLSB, r image.Rectangle) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetBit(x, r.Min.Y, image1bit.On)
		img.SetBit(x, r.Max.Y-1, image1bit.On)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetBit(r.Min.X, y, image1bit.On)
		img.SetBit(r.Max.X-1, y, image1bit.On)
	}
}

func fill(img *image1bit.VerticalLSB, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetBit(x, y, image1bit.On)
		}
	}
}

// renderFrame draws the viewport with the displaced card on the left and a
// readout of the offset on the right.
func renderFrame(off parallax.Offset, o orientation.Orientation, haveData bool, scale float64) *image1bit.VerticalLSB {
	img := newFrame()
	outline(img, image.Rect(0, 0, viewport, viewport))

	drawer := textDrawer(img)
	if !haveData {
		drawer.Dot = fixed.P(viewport+6, 26)
		drawer.DrawString("Waiting")
		drawer.Dot = fixed.P(viewport+6, 39)
		drawer.DrawString("...")
		return img
	}

	fill(img, cardRect(off, scale))

	drawer.Dot = fixed.P(viewport+4, 13)
	drawer.DrawString(fmt.Sprintf("X%6.1f", off.X))
	drawer.Dot = fixed.P(viewport+4, 26)
	drawer.DrawString(fmt.Sprintf("Y%6.1f", off.Y))
	drawer.Dot = fixed.P(viewport+4, 39)
	drawer.DrawString(fmt.Sprintf("Z%6.1f", off.Z))
	drawer.Dot = fixed.P(viewport+4, 56)
	drawer.DrawString(shortOrientation(o))
	return img
}

func shortOrientation(o orientation.Orientation) string {
	switch o {
	case orientation.Portrait:
		return "PORT"
	case orientation.PortraitUpsideDown:
		return "PORT-UD"
	case orientation.LandscapeLeft:
		return "LAND-L"
	case orientation.LandscapeRight:
		return "LAND-R"
	case orientation.FaceUp:
		return "FACE-UP"
	case orientation.FaceDown:
		return "FACE-DN"
	default:
		return "?"
	}
}

func splashFrame() *image1bit.VerticalLSB {
	img := newFrame()
	drawer := textDrawer(img)

	drawer.Dot = fixed.P(22, 26)
	drawer.DrawString("Parallax Pi")
	drawer.Dot = fixed.P(8, 43)
	drawer.DrawString("Waiting for")
	drawer.Dot = fixed.P(8, 56)
	drawer.DrawString("motion")
	return img
}
