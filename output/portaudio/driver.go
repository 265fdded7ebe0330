// Package output implements a reference platform output driver: a thin
// adapter that opens a PortAudio stream and calls an Engine's Process once
// per write cycle, on its own goroutine. It is not part of the mixer's
// realtime contract — it's the thing that satisfies that contract on a
// real machine.
package output

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"audiomix"

	"github.com/gordonklaus/portaudio"
)

// Device describes an available output device.
type Device struct {
	ID   int
	Name string
}

// ListDevices returns the available PortAudio output devices.
func ListDevices() []Device {
	devices, err := portaudio.Devices()
	if err != nil {
		log.Printf("[output] list devices: %v", err)
		return nil
	}
	var out []Device
	for i, d := range devices {
		if d.MaxOutputChannels > 0 {
			out = append(out, Device{ID: i, Name: d.Name})
		}
	}
	return out
}

// Driver drives engine's Process method from its own goroutine, writing
// each buffer to a blocking PortAudio stream.
type Driver struct {
	mu     sync.Mutex
	engine *audiomix.Engine

	stream   *portaudio.Stream
	buf      []float32
	channels int

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New returns a Driver that will call engine.Process once per buffer once
// started.
func New(engine *audiomix.Engine) *Driver {
	return &Driver{engine: engine}
}

// resolveDevice returns the device at idx if valid, otherwise calls
// fallback — the same device-selection fallback the teacher's audio
// engine used for input/output device resolution.
func resolveDevice(devices []*portaudio.DeviceInfo, idx int, fallback func() (*portaudio.DeviceInfo, error)) (*portaudio.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	return fallback()
}

// Start opens and starts a PortAudio output stream matching cfg, using
// deviceID if it names a valid output device or the system default
// otherwise, then begins calling engine.Process once per write cycle on a
// dedicated goroutine.
func (d *Driver) Start(cfg audiomix.OutputConfig, deviceID int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("output: list devices: %w", err)
	}
	outputDev, err := resolveDevice(devices, deviceID, portaudio.DefaultOutputDevice)
	if err != nil {
		return fmt.Errorf("output: resolve device: %w", err)
	}

	channels := int(cfg.Channels)
	buf := make([]float32, int(cfg.BufferSize)*channels)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   outputDev,
			Channels: channels,
			Latency:  outputDev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: int(cfg.BufferSize),
	}

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return fmt.Errorf("output: open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("output: start stream: %w", err)
	}

	d.stream = stream
	d.buf = buf
	d.channels = channels
	d.stopCh = make(chan struct{})
	d.running.Store(true)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.playbackLoop(int(cfg.BufferSize))
	}()

	log.Printf("[output] started playback=%s", outputDev.Name)
	return nil
}

// playbackLoop calls engine.Process then writes the result, once per
// cycle, until Stop is called or the stream reports an error.
func (d *Driver) playbackLoop(frames int) {
	for {
		select {
		case <-d.stopCh:
			return
		default:
		}

		d.engine.Process(d.buf, frames, d.channels)

		if err := d.stream.Write(); err != nil {
			if d.running.Load() {
				log.Printf("[output] write: %v", err)
			}
			return
		}
	}
}

// Stop halts playback.
//
// Sequence matters here: Stream.Stop is thread-safe and causes a blocking
// Write call to return, which lets playbackLoop exit. We wait for it via
// wg before calling Stream.Close, otherwise we'd free the native stream
// while the goroutine may still be touching it.
func (d *Driver) Stop() {
	if !d.running.CompareAndSwap(true, false) {
		return
	}
	close(d.stopCh)

	d.mu.Lock()
	if d.stream != nil {
		d.stream.Stop()
	}
	d.mu.Unlock()

	d.wg.Wait()

	d.mu.Lock()
	if d.stream != nil {
		d.stream.Close()
		d.stream = nil
	}
	d.mu.Unlock()

	log.Println("[output] stopped")
}
