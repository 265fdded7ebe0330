// Command audiomixdemo loads a WAV file and plays it through the default
// output device, reporting peak level and engine events on an interval —
// a minimal end-to-end wiring of Engine and output/portaudio.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"audiomix"
	portaudio "audiomix/output/portaudio"
)

func main() {
	deviceID := flag.Int("device", -1, "output device index (-1 for system default)")
	volume := flag.Float64("volume", 1.0, "master volume, 0.0-1.0")
	loop := flag.Bool("loop", false, "loop playback")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: audiomixdemo [flags] <file.wav>")
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("[demo] read %s: %v", flag.Arg(0), err)
	}

	engine := audiomix.Default()
	result := engine.Initialize(audiomix.OutputConfig{
		SampleRate: 44100,
		Channels:   2,
		BufferSize: 256,
		BufferCount: 2,
	})
	if result != audiomix.OK {
		log.Fatalf("[demo] initialize: %v", result)
	}
	defer engine.Shutdown()

	engine.SetMasterVolume(float32(*volume))

	handle, result := engine.LoadAudio(data, audiomix.DecompressOnLoad)
	if result != audiomix.OK {
		log.Fatalf("[demo] load audio: %v", result)
	}

	clip, _ := engine.GetClipInfo(handle)
	log.Printf("[demo] loaded %s: %d Hz, %d ch, %.2fs", flag.Arg(0), clip.SampleRate, clip.Channels, clip.LengthInSeconds)

	engine.SetLoop(handle, *loop)

	driver := portaudio.New(engine)
	if err := driver.Start(audiomix.OutputConfig{SampleRate: 44100, Channels: 2, BufferSize: 256}, *deviceID); err != nil {
		log.Fatalf("[demo] start output: %v", err)
	}
	defer driver.Stop()

	if result := engine.Play(handle); result != audiomix.OK {
		log.Fatalf("[demo] play: %v", result)
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.Printf("[demo] peak=%.3f state=%v", engine.GetPeakLevel(), engine.GetState(handle))
		default:
		}

		if event, ok := engine.PollEvent(); ok {
			log.Printf("[demo] event kind=%v voice=%d", event.Kind, event.Voice)
			if event.Kind == audiomix.EventVoiceFinished && event.Voice == handle {
				return
			}
		}

		time.Sleep(10 * time.Millisecond)
	}
}
