// main.go
package main

import (
	"encoding/binary"
	"log"
	"math"
	"os"

	"github.com/spf13/pflag"

	"github.com/genesis-emu/mdaudio"
	"github.com/genesis-emu/mdaudio/cdreader"
)

// osCallbacks opens cue/bin files from the real filesystem.
type osCallbacks struct{}

func (osCallbacks) Open(path string) (cdreader.FileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return osStream{f}, nil
}

type osStream struct{ *os.File }

func (s osStream) Size() (int64, error) {
	info, err := s.File.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func main() {
	cuePath := pflag.StringP("cue", "c", "", "path to a .cue sheet describing the disc image")
	outPath := pflag.StringP("out", "o", "/tmp/mdaudiotool.pcm", "path to write interleaved S16LE stereo output to")
	track := pflag.IntP("track", "t", 2, "audio track number to play")
	frames := pflag.IntP("frames", "n", 60, "number of emulated frames to render")
	pal := pflag.Bool("pal", false, "render at PAL (50 Hz) timing instead of NTSC (60 Hz)")
	toneHz := pflag.Float64("tone", 440.0, "frequency in Hz of the synthetic FM/PSG/PCM test tone")
	turboNum := pflag.Uint32("turbo-num", 1, "output-length time-stretch numerator (2 halves output length)")
	turboDen := pflag.Uint32("turbo-den", 1, "output-length time-stretch denominator (2 doubles output length)")
	pflag.Parse()

	if *cuePath == "" {
		log.Fatal("mdaudiotool: --cue is required")
	}

	reader := cdreader.NewCDReader()
	if err := reader.Open(osCallbacks{}, *cuePath); err != nil {
		log.Fatalf("mdaudiotool: open disc: %v", err)
	}
	defer reader.Close()

	if cdreader.IsMegaCDGame(reader) {
		log.Println("mdaudiotool: disc identifies as a Mega-CD title")
	}

	if !reader.PlayAudio(*track, cdreader.PlaybackRepeat) {
		log.Fatalf("mdaudiotool: track %d is not a playable audio track", *track)
	}

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("mdaudiotool: create output: %v", err)
	}
	defer out.Close()

	constant := mdaudio.NewMixerConstant()
	mixer := mdaudio.NewMixer(constant, *pal)

	fmFrames := int(mdaudio.SourceFM.SamplesPerFrame(*pal))
	psgFrames := int(mdaudio.SourcePSG.SamplesPerFrame(*pal))
	pcmFrames := int(mdaudio.SourcePCM.SamplesPerFrame(*pal))
	cddaFrames := int(mdaudio.SourceCDDA.SamplesPerFrame(*pal))

	fmRate := mdaudio.SourceFM.NativeRate(*pal)
	psgRate := mdaudio.SourcePSG.NativeRate(*pal)
	pcmRate := mdaudio.SourcePCM.NativeRate(*pal)

	var fmPhase, psgPhase, pcmPhase float64
	cddaScratch := make([]int16, cddaFrames*2)

	writer := binary.LittleEndian
	buf := make([]byte, 0, 4096)

	for i := 0; i < *frames; i++ {
		mixer.Begin()

		fillTone(mixer.AllocateFMSamples(fmFrames), 1, *toneHz, float64(fmRate), &fmPhase)
		fillTone(mixer.AllocatePSGSamples(psgFrames), 1, *toneHz*2, float64(psgRate), &psgPhase)
		fillTone(mixer.AllocatePCMSamples(pcmFrames), 2, *toneHz/2, float64(pcmRate), &pcmPhase)

		n := reader.ReadAudio(cddaScratch, cddaFrames)
		for j := n * 2; j < len(cddaScratch); j++ {
			cddaScratch[j] = 0
		}
		copy(mixer.AllocateCDDASamples(cddaFrames), cddaScratch)

		mixer.End(*turboNum, *turboDen, func(samples []int16, frames int) {
			buf = buf[:0]
			for _, s := range samples {
				buf = writer.AppendUint16(buf, uint16(s))
			}
			if _, err := out.Write(buf); err != nil {
				log.Fatalf("mdaudiotool: write output: %v", err)
			}
		})
	}

	log.Printf("mdaudiotool: wrote %d emulated frames to %s", *frames, *outPath)
}

// fillTone writes a sine tone into a possibly mono or stereo int16 buffer,
// advancing phase across calls so consecutive emulated frames stay in sync.
func fillTone(buf []int16, channels int, freqHz, sampleRate float64, phase *float64) {
	step := 2 * math.Pi * freqHz / sampleRate
	n := len(buf) / channels
	for i := 0; i < n; i++ {
		v := int16(8000 * math.Sin(*phase))
		for c := 0; c < channels; c++ {
			buf[i*channels+c] = v
		}
		*phase += step
		if *phase > 2*math.Pi {
			*phase -= 2 * math.Pi
		}
	}
}
