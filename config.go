// config.go
package mdaudio

// SourceKind identifies one of the four independent audio sources a Mixer
// combines. Each has a fixed channel count and a native sample rate that
// depends on pal_mode.
type SourceKind int

const (
	SourceFM SourceKind = iota
	SourcePSG
	SourcePCM
	SourceCDDA

	sourceKindCount = int(SourceCDDA) + 1
)

func (k SourceKind) String() string {
	switch k {
	case SourceFM:
		return "FM"
	case SourcePSG:
		return "PSG"
	case SourcePCM:
		return "PCM"
	case SourceCDDA:
		return "CDDA"
	default:
		return "SourceKind(?)"
	}
}

// Channels returns the fixed channel count for k (FM and PCM are stereo,
// PSG is mono, CDDA is stereo).
func (k SourceKind) Channels() int {
	switch k {
	case SourcePSG:
		return 1
	default:
		return 2
	}
}

// Frame rates. The real NTSC rate is 60000/1001 Hz; this module uses the
// simplified exact-integer approximation documented in SPEC_FULL.md, which
// keeps GetCorrectedSampleRate and SamplesPerFrame plain integer operations.
const (
	NTSCFrameRate = 60
	PALFrameRate  = 50

	// DivideByLowestFramerate sizes worst-case per-frame allocations against
	// the slower of the two frame rates, so a source buffer sized once at
	// startup is never too small regardless of the current pal_mode.
	DivideByLowestFramerate = PALFrameRate
)

// Approximate native rates, in Hz, before the divide-then-multiply
// correction described in GetCorrectedSampleRate. These stand in for the
// real Mega Drive/Mega-CD hardware rates (not part of the retrieved source),
// chosen so every source's corrected native rate stays at or below
// OutputSampleRate — the invariant the CDDA-anchored mixing strategy in
// mixer.go depends on.
const (
	fmNominalRateNTSC  = 26716
	fmNominalRatePAL   = 26483
	psgNominalRateNTSC = 15974
	psgNominalRatePAL  = 15828

	// PCM's native rate is fixed by its DMA clock divider rather than derived
	// from the frame rate, so it needs no correction.
	pcmNativeRate = 32000

	// OutputSampleRate is CDDA's native rate and the Mixer's anchor rate:
	// End derives its output length from the CDDA frame count (SPEC_FULL.md
	// §5). CDDA still passes through the resampler, at a 1:1 ratio when
	// num == den.
	OutputSampleRate = 44100
)

// GetCorrectedSampleRate rounds nominal down to the nearest multiple of
// frameRate, so that nominal/frameRate samples-per-frame is an exact integer
// with no fractional carry between frames. FM and PSG native rates are
// always produced this way; original_source/mixer.h calls the equivalent
// function Mixer_GetCorrectedSampleRate.
func GetCorrectedSampleRate(nominal, frameRate uint32) uint32 {
	return (nominal / frameRate) * frameRate
}

// NativeRate returns k's corrected native sample rate for the given
// pal_mode.
func (k SourceKind) NativeRate(palMode bool) uint32 {
	frameRate := uint32(NTSCFrameRate)
	if palMode {
		frameRate = PALFrameRate
	}

	switch k {
	case SourceFM:
		nominal := uint32(fmNominalRateNTSC)
		if palMode {
			nominal = fmNominalRatePAL
		}
		return GetCorrectedSampleRate(nominal, frameRate)
	case SourcePSG:
		nominal := uint32(psgNominalRateNTSC)
		if palMode {
			nominal = psgNominalRatePAL
		}
		return GetCorrectedSampleRate(nominal, frameRate)
	case SourcePCM:
		return pcmNativeRate
	case SourceCDDA:
		return OutputSampleRate
	default:
		panic("mdaudio: invalid SourceKind")
	}
}

// SamplesPerFrame returns k's per-emulated-frame sample count under
// pal_mode. It is exact for FM, PSG and CDDA, whose native rates are
// multiples of the frame rate; PCM's uncorrected rate is truncated (533
// samples per NTSC frame).
func (k SourceKind) SamplesPerFrame(palMode bool) uint32 {
	frameRate := uint32(NTSCFrameRate)
	if palMode {
		frameRate = PALFrameRate
	}
	return k.NativeRate(palMode) / frameRate
}

// Volume divisors applied per source before summing into the output frame
// (spec.md §4.4 step c). Chosen as powers of two so the division lowers to
// a shift; relative weights are an aesthetic mixing choice, not something
// any test depends on beyond S2/S3's exact per-source arithmetic.
const (
	FMVolumeDivisor   = 2
	PSGVolumeDivisor  = 4
	PCMVolumeDivisor  = 2
	CDDAVolumeDivisor = 1
)

// VolumeDivisor returns k's output mixing divisor.
func (k SourceKind) VolumeDivisor() int32 {
	switch k {
	case SourceFM:
		return FMVolumeDivisor
	case SourcePSG:
		return PSGVolumeDivisor
	case SourcePCM:
		return PCMVolumeDivisor
	case SourceCDDA:
		return CDDAVolumeDivisor
	default:
		panic("mdaudio: invalid SourceKind")
	}
}

// MaxFramesPerEmuFrame bounds the Mixer's internal output staging buffer;
// End flushes to the callback in chunks of at most this many stereo frames
// rather than growing the buffer to fit an arbitrarily large adjusted
// output length (spec.md §4.4 step c, "whenever the output buffer reaches
// capacity").
const MaxFramesPerEmuFrame = 1024

// cutoffRate returns k's own native rate as an anti-aliasing low-pass cutoff
// (spec.md §4.2). newMixerSource does not use it: it configures every source
// against OutputSampleRate. Every source here upsamples to OutputSampleRate
// (never downsamples), so SourceResampler.Configure's stretch factor is 1
// with either cutoff.
func (k SourceKind) cutoffRate(palMode bool) uint32 {
	return k.NativeRate(palMode)
}
