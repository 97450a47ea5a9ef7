// resampler.go
package mdaudio

import "math"

// CoeffScaleBits is the fixed-point scale of Precomputed's table entries.
// A unity-gain coefficient of 1.0 is stored as 1<<CoeffScaleBits.
const CoeffScaleBits = 14

// tableStepsPerSample is the number of table entries per unit of input-sample
// distance; interpolation between adjacent entries fills in the rest, the
// same two-step (table lookup + linear interpolation) idiom sinc.go's
// calcOutputSingle uses against its coeffs slice.
const tableStepsPerSample = 256

// sincHalfWidth is the number of zero crossings of the windowed sinc kernel
// on each side of its center, before any source applies a stretch factor.
const sincHalfWidth = 8

// Precomputed holds one windowed-sinc coefficient table, built once and
// shared read-only by every MixerSource (spec.md's MixerConstant). The
// table covers normalized distance [0, sincHalfWidth] in steps of
// 1/tableStepsPerSample; SourceResampler.Configure stretches that normalized
// distance out per source to implement a wider anti-aliasing kernel for
// downsampling sources.
type Precomputed struct {
	coeffs []int32
}

// NewPrecomputed builds the shared coefficient table: a Hann-windowed sinc,
// sin(pi*x)/(pi*x) tapered by 0.5+0.5*cos(pi*x/sincHalfWidth). This runs once
// at startup, never on the per-sample hot path, so floating point here does
// not violate the no-float-on-the-hot-path rule the resampling loop itself
// observes.
func NewPrecomputed() *Precomputed {
	n := sincHalfWidth*tableStepsPerSample + 1
	coeffs := make([]int32, n)

	for i := range coeffs {
		x := float64(i) / float64(tableStepsPerSample)

		var sinc float64
		if x == 0 {
			sinc = 1.0
		} else {
			px := math.Pi * x
			sinc = math.Sin(px) / px
		}

		window := 0.5 + 0.5*math.Cos(math.Pi*x/float64(sincHalfWidth))
		coeffs[i] = int32(math.Round(sinc * window * float64(int64(1)<<CoeffScaleBits)))
	}

	return &Precomputed{coeffs: coeffs}
}

// interpolate looks up the table at a fixed-point normalized distance
// (Q16.16 sample units, always >= 0) and linearly interpolates between the
// two surrounding entries, returning 0 once the distance reaches or exceeds
// sincHalfWidth (outside the kernel's support).
func (p *Precomputed) interpolate(distanceQ16 int64) int32 {
	tablePos := distanceQ16 * tableStepsPerSample // still Q16.16, now in table-entry units
	idx := int(tablePos >> 16)
	if idx >= len(p.coeffs)-1 {
		return 0
	}
	frac := tablePos & 0xFFFF

	a := int64(p.coeffs[idx])
	b := int64(p.coeffs[idx+1])
	return int32(a + ((b-a)*frac)>>16)
}

// SourceResampler holds one source's anti-aliasing kernel configuration: how
// wide a window of surrounding input frames resampleOne must read, and at
// what stretch relative to the shared Precomputed table.
type SourceResampler struct {
	precomputed  *Precomputed
	stretch      int64
	kernelRadius int
}

// Configure sets up r to read from inputRate and low-pass at cutoffRate.
// stretch widens the kernel (and so the anti-aliasing cutoff) whenever
// inputRate exceeds cutoffRate; every source in this module upsamples to
// OutputSampleRate, so stretch is always 1 in practice, but the mechanism
// is general (DESIGN.md's resampler.go ledger entry).
func (r *SourceResampler) Configure(precomputed *Precomputed, inputRate, cutoffRate uint32) {
	stretch := int64(1)
	if cutoffRate > 0 && inputRate > cutoffRate {
		stretch = int64(inputRate / cutoffRate)
		if stretch < 1 {
			stretch = 1
		}
	}

	r.precomputed = precomputed
	r.stretch = stretch
	r.kernelRadius = sincHalfWidth * int(stretch)
}

// KernelRadius returns the number of input frames of lookback (and
// lookahead) resampleOne needs around the current position — this is the
// padding MixerSource.newFrame must preserve at the head of its buffer.
func (r *SourceResampler) KernelRadius() int {
	return r.kernelRadius
}

// resampleOne writes one interleaved output frame into out (len(out) must
// equal channels) by accumulating a windowed-sinc-weighted sum of the
// 2*kernelRadius input frames surrounding the fixed-point position
// (posInt, posFrac) in buffer. buffer must have at least kernelRadius
// frames of valid lookback before posInt and kernelRadius frames of valid
// lookahead after it — MixerSource's padding guarantees this. Each tap's
// sample*coefficient product is computed in int64 before truncating back to
// int32, comfortably covering a 16-bit sample times a Q14 coefficient summed
// over the full kernel width; no clamping happens here.
func (r *SourceResampler) resampleOne(out []int32, buffer []int16, channels int, posInt int, posFrac uint32) {
	for c := 0; c < channels; c++ {
		out[c] = 0
	}

	fracQ16 := int64(posFrac)
	radius := r.kernelRadius

	for t := -radius + 1; t <= radius; t++ {
		dataIndex := posInt + t
		if dataIndex < 0 || dataIndex*channels+channels-1 >= len(buffer) {
			continue
		}

		distanceQ16 := int64(t)<<16 - fracQ16
		if distanceQ16 < 0 {
			distanceQ16 = -distanceQ16
		}
		distanceQ16 /= r.stretch

		weight := r.precomputed.interpolate(distanceQ16)
		if weight == 0 {
			continue
		}

		base := dataIndex * channels
		for c := 0; c < channels; c++ {
			out[c] += int32((int64(weight) * int64(buffer[base+c])) >> CoeffScaleBits)
		}
	}
}
