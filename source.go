// source.go
package mdaudio

// MixerSource owns one sound source's padded ring-style S16 buffer: the
// head holds the previous frame's tail as lookback padding for the
// resampler, the rest is the region each frame's samples are written into.
//
// Buffer layout, in frames: [0, diameter) is padding, [diameter, diameter+
// capacity) is the writable region allocate() hands out. Logical resample
// position 0 (the first frame of the current emulated frame's data) maps to
// array frame index diameter, so the kernel always has diameter frames of
// margin behind it — twice what a radius-wide kernel strictly needs, kept
// as documented safety margin (DESIGN.md's "Padding depth" open-question
// resolution; the literal upstream clownresampler internals this
// is ported from were not part of the retrieved source).
type MixerSource struct {
	kind       SourceKind
	channels   int
	capacity   int
	resampler  SourceResampler
	buffer     []int16
	writeIndex int
}

// newMixerSource allocates a source sized for inputRate, anti-aliased
// against the shared output rate (so every source's stretch factor
// collapses to 1, since no source's native rate exceeds OutputSampleRate).
func newMixerSource(kind SourceKind, precomputed *Precomputed, inputRate uint32) *MixerSource {
	s := &MixerSource{kind: kind, channels: kind.Channels()}
	s.resampler.Configure(precomputed, inputRate, OutputSampleRate)

	// "+1" is a cheap ceiling division, matching Mixer_Source_Initialise's
	// capacity formula: size against the slower frame rate so a buffer sized
	// once at startup is never too small regardless of the current pal_mode.
	s.capacity = 1 + int(inputRate/DivideByLowestFramerate)

	diameter := s.resampler.KernelRadius() * 2
	s.buffer = make([]int16, (diameter+s.capacity)*s.channels)

	return s
}

func (s *MixerSource) diameter() int {
	return s.resampler.KernelRadius() * 2
}

// newFrame carries the tail of the just-finished frame forward as lookback
// padding, then blanks the writable region so the source starts the next
// frame silent unless written into again.
func (s *MixerSource) newFrame() {
	diameter := s.diameter()

	tailStart := s.writeIndex * s.channels
	tailLen := diameter * s.channels
	copy(s.buffer[:tailLen], s.buffer[tailStart:tailStart+tailLen])

	zeroStart := diameter * s.channels
	zeroLen := s.writeIndex * s.channels
	clear := s.buffer[zeroStart : zeroStart+zeroLen]
	for i := range clear {
		clear[i] = 0
	}

	s.writeIndex = 0
}

// allocate returns a writable slice of n frames starting at the current
// write position, and advances it. It is the caller's only write surface;
// writing past capacity is a programmer error.
func (s *MixerSource) allocate(n int) []int16 {
	start := (s.diameter() + s.writeIndex) * s.channels
	s.writeIndex += n
	if s.writeIndex > s.capacity {
		panic("mdaudio: MixerSource.allocate: write_index exceeds capacity")
	}
	return s.buffer[start : start+n*s.channels]
}

// totalAllocated returns how many frames have been allocated since the last
// newFrame.
func (s *MixerSource) totalAllocated() int {
	return s.writeIndex
}

// getFrame resamples one output frame at the given fixed-point position
// (expressed in source-native input frames since the start of the current
// emulated frame) into out.
func (s *MixerSource) getFrame(out []int32, position Q16_16) {
	posInt := s.diameter() + int(position.Int())
	s.resampler.resampleOne(out, s.buffer, s.channels, posInt, position.Frac())
}
