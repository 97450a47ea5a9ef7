// mixer.go
package mdaudio

// MixerConstant holds the windowed-sinc coefficient table shared read-only
// across every Mixer instance, built once at startup.
type MixerConstant struct {
	Precomputed *Precomputed
}

// NewMixerConstant builds the shared lookup table.
func NewMixerConstant() *MixerConstant {
	return &MixerConstant{Precomputed: NewPrecomputed()}
}

// Mixer coordinates the four sound sources for one emulator core instance.
// A Mixer is single-owner; the disc stream driving its CDDA source is not
// shared with any other Mixer.
type Mixer struct {
	constant *MixerConstant
	palMode  bool

	fm, psg, pcm, cdda *MixerSource

	// Pre-allocated scratch so End's inner loop never allocates.
	fmFrame, psgFrame, pcmFrame, cddaFrame []int32
	staging                                []int16
}

// NewMixer builds a Mixer for the given pal_mode, sharing constant's
// coefficient table. Unlike the C original this never partially fails:
// Go's allocator panics rather than returning nil, so there is no partial
// state to roll back.
func NewMixer(constant *MixerConstant, palMode bool) *Mixer {
	m := &Mixer{constant: constant, palMode: palMode}
	m.buildSources()
	m.fmFrame = make([]int32, SourceFM.Channels())
	m.psgFrame = make([]int32, SourcePSG.Channels())
	m.pcmFrame = make([]int32, SourcePCM.Channels())
	m.cddaFrame = make([]int32, SourceCDDA.Channels())
	m.staging = make([]int16, MaxFramesPerEmuFrame*2)
	return m
}

func (m *Mixer) buildSources() {
	m.fm = newMixerSource(SourceFM, m.constant.Precomputed, SourceFM.NativeRate(m.palMode))
	m.psg = newMixerSource(SourcePSG, m.constant.Precomputed, SourcePSG.NativeRate(m.palMode))
	m.pcm = newMixerSource(SourcePCM, m.constant.Precomputed, SourcePCM.NativeRate(m.palMode))
	m.cdda = newMixerSource(SourceCDDA, m.constant.Precomputed, SourceCDDA.NativeRate(m.palMode))
}

// Reconfigure tears the four sources down and rebuilds them for a new
// pal_mode, matching the C++ wrapper's Mixer::SetPALMode (Deinitialise then
// Initialise in place). A no-op if palMode is unchanged.
func (m *Mixer) Reconfigure(palMode bool) {
	if palMode == m.palMode {
		return
	}
	m.palMode = palMode
	m.buildSources()
}

// Begin starts a new emulated frame: every source's buffer rolls its tail
// forward as lookback padding and blanks its writable region.
func (m *Mixer) Begin() {
	m.fm.newFrame()
	m.psg.newFrame()
	m.pcm.newFrame()
	m.cdda.newFrame()
}

// AllocateFMSamples returns a writable slice of n FM frames for this
// emulated frame.
func (m *Mixer) AllocateFMSamples(n int) []int16 { return m.fm.allocate(n) }

// AllocatePSGSamples returns a writable slice of n PSG frames for this
// emulated frame.
func (m *Mixer) AllocatePSGSamples(n int) []int16 { return m.psg.allocate(n) }

// AllocatePCMSamples returns a writable slice of n PCM frames for this
// emulated frame.
func (m *Mixer) AllocatePCMSamples(n int) []int16 { return m.pcm.allocate(n) }

// AllocateCDDASamples returns a writable slice of n CDDA frames for this
// emulated frame, typically filled from CDReader.ReadAudio.
func (m *Mixer) AllocateCDDASamples(n int) []int16 { return m.cdda.allocate(n) }

func clampS16(x int32) int16 {
	switch {
	case x > 0x7FFF:
		return 0x7FFF
	case x < -0x7FFF:
		return -0x7FFF
	default:
		return int16(x)
	}
}

// End resamples every source to a common length, mixes them into a stereo
// signal, and delivers it to callback in chunks of at most
// MaxFramesPerEmuFrame frames. num/den scale the output length for
// fast-forward (den<num) or slow-motion (den>num) without touching any
// source's native rate. If no CDDA frames were allocated this frame (no
// track playing), End produces no output at all — there is nothing to
// anchor the output length to.
func (m *Mixer) End(num, den uint32, callback func(samples []int16, frames int)) {
	availableCDDA := uint32(m.cdda.totalAllocated())
	if availableCDDA == 0 {
		return
	}

	adjustedOutputLength := MulDiv(availableCDDA, den, num)
	if adjustedOutputLength == 0 {
		adjustedOutputLength = 1
	}

	availableFM := uint32(m.fm.totalAllocated())
	availablePSG := uint32(m.psg.totalAllocated())
	availablePCM := uint32(m.pcm.totalAllocated())

	fmRatio := DivRatio(availableFM, adjustedOutputLength)
	psgRatio := DivRatio(availablePSG, adjustedOutputLength)
	pcmRatio := DivRatio(availablePCM, adjustedOutputLength)
	cddaRatio := DivRatio(availableCDDA, adjustedOutputLength)

	var fmPos, psgPos, pcmPos, cddaPos Q16_16
	stagingIndex := 0

	flush := func() {
		if stagingIndex == 0 {
			return
		}
		callback(m.staging[:stagingIndex*2], stagingIndex)
		stagingIndex = 0
	}

	for i := uint32(0); i < adjustedOutputLength; i++ {
		m.fm.getFrame(m.fmFrame, fmPos)
		m.psg.getFrame(m.psgFrame, psgPos)
		m.pcm.getFrame(m.pcmFrame, pcmPos)
		m.cdda.getFrame(m.cddaFrame, cddaPos)

		fmPos += fmRatio
		psgPos += psgRatio
		pcmPos += pcmRatio
		cddaPos += cddaRatio

		left := m.fmFrame[0]/FMVolumeDivisor + m.psgFrame[0]/PSGVolumeDivisor + m.pcmFrame[0]/PCMVolumeDivisor + m.cddaFrame[0]/CDDAVolumeDivisor
		right := m.fmFrame[1]/FMVolumeDivisor + m.psgFrame[0]/PSGVolumeDivisor + m.pcmFrame[1]/PCMVolumeDivisor + m.cddaFrame[1]/CDDAVolumeDivisor

		m.staging[stagingIndex*2] = clampS16(left)
		m.staging[stagingIndex*2+1] = clampS16(right)
		stagingIndex++

		if stagingIndex == MaxFramesPerEmuFrame {
			flush()
		}
	}

	flush()
}
