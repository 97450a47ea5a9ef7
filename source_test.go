package mdaudio

import "testing"

func TestMixerSourceAllocateAdvancesWriteIndex(t *testing.T) {
	p := NewPrecomputed()
	s := newMixerSource(SourcePSG, p, SourcePSG.NativeRate(false))

	if s.totalAllocated() != 0 {
		t.Fatalf("totalAllocated() = %d before any allocate, want 0", s.totalAllocated())
	}

	buf := s.allocate(4)
	if len(buf) != 4*s.channels {
		t.Fatalf("allocate(4) returned %d samples, want %d", len(buf), 4*s.channels)
	}
	if s.totalAllocated() != 4 {
		t.Fatalf("totalAllocated() = %d after allocate(4), want 4", s.totalAllocated())
	}

	for i := range buf {
		buf[i] = int16(100 + i)
	}
}

func TestMixerSourceAllocatePastCapacityPanics(t *testing.T) {
	p := NewPrecomputed()
	s := newMixerSource(SourcePSG, p, SourcePSG.NativeRate(false))

	defer func() {
		if recover() == nil {
			t.Fatal("allocate past capacity did not panic")
		}
	}()
	s.allocate(s.capacity + 1)
}

// TestMixerSourceNewFrameCarriesTailForward checks that after newFrame, the
// head padding holds the previous frame's last `diameter` frames, and the
// write position is reset to zero.
func TestMixerSourceNewFrameCarriesTailForward(t *testing.T) {
	p := NewPrecomputed()
	s := newMixerSource(SourceCDDA, p, SourceCDDA.NativeRate(false))

	n := s.capacity
	buf := s.allocate(n)
	for i := range buf {
		buf[i] = int16(i + 1)
	}

	diameter := s.diameter()
	wantTail := make([]int16, diameter*s.channels)
	copy(wantTail, buf[len(buf)-diameter*s.channels:])

	s.newFrame()

	gotTail := s.buffer[:diameter*s.channels]
	for i := range wantTail {
		if gotTail[i] != wantTail[i] {
			t.Fatalf("tail carry-over mismatch at %d: got %d want %d", i, gotTail[i], wantTail[i])
		}
	}

	if s.totalAllocated() != 0 {
		t.Fatalf("totalAllocated() after newFrame = %d, want 0", s.totalAllocated())
	}
}

// TestMixerSourceGetFrameNeverPanicsAcrossPositionRange exercises the
// padded-buffer-safety property (spec.md §8 property 2): for any sequence
// of begin/allocate/end-like usage within capacity, resampling across the
// full position range must never index outside the buffer.
func TestMixerSourceGetFrameNeverPanicsAcrossPositionRange(t *testing.T) {
	p := NewPrecomputed()
	s := newMixerSource(SourceFM, p, SourceFM.NativeRate(true))

	for frame := 0; frame < 3; frame++ {
		s.newFrame()
		n := s.capacity
		buf := s.allocate(n)
		for i := range buf {
			buf[i] = int16((i*31 + frame) % 2000)
		}

		out := make([]int32, s.channels)
		available := s.totalAllocated()
		if available == 0 {
			continue
		}
		ratio := DivRatio(uint32(available), uint32(available))
		var pos Q16_16
		for i := 0; i < available; i++ {
			s.getFrame(out, pos)
			pos = Q16_16(uint32(pos) + uint32(ratio))
		}
	}
}
