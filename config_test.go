package mdaudio

import "testing"

func TestGetCorrectedSampleRateIsMultipleOfFrameRate(t *testing.T) {
	cases := []struct {
		nominal, frameRate uint32
	}{
		{fmNominalRateNTSC, NTSCFrameRate},
		{fmNominalRatePAL, PALFrameRate},
		{psgNominalRateNTSC, NTSCFrameRate},
		{psgNominalRatePAL, PALFrameRate},
	}
	for _, tc := range cases {
		got := GetCorrectedSampleRate(tc.nominal, tc.frameRate)
		if got%tc.frameRate != 0 {
			t.Fatalf("GetCorrectedSampleRate(%d,%d) = %d, not a multiple of frameRate", tc.nominal, tc.frameRate, got)
		}
		if got > tc.nominal {
			t.Fatalf("GetCorrectedSampleRate(%d,%d) = %d, must not exceed nominal", tc.nominal, tc.frameRate, got)
		}
	}
}

func TestSourceKindChannels(t *testing.T) {
	want := map[SourceKind]int{SourceFM: 2, SourcePSG: 1, SourcePCM: 2, SourceCDDA: 2}
	for k, ch := range want {
		if got := k.Channels(); got != ch {
			t.Errorf("%s.Channels() = %d, want %d", k, got, ch)
		}
	}
}

func TestNativeRateAtOrBelowOutputRate(t *testing.T) {
	// The CDDA-anchored mixing strategy depends on every other source never
	// needing to be downsampled.
	for _, pal := range []bool{false, true} {
		for _, k := range []SourceKind{SourceFM, SourcePSG, SourcePCM, SourceCDDA} {
			if rate := k.NativeRate(pal); rate > OutputSampleRate {
				t.Errorf("%s.NativeRate(pal=%v) = %d exceeds OutputSampleRate %d", k, pal, rate, OutputSampleRate)
			}
		}
	}
}

func TestSamplesPerFrameExact(t *testing.T) {
	for _, pal := range []bool{false, true} {
		frameRate := uint32(NTSCFrameRate)
		if pal {
			frameRate = PALFrameRate
		}
		for _, k := range []SourceKind{SourceFM, SourcePSG, SourceCDDA} {
			spf := k.SamplesPerFrame(pal)
			if spf*frameRate != k.NativeRate(pal) {
				t.Errorf("%s.SamplesPerFrame(pal=%v)=%d does not reconstruct NativeRate exactly", k, pal, spf)
			}
		}
		// PCM's native rate is not corrected, so its count is the truncated
		// quotient.
		spf := SourcePCM.SamplesPerFrame(pal)
		if rate := SourcePCM.NativeRate(pal); spf*frameRate > rate || (spf+1)*frameRate <= rate {
			t.Errorf("PCM.SamplesPerFrame(pal=%v)=%d is not the truncated quotient of %d/%d", pal, spf, rate, frameRate)
		}
	}
}

func TestCDDAIsAlwaysOutputRate(t *testing.T) {
	if SourceCDDA.NativeRate(false) != OutputSampleRate || SourceCDDA.NativeRate(true) != OutputSampleRate {
		t.Fatal("CDDA native rate must equal OutputSampleRate regardless of pal_mode")
	}
}
