package cdreader

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMegaCDDisc(t *testing.T, magic bool) *CDReader {
	t.Helper()

	var bin bytes.Buffer
	header := make([]byte, mode1UserDataOffs)
	bin.Write(header)
	user := make([]byte, 2048)
	if magic {
		copy(user, segaDiscSystemMagic[:])
	}
	bin.Write(user)
	trailer := make([]byte, 2352-mode1UserDataOffs-2048)
	bin.Write(trailer)

	cue := "FILE \"disc.bin\" BINARY\n" +
		"  TRACK 01 MODE1/2352\n" +
		"    INDEX 01 00:00:00\n"

	callbacks := memCallbacks{
		"disc.cue": []byte(cue),
		"disc.bin": bin.Bytes(),
	}

	r := NewCDReader()
	require.NoError(t, r.Open(callbacks, "disc.cue"))
	return r
}

func TestIsMegaCDGameTrue(t *testing.T) {
	r := buildMegaCDDisc(t, true)
	defer r.Close()
	assert.True(t, IsMegaCDGame(r))
}

func TestIsMegaCDGameFalse(t *testing.T) {
	r := buildMegaCDDisc(t, false)
	defer r.Close()
	assert.False(t, IsMegaCDGame(r))
}

func TestIsMegaCDGameDoesNotDisturbPlayback(t *testing.T) {
	r := buildMegaCDDisc(t, true)
	defer r.Close()

	// No audio track on this disc, so just confirm the probe leaves the
	// reader's cursor state exactly as it found it.
	before := r.SaveState()
	IsMegaCDGame(r)
	assert.Equal(t, before, r.SaveState())
}

func TestIsMegaCDGameOnClosedReaderIsFalse(t *testing.T) {
	r := NewCDReader()
	assert.False(t, IsMegaCDGame(r))
}
