package cdreader

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCueSheetBasic(t *testing.T) {
	cue := `FILE "game.bin" BINARY
  TRACK 01 MODE1/2352
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    INDEX 00 00:01:50
    INDEX 01 00:02:00
`
	sheet, err := ParseCueSheet(strings.NewReader(cue))
	require.NoError(t, err)
	require.Len(t, sheet.Tracks, 2)

	assert.Equal(t, 1, sheet.Tracks[0].Number)
	assert.Equal(t, TrackMode1_2352, sheet.Tracks[0].Type)
	assert.Equal(t, "game.bin", sheet.Tracks[0].FileName)
	assert.Equal(t, cuePosition{0, 0, 0}, sheet.Tracks[0].Indexes[1])

	assert.Equal(t, TrackAudio, sheet.Tracks[1].Type)
	assert.Equal(t, cuePosition{0, 2, 0}, sheet.Tracks[1].Indexes[1])
}

func TestParseCueSheetRejectsUnknownTrackType(t *testing.T) {
	cue := "FILE \"x.bin\" BINARY\n  TRACK 01 MODE2/2336\n    INDEX 01 00:00:00\n"
	_, err := ParseCueSheet(strings.NewReader(cue))
	assert.Error(t, err)
}

func TestParseCueSheetRejectsEmptySheet(t *testing.T) {
	_, err := ParseCueSheet(strings.NewReader("\n\n"))
	assert.Error(t, err)
}

func TestParseCueSheetRejectsMissingIndex(t *testing.T) {
	cue := "FILE \"x.bin\" BINARY\n  TRACK 01 AUDIO\n"
	sheet, err := ParseCueSheet(strings.NewReader(cue))
	require.NoError(t, err)
	require.Len(t, sheet.Tracks, 1)

	callbacks := memCallbacks{
		"x.cue": []byte(cue),
		"x.bin": make([]byte, 100),
	}
	_, err = OpenDiscImage(callbacks, "x.cue")
	assert.Error(t, err)
}

func TestCuePositionLBA(t *testing.T) {
	p := cuePosition{minutes: 1, seconds: 2, frames: 3}
	assert.Equal(t, (1*60+2)*sectorsPerSecond+3, p.lba())
}

func TestDiscImageSeekSectorBounds(t *testing.T) {
	cue := "FILE \"d.bin\" BINARY\n  TRACK 01 MODE1/2048\n    INDEX 01 00:00:00\n"
	data := make([]byte, 2048*4)
	callbacks := memCallbacks{"d.cue": []byte(cue), "d.bin": data}

	disc, err := OpenDiscImage(callbacks, "d.cue")
	require.NoError(t, err)
	defer disc.Close()

	require.Equal(t, TrackMode1_2048, disc.SeekTrackIndex(1, 1))
	assert.True(t, disc.SeekSector(0))
	assert.True(t, disc.SeekSector(3))
	assert.False(t, disc.SeekSector(4))
	assert.False(t, disc.SeekSector(-1))
}

func TestDiscImageReadSectorMode1_2352SkipsHeader(t *testing.T) {
	var bin bytes.Buffer
	bin.Write(make([]byte, mode1UserDataOffs))
	user := bytes.Repeat([]byte{0x42}, 2048)
	bin.Write(user)
	bin.Write(make([]byte, 2352-mode1UserDataOffs-2048))

	cue := "FILE \"d.bin\" BINARY\n  TRACK 01 MODE1/2352\n    INDEX 01 00:00:00\n"
	callbacks := memCallbacks{"d.cue": []byte(cue), "d.bin": bin.Bytes()}

	disc, err := OpenDiscImage(callbacks, "d.cue")
	require.NoError(t, err)
	defer disc.Close()

	disc.SeekTrackIndex(1, 1)
	buf := make([]byte, 2048)
	require.True(t, disc.ReadSector(buf))
	for _, b := range buf {
		assert.Equal(t, byte(0x42), b)
	}
}

func TestDiscImageSeekTrackIndexUnknownTrack(t *testing.T) {
	cue := "FILE \"d.bin\" BINARY\n  TRACK 01 AUDIO\n    INDEX 01 00:00:00\n"
	callbacks := memCallbacks{"d.cue": []byte(cue), "d.bin": make([]byte, audioSectorBytes)}

	disc, err := OpenDiscImage(callbacks, "d.cue")
	require.NoError(t, err)
	defer disc.Close()

	assert.Equal(t, TrackInvalid, disc.SeekTrackIndex(99, 1))
	assert.Equal(t, TrackInvalid, disc.SeekTrackIndex(1, 2))
}

func TestDiscImageReadFramesStopsAtTrackEnd(t *testing.T) {
	cue := "FILE \"d.bin\" BINARY\n  TRACK 01 AUDIO\n    INDEX 01 00:00:00\n"
	data := make([]byte, audioSectorBytes) // exactly 1 sector = framesPerSector frames
	callbacks := memCallbacks{"d.cue": []byte(cue), "d.bin": data}

	disc, err := OpenDiscImage(callbacks, "d.cue")
	require.NoError(t, err)
	defer disc.Close()

	disc.SeekTrackIndex(1, 1)
	require.True(t, disc.SeekAudioFrame(framesPerSector-2))

	out := make([]int16, 10*2)
	n := disc.ReadFrames(out, 10)
	assert.Equal(t, 2, n)
}
