// cuebin.go
package cdreader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// FileStream is the abstract seekable byte stream the disc image reads
// through; the CD reader never performs raw file I/O directly (spec.md §6's
// disc-stream collaborator contract).
type FileStream interface {
	io.Reader
	io.Seeker
	io.Closer
	// Size returns the stream's total length in bytes.
	Size() (int64, error)
}

// FileCallbacks opens a named file into a FileStream. A frontend typically
// implements this over the real filesystem, but tests can substitute an
// in-memory one.
type FileCallbacks interface {
	Open(path string) (FileStream, error)
}

// TrackType is a CUE sheet track's data encoding.
type TrackType int

const (
	TrackInvalid TrackType = iota
	TrackAudio             // 2352-byte raw stereo LPCM frames at 44,100 Hz
	TrackMode1_2048        // 2048-byte user data sectors, no sync/header on disk
	TrackMode1_2352        // 2352-byte raw sectors; 2048-byte user data begins at offset 16
)

// sectorSize returns the on-disk byte size of one sector of this track type.
func (t TrackType) sectorSize() int {
	switch t {
	case TrackAudio:
		return audioSectorBytes
	case TrackMode1_2048:
		return 2048
	case TrackMode1_2352:
		return 2352
	default:
		return 0
	}
}

const (
	audioSectorBytes  = 2352
	sectorsPerSecond  = 75
	mode1UserDataOffs = 16
	cdReaderSectorLen = 2048
	bytesPerAudioLPCM = 4 // 16-bit stereo
	framesPerSector   = audioSectorBytes / bytesPerAudioLPCM
)

// cuePosition is a CUE sheet MM:SS:FF timestamp.
type cuePosition struct {
	minutes, seconds, frames int
}

func (p cuePosition) lba() int {
	return (p.minutes*60+p.seconds)*sectorsPerSecond + p.frames
}

func parseCuePosition(s string) (cuePosition, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return cuePosition{}, fmt.Errorf("cdreader: malformed MM:SS:FF position %q", s)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return cuePosition{}, fmt.Errorf("cdreader: malformed MM:SS:FF position %q: %w", s, err)
		}
		vals[i] = v
	}
	return cuePosition{minutes: vals[0], seconds: vals[1], frames: vals[2]}, nil
}

// CueTrack is one TRACK block of a parsed CUE sheet.
type CueTrack struct {
	Number   int
	Type     TrackType
	FileName string
	Indexes  map[int]cuePosition
}

// CueSheet is a parsed .cue file: an ordered list of tracks, each pointing
// at a FILE and an INDEX 01 start position within it.
type CueSheet struct {
	Tracks []CueTrack
}

func parseTrackType(s string) TrackType {
	switch s {
	case "AUDIO":
		return TrackAudio
	case "MODE1/2048":
		return TrackMode1_2048
	case "MODE1/2352":
		return TrackMode1_2352
	default:
		return TrackInvalid
	}
}

// ParseCueSheet reads a .cue file's FILE/TRACK/INDEX lines. It accepts the
// subset of the CUE grammar this module needs — BINARY files, AUDIO and
// MODE1/2048|2352 tracks, and numbered INDEX positions — not the full CUE
// specification (PREGAP, FLAGS, and other sheet-level commands are ignored).
func ParseCueSheet(r io.Reader) (*CueSheet, error) {
	sheet := &CueSheet{}

	var currentFile string
	var current *CueTrack

	finishTrack := func() {
		if current != nil {
			sheet.Tracks = append(sheet.Tracks, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := splitCueLine(line)
		if len(fields) == 0 {
			continue
		}

		switch strings.ToUpper(fields[0]) {
		case "FILE":
			if len(fields) < 2 {
				return nil, fmt.Errorf("cdreader: FILE line missing filename: %q", line)
			}
			currentFile = fields[1]

		case "TRACK":
			if len(fields) < 3 {
				return nil, fmt.Errorf("cdreader: TRACK line malformed: %q", line)
			}
			finishTrack()
			num, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("cdreader: TRACK number %q: %w", fields[1], err)
			}
			trackType := parseTrackType(strings.ToUpper(fields[2]))
			if trackType == TrackInvalid {
				return nil, fmt.Errorf("cdreader: unsupported track type %q", fields[2])
			}
			current = &CueTrack{Number: num, Type: trackType, FileName: currentFile, Indexes: map[int]cuePosition{}}

		case "INDEX":
			if current == nil || len(fields) < 3 {
				return nil, fmt.Errorf("cdreader: INDEX line outside a TRACK block: %q", line)
			}
			idxNum, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("cdreader: INDEX number %q: %w", fields[1], err)
			}
			pos, err := parseCuePosition(fields[2])
			if err != nil {
				return nil, err
			}
			current.Indexes[idxNum] = pos
		}
	}
	finishTrack()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(sheet.Tracks) == 0 {
		return nil, fmt.Errorf("cdreader: no tracks found in cue sheet")
	}
	return sheet, nil
}

// splitCueLine tokenizes a CUE line, treating a double-quoted filename as a
// single field (andkrau-pmf2bin's writer emits `FILE "name.bin" BINARY`;
// this is the matching reader-side convention).
func splitCueLine(line string) []string {
	var fields []string
	var b bytes.Buffer
	inQuotes := false

	flush := func() {
		if b.Len() > 0 {
			fields = append(fields, b.String())
			b.Reset()
		}
	}

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return fields
}

// resolvedTrack is a CueTrack with its absolute extent within its backing
// file resolved, so sector/frame seeks can be bounds-checked and converted
// into byte offsets.
type resolvedTrack struct {
	CueTrack
	startLBA    int // index 1's LBA within its file
	sectorCount int // total sectors available from index 1 to the track's end
}

// DiscImage is the low-level CUE/BIN engine the CD reader state machine is
// built on — the equivalent of the original source's ClownCD dependency,
// which was not itself part of the retrieved pack. It owns the parsed
// sheet, the open backing file streams (one per distinct FILE line), and
// two independent read cursors: a sector cursor for data tracks and a
// frame cursor for audio tracks, matching cd-reader.c's two separate
// current_sector/current_frame fields.
type DiscImage struct {
	tracks  []resolvedTrack
	streams map[string]FileStream

	curTrackIdx int // index into tracks, -1 if nothing seeked yet
	curSector   int
	curFrame    int
}

// OpenDiscImage parses the .cue file at path and resolves every track
// against its backing .bin file(s).
func OpenDiscImage(callbacks FileCallbacks, path string) (*DiscImage, error) {
	cueStream, err := callbacks.Open(path)
	if err != nil {
		return nil, err
	}
	defer cueStream.Close()

	data, err := io.ReadAll(cueStream)
	if err != nil {
		return nil, err
	}

	sheet, err := ParseCueSheet(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	streams := map[string]FileStream{}
	sizes := map[string]int64{}
	for _, track := range sheet.Tracks {
		if _, ok := streams[track.FileName]; ok {
			continue
		}
		fs, err := callbacks.Open(filepath.Join(dir, track.FileName))
		if err != nil {
			for _, s := range streams {
				s.Close()
			}
			return nil, err
		}
		size, err := fs.Size()
		if err != nil {
			for _, s := range streams {
				s.Close()
			}
			fs.Close()
			return nil, err
		}
		streams[track.FileName] = fs
		sizes[track.FileName] = size
	}

	resolved := make([]resolvedTrack, len(sheet.Tracks))
	for i, track := range sheet.Tracks {
		startPos, ok := track.Indexes[1]
		if !ok {
			for _, s := range streams {
				s.Close()
			}
			return nil, fmt.Errorf("cdreader: track %d has no INDEX 01", track.Number)
		}
		startLBA := startPos.lba()

		endLBA := int(sizes[track.FileName]) / track.Type.sectorSize()
		for j := i + 1; j < len(sheet.Tracks); j++ {
			if sheet.Tracks[j].FileName != track.FileName {
				break
			}
			if nextPos, ok := sheet.Tracks[j].Indexes[1]; ok {
				endLBA = nextPos.lba()
				break
			}
		}

		resolved[i] = resolvedTrack{CueTrack: track, startLBA: startLBA, sectorCount: endLBA - startLBA}
	}

	return &DiscImage{tracks: resolved, streams: streams, curTrackIdx: -1}, nil
}

// Close releases every backing file stream.
func (d *DiscImage) Close() error {
	var firstErr error
	for _, s := range d.streams {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (d *DiscImage) trackIndexForNumber(track int) int {
	for i, t := range d.tracks {
		if t.Number == track {
			return i
		}
	}
	return -1
}

// SeekTrackIndex positions the disc at the start of the given track's
// INDEX 01 (indexNumber other than 1 is not supported, matching the subset
// of the CUE grammar ParseCueSheet accepts) and resets both cursors there.
// It returns the track's type, or TrackInvalid if the track doesn't exist.
func (d *DiscImage) SeekTrackIndex(track, indexNumber int) TrackType {
	if indexNumber != 1 {
		return TrackInvalid
	}
	i := d.trackIndexForNumber(track)
	if i < 0 {
		return TrackInvalid
	}
	d.curTrackIdx = i
	d.curSector = 0
	d.curFrame = 0
	return d.tracks[i].Type
}

func (d *DiscImage) currentResolved() (*resolvedTrack, bool) {
	if d.curTrackIdx < 0 || d.curTrackIdx >= len(d.tracks) {
		return nil, false
	}
	return &d.tracks[d.curTrackIdx], true
}

// SeekSector moves the sector cursor within the current track.
func (d *DiscImage) SeekSector(sectorIndex int) bool {
	t, ok := d.currentResolved()
	if !ok || sectorIndex < 0 || sectorIndex >= t.sectorCount {
		return false
	}
	d.curSector = sectorIndex
	return true
}

// ReadSector reads exactly cdReaderSectorLen bytes of user data at the
// sector cursor, surfacing 2048 bytes regardless of the track's on-disk
// mode, and advances the cursor by one sector.
func (d *DiscImage) ReadSector(buf []byte) bool {
	if len(buf) != cdReaderSectorLen {
		return false
	}
	t, ok := d.currentResolved()
	if !ok || t.Type != TrackMode1_2048 && t.Type != TrackMode1_2352 {
		return false
	}
	if d.curSector >= t.sectorCount {
		return false
	}

	stream := d.streams[t.FileName]
	sectorSize := t.Type.sectorSize()
	offset := int64(t.startLBA+d.curSector) * int64(sectorSize)
	dataOffset := int64(0)
	if t.Type == TrackMode1_2352 {
		dataOffset = mode1UserDataOffs
	}

	if _, err := stream.Seek(offset+dataOffset, io.SeekStart); err != nil {
		return false
	}
	if _, err := io.ReadFull(stream, buf); err != nil {
		return false
	}

	d.curSector++
	return true
}

// SeekAudioFrame moves the frame cursor within the current audio track.
func (d *DiscImage) SeekAudioFrame(frameIndex int) bool {
	t, ok := d.currentResolved()
	if !ok || t.Type != TrackAudio {
		return false
	}
	totalFrames := t.sectorCount * framesPerSector
	if frameIndex < 0 || frameIndex >= totalFrames {
		return false
	}
	d.curFrame = frameIndex
	return true
}

// ReadFrames reads up to totalFrames interleaved stereo S16 frames into out
// (which must hold at least totalFrames*2 samples) from the current audio
// track starting at the frame cursor, stopping early at the track's end,
// and returns the number of frames actually read.
func (d *DiscImage) ReadFrames(out []int16, totalFrames int) int {
	t, ok := d.currentResolved()
	if !ok || t.Type != TrackAudio {
		return 0
	}

	maxFrames := t.sectorCount * framesPerSector
	remaining := maxFrames - d.curFrame
	if remaining <= 0 {
		return 0
	}
	if totalFrames > remaining {
		totalFrames = remaining
	}
	if totalFrames <= 0 {
		return 0
	}

	stream := d.streams[t.FileName]
	byteOffset := int64(t.startLBA)*int64(audioSectorBytes) + int64(d.curFrame)*int64(bytesPerAudioLPCM)
	if _, err := stream.Seek(byteOffset, io.SeekStart); err != nil {
		return 0
	}

	raw := make([]byte, totalFrames*bytesPerAudioLPCM)
	n, _ := io.ReadFull(stream, raw)
	framesRead := n / bytesPerAudioLPCM

	for i := 0; i < framesRead; i++ {
		out[i*2] = int16(raw[i*4]) | int16(raw[i*4+1])<<8
		out[i*2+1] = int16(raw[i*4+2]) | int16(raw[i*4+3])<<8
	}

	d.curFrame += framesRead
	return framesRead
}

// SetState restores a (track, index, sector, frame) position directly,
// without bounds-checking sector/frame against the track's extent — it
// exists only to support CDReader's save/restore transaction, which always
// restores a position this same DiscImage previously reported as current.
func (d *DiscImage) SetState(track, indexNumber, sector, frame int) TrackType {
	t := d.SeekTrackIndex(track, indexNumber)
	if t == TrackInvalid {
		return TrackInvalid
	}
	d.curSector = sector
	d.curFrame = frame
	return t
}

// CurrentTrack, CurrentSector, and CurrentFrame report the raw cursor
// state cd-reader.c's backup struct captures.
func (d *DiscImage) CurrentTrack() int {
	if t, ok := d.currentResolved(); ok {
		return t.Number
	}
	return 0
}

func (d *DiscImage) CurrentSector() int { return d.curSector }
func (d *DiscImage) CurrentFrame() int  { return d.curFrame }
