// reader.go
package cdreader

// SectorSize is the fixed data-sector length CDReader surfaces to callers,
// regardless of the underlying track's on-disk mode.
const SectorSize = cdReaderSectorLen

// PlaybackSetting controls what ReadAudio does when it runs out of frames
// in the current audio track.
type PlaybackSetting int

const (
	PlaybackAll PlaybackSetting = iota
	PlaybackOnce
	PlaybackRepeat
)

// StateBackup is a snapshot sufficient to restore a CDReader's disc cursor
// and audio-playback flags after a sub-operation, in the exact field order
// a persisted save state lays them out in (spec.md §6).
type StateBackup struct {
	TrackIndex      int
	SectorIndex     int
	FrameIndex      int
	PlaybackSetting PlaybackSetting
	AudioPlaying    bool
}

// CDReader is a state machine over a CUE/BIN disc image: open/closed, plus
// an audio sub-state (idle or playing under some PlaybackSetting). Every
// sector read is total — it either succeeds or produces a fully
// zero-initialised output, so the emulator's real-time loop never faults.
// ReadAudio instead reports how many frames it wrote and leaves the rest of
// its output untouched.
type CDReader struct {
	disc            *DiscImage
	open            bool
	playbackSetting PlaybackSetting
	audioPlaying    bool
}

// NewCDReader returns a closed CDReader.
func NewCDReader() *CDReader {
	return &CDReader{playbackSetting: PlaybackAll}
}

// Open parses the CUE sheet at path (via callbacks) and resolves its
// backing BIN file(s). Any previously open disc is closed first.
func (r *CDReader) Open(callbacks FileCallbacks, path string) error {
	if r.open {
		r.Close()
	}

	disc, err := OpenDiscImage(callbacks, path)
	if err != nil {
		return err
	}

	r.disc = disc
	r.open = true
	r.audioPlaying = false
	return nil
}

// Close releases the current disc, if any.
func (r *CDReader) Close() {
	if !r.open {
		return
	}
	r.disc.Close()
	r.disc = nil
	r.open = false
	r.audioPlaying = false
}

// IsOpen reports whether a disc is currently open.
func (r *CDReader) IsOpen() bool {
	return r.open
}

// SeekToSector seeks to track 1 index 1, verifies its type is a data track,
// then positions at sector k. It fails, leaving state otherwise unchanged,
// if any step fails.
func (r *CDReader) SeekToSector(sectorIndex int) bool {
	if !r.open {
		return false
	}

	disc := r.disc
	trackIdx, sector, frame := disc.curTrackIdx, disc.curSector, disc.curFrame

	trackType := disc.SeekTrackIndex(1, 1)
	if (trackType != TrackMode1_2048 && trackType != TrackMode1_2352) || !disc.SeekSector(sectorIndex) {
		disc.curTrackIdx, disc.curSector, disc.curFrame = trackIdx, sector, frame
		return false
	}
	return true
}

// ReadSector reads exactly one 2048-byte sector at the current position
// into buf. On short or failed read, buf is zero-filled and false is
// returned; buf is always fully initialised.
func (r *CDReader) ReadSector(buf []byte) bool {
	success := r.open && len(buf) == SectorSize && r.disc.ReadSector(buf)
	if !success {
		clear(buf)
	}
	return success
}

// ReadSectorAt snapshots the current state, seeks to sector k, reads, and
// restores the snapshot — probing a sector never disturbs an in-progress
// audio playback position.
func (r *CDReader) ReadSectorAt(buf []byte, sectorIndex int) bool {
	success := false

	if r.open {
		backup := r.SaveState()

		if r.SeekToSector(sectorIndex) && r.disc.ReadSector(buf) {
			success = true
		}

		if !r.LoadState(backup) {
			success = false
		}
	}

	if !success {
		clear(buf)
	}
	return success
}

// PlayAudio seeks to (track, index 1); if track's type isn't AUDIO, the
// reader transitions to Idle and PlayAudio reports failure, otherwise audio
// playback starts under the given setting.
func (r *CDReader) PlayAudio(track int, setting PlaybackSetting) bool {
	if !r.open {
		return false
	}

	r.audioPlaying = false

	if r.disc.SeekTrackIndex(track, 1) != TrackAudio {
		return false
	}

	r.audioPlaying = true
	r.playbackSetting = setting
	return true
}

// SeekToFrame seeks within the current audio track. If the underlying seek
// fails, playback transitions to Idle.
func (r *CDReader) SeekToFrame(frameIndex int) bool {
	if !r.open || !r.disc.SeekAudioFrame(frameIndex) {
		r.audioPlaying = false
		return false
	}
	return true
}

// ReadAudio pulls stereo frames from the current audio position into out
// (which must hold at least totalFrames*2 samples). On under-run within a
// track it applies the current playback-mode transition and continues
// until totalFrames is reached or playback transitions to Idle. The
// returned count is the number of frames actually written; any trailing
// frames in out beyond that are left untouched.
func (r *CDReader) ReadAudio(out []int16, totalFrames int) int {
	if !r.open || !r.audioPlaying {
		return 0
	}

	framesRead := 0
	for framesRead != totalFrames {
		framesRead += r.disc.ReadFrames(out[framesRead*2:], totalFrames-framesRead)

		if framesRead != totalFrames {
			switch r.playbackSetting {
			case PlaybackAll:
				if !r.PlayAudio(r.disc.CurrentTrack()+1, r.playbackSetting) {
					r.audioPlaying = false
				}

			case PlaybackOnce:
				r.audioPlaying = false
				fallthrough

			case PlaybackRepeat:
				if !r.SeekToFrame(0) {
					r.audioPlaying = false
				}
			}

			if !r.audioPlaying {
				break
			}
		}
	}

	return framesRead
}

// SaveState copies out a backup of the disc cursor and playback flags.
func (r *CDReader) SaveState() StateBackup {
	if !r.open {
		return StateBackup{}
	}
	return StateBackup{
		TrackIndex:      r.disc.CurrentTrack(),
		SectorIndex:     r.disc.CurrentSector(),
		FrameIndex:      r.disc.CurrentFrame(),
		PlaybackSetting: r.playbackSetting,
		AudioPlaying:    r.audioPlaying,
	}
}

// LoadState restores a backup captured by SaveState. Requires the reader to
// be open. A backup taken before any track was seeked (TrackIndex 0)
// restores that unseeked cursor.
func (r *CDReader) LoadState(backup StateBackup) bool {
	if !r.open {
		return false
	}
	if backup.TrackIndex == 0 {
		r.disc.curTrackIdx = -1
		r.disc.curSector = backup.SectorIndex
		r.disc.curFrame = backup.FrameIndex
	} else if r.disc.SetState(backup.TrackIndex, 1, backup.SectorIndex, backup.FrameIndex) == TrackInvalid {
		return false
	}
	r.playbackSetting = backup.PlaybackSetting
	r.audioPlaying = backup.AudioPlaying
	return true
}

func clear(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
