// megacd.go
package cdreader

// segaDiscSystemMagic is the 14-byte identifier Mega-CD discs carry at the
// very start of sector 0's user data.
var segaDiscSystemMagic = [14]byte{
	'S', 'E', 'G', 'A', 'D', 'I', 'S', 'C', 'S', 'Y', 'S', 'T', 'E', 'M',
}

// IsMegaCDGame probes sector 0 of the currently open disc for the
// "SEGADISCSYSTEM" marker, without disturbing any in-progress audio
// playback position: the probe runs through ReadSectorAt's transactional
// backup/restore.
func IsMegaCDGame(r *CDReader) bool {
	var sector [2048]byte
	if !r.ReadSectorAt(sector[:], 0) {
		return false
	}
	for i, b := range segaDiscSystemMagic {
		if sector[i] != b {
			return false
		}
	}
	return true
}
