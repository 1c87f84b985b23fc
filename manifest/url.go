package manifest

import "fmt"

// ChunkURL builds the CDN-relative path for a chunk, per the on-wire
// naming convention:
//
//	<dist>/Builds/Fortnite/CloudDir/ChunksV4/<gg>/<HHHHHHHHHHHHHHHH>_<GGGG...>.chunk
//
// The binary dialect uses ChunksV4 with gg derived from ChunkInfo.Group;
// the text dialect uses ChunksV3 with gg derived from the last two
// characters of the chunk's data-group string. Which path is taken is
// selected by BuildManifest.Dialect, never guessed (§3/§9 Open Question).
func (m *BuildManifest) ChunkURL(part ChunkPart) (string, error) {
	info, err := m.Chunk(part.GUID)
	if err != nil {
		return "", err
	}

	hash := fmt.Sprintf("%016X", info.RollingHash)
	guid := formatGUID(info.GUID)

	switch m.Dialect {
	case DialectText:
		gg := lastTwo(info.DataGroup)
		return fmt.Sprintf("/Builds/Fortnite/CloudDir/ChunksV3/%s/%s_%s.chunk", gg, hash, guid), nil
	default:
		gg := fmt.Sprintf("%02d", info.Group)
		return fmt.Sprintf("/Builds/Fortnite/CloudDir/ChunksV4/%s/%s_%s.chunk", gg, hash, guid), nil
	}
}

func lastTwo(s string) string {
	if len(s) <= 2 {
		return s
	}
	return s[len(s)-2:]
}
