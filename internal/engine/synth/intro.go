package synth

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/packforge/twpatch/internal/core/domain"
)

const (
	tableVideos         = "videos"
	tableCampaignVideos = "campaign_videos"

	colVideoName = "video_name"

	// Appended to a manifest key so it resolves to no file. The engine skips
	// videos it cannot find instead of crashing.
	dummySuffix = "dummy"
)

// skipIntro disables the intro videos. Newer titles get their manifest rows
// repointed at names that resolve to nothing; older ones get the video files
// themselves replaced with minimal placeholder clips.
func (s *Synthesizer) skipIntro(game *domain.GameDef, tables domain.MergedTables) *domain.EditSet {
	set := domain.NewEditSet()

	if game.IntroMode == domain.IntroByBlob {
		placeholder := placeholderVideo(game.IntroMovieFormat)
		for _, path := range game.IntroMoviePaths {
			set.PutBlob(path, placeholder)
		}
		return set
	}

	keys := make(map[string]bool, len(game.IntroMovieKeys))
	for _, k := range game.IntroMovieKeys {
		keys[k] = true
	}

	for _, name := range []string{tableVideos, tableCampaignVideos} {
		merged, ok := tables[name]
		if !ok {
			s.log.Warn("video manifest table missing, intro keys unchanged", "table", name)
			continue
		}

		edits := set.Table(merged.Schema)
		// The whole manifest is re-emitted, demoted below any mod's own copy.
		edits.LowPriority = true
		for _, row := range merged.Rows() {
			edited := row.Clone()
			if keys[row[colVideoName].Str] {
				edited[colVideoName] = domain.StringValue(row[colVideoName].Str + dummySuffix)
			}
			edits.Put(edited)
		}
	}
	return set
}

// placeholderVideo builds a header-only clip in the requested container
// format: one black 640x480 frame, just enough for the engine's probe to
// succeed and finish instantly.
func placeholderVideo(format string) []byte {
	var buf bytes.Buffer
	if strings.EqualFold(format, "bik") {
		buf.WriteString("BIKi")
		_ = binary.Write(&buf, binary.LittleEndian, uint32(8))   // payload size
		_ = binary.Write(&buf, binary.LittleEndian, uint32(1))   // frame count
		_ = binary.Write(&buf, binary.LittleEndian, uint32(640)) // width
		_ = binary.Write(&buf, binary.LittleEndian, uint32(480)) // height
		_ = binary.Write(&buf, binary.LittleEndian, uint32(30))  // fps
		buf.Write(make([]byte, 8))
		return buf.Bytes()
	}

	buf.WriteString("CAMV")
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // container version
	buf.WriteString("VP80")
	_ = binary.Write(&buf, binary.LittleEndian, uint16(640)) // width
	_ = binary.Write(&buf, binary.LittleEndian, uint16(480)) // height
	_ = binary.Write(&buf, binary.LittleEndian, uint32(1))   // frame count
	_ = binary.Write(&buf, binary.LittleEndian, uint32(30))  // framerate
	buf.Write(make([]byte, 8))
	return buf.Bytes()
}
