package docstore

import (
	"strings"
	"unicode"
)

// Collection suffixes and the global audit collection.
const (
	SuffixMeta      = "_meta"
	SuffixPlaylists = "_playlist"
	SuffixVideos    = "_videos"
	SuffixComments  = "_comments"

	AuditCollection = "audit_logs"
)

// ChannelKey turns a channel name into a collection-name prefix.
// Dots, dollar signs, NUL and whitespace are not allowed in collection names
// and become underscores.
func ChannelKey(name string) string {
	key := strings.Map(func(r rune) rune {
		switch {
		case r == '.', r == '$', r == 0, unicode.IsSpace(r):
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if key == "" {
		return "_"
	}
	return key
}

// Collections lists the four per-channel collection names for key.
type Collections struct {
	Meta      string
	Playlists string
	Videos    string
	Comments  string
}

// CollectionsFor returns the collection names for key.
func CollectionsFor(key string) Collections {
	return Collections{
		Meta:      key + SuffixMeta,
		Playlists: key + SuffixPlaylists,
		Videos:    key + SuffixVideos,
		Comments:  key + SuffixComments,
	}
}
