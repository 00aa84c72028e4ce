// Package toolutil provides input normalization shared by the go_ytharvest MCP tools.
package toolutil

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_ytharvest/internal/engine/docstore"
)

var (
	channelIDRe = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
	handleRe    = regexp.MustCompile(`^@[A-Za-z0-9._-]{3,30}$`)
)

// ErrBadChannel is returned for input that is neither a channel ID, a handle nor a channel URL.
var ErrBadChannel = errors.New("channel_id must be a UC... channel ID, an @handle or a channel URL")

// NormChannelID accepts a channel ID, an @handle or a youtube.com channel URL
// (/channel/UC..., /@handle) and returns the ID or handle.
func NormChannelID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("channel_id is required")
	}
	if strings.Contains(s, "/") {
		if !strings.Contains(s, "://") {
			s = "https://" + s
		}
		u, err := url.Parse(s)
		if err != nil {
			return "", ErrBadChannel
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		host = strings.TrimPrefix(host, "m.")
		if host != "youtube.com" {
			return "", ErrBadChannel
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		switch {
		case len(parts) >= 2 && parts[0] == "channel":
			s = parts[1]
		case len(parts) >= 1 && strings.HasPrefix(parts[0], "@"):
			s = parts[0]
		default:
			return "", ErrBadChannel
		}
	}
	if channelIDRe.MatchString(s) || handleRe.MatchString(s) {
		return s, nil
	}
	return "", ErrBadChannel
}

// ResolveKey returns key when set, otherwise the document-cache key derived from name.
func ResolveKey(key, name string) (string, error) {
	if k := strings.TrimSpace(key); k != "" {
		return k, nil
	}
	if strings.TrimSpace(name) == "" {
		return "", errors.New("channel_key or channel_name is required")
	}
	return docstore.ChannelKey(name), nil
}

// ClampLimit returns def when n <= 0 and maxN when n exceeds it.
func ClampLimit(n, def, maxN int) int {
	if n <= 0 {
		return def
	}
	return min(n, maxN)
}
