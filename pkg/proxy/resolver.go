/*
 * hls-bridge is a reverse proxy that relays and rewrites HLS streams from IPTV providers.
 * Copyright (C) 2025  Lucas Duport
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package proxy

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidURL is returned when the caller supplies an empty or non-absolute URL.
var ErrInvalidURL = errors.New("invalid target url")

// Classification of a target URL by suffix.
type Classification int

const (
	ClassOther Classification = iota
	ClassPlaylist
	ClassSegment
)

func (c Classification) String() string {
	switch c {
	case ClassPlaylist:
		return "playlist"
	case ClassSegment:
		return "segment"
	default:
		return "other"
	}
}

// TargetURL is a validated absolute upstream URL. Immutable once resolved.
type TargetURL struct {
	Raw    string
	URL    *url.URL
	Origin string // scheme://host
	Class  Classification
}

// Resolve validates a raw URL and classifies it by suffix.
func Resolve(raw string) (*TargetURL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrInvalidURL
	}

	return &TargetURL{
		Raw:    raw,
		URL:    u,
		Origin: fmt.Sprintf("%s://%s", u.Scheme, u.Host),
		Class:  classifyPath(u.Path),
	}, nil
}

func classifyPath(p string) Classification {
	switch strings.ToLower(path.Ext(p)) {
	case ".m3u8":
		return ClassPlaylist
	case ".ts", ".mp4":
		return ClassSegment
	default:
		return ClassOther
	}
}

// IsPlaylistResponse reports whether the fetched body is an HLS playlist,
// either by target suffix or by the upstream Content-Type.
func IsPlaylistResponse(t *TargetURL, contentType string) bool {
	if t.Class == ClassPlaylist {
		return true
	}
	return strings.Contains(strings.ToLower(contentType), "mpegurl")
}
