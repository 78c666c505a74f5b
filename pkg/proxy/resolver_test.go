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
	"testing"
)

func TestResolveClassification(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantClass Classification
	}{
		{
			name:      "m3u8 suffix is a playlist",
			raw:       "https://origin.example/hls/abc123/index.m3u8",
			wantClass: ClassPlaylist,
		},
		{
			name:      "uppercase m3u8 suffix is a playlist",
			raw:       "https://origin.example/live/INDEX.M3U8",
			wantClass: ClassPlaylist,
		},
		{
			name:      "ts suffix is a segment",
			raw:       "https://origin.example/hls/abc123/seg3.ts",
			wantClass: ClassSegment,
		},
		{
			name:      "mp4 suffix is a segment",
			raw:       "http://origin.example/movie/user/pass/42.mp4",
			wantClass: ClassSegment,
		},
		{
			name:      "query string does not affect classification",
			raw:       "https://origin.example/hls/x/seg.ts?token=abc",
			wantClass: ClassSegment,
		},
		{
			name:      "anything else is other",
			raw:       "https://origin.example/player_api.php?username=u",
			wantClass: ClassOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := Resolve(tt.raw)
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", tt.raw, err)
			}
			if target.Class != tt.wantClass {
				t.Errorf("Resolve(%q).Class = %v, want %v", tt.raw, target.Class, tt.wantClass)
			}
		})
	}
}

func TestResolveOrigin(t *testing.T) {
	target, err := Resolve("https://origin.example:8443/hls/abc/index.m3u8?x=1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if target.Origin != "https://origin.example:8443" {
		t.Errorf("Origin = %q, want %q", target.Origin, "https://origin.example:8443")
	}
}

func TestResolveInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "whitespace only", raw: "   "},
		{name: "relative path", raw: "hls/index.m3u8"},
		{name: "missing host", raw: "http:///index.m3u8"},
		{name: "unsupported scheme", raw: "ftp://origin.example/file.ts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Resolve(tt.raw); !errors.Is(err, ErrInvalidURL) {
				t.Errorf("Resolve(%q) error = %v, want ErrInvalidURL", tt.raw, err)
			}
		})
	}
}

func TestIsPlaylistResponse(t *testing.T) {
	segment, err := Resolve("https://origin.example/chunk.ts")
	if err != nil {
		t.Fatal(err)
	}
	playlist, err := Resolve("https://origin.example/index.m3u8")
	if err != nil {
		t.Fatal(err)
	}
	other, err := Resolve("https://origin.example/stream")
	if err != nil {
		t.Fatal(err)
	}

	if !IsPlaylistResponse(playlist, "") {
		t.Error("playlist target without content type should be a playlist response")
	}
	if !IsPlaylistResponse(other, "application/vnd.apple.mpegurl") {
		t.Error("mpegurl content type should mark the response as a playlist")
	}
	if !IsPlaylistResponse(other, "Audio/Mpegurl") {
		t.Error("content type match should be case insensitive")
	}
	if IsPlaylistResponse(segment, "video/mp2t") {
		t.Error("segment with binary content type should not be a playlist response")
	}
}
