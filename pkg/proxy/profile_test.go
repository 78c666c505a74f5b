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
	"regexp"
	"testing"
)

func mustResolve(t *testing.T, raw string) *TargetURL {
	t.Helper()
	target, err := Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve(%q): %v", raw, err)
	}
	return target
}

func TestDefaultProfileToken(t *testing.T) {
	table := NewProfileTable()

	tests := []struct {
		name      string
		raw       string
		wantToken string
		wantMatch bool
	}{
		{
			name:      "segment under hls token path",
			raw:       "https://origin.example/hls/abc123/seg3.ts",
			wantToken: "abc123",
			wantMatch: true,
		},
		{
			name:      "index playlist under hls token path",
			raw:       "https://origin.example/hls/tok-9/index.m3u8",
			wantToken: "tok-9",
			wantMatch: true,
		},
		{
			name:      "no hls marker",
			raw:       "https://origin.example/path/seg7.ts",
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, token, ok := table.Lookup(mustResolve(t, tt.raw))
			if ok != tt.wantMatch {
				t.Fatalf("Lookup match = %v, want %v", ok, tt.wantMatch)
			}
			if ok && token != tt.wantToken {
				t.Errorf("token = %q, want %q", token, tt.wantToken)
			}
		})
	}
}

func TestCanonicalPlaylist(t *testing.T) {
	table := NewProfileTable()
	target := mustResolve(t, "https://origin.example/hls/abc123/seg3.ts")

	p, token, ok := table.Lookup(target)
	if !ok {
		t.Fatal("expected default profile to match")
	}

	got := p.CanonicalPlaylist(target, token)
	want := "https://origin.example/hls/abc123/index.m3u8"
	if got != want {
		t.Errorf("CanonicalPlaylist = %q, want %q", got, want)
	}
}

func TestSessionKeyFallsBackToSharedSlot(t *testing.T) {
	table := NewProfileTable()

	if key := table.SessionKey(mustResolve(t, "https://origin.example/path/seg7.ts")); key != "" {
		t.Errorf("SessionKey without token = %q, want shared slot", key)
	}
	if key := table.SessionKey(mustResolve(t, "https://origin.example/hls/abc123/seg3.ts")); key != "abc123" {
		t.Errorf("SessionKey = %q, want %q", key, "abc123")
	}
}

func TestRegisteredProfileTakesPriorityOrder(t *testing.T) {
	table := NewProfileTable()
	table.Register(&OriginProfile{
		Name:         "stream-token",
		TokenPattern: regexp.MustCompile(`/stream/([^/]+)/`),
		PlaylistPath: "/stream/%s/playlist.m3u8",
	})

	target := mustResolve(t, "https://cdn.example/stream/xyz/chunk0.ts")
	p, token, ok := table.Lookup(target)
	if !ok {
		t.Fatal("expected registered profile to match")
	}
	if p.Name != "stream-token" || token != "xyz" {
		t.Errorf("Lookup = (%s, %s), want (stream-token, xyz)", p.Name, token)
	}
	if got := p.CanonicalPlaylist(target, token); got != "https://cdn.example/stream/xyz/playlist.m3u8" {
		t.Errorf("CanonicalPlaylist = %q", got)
	}
}
