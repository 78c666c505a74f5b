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
	"fmt"
	"regexp"
	"sync"
)

// OriginProfile describes the URL shape one family of origins uses for HLS
// sessions: how to extract the session token from a path, and how to build
// the canonical index playlist URL for that token.
type OriginProfile struct {
	Name string

	// TokenPattern matches the URL path; the first capture group is the token.
	TokenPattern *regexp.Regexp

	// PlaylistPath is a fmt pattern receiving the token, appended to the origin.
	PlaylistPath string
}

// Token extracts the session token from the target path, if the profile matches.
func (p *OriginProfile) Token(t *TargetURL) (string, bool) {
	m := p.TokenPattern.FindStringSubmatch(t.URL.Path)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// CanonicalPlaylist synthesizes the index playlist URL for a token on the
// target's origin.
func (p *OriginProfile) CanonicalPlaylist(t *TargetURL, token string) string {
	return t.Origin + fmt.Sprintf(p.PlaylistPath, token)
}

// ProfileTable holds the registered origin profiles, checked in registration
// order. New origin conventions are added here, never in the fetch engine.
type ProfileTable struct {
	mu       sync.RWMutex
	profiles []*OriginProfile
}

// NewProfileTable returns a table seeded with the default profiles.
func NewProfileTable() *ProfileTable {
	return &ProfileTable{
		profiles: []*OriginProfile{
			{
				Name:         "hls-token",
				TokenPattern: regexp.MustCompile(`/hls/([^/]+)/`),
				PlaylistPath: "/hls/%s/index.m3u8",
			},
		},
	}
}

// Register appends a profile to the table.
func (pt *ProfileTable) Register(p *OriginProfile) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.profiles = append(pt.profiles, p)
}

// Lookup returns the first profile matching the target, with its token.
func (pt *ProfileTable) Lookup(t *TargetURL) (*OriginProfile, string, bool) {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	for _, p := range pt.profiles {
		if token, ok := p.Token(t); ok {
			return p, token, true
		}
	}
	return nil, "", false
}

// SessionKey derives the session-state key for a target: the profile token
// when one matches, otherwise the shared default slot.
func (pt *ProfileTable) SessionKey(t *TargetURL) string {
	_, token, ok := pt.Lookup(t)
	if !ok {
		return ""
	}
	return token
}
