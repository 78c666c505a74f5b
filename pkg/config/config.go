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

package config

import (
	"net/url"
	"time"
)

// HostConfiguration containt host and port
type HostConfiguration struct {
	Hostname string
	Port     int
}

// CredentialString is a string holding a credential. It masks itself when
// marshalled so credentials never leak into JSON payloads by accident.
type CredentialString string

// String returns the raw credential value
func (s CredentialString) String() string {
	return string(s)
}

// PathEscape path escapes the credential for use inside URL paths
func (s CredentialString) PathEscape() string {
	return url.PathEscape(string(s))
}

// MarshalJSON masks the credential value
func (s CredentialString) MarshalJSON() ([]byte, error) {
	return []byte(`"********"`), nil
}

// ProxyConfig Contain original m3u playlist and HostConfiguration
type ProxyConfig struct {
	HostConfig *HostConfiguration

	// PublicURL is the externally reachable base URL used when rewriting
	// playlists. Empty means "derive from the incoming request host".
	PublicURL string

	// UpstreamTimeout bounds every outbound request, retry included.
	UpstreamTimeout time.Duration

	// SessionCacheSize bounds the number of tracked upstream sessions.
	SessionCacheSize int

	// UserAgent overrides the default player fingerprint sent upstream.
	UserAgent string

	// Xtream control API coordinates, used by the /auth endpoints only.
	XtreamBaseURL  string
	XtreamUser     CredentialString
	XtreamPassword CredentialString
}
