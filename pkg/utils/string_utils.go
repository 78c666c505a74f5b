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

package utils

import (
	"net/url"
	"strings"
)

// MaskString masks sensitive parts of strings for logging.
func MaskString(s string) string {
	if len(s) <= 8 {
		if len(s) <= 0 {
			return "[empty]"
		}
		return s[:1] + "******"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// MaskURL masks credentials embedded in an upstream URL for logging.
// Xtream-style URLs carry username/password either as query parameters
// (player_api.php?username=..&password=..) or as path segments.
func MaskURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return MaskString(urlStr)
	}

	q := u.Query()
	for _, key := range []string{"username", "password", "token"} {
		if v := q.Get(key); v != "" {
			q.Set(key, MaskString(v))
		}
	}
	u.RawQuery = q.Encode()

	// Path-style creds: http://host/live/user/pass/id
	parts := strings.Split(u.Path, "/")
	if len(parts) >= 5 {
		switch parts[1] {
		case "live", "movie", "series", "timeshift":
			parts[2] = MaskString(parts[2])
			parts[3] = MaskString(parts[3])
			u.Path = strings.Join(parts, "/")
		}
	}

	return u.String()
}
