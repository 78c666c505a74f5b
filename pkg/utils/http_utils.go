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

import "os"

// DefaultUserAgent mimics an Android ExoPlayer client. Many IPTV origins
// reject requests that do not look like a known player.
const DefaultUserAgent = "ExoPlayerLib/2.15.1 (Linux;Android 11) ExoPlayer/2.15.1"

// GetIPTVUserAgent returns the user agent to use for IPTV upstream requests.
// Uses the USER_AGENT environment variable if set.
func GetIPTVUserAgent() string {
	userAgent := os.Getenv("USER_AGENT")
	if userAgent == "" {
		return DefaultUserAgent
	}
	return userAgent
}

// GetLanguageHeader returns the Accept-Language value sent upstream.
func GetLanguageHeader() string {
	return GetEnvOrDefault("ACCEPT_LANGUAGE", "en-US,en;q=0.9")
}
