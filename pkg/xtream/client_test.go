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

package xtream

import (
	"errors"
	"testing"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "bare host gets http scheme",
			raw:  "provider.example:8080",
			want: "http://provider.example:8080",
		},
		{
			name: "path and query are stripped",
			raw:  "http://provider.example/player_api.php?x=1",
			want: "http://provider.example",
		},
		{
			name: "https is preserved",
			raw:  "https://provider.example",
			want: "https://provider.example",
		},
		{
			name: "surrounding whitespace is trimmed",
			raw:  "  provider.example  ",
			want: "http://provider.example",
		},
		{
			name:    "empty input",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBaseURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeBaseURL(%q) expected error, got %q", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeBaseURL(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCheckAuth(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "auth as number", body: `{"user_info":{"auth":1}}`},
		{name: "auth as bool", body: `{"user_info":{"auth":true}}`},
		{name: "auth as string", body: `{"user_info":{"auth":"1"}}`},
		{name: "auth rejected", body: `{"user_info":{"auth":0,"message":"bad password"}}`, wantErr: true},
		{name: "auth false", body: `{"user_info":{"auth":false}}`, wantErr: true},
		{name: "missing user_info", body: `{"error":"boom"}`, wantErr: true},
		{name: "not json", body: `<html>not found</html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkAuth([]byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, ErrAuthFailed) {
					t.Errorf("checkAuth(%q) error = %v, want ErrAuthFailed", tt.body, err)
				}
				return
			}
			if err != nil {
				t.Errorf("checkAuth(%q) unexpected error: %v", tt.body, err)
			}
		})
	}
}
