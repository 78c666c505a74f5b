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
	"net/url"
	"strings"
	"testing"
)

const testProxyOrigin = "http://127.0.0.1:8085"

func rewriteLines(t *testing.T, body string, targetURL string) []string {
	t.Helper()
	target := mustResolve(t, targetURL)
	return strings.Split(Rewrite([]byte(body), target, testProxyOrigin), "\n")
}

// decodeProxyURL extracts the decoded url parameter from a rewritten line.
func decodeProxyURL(t *testing.T, line string) string {
	t.Helper()
	u, err := url.Parse(line)
	if err != nil {
		t.Fatalf("rewritten line is not a URL: %q", line)
	}
	decoded := u.Query().Get("url")
	if decoded == "" {
		t.Fatalf("rewritten line carries no url parameter: %q", line)
	}
	return decoded
}

func TestRewriteResolvesRelativeReferences(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		playlist string
		want     string
	}{
		{
			name:     "relative segment resolves against playlist directory",
			line:     "seg7.ts",
			playlist: "https://origin.example/path/index.m3u8",
			want:     "https://origin.example/path/seg7.ts",
		},
		{
			name:     "absolute segment is kept as is",
			line:     "https://cdn.example/media/seg1.ts",
			playlist: "https://origin.example/path/index.m3u8",
			want:     "https://cdn.example/media/seg1.ts",
		},
		{
			name:     "root relative segment resolves against origin",
			line:     "/media/seg2.ts",
			playlist: "https://origin.example/deep/nested/index.m3u8",
			want:     "https://origin.example/media/seg2.ts",
		},
		{
			name:     "variant playlist is rewritten too",
			line:     "low/index.m3u8",
			playlist: "https://origin.example/hls/abc/master.m3u8",
			want:     "https://origin.example/hls/abc/low/index.m3u8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := rewriteLines(t, tt.line, tt.playlist)
			if len(lines) != 1 {
				t.Fatalf("expected single line, got %d", len(lines))
			}
			if !strings.HasPrefix(lines[0], testProxyOrigin+"/proxy?url=") {
				t.Fatalf("line not routed through proxy: %q", lines[0])
			}
			if got := decodeProxyURL(t, lines[0]); got != tt.want {
				t.Errorf("decoded url = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewritePreservesDirectivesAndBlanks(t *testing.T) {
	body := "#EXTM3U\n#EXT-X-TARGETDURATION:10\n\n#EXTINF:9.8,\nseg0.ts\n\n#EXT-X-ENDLIST"
	lines := rewriteLines(t, body, "https://origin.example/path/index.m3u8")

	want := []string{"#EXTM3U", "#EXT-X-TARGETDURATION:10", "", "#EXTINF:9.8,", "", "", "#EXT-X-ENDLIST"}
	for i, w := range want {
		if i == 4 {
			continue // the rewritten segment line
		}
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q unchanged", i, lines[i], w)
		}
	}

	if !strings.HasPrefix(lines[4], testProxyOrigin+"/proxy?url=") {
		t.Errorf("segment line not rewritten: %q", lines[4])
	}
}

func TestRewriteIsDeterministic(t *testing.T) {
	body := []byte("#EXTM3U\nseg0.ts\nseg1.ts\n#EXT-X-ENDLIST")
	target := mustResolve(t, "https://origin.example/hls/abc/index.m3u8")

	first := Rewrite(body, target, testProxyOrigin)
	second := Rewrite(body, target, testProxyOrigin)
	if first != second {
		t.Error("rewriting the same body twice produced different output")
	}
}

func TestRewriteEveryURILineIsAbsolute(t *testing.T) {
	body := "#EXTM3U\nseg0.ts\n../up.ts\nhttps://cdn.example/x.ts\n#EXT-X-ENDLIST"
	lines := rewriteLines(t, body, "https://origin.example/a/b/index.m3u8")

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		decoded := decodeProxyURL(t, line)
		u, err := url.Parse(decoded)
		if err != nil || !u.IsAbs() {
			t.Errorf("decoded url %q is not absolute", decoded)
		}
	}
}

func TestRewriteToleratesInvalidBytes(t *testing.T) {
	body := append([]byte("#EXTM3U\n"), 0xff, 0xfe, '\n')
	body = append(body, []byte("seg0.ts")...)
	target := mustResolve(t, "https://origin.example/path/index.m3u8")

	out := Rewrite(body, target, testProxyOrigin)
	lines := strings.Split(out, "\n")
	if lines[0] != "#EXTM3U" {
		t.Errorf("directive line damaged: %q", lines[0])
	}
	if !strings.Contains(lines[2], "/proxy?url=") {
		t.Errorf("segment after invalid bytes not rewritten: %q", lines[2])
	}
}
