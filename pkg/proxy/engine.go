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
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lucasduport/hls-bridge/pkg/session"
	"github.com/lucasduport/hls-bridge/pkg/utils"
)

var (
	// ErrUpstreamTimeout is returned when the upstream exceeds the bounded timeout.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrUpstreamUnreachable is returned on any other network-level failure.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
)

// DefaultUpstreamTimeout bounds every outbound request when no timeout is configured.
const DefaultUpstreamTimeout = 60 * time.Second

// UpstreamResponse wraps the upstream reply handed to the entry point. The
// body is lazy; the caller owns closing it.
type UpstreamResponse struct {
	StatusCode  int
	Header      http.Header
	ContentType string
	Body        io.ReadCloser
	Retried     bool
}

// Engine issues upstream requests with composed headers, updates session
// state from responses and retries exactly once on an access-denial status.
type Engine struct {
	client   *http.Client
	sessions *session.Store
	profiles *ProfileTable
	composer *Composer
}

// NewEngine creates a fetch engine. TLS certificate validation is disabled
// on purpose: IPTV origins routinely serve self-signed certificates, and the
// proxy would be useless if it refused them.
func NewEngine(sessions *session.Store, profiles *ProfileTable, userAgent string, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Engine{
		client:   &http.Client{Transport: transport, Timeout: timeout},
		sessions: sessions,
		profiles: profiles,
		composer: &Composer{Profiles: profiles, UserAgent: userAgent},
	}
}

// Sessions exposes the engine's session store.
func (e *Engine) Sessions() *session.Store {
	return e.sessions
}

// Fetch issues the upstream GET for target, records session state, and on a
// 403 with a known prior playlist reissues the request once with a corrected
// Referer. The second response is used regardless of its outcome.
func (e *Engine) Fetch(ctx context.Context, target *TargetURL, incomingRange string) (*UpstreamResponse, error) {
	reqID := uuid.NewString()[:8]
	key := e.profiles.SessionKey(target)

	// Remember the playlist before the response is known, so parallel
	// segment fetches already see it.
	if target.Class == ClassPlaylist {
		e.sessions.RecordPlaylist(key, target.Raw)
	}

	headers := e.composer.Compose(target, incomingRange, e.sessions.Snapshot(key))
	utils.DebugLog("[%s] -> %s %s (referer=%s)", reqID, target.Class, utils.MaskURL(target.Raw), headers.Referer)

	resp, err := e.do(ctx, target, headers)
	if err != nil {
		return nil, err
	}
	e.recordCookies(key, resp)
	utils.DebugLog("[%s] <- upstream status %d", reqID, resp.StatusCode)

	retried := false
	if resp.StatusCode == http.StatusForbidden {
		snap := e.sessions.Snapshot(key)
		if snap.LastPlaylistURL != "" {
			// Drain and release the denied response before reissuing.
			io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024)) // nolint: errcheck
			resp.Body.Close()

			headers.Referer = snap.LastPlaylistURL
			if snap.LastCookie != "" {
				headers.Cookie = snap.LastCookie
			}
			utils.DebugLog("[%s] 403 from origin, retrying once with referer=%s", reqID, utils.MaskURL(headers.Referer))

			resp, err = e.do(ctx, target, headers)
			if err != nil {
				return nil, err
			}
			e.recordCookies(key, resp)
			retried = true
			utils.DebugLog("[%s] <- retry status %d", reqID, resp.StatusCode)
		}
	}

	return &UpstreamResponse{
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
		Retried:     retried,
	}, nil
}

func (e *Engine) do(ctx context.Context, target *TargetURL, headers OutboundHeaders) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.Raw, nil)
	if err != nil {
		return nil, utils.PrintErrorAndReturn(err)
	}
	headers.Apply(req)

	resp, err := e.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
	}
	return resp, nil
}

// recordCookies stores the cookies issued by the origin as a single request
// cookie string. Later values overwrite earlier ones wholesale.
func (e *Engine) recordCookies(key string, resp *http.Response) {
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return
	}
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	e.sessions.RecordCookie(key, strings.Join(pairs, "; "))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
