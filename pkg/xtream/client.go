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

// Package xtream validates credentials against an Xtream-style control API
// and summarizes the account's catalog. The streaming proxy itself never
// depends on this package.
package xtream

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	xtreamcodes "github.com/tellytv/go.xtream-codes"

	"github.com/lucasduport/hls-bridge/pkg/utils"
)

var (
	// ErrAuthFailed is returned when the server answers but rejects the credentials.
	ErrAuthFailed = errors.New("xtream authentication failed")
	// ErrUnreachable is returned when the server cannot be reached over http or https.
	ErrUnreachable = errors.New("xtream server unreachable")
)

const probeTimeout = 10 * time.Second

// CatalogSummary counts the categories available to the account.
type CatalogSummary struct {
	LiveCategories   int `json:"live_categories"`
	VodCategories    int `json:"vod_categories"`
	SeriesCategories int `json:"series_categories"`
}

// ConnectResult is returned after a successful credentials check.
type ConnectResult struct {
	BaseURL    string                 `json:"base_url"`
	UserInfo   xtreamcodes.UserInfo   `json:"user_info"`
	ServerInfo xtreamcodes.ServerInfo `json:"server_info"`
	Catalog    CatalogSummary         `json:"catalog"`
}

// NormalizeBaseURL reduces any user-supplied server address to scheme://host.
// A missing scheme defaults to http, matching what most providers hand out.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("no base URL given")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q", raw)
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), nil
}

// Connect checks the credentials against player_api.php and, when they are
// valid, builds a typed client to summarize the account catalog. When the
// plain-http probe cannot reach the server the https variant is tried once.
func Connect(baseURL, username, password string) (*ConnectResult, error) {
	clean, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, utils.PrintErrorAndReturn(err)
	}

	body, used, err := probe(clean, username, password)
	if err != nil && strings.HasPrefix(clean, "http://") {
		https := "https://" + strings.TrimPrefix(clean, "http://")
		utils.WarnLog("HTTP probe failed (%v), retrying over HTTPS: %s", err, https)
		body, used, err = probe(https, username, password)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	utils.SaveRawResponse("player_api_login", body)

	if err := checkAuth(body); err != nil {
		return nil, err
	}

	client, err := xtreamcodes.NewClient(username, password, used)
	if err != nil {
		return nil, utils.PrintErrorAndReturn(err)
	}

	result := &ConnectResult{
		BaseURL:    used,
		UserInfo:   client.UserInfo,
		ServerInfo: client.ServerInfo,
	}

	// Catalog lookups are best effort; a provider with a broken category
	// endpoint should not fail the whole login.
	if cats, err := client.GetLiveCategories(); err == nil {
		result.Catalog.LiveCategories = len(cats)
	} else {
		utils.WarnLog("Fetching live categories failed: %v", err)
	}
	if cats, err := client.GetVideoOnDemandCategories(); err == nil {
		result.Catalog.VodCategories = len(cats)
	} else {
		utils.WarnLog("Fetching VOD categories failed: %v", err)
	}
	if cats, err := client.GetSeriesCategories(); err == nil {
		result.Catalog.SeriesCategories = len(cats)
	} else {
		utils.WarnLog("Fetching series categories failed: %v", err)
	}

	utils.InfoLog("Xtream connection OK for user %s at %s (live=%d vod=%d series=%d)",
		utils.MaskString(username), used,
		result.Catalog.LiveCategories, result.Catalog.VodCategories, result.Catalog.SeriesCategories)
	utils.DebugLog("Catalog summary: %s", utils.PrettyPrintJSON(result.Catalog))

	return result, nil
}

// probe performs a raw player_api.php request and returns the response body.
func probe(baseURL, username, password string) ([]byte, string, error) {
	u := fmt.Sprintf("%s/player_api.php?username=%s&password=%s",
		strings.TrimRight(baseURL, "/"), url.QueryEscape(username), url.QueryEscape(password))

	client := &http.Client{
		Timeout: probeTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, baseURL, err
	}
	req.Header.Set("User-Agent", utils.GetIPTVUserAgent())
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, baseURL, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, baseURL, fmt.Errorf("player_api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, baseURL, err
	}
	return body, baseURL, nil
}

// checkAuth inspects the raw player_api response. Providers encode the auth
// flag inconsistently (0/1, true/false, "1"), hence the lenient parsing.
func checkAuth(body []byte) error {
	if _, _, _, err := jsonparser.Get(body, "user_info"); err != nil {
		return fmt.Errorf("%w: no user_info in server response", ErrAuthFailed)
	}

	authorized := false
	if n, err := jsonparser.GetInt(body, "user_info", "auth"); err == nil {
		authorized = n != 0
	} else if b, err := jsonparser.GetBoolean(body, "user_info", "auth"); err == nil {
		authorized = b
	} else if s, err := jsonparser.GetString(body, "user_info", "auth"); err == nil {
		authorized = s == "1" || strings.EqualFold(s, "true")
	}

	if !authorized {
		msg, _ := jsonparser.GetString(body, "user_info", "message")
		if msg == "" {
			msg = "login rejected"
		}
		return fmt.Errorf("%w: %s", ErrAuthFailed, msg)
	}
	return nil
}
