// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

// defaultHTTPClient is used by commands that talk to a running server or
// a provider endpoint.
var defaultHTTPClient = &http.Client{
	Timeout: 5 * time.Second,
}

// serverClient provides HTTP access to a running LightRAG server.
type serverClient struct {
	baseURL string
	http    *http.Client
}

func newServerClient(addr string) *serverClient {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &serverClient{baseURL: strings.TrimRight(base, "/"), http: defaultHTTPClient}
}

// getJSON performs a GET request and decodes the JSON response into dest.
func (c *serverClient) getJSON(path string, dest any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		if isDialError(err) {
			return ragerr.Wrapf(err, ragerr.CodeCLIRequestFailure, "server at %s is not running", c.baseURL)
		}
		return ragerr.Wrapf(err, ragerr.CodeCLIRequestFailure, "requesting %s", path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ragerr.Errorf(ragerr.CodeCLIRequestFailure, "server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeCLIRequestFailure, "invalid response from %s", path)
	}
	return nil
}

// isDialError reports whether err is a net dial error (connection refused, etc.).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
