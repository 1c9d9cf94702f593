// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package provider

import (
	"context"
	"io"
	"net/http"
	"strings"

	ragerr "github.com/Venkatesh-108/LightRAG-SRM/pkg/errors"
)

var defaultModelsURL = map[Kind]string{
	KindAnthropic: "https://api.anthropic.com/v1/models",
	KindOpenAI:    "https://api.openai.com/v1/models",
	KindGoogle:    "https://generativelanguage.googleapis.com/v1/models",
}

// CheckEndpoint makes a lightweight call to the models listing of a
// provider to confirm it is reachable and the key is accepted. endpoint
// overrides the public API base URL (for example an Ollama server).
func CheckEndpoint(ctx context.Context, client *http.Client, kind Kind, endpoint, key string) error {
	url, ok := defaultModelsURL[kind]
	if !ok {
		return ragerr.Errorf(ragerr.CodeProviderKeyInvalid, "unknown provider kind: %s", kind)
	}
	if endpoint != "" {
		url = strings.TrimRight(endpoint, "/") + "/models"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeProviderKeyCheckFailed, "building check request for %s", kind)
	}
	switch kind {
	case KindAnthropic:
		req.Header.Set("x-api-key", key)
		req.Header.Set("anthropic-version", "2023-06-01")
	case KindOpenAI:
		if key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
	case KindGoogle:
		// The Generative Language API takes its key as a header or query
		// parameter; the header keeps it out of access logs.
		req.Header.Set("x-goog-api-key", key)
	}

	resp, err := client.Do(req)
	if err != nil {
		return ragerr.Wrapf(err, ragerr.CodeProviderKeyCheckFailed, "checking %s endpoint", kind)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ragerr.Errorf(ragerr.CodeProviderKeyInvalid, "invalid %s API key (HTTP %d)", kind, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return ragerr.Errorf(ragerr.CodeProviderKeyCheckFailed, "%s check failed (HTTP %d)", kind, resp.StatusCode)
	}
	return nil
}

// Collect drains a chat stream into a single string. An error event ends
// collection with a provider.upstream.failure error.
func Collect(ctx context.Context, events <-chan ChatEvent) (string, *Usage, error) {
	var (
		b     strings.Builder
		usage *Usage
	)
	for {
		select {
		case <-ctx.Done():
			return b.String(), usage, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return b.String(), usage, ctx.Err()
			}
			switch ev.Type {
			case EventTypeTextDelta:
				b.WriteString(ev.Text)
			case EventTypeUsage:
				usage = ev.Usage
			case EventTypeError:
				return b.String(), usage, ragerr.New(ragerr.CodeProviderUpstreamFailure, ev.Error)
			case EventTypeDone:
				return b.String(), usage, nil
			}
		}
	}
}
