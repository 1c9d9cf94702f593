// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package providertest provides a scripted provider for tests.
package providertest

import (
	"context"
	"sync"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/provider"
	"github.com/Venkatesh-108/LightRAG-SRM/pkg/health"
)

// Fake streams Chunks as text deltas, or fails with Err (as an error event)
// or StartErr (from Chat itself). Requests are recorded.
type Fake struct {
	ProviderName string
	Chunks       []string
	Err          string
	StartErr     error
	// Block, when set, delays each chunk until a value is received.
	Block chan struct{}

	mu       sync.Mutex
	requests []provider.ChatRequest
	closed   bool
}

var (
	_ provider.Provider       = (*Fake)(nil)
	_ provider.HealthReporter = (*Fake)(nil)
)

func (f *Fake) Name() string {
	if f.ProviderName == "" {
		return "fake"
	}
	return f.ProviderName
}

func (f *Fake) Available(context.Context) bool { return true }

func (f *Fake) Chat(ctx context.Context, req provider.ChatRequest) (<-chan provider.ChatEvent, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.StartErr != nil {
		return nil, f.StartErr
	}

	ch := make(chan provider.ChatEvent)
	go func() {
		defer close(ch)
		for _, c := range f.Chunks {
			if f.Block != nil {
				select {
				case <-f.Block:
				case <-ctx.Done():
					return
				}
			}
			select {
			case ch <- provider.ChatEvent{Type: provider.EventTypeTextDelta, Text: c}:
			case <-ctx.Done():
				return
			}
		}
		ev := provider.ChatEvent{Type: provider.EventTypeDone}
		if f.Err != "" {
			ev = provider.ChatEvent{Type: provider.EventTypeError, Error: f.Err}
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}()
	return ch, nil
}

func (f *Fake) Status(context.Context) (provider.ProviderStatus, error) {
	return provider.ProviderStatus{Available: true, Provider: f.Name(), Model: "fake-model", Message: "ok"}, nil
}

// Metrics reports a healthy provider with one failure per error event
// configured.
func (f *Fake) Metrics() health.Metrics {
	m := health.Metrics{Available: true}
	if f.Err != "" || f.StartErr != nil {
		m.FailureCount = 1
	}
	return m
}

func (f *Fake) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Requests returns the recorded chat requests.
func (f *Fake) Requests() []provider.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.ChatRequest(nil), f.requests...)
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
