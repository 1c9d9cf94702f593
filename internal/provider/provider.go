// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

// Package provider defines the streaming generation interface that answers
// queries, the protocol kinds of named providers and their endpoint checks.
package provider

import (
	"context"
	"strings"
)

// Provider is a language model that streams chat completions.
type Provider interface {
	Name() string
	Available(ctx context.Context) bool
	// Chat starts a completion. The returned channel always ends with a
	// done or error event and is then closed.
	Chat(ctx context.Context, req ChatRequest) (<-chan ChatEvent, error)
	Status(ctx context.Context) (ProviderStatus, error)
	Close() error
}

// ChatRequest is a single completion request.
type ChatRequest struct {
	// Model overrides the provider's configured model when set.
	Model        string
	Messages     []Message
	SystemPrompt string
	Options      ChatOptions
}

type ChatOptions struct {
	Temperature   *float32
	MaxTokens     int
	StopSequences []string
}

type Message struct {
	Role    MessageRole
	Content string
}

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// ChatEvent is one streamed completion event.
type ChatEvent struct {
	Type  EventType
	Text  string
	Usage *Usage
	Error string
}

type EventType string

const (
	EventTypeTextDelta EventType = "text_delta"
	EventTypeUsage     EventType = "usage"
	EventTypeDone      EventType = "done"
	EventTypeError     EventType = "error"
)

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ProviderStatus indicates provider health.
type ProviderStatus struct {
	Available bool   `json:"available"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Message   string `json:"message"`
}

// Kind is the wire protocol a named provider speaks.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
	KindGoogle    Kind = "google"
)

// Well-known OpenAI-compatible endpoints.
const (
	OllamaEndpoint     = "http://localhost:11434/v1"
	OpenRouterEndpoint = "https://openrouter.ai/api/v1"
)

// KindOf maps a configured provider name to its protocol. Anything that is
// not Anthropic or Google is treated as OpenAI-compatible.
func KindOf(name string) Kind {
	switch strings.ToLower(name) {
	case "anthropic", "claude":
		return KindAnthropic
	case "google", "gemini":
		return KindGoogle
	default:
		return KindOpenAI
	}
}

// DefaultEndpoint returns the base URL used for name when none is
// configured, or "" for the SDK default.
func DefaultEndpoint(name string) string {
	switch strings.ToLower(name) {
	case "ollama":
		return OllamaEndpoint
	case "openrouter":
		return OpenRouterEndpoint
	default:
		return ""
	}
}
