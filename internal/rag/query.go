// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LightRAG Contributors

package rag

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Venkatesh-108/LightRAG-SRM/internal/provider"
	"github.com/Venkatesh-108/LightRAG-SRM/internal/store"
)

const (
	NoDocumentsMessage = "No documents have been indexed yet. Please upload some PDF documents first."
	NoRelevantMessage  = "No relevant documents found for your query."

	systemPrompt = "You are a helpful assistant that answers questions using only the provided context. " +
		"If the context does not contain the answer, say that the documents do not cover it. " +
		"Do not invent facts that are not in the context."

	// DocumentsRoute is where uploaded PDFs are served; citations link here.
	DocumentsRoute = "/documents/"
)

// QueryRequest is a question, optionally restricted to one source file.
type QueryRequest struct {
	Text     string
	Filename string
	TopK     int
}

// Telemetry is the timing recorded for one answered query.
type Telemetry struct {
	Model           string
	Retrieval       time.Duration
	FirstToken      time.Duration
	Generation      time.Duration
	Chars           int
	TokensPerSecond float64
}

func (t Telemetry) String() string {
	return fmt.Sprintf("*Model: %s | TTFT: %.2fs | ~%.1f tokens/s | Retrieval: %.2fs | Generation: %.2fs*",
		t.Model, t.FirstToken.Seconds(), t.TokensPerSecond, t.Retrieval.Seconds(), t.Generation.Seconds())
}

// Query answers req as a stream of text fragments: the model's answer,
// then one source citation and a telemetry line. Retrieval and generation
// failures are reported as fragments. The channel is always closed, and
// cancelling ctx stops the stream early.
func (p *Pipeline) Query(ctx context.Context, req QueryRequest) <-chan string {
	out := make(chan string, 16)
	go func() {
		defer close(out)
		p.runQuery(ctx, req, out)
	}()
	return out
}

func (p *Pipeline) runQuery(ctx context.Context, req QueryRequest, out chan<- string) {
	emit := func(s string) bool {
		select {
		case out <- s:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if p.Len() == 0 {
		emit(NoDocumentsMessage)
		return
	}

	tel := Telemetry{Model: modelName(p.opts.Provider)}

	start := time.Now()
	chunks, err := p.Retrieve(ctx, req.Text, req.TopK, req.Filename)
	tel.Retrieval = time.Since(start)
	if err != nil {
		slog.Error("retrieval failed", "provider", p.opts.Provider.Name(), "error", err)
		emit(fmt.Sprintf("Error retrieving documents: %v", err))
		return
	}
	if len(chunks) == 0 {
		emit(NoRelevantMessage)
		return
	}

	chatReq := provider.ChatRequest{
		SystemPrompt: systemPrompt,
		Messages: []provider.Message{{
			Role:    provider.MessageRoleUser,
			Content: buildPrompt(AssembleContext(chunks), req.Text),
		}},
	}

	genStart := time.Now()
	events, err := p.opts.Provider.Chat(ctx, chatReq)
	if err != nil {
		emit(p.generationError(err.Error()))
		return
	}

	for ev := range events {
		switch ev.Type {
		case provider.EventTypeTextDelta:
			if ev.Text == "" {
				continue
			}
			if tel.Chars == 0 {
				tel.FirstToken = time.Since(genStart)
			}
			tel.Chars += utf8.RuneCountInString(ev.Text)
			if !emit(ev.Text) {
				drain(events)
				return
			}
		case provider.EventTypeError:
			emit(p.generationError(ev.Error))
			drain(events)
			return
		}
	}
	if ctx.Err() != nil {
		return
	}
	tel.Generation = time.Since(genStart)
	if secs := tel.Generation.Seconds(); secs > 0 {
		tel.TokensPerSecond = float64(tel.Chars) / 4 / secs
	}

	if !emit("\n\n" + Citation(chunks[0])) {
		return
	}
	emit("\n\n---\n" + tel.String())

	slog.Info("answered query",
		"provider", p.opts.Provider.Name(), "chunks", len(chunks),
		"retrieval", tel.Retrieval, "ttft", tel.FirstToken, "generation", tel.Generation)
}

func (p *Pipeline) generationError(msg string) string {
	slog.Error("generation failed", "provider", p.opts.Provider.Name(), "error", msg)
	return fmt.Sprintf("Error generating response with %s: %s", p.opts.Provider.Name(), msg)
}

// drain consumes the rest of a stream so its producer can exit.
func drain(events <-chan provider.ChatEvent) {
	go func() {
		for range events {
		}
	}()
}

// AssembleContext renders one representative chunk per source file, the
// lowest chunk index of that file, in the order files first appear.
func AssembleContext(chunks []store.Chunk) string {
	var order []string
	best := make(map[string]store.Chunk)
	for _, c := range chunks {
		cur, ok := best[c.Filename]
		if !ok {
			order = append(order, c.Filename)
			best[c.Filename] = c
			continue
		}
		if c.ChunkIndex < cur.ChunkIndex {
			best[c.Filename] = c
		}
	}

	parts := make([]string, 0, len(order))
	for _, name := range order {
		c := best[name]
		parts = append(parts, fmt.Sprintf("From %s (Page %d):\n%s", name, c.Page+1, c.Content))
	}
	return strings.Join(parts, "\n\n")
}

func buildPrompt(context, question string) string {
	return "Based on the following context, please answer the question.\n\n" +
		"Context:\n" + context + "\n\n" +
		"Question: " + question + "\n\n" +
		"Answer:"
}

// Citation is the markdown source line for c.
func Citation(c store.Chunk) string {
	return fmt.Sprintf("**Source:** [%s](%s%s) (Page %d)", c.Filename, DocumentsRoute, url.PathEscape(c.Filename), c.Page+1)
}

func modelName(p provider.Provider) string {
	if m, ok := p.(interface{ Model() string }); ok && m.Model() != "" {
		return p.Name() + "/" + m.Model()
	}
	return p.Name()
}
