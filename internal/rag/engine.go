// Package rag answers questions about the thesis by retrieving relevant
// chunks from the embedding index and asking the generation provider to
// compose a grounded answer, then resolving its citations.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"thesis-rag/internal/citation"
	"thesis-rag/internal/index"
)

const (
	// DefaultRelevanceGate is the minimum normalized relevance the top
	// retrieval hit must reach before generation is attempted. It is
	// cosine-similarity-derived, not a probability.
	DefaultRelevanceGate = 0.5

	// NoContextAnswer is returned without any generation call when
	// retrieval produces nothing above the relevance gate.
	NoContextAnswer = "Unable to find relevant context in the thesis"

	// contextSeparator joins retrieved chunk texts into the context
	// window.
	contextSeparator = "\n---\n"
)

// answerInstructions is the fixed instruction template sent on the system
// channel. The retrieved context is substituted in; the question travels
// separately as user content.
const answerInstructions = `You are answering a question based strictly on the provided CONTEXT, which comes from a master's thesis.
The CONTEXT may contain chapter or section headers; these headers are metadata only and must NOT be mentioned, paraphrased, or used as sources in your answer.

When citing, always use the original citation tags from the context (don't change their form).
Do NOT cite chapter titles, section names, or headers.
Use all citation tags that are relevant to your answer.
Do NOT invent new citation keys.
If the question is not related to the CONTEXT, do NOT attempt to answer it; instead, clearly say:
'This question is not related to the provided thesis context.'

CONTEXT:

%s`

// Retriever is the search side of the embedding index.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]index.Result, error)
}

// Generator is the external text-generation provider. Instructions and
// input are distinct channels (system instruction vs user content).
type Generator interface {
	Generate(ctx context.Context, instructions, input string) (string, error)
}

// Answer is the result of one question: the citation-rewritten answer
// text, the formatted references evidenced in it, and the context that
// was fed to generation (both joined and per-chunk, the latter for the
// external evaluation harness).
type Answer struct {
	Text          string
	References    []string
	Context       string
	ContextChunks []string
}

// Engine runs the retrieve, gate, assemble, generate, resolve pipeline.
// Stages are strictly sequential with no retries; a provider failure
// propagates to the caller.
type Engine struct {
	retriever Retriever
	generator Generator
	resolver  *citation.Resolver
	topK      int
	gate      float64
	logger    *slog.Logger
}

// NewEngine creates an engine with the given retrieval depth and
// relevance gate.
func NewEngine(retriever Retriever, generator Generator, resolver *citation.Resolver, topK int, gate float64) *Engine {
	return &Engine{
		retriever: retriever,
		generator: generator,
		resolver:  resolver,
		topK:      topK,
		gate:      gate,
		logger:    slog.Default(),
	}
}

// Ask answers a question end-to-end.
func (e *Engine) Ask(ctx context.Context, question string) (Answer, error) {
	logger := e.logger
	logger.InfoContext(ctx, "query started", "question", question, "k", e.topK)

	results, err := e.retriever.Search(ctx, question, e.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieval failed: %w", err)
	}

	if len(results) == 0 || results[0].Relevance < e.gate {
		top := 0.0
		if len(results) > 0 {
			top = results[0].Relevance
		}
		logger.InfoContext(ctx, "no relevant context", "top_relevance", top, "gate", e.gate)
		return Answer{
			Text:       NoContextAnswer,
			References: []string{},
		}, nil
	}

	chunkTexts := make([]string, len(results))
	for i, r := range results {
		chunkTexts[i] = r.Chunk.Text
	}
	contextText := strings.Join(chunkTexts, contextSeparator)

	logger.DebugContext(ctx, "context assembled",
		"chunks", len(chunkTexts),
		"context_length", len(contextText),
		"top_relevance", results[0].Relevance,
	)

	raw, err := e.generator.Generate(ctx, fmt.Sprintf(answerInstructions, contextText), question)
	if err != nil {
		return Answer{}, fmt.Errorf("generation failed: %w", err)
	}

	answer := e.resolver.Rewrite(raw)
	references := e.resolver.UsedSources(answer)

	logger.InfoContext(ctx, "query completed",
		"answer_length", len(answer),
		"references", len(references),
	)

	return Answer{
		Text:          answer,
		References:    references,
		Context:       contextText,
		ContextChunks: chunkTexts,
	}, nil
}
