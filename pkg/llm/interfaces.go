// Package llm provides OpenAI-compatible LLM client functionality.
package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// ChatClient defines the interface for tool-calling chat completions.
// Use this interface for dependency injection to enable mocking in tests.
type ChatClient interface {
	// ChatWithTools sends the conversation so far plus the available
	// tool manifest and returns the assistant's next message, which may
	// contain tool calls instead of (or alongside) text content.
	ChatWithTools(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (*openai.ChatCompletionMessage, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// EmbeddingClient defines the interface for embedding generation.
type EmbeddingClient interface {
	// CreateEmbedding generates an embedding vector for the input text.
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)

	// CreateEmbeddings generates embeddings for multiple inputs.
	CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error)
}

// Ensure Client implements both interfaces at compile time.
var (
	_ ChatClient      = (*Client)(nil)
	_ EmbeddingClient = (*Client)(nil)
)
