// Package agent runs the tool-calling conversation loop between the
// user, the LLM and the tool registry.
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/prasann/table-talks/pkg/llm"
	"github.com/prasann/table-talks/pkg/prompts"
	"github.com/prasann/table-talks/pkg/repositories"
	"github.com/prasann/table-talks/pkg/retry"
	"github.com/prasann/table-talks/pkg/tools"
)

// Agent holds one chat session: the conversation history plus the
// wiring needed to answer a question with tool rounds.
type Agent struct {
	chat      llm.ChatClient
	registry  *tools.Registry
	repo      repositories.MetadataRepository
	maxRounds int
	logger    *zap.Logger

	sessionID string
	history   []openai.ChatCompletionMessage
}

// New creates a chat agent. maxRounds bounds how many tool-call rounds
// a single question may take before the loop gives up.
func New(chat llm.ChatClient, registry *tools.Registry, repo repositories.MetadataRepository, maxRounds int, logger *zap.Logger) *Agent {
	if maxRounds <= 0 {
		maxRounds = 5
	}
	return &Agent{
		chat:      chat,
		registry:  registry,
		repo:      repo,
		maxRounds: maxRounds,
		logger:    logger.Named("agent"),
		sessionID: uuid.New().String(),
	}
}

// SessionID identifies this conversation in logs.
func (a *Agent) SessionID() string {
	return a.sessionID
}

// HistoryLength reports how many messages the session has accumulated.
func (a *Agent) HistoryLength() int {
	return len(a.history)
}

// Reset drops the conversation history. The next question starts fresh.
func (a *Agent) Reset() {
	a.history = nil
}

// Ask answers one user question, running tool rounds until the model
// produces a final text answer. The system prompt is rebuilt per
// question so a /scan mid-session is visible immediately.
func (a *Agent) Ask(ctx context.Context, question string) (string, error) {
	files, err := a.repo.ListFiles(ctx)
	if err != nil {
		return "", fmt.Errorf("load file inventory: %w", err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(a.history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: prompts.BuildChatSystemPrompt(files),
	})
	messages = append(messages, a.history...)
	userMsg := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	}
	messages = append(messages, userMsg)

	manifest := a.registry.Describe()

	for round := 0; round < a.maxRounds; round++ {
		a.logger.Debug("Chat round",
			zap.String("session_id", a.sessionID),
			zap.Int("round", round),
			zap.Int("message_count", len(messages)))

		resp, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*openai.ChatCompletionMessage, error) {
			return a.chat.ChatWithTools(ctx, messages, manifest)
		})
		if err != nil {
			return "", err
		}

		if len(resp.ToolCalls) == 0 {
			a.history = append(a.history, userMsg, *resp)
			return resp.Content, nil
		}

		messages = append(messages, *resp)
		for _, tc := range resp.ToolCalls {
			messages = append(messages, a.runToolCall(ctx, tc))
		}
	}

	return "", fmt.Errorf("exceeded maximum tool rounds (%d)", a.maxRounds)
}

// runToolCall dispatches one tool call and wraps the outcome as a tool
// message. Dispatch and validation errors are relayed to the model as
// text so it can correct itself on the next round.
func (a *Agent) runToolCall(ctx context.Context, tc openai.ToolCall) openai.ChatCompletionMessage {
	a.logger.Info("Executing tool call",
		zap.String("session_id", a.sessionID),
		zap.String("tool", tc.Function.Name),
		zap.String("arguments", tc.Function.Arguments))

	result, err := a.registry.ExecuteJSON(ctx, tc.Function.Name, tc.Function.Arguments)
	if err != nil {
		result = err.Error()
	}

	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    result,
		ToolCallID: tc.ID,
	}
}
