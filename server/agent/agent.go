// Package agent implements the buyer agent: a single conversational agent
// that answers queries by calling tools over the seller knowledge base.
package agent

import (
	"context"
	"log/slog"
	"sync"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/tools"
)

const (
	// maxAgentRounds caps the number of tool-use iterations per request.
	maxAgentRounds = 6

	// historyWindow is the number of recent exchanges replayed into the
	// model context on each call.
	historyWindow = 10
)

// Completer abstracts the chat-completions API so tests can fake the model.
type Completer interface {
	Complete(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

type openaiCompleter struct {
	client openai.Client
}

// NewOpenAICompleter creates a Completer backed by the OpenAI API.
func NewOpenAICompleter(apiKey string) Completer {
	return &openaiCompleter{client: openai.NewClient(option.WithAPIKey(apiKey))}
}

func (c *openaiCompleter) Complete(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}

// exchange is one completed user/assistant turn kept for history replay.
type exchange struct {
	query  string
	answer string
}

// Config assembles an Agent.
type Config struct {
	Name         string
	Model        openai.ChatModel
	Instructions string
	Completer    Completer
	Tools        map[string]tools.Tool
	ToolDefs     []openai.ChatCompletionToolUnionParam
}

// Agent is the process-wide conversational buyer agent. Run serializes on
// an internal mutex: the history buffer is explicit, owned state rather
// than hidden framework state, so concurrent requests cannot interleave it.
type Agent struct {
	name         string
	model        openai.ChatModel
	instructions string
	completer    Completer
	tools        map[string]tools.Tool
	toolDefs     []openai.ChatCompletionToolUnionParam

	mu      sync.Mutex
	history []exchange
}

// New creates the agent.
func New(cfg Config) *Agent {
	model := cfg.Model
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	return &Agent{
		name:         cfg.Name,
		model:        model,
		instructions: cfg.Instructions,
		completer:    cfg.Completer,
		tools:        cfg.Tools,
		toolDefs:     cfg.ToolDefs,
	}
}

// Run answers a single text query synchronously, invoking tools as needed.
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(a.instructions),
	}
	for _, ex := range a.history {
		messages = append(messages,
			openai.UserMessage(ex.query),
			openai.AssistantMessage(ex.answer),
		)
	}
	messages = append(messages, openai.UserMessage(query))

	slog.Info("agent run", "agent", a.name, "query", query, "history", len(a.history))

	var finalAnswer string
	for round := 0; round < maxAgentRounds; round++ {
		completion, err := a.completer.Complete(ctx, openai.ChatCompletionNewParams{
			Model:    a.model,
			Messages: messages,
			Tools:    a.toolDefs,
		})
		if err != nil {
			return "", errors.Wrap(err, "chat completion")
		}
		if len(completion.Choices) == 0 {
			return "", errors.New("empty response from model")
		}
		msg := completion.Choices[0].Message

		// No tool calls means the model produced its final text answer.
		if len(msg.ToolCalls) == 0 {
			finalAnswer = msg.Content
			break
		}

		messages = append(messages, msg.ToParam())

		// Some models repeat a tool_call_id within one response; run each once.
		seen := make(map[string]bool)
		for _, tc := range msg.ToolCalls {
			if seen[tc.ID] {
				continue
			}
			seen[tc.ID] = true

			slog.Info("agent tool call", "tool", tc.Function.Name, "input", tc.Function.Arguments)
			result := a.callTool(ctx, tc.Function.Name, tc.Function.Arguments)
			messages = append(messages, openai.ToolMessage(result, tc.ID))
		}
	}

	if finalAnswer == "" {
		return "", errors.Errorf("no answer after %d tool rounds", maxAgentRounds)
	}

	a.history = append(a.history, exchange{query: query, answer: finalAnswer})
	if len(a.history) > historyWindow {
		a.history = a.history[len(a.history)-historyWindow:]
	}
	return finalAnswer, nil
}

func (a *Agent) callTool(ctx context.Context, name, input string) string {
	t, ok := a.tools[name]
	if !ok {
		return "Unknown tool: " + name
	}
	result, err := t.Call(ctx, input)
	if err != nil {
		return "Error: " + err.Error()
	}
	return result
}
