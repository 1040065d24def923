package assistant

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Generator is the model call the agent depends on; *genai.Models satisfies it
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures an Agent
type Config struct {
	Model    string
	MaxTurns int
	Logger   *zap.Logger
}

// Agent is a conversational assistant that answers from a user's mood journal.
// It keeps the conversation history between Ask calls.
type Agent struct {
	gen      Generator
	tool     *EntriesTool
	model    string
	maxTurns int
	log      *zap.Logger
	history  []*genai.Content
}

// NewGeminiClient creates a Gemini API client
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

// New creates an Agent
func New(gen Generator, tool *EntriesTool, cfg Config) *Agent {
	a := &Agent{
		gen:      gen,
		tool:     tool,
		model:    cfg.Model,
		maxTurns: cfg.MaxTurns,
		log:      cfg.Logger,
	}
	if a.model == "" {
		a.model = "gemini-2.0-flash"
	}
	if a.maxTurns < 1 {
		a.maxTurns = 5
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	return a
}

// Ask sends message to the model, runs any tool calls it makes, and returns
// the model's final text. On error the conversation is left as it was
// before the call.
func (a *Agent) Ask(ctx context.Context, message string) (answer string, err error) {
	n := len(a.history)
	defer func() {
		if err != nil {
			a.history = a.history[:n]
		}
	}()

	a.history = append(a.history, genai.NewContentFromText(message, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		Tools: []*genai.Tool{
			{FunctionDeclarations: []*genai.FunctionDeclaration{a.tool.Declaration()}},
		},
	}

	for turn := 0; turn < a.maxTurns; turn++ {
		resp, err := a.gen.GenerateContent(ctx, a.model, a.history, config)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", fmt.Errorf("empty model response")
		}
		a.history = append(a.history, resp.Candidates[0].Content)

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			return resp.Text(), nil
		}

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			out, err := a.runTool(ctx, call)
			if err != nil {
				return "", err
			}
			part := genai.NewPartFromFunctionResponse(call.Name, out)
			part.FunctionResponse.ID = call.ID
			parts = append(parts, part)
		}
		a.history = append(a.history, genai.NewContentFromParts(parts, genai.RoleUser))
	}

	return "", fmt.Errorf("no answer after %d turns", a.maxTurns)
}

// Reset clears the conversation
func (a *Agent) Reset() {
	a.history = nil
}

func (a *Agent) runTool(ctx context.Context, call *genai.FunctionCall) (map[string]any, error) {
	if call.Name != ToolName {
		a.log.Warn("model called unknown tool", zap.String("tool", call.Name))
		return map[string]any{
			"status":        "error",
			"error_message": fmt.Sprintf("unknown tool %q", call.Name),
		}, nil
	}

	a.log.Debug("tool call", zap.String("tool", call.Name), zap.Any("args", call.Args))
	out, err := a.tool.Call(ctx, call.Args)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", call.Name, err)
	}
	return out, nil
}
