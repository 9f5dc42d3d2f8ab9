package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/LeeDohoun/HQA-Project/internal/config"
)

// Mode selects which model answers: instruct is the fast model used for
// summarization and extraction, thinking is the deep-reasoning model used
// for the final decision narrative.
type Mode string

const (
	ModeInstruct Mode = "instruct"
	ModeThinking Mode = "thinking"
)

// Client is the language-model capability consumed by the agents.
type Client interface {
	Generate(ctx context.Context, prompt string, mode Mode) (string, error)
}

type client struct {
	instruct model.BaseChatModel
	thinking model.BaseChatModel
}

// New builds the two chat models from configuration. A missing API key is
// the fatal configuration class: nothing downstream can run without it.
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	maxTokens := 4096

	instruct, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   cfg.LLMBaseURL,
		APIKey:    cfg.LLMAPIKey,
		Model:     cfg.InstructModel,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create instruct model: %w", err)
	}

	var thinking model.BaseChatModel
	if cfg.LLMProvider == "deepseek" {
		thinking, err = deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.LLMAPIKey,
			Model:     cfg.ThinkingModel,
			MaxTokens: maxTokens,
		})
	} else {
		thinking, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.LLMBaseURL,
			APIKey:    cfg.LLMAPIKey,
			Model:     cfg.ThinkingModel,
			MaxTokens: &maxTokens,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("create thinking model: %w", err)
	}

	return &client{instruct: instruct, thinking: thinking}, nil
}

func (c *client) Generate(ctx context.Context, prompt string, mode Mode) (string, error) {
	m := c.instruct
	if mode == ModeThinking {
		m = c.thinking
	}
	out, err := m.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("llm generate (%s): %w", mode, err)
	}
	return out.Content, nil
}
