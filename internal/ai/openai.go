package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Summarizer drafts the change summary of a wiki revision.
type Summarizer interface {
	// SummarizeRevision returns a one-line summary of the revision in the configured language.
	SummarizeRevision(ctx context.Context, title, document string) (string, error)
}

// OpenAIClient implements Summarizer using OpenAI Chat Completions API.
type OpenAIClient struct {
	client   *openai.Client
	model    string
	language string
}

type Config struct {
	APIKey   string
	Model    string
	BaseURL  string // optional
	Language string // optional, English by default
}

// maxDocumentRunes keeps prompts small; summaries only need the opening.
const maxDocumentRunes = 4000

func NewOpenAI(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is not configured")
	}
	if cfg.Model == "" {
		return nil, errors.New("openai model must be specified")
	}
	var c *openai.Client
	if cfg.BaseURL != "" {
		cc := openai.DefaultConfig(cfg.APIKey)
		cc.BaseURL = cfg.BaseURL
		c = openai.NewClientWithConfig(cc)
	} else {
		c = openai.NewClient(cfg.APIKey)
	}
	return &OpenAIClient{client: c, model: cfg.Model, language: cfg.Language}, nil
}

func (o *OpenAIClient) SummarizeRevision(ctx context.Context, title, document string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	document = strings.TrimSpace(document)
	if document == "" {
		return "", nil
	}
	if len([]rune(document)) > maxDocumentRunes {
		document = string([]rune(document)[:maxDocumentRunes])
	}

	sys := fmt.Sprintf(`
		You write change summaries for a community wiki, in %s.
		Return a single sentence of at most 20 words describing what the revision covers.
		Plain text only, no quotes, no links.
		`, langOrDefault(o.language))
	user := fmt.Sprintf("Title: %s\nDocument:\n%s", title, document)
	out, err := o.create(ctx, sys, user)
	if err != nil {
		slog.Error("openai: summarize revision error", "err", err)
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (o *OpenAIClient) create(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func langOrDefault(lang string) string {
	l := strings.TrimSpace(lang)
	if l == "" {
		return "English"
	}
	return l
}
