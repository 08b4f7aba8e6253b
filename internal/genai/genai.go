// Package genai provides the AI responder for free-form questions, backed
// by the OpenAI API.
//
// The responder composes a single prompt embedding the fixed store
// knowledge, a bounded window of recent conversation history, and the
// current question. Failures are returned to the caller, which degrades to
// a fixed apology text; they never abort a conversation turn.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ErickFennec01/chatbot-spiritosanto/internal/content"
	"github.com/ErickFennec01/chatbot-spiritosanto/internal/models"
)

// DefaultTimeout bounds a single completion call so one slow request
// cannot stall a conversation turn.
const DefaultTimeout = 30 * time.Second

// completionService defines the minimal interface for chat completions.
type completionService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey  string
	Model   openai.ChatModel
	Timeout time.Duration
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithModel sets the completion model.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) {
		o.Model = model
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) {
		o.Timeout = d
	}
}

// Client wraps the OpenAI chat completion service for answering store
// questions.
type Client struct {
	chat    completionService
	model   openai.ChatModel
	timeout time.Duration
}

// NewClient initializes a new GenAI client. The API key comes from options
// or the OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{
		Model:   openai.ChatModelGPT4oMini,
		Timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}

	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("GenAI client created", "model", cfg.Model, "timeout", cfg.Timeout)
	return &Client{chat: &cli.Chat.Completions, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// RespondToQuestion answers a free-form question grounded in the store
// knowledge and the provided history window (chronological, oldest first).
func (c *Client) RespondToQuestion(ctx context.Context, question string, history []models.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := BuildPrompt(question, history)
	slog.Debug("GenAI RespondToQuestion invoked", "question_length", len(question), "history_count", len(history))

	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	})
	if err != nil {
		slog.Error("GenAI completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("GenAI completion returned no choices")
		return "", fmt.Errorf("no choices returned")
	}
	answer := resp.Choices[0].Message.Content
	slog.Debug("GenAI RespondToQuestion succeeded", "answer_length", len(answer))
	return answer, nil
}

// FormatHistory renders transcript entries as alternating sender/message
// lines in chronological order.
func FormatHistory(history []models.Message) string {
	var b strings.Builder
	for _, m := range history {
		fmt.Fprintf(&b, "**%s:** %s\n", m.Sender, m.Body)
	}
	return b.String()
}

// BuildPrompt composes the single prompt string embedding the store
// knowledge, the formatted history window, and the current question.
func BuildPrompt(question string, history []models.Message) string {
	return fmt.Sprintf(`Você é um assistente virtual da Spirito Santo. Use as seguintes informações para responder a perguntas:
%s

**Histórico da Conversa:**
%s

**Pergunta Atual:**
%s

Responda em Português do Brasil de forma útil e amigável.`,
		content.StoreInfo, FormatHistory(history), question)
}
