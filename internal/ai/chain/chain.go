// Package chain wraps text-generation and embedding providers behind small
// interfaces so the rest of the service never talks to a vendor SDK directly.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaiembed "github.com/cloudwego/eino-ext/components/embedding/openai"
	einoaclopenai "github.com/cloudwego/eino-ext/libs/acl/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	baseai "github.com/bpispark/sparkdesk/internal/ai"
)

// ChatChain defines minimal chat generation ability.
type ChatChain interface {
	Chat(ctx context.Context, messages []ChatMessage, maxTokens int) (ChatMessage, error)
	Provider() string
}

// EmbeddingChain defines minimal embedding ability.
type EmbeddingChain interface {
	Embed(ctx context.Context, texts []string, dim int) ([][]float64, error)
	Provider() string
}

// ChatMessage is the transport-neutral message shape used across the service.
type ChatMessage struct {
	Role    string
	Content string
}

// Provider names
const (
	ProviderMock     = "mock"
	ProviderOpenAI   = "openai"
	ProviderDisabled = "disabled"
)

// ErrNotConfigured is returned by a chain whose credentials were missing at
// construction. Calls short-circuit without any network I/O.
var ErrNotConfigured = errors.New("chain: provider not configured")

// NewChatChain builds a ChatChain from the environment.
func NewChatChain(provider string) ChatChain {
	cfg := LoadAIConfigFromEnv()
	if provider != "" {
		cfg.Provider = provider
	}
	return NewChatChainFromConfig(cfg)
}

// NewChatChainFromConfig creates a ChatChain using an explicit AIConfig
// (env-free for tests). An openai selection without a key yields a disabled
// chain rather than one that would fail mid-conversation: the caller maps
// ErrNotConfigured onto its uniform error path.
func NewChatChainFromConfig(cfg AIConfig) ChatChain {
	if strings.ToLower(cfg.Provider) == ProviderOpenAI {
		cc, err := newEinoChatFromConfig(cfg.OpenAIKey, cfg.OpenAIChatModel, cfg.OpenAIBaseURL)
		if err != nil {
			return disabledChat{reason: err}
		}
		return cc
	}
	return newMockChat()
}

// NewEmbeddingChain builds an EmbeddingChain from the environment.
func NewEmbeddingChain(provider string) EmbeddingChain {
	cfg := LoadAIConfigFromEnv()
	if provider != "" {
		cfg.Provider = provider
	}
	return NewEmbeddingChainFromConfig(cfg)
}

// NewEmbeddingChainFromConfig creates an EmbeddingChain; falls back to the
// deterministic mock when the real provider cannot be constructed, since
// embeddings are a best-effort utility here.
func NewEmbeddingChainFromConfig(cfg AIConfig) EmbeddingChain {
	if strings.ToLower(cfg.Provider) == ProviderOpenAI {
		if ec, err := newEinoEmbeddingFromConfig(cfg.OpenAIKey, cfg.OpenAIEmbedModel, cfg.OpenAIBaseURL); err == nil {
			return ec
		}
	}
	return newMockEmbedding()
}

// --- Disabled chat (missing credentials) ---

type disabledChat struct{ reason error }

func (d disabledChat) Chat(ctx context.Context, messages []ChatMessage, maxTokens int) (ChatMessage, error) {
	return ChatMessage{}, fmt.Errorf("%w: %v", ErrNotConfigured, d.reason)
}

func (d disabledChat) Provider() string { return ProviderDisabled }

// --- Mock implementations (deterministic, no network) ---

type mockEmbedding struct{}

func newMockEmbedding() *mockEmbedding { return &mockEmbedding{} }

func (m *mockEmbedding) Embed(ctx context.Context, texts []string, dim int) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts")
	}
	return baseai.MockEmbeddings(texts, dim), nil
}

func (m *mockEmbedding) Provider() string { return ProviderMock }

// mockChat speaks the assistant's strict JSON contract so the full pipeline
// (assemble, complete, parse) can run without a real model: a prompt whose
// context section carries the no-documents marker yields a ticket offer,
// anything else a grounded answer.
type mockChat struct{}

func newMockChat() *mockChat { return &mockChat{} }

// NoContextMarker mirrors the assembler's empty-context sentinel. The mock
// keys off it to decide between answering and offering a ticket.
const NoContextMarker = "No relevant documents were found in the knowledge base."

func (m *mockChat) Chat(ctx context.Context, messages []ChatMessage, maxTokens int) (ChatMessage, error) {
	if len(messages) == 0 {
		return ChatMessage{Role: "assistant", Content: `{"responseText":"How can I help?","action":"ANSWER"}`}, nil
	}
	prompt := messages[len(messages)-1].Content
	if strings.Contains(prompt, NoContextMarker) {
		return ChatMessage{Role: "assistant", Content: `{"responseText":"I couldn't find anything on that in the knowledge base. Would you like me to file a support ticket?","action":"OFFER_TICKET","ticketData":{"category":"Other","urgency":"Medium","subject":"Support request","description":"User request could not be answered from the knowledge base."}}`}, nil
	}
	return ChatMessage{Role: "assistant", Content: `{"responseText":"Based on the knowledge base: please follow the steps in the referenced article.","action":"ANSWER"}`}, nil
}

func (m *mockChat) Provider() string { return ProviderMock }

// --- Eino OpenAI adapters ---

type einoEmbedding struct {
	apiKey   string
	model    string
	baseURL  string
	embedder *openaiembed.Embedder
	curDim   int // dimension configured in the current embedder (0 means provider default)
}

func newEinoEmbeddingFromConfig(key, modelName, base string) (EmbeddingChain, error) {
	if key == "" {
		return nil, ErrNotConfigured
	}
	if modelName == "" {
		modelName = "text-embedding-3-small"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	emb, err := openaiembed.NewEmbedder(ctx, &openaiembed.EmbeddingConfig{
		APIKey:  key,
		Model:   modelName,
		BaseURL: base,
		Timeout: 15 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &einoEmbedding{apiKey: key, model: modelName, baseURL: base, embedder: emb}, nil
}

func (e *einoEmbedding) ensureEmbedderWithDim(ctx context.Context, dim int) error {
	if dim <= 0 || e.curDim == dim {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	emb, err := openaiembed.NewEmbedder(ctx, &openaiembed.EmbeddingConfig{
		APIKey:     e.apiKey,
		Model:      e.model,
		BaseURL:    e.baseURL,
		Timeout:    15 * time.Second,
		Dimensions: &dim,
	})
	if err != nil {
		return err
	}
	e.embedder = emb
	e.curDim = dim
	return nil
}

func (e *einoEmbedding) Embed(ctx context.Context, texts []string, dim int) ([][]float64, error) {
	if err := e.ensureEmbedderWithDim(ctx, dim); err != nil {
		return nil, err
	}
	return e.embedder.EmbedStrings(ctx, texts)
}

func (e *einoEmbedding) Provider() string { return ProviderOpenAI }

type einoChat struct {
	client *einoaclopenai.Client
	model  string
}

func newEinoChatFromConfig(key, modelName, base string) (ChatChain, error) {
	if key == "" {
		return nil, ErrNotConfigured
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	base = strings.TrimRight(base, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	cli, err := einoaclopenai.NewClient(ctx, &einoaclopenai.Config{APIKey: key, Model: modelName, BaseURL: base})
	if err != nil {
		return nil, err
	}
	return &einoChat{client: cli, model: modelName}, nil
}

func (e *einoChat) Provider() string { return ProviderOpenAI }

func (e *einoChat) Chat(ctx context.Context, messages []ChatMessage, maxTokens int) (ret ChatMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in openai chat: %v", r)
		}
	}()
	if len(messages) == 0 {
		return ChatMessage{}, errors.New("no messages")
	}
	mm := toSchemaMessages(messages)
	opts := []model.Option{}
	if maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(maxTokens))
	}
	resp, genErr := e.client.Generate(ctx, mm, opts...)
	if genErr != nil {
		return ChatMessage{}, genErr
	}
	if resp == nil || resp.Content == "" {
		return ChatMessage{}, errors.New("empty chat content")
	}
	return ChatMessage{Role: string(resp.Role), Content: resp.Content}, nil
}

func toSchemaMessages(in []ChatMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(in))
	for _, m := range in {
		out = append(out, &schema.Message{Role: schema.RoleType(m.Role), Content: m.Content})
	}
	return out
}
