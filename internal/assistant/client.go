package assistant

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/bpispark/sparkdesk/internal/ai/chain"
	"github.com/bpispark/sparkdesk/internal/ticket"
)

// Actions a completion can resolve to.
const (
	ActionAnswer      = "ANSWER"
	ActionOfferTicket = "OFFER_TICKET"
	ActionError       = "ERROR"
)

// Apology is the uniform fallback text for configuration, transport, and
// parse failures. The conversation layer sees exactly one error shape.
const Apology = "Sorry, I'm having trouble responding right now. Please try again in a moment."

// Result is the normalized completion outcome. Draft is set only when
// Action is OFFER_TICKET.
type Result struct {
	Action       string        `json:"action"`
	ResponseText string        `json:"responseText"`
	Draft        *ticket.Draft `json:"ticketData,omitempty"`
}

// Client turns an assembled prompt into a Result. It never returns an
// error: every failure mode collapses into an ERROR-action Result so the
// caller has a single branch.
type Client struct {
	chain     chain.ChatChain
	maxTokens int
	logger    *zap.Logger
}

func NewClient(cc chain.ChatChain, logger *zap.Logger) *Client {
	return &Client{chain: cc, maxTokens: 1024, logger: logger}
}

// Provider names the underlying chain for logs and metric labels.
func (c *Client) Provider() string { return c.chain.Provider() }

// Complete sends the prompt and parses the strict JSON reply.
func (c *Client) Complete(ctx context.Context, prompt string) Result {
	msg, err := c.chain.Chat(ctx, []chain.ChatMessage{{Role: "user", Content: prompt}}, c.maxTokens)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("model call failed", zap.String("provider", c.chain.Provider()), zap.Error(err))
		}
		return errorResult()
	}
	res, ok := parseModelReply(msg.Content)
	if !ok {
		if c.logger != nil {
			c.logger.Warn("model reply failed contract parse", zap.String("provider", c.chain.Provider()))
		}
		return errorResult()
	}
	return res
}

func errorResult() Result {
	return Result{Action: ActionError, ResponseText: Apology}
}

// parseModelReply strips code fences and enforces the two legal shapes.
// Anything else is a contract violation.
func parseModelReply(raw string) (Result, bool) {
	var payload struct {
		ResponseText string        `json:"responseText"`
		Action       string        `json:"action"`
		TicketData   *ticket.Draft `json:"ticketData"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil {
		return Result{}, false
	}
	if payload.ResponseText == "" {
		return Result{}, false
	}
	switch payload.Action {
	case ActionAnswer:
		return Result{Action: ActionAnswer, ResponseText: payload.ResponseText}, true
	case ActionOfferTicket:
		if payload.TicketData == nil {
			return Result{}, false
		}
		return Result{Action: ActionOfferTicket, ResponseText: payload.ResponseText, Draft: payload.TicketData}, true
	}
	return Result{}, false
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, since some models wrap JSON despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{}") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
