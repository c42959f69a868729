package main

// Canonical support-svc integration tests (ports 18301-18310 ONLY)
// Business rules under test: chat offer/confirm flow, ticket escalate after
// resolve => 409 Conflict. Keep minimal; add new scenarios in separate files
// if ports exhausted.

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/bpispark/sparkdesk/internal/chat"
	"github.com/bpispark/sparkdesk/internal/common"
)

const contentTypeJSON = "application/json"

func TestMain(m *testing.M) {
	os.Setenv("PROM_DISABLE", "1")
	os.Setenv("AI_PROVIDER", "mock")
	os.Exit(m.Run())
}

// --- helpers ---

func waitReady(t *testing.T, base string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if resp, err := http.Get(base + "/health"); err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server not ready at %s", base)
}

func buildTestServer(t *testing.T, port string) (base string, stop func()) {
	t.Helper()
	cfg := common.LoadConfig()
	cfg.HTTPAddr = port
	cfg.SubmitLatency = time.Millisecond
	h := BuildServer(cfg)
	go h.Spin()
	base = "http://127.0.0.1" + port
	waitReady(t, base)
	stop = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		defer cancel()
		h.Shutdown(ctx)
	}
	return
}

func doJSON(t *testing.T, method, u string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, u, rd)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, u, err)
	}
	defer resp.Body.Close()
	if out != nil {
		// Reset the destination so fields omitted from this response (e.g.
		// omitempty pointers) don't carry over from a previous decode into
		// the same struct.
		v := reflect.ValueOf(out).Elem()
		v.Set(reflect.Zero(v.Type()))
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode %s %s: %v", method, u, err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode
}

// --- scenarios ---

func TestChatAnswerFlow(t *testing.T) {
	base, stop := buildTestServer(t, ":18301")
	defer stop()

	var snap chat.Snapshot
	if code := doJSON(t, http.MethodPost, base+"/v1/chat/sessions", nil, &snap); code != http.StatusCreated {
		t.Fatalf("create session: %d", code)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Text != chat.WelcomeText {
		t.Fatalf("seed transcript: %+v", snap.Messages)
	}

	sessURL := base + "/v1/chat/sessions/" + snap.ID
	if code := doJSON(t, http.MethodPost, sessURL+"/messages", map[string]string{"text": "laptop screen is black"}, &snap); code != http.StatusOK {
		t.Fatalf("turn: %d", code)
	}
	if len(snap.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(snap.Messages))
	}
	if last := snap.Messages[2]; last.OffersTicket || last.Role != chat.RoleAssistant {
		t.Fatalf("last message: %+v", last)
	}
	if snap.State != chat.StateIdle {
		t.Fatalf("state = %q", snap.State)
	}

	// reset reseeds exactly one welcome message
	if code := doJSON(t, http.MethodPost, sessURL+"/reset", nil, &snap); code != http.StatusOK {
		t.Fatalf("reset: %d", code)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Text != chat.WelcomeText {
		t.Fatalf("reset transcript: %+v", snap.Messages)
	}

	var sugg struct {
		Suggestions []string `json:"suggestions"`
	}
	doJSON(t, http.MethodGet, base+"/v1/chat/suggestions", nil, &sugg)
	if len(sugg.Suggestions) != 4 {
		t.Fatalf("suggestions: %+v", sugg.Suggestions)
	}

	// deleting the session discards it for good
	if code := doJSON(t, http.MethodDelete, sessURL, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete session: %d", code)
	}
	if code := doJSON(t, http.MethodGet, sessURL, nil, nil); code != http.StatusNotFound {
		t.Fatalf("deleted session: %d, want 404", code)
	}
}

func TestChatTicketFlowAndLifecycle(t *testing.T) {
	base, stop := buildTestServer(t, ":18302")
	defer stop()

	var snap chat.Snapshot
	doJSON(t, http.MethodPost, base+"/v1/chat/sessions", nil, &snap)
	sessURL := base + "/v1/chat/sessions/" + snap.ID

	// gibberish matches no kb doc, the mock model offers a ticket
	doJSON(t, http.MethodPost, sessURL+"/messages", map[string]string{"text": "florble grommit unhappy"}, &snap)
	if snap.State != chat.StateAwaitingConfirm || snap.Draft == nil {
		t.Fatalf("expected ticket offer: %+v", snap)
	}
	if last := snap.Messages[len(snap.Messages)-1]; !last.OffersTicket {
		t.Fatalf("offer flag missing: %+v", last)
	}

	// affirmative reply opens the draft form without another model call
	doJSON(t, http.MethodPost, sessURL+"/messages", map[string]string{"text": "yes"}, &snap)
	if snap.State != chat.StateDraftingTicket {
		t.Fatalf("state = %q, want drafting", snap.State)
	}

	if code := doJSON(t, http.MethodPut, sessURL+"/ticket/draft", map[string]string{"urgency": "High"}, &snap); code != http.StatusOK {
		t.Fatalf("edit draft: %d", code)
	}
	if snap.Draft.Urgency != "High" {
		t.Fatalf("draft urgency = %q", snap.Draft.Urgency)
	}

	if code := doJSON(t, http.MethodPost, sessURL+"/ticket/submit", nil, &snap); code != http.StatusOK {
		t.Fatalf("submit: %d", code)
	}
	if !strings.HasPrefix(snap.TicketID, "TKT-") {
		t.Fatalf("ticket_id = %q", snap.TicketID)
	}
	last := snap.Messages[len(snap.Messages)-1]
	if last.Role != chat.RoleSystem || !strings.Contains(last.Text, snap.TicketID) {
		t.Fatalf("confirmation: %+v", last)
	}

	// the filed ticket is visible on the support side
	var tickets []struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Urgency string `json:"urgency"`
	}
	doJSON(t, http.MethodGet, base+"/v1/tickets", nil, &tickets)
	if len(tickets) != 1 || !strings.HasPrefix(tickets[0].ID, "TKT-") || tickets[0].Urgency != "High" {
		t.Fatalf("tickets: %+v", tickets)
	}

	id := tickets[0].ID
	var tk map[string]any
	if code := doJSON(t, http.MethodPut, base+"/v1/tickets/"+id+"/assign", map[string]string{"note": "routing"}, &tk); code != http.StatusOK {
		t.Fatalf("assign: %d", code)
	}
	if code := doJSON(t, http.MethodPut, base+"/v1/tickets/"+id+"/resolve", nil, &tk); code != http.StatusOK {
		t.Fatalf("resolve: %d", code)
	}
	if code := doJSON(t, http.MethodPut, base+"/v1/tickets/"+id+"/escalate", nil, nil); code != http.StatusConflict {
		t.Fatalf("escalate resolved: %d, want 409", code)
	}
	if code := doJSON(t, http.MethodPut, base+"/v1/tickets/"+id+"/reopen", nil, &tk); code != http.StatusOK {
		t.Fatalf("reopen: %d", code)
	}
}

func TestChatDeclineHidesOffer(t *testing.T) {
	base, stop := buildTestServer(t, ":18303")
	defer stop()

	var snap chat.Snapshot
	doJSON(t, http.MethodPost, base+"/v1/chat/sessions", nil, &snap)
	sessURL := base + "/v1/chat/sessions/" + snap.ID

	doJSON(t, http.MethodPost, sessURL+"/messages", map[string]string{"text": "zzzqqq nothing matches"}, &snap)
	if snap.State != chat.StateAwaitingConfirm {
		t.Fatalf("expected offer, got state %q", snap.State)
	}
	doJSON(t, http.MethodPost, sessURL+"/ticket/decline", nil, &snap)
	if snap.State != chat.StateIdle || snap.Draft != nil {
		t.Fatalf("decline: %+v", snap)
	}
	// declining twice is a state conflict
	if code := doJSON(t, http.MethodPost, sessURL+"/ticket/decline", nil, nil); code != http.StatusConflict {
		t.Fatalf("second decline: %d, want 409", code)
	}
}

func TestKBSearchAndDocs(t *testing.T) {
	base, stop := buildTestServer(t, ":18304")
	defer stop()

	var res struct {
		Items []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"items"`
		Total int `json:"total"`
	}
	doJSON(t, http.MethodGet, base+"/v1/search?q="+escape("I forgot my password"), nil, &res)
	if res.Total == 0 {
		t.Fatalf("password query should hit the seeded corpus")
	}

	var created struct {
		ID string `json:"id"`
	}
	code := doJSON(t, http.MethodPost, base+"/v1/docs", map[string]any{
		"title":    "Projector Setup",
		"keywords": []string{"projector", "hdmi"},
		"content":  "Connect via HDMI and select the correct input.",
	}, &created)
	if code != http.StatusCreated || created.ID == "" {
		t.Fatalf("create doc: %d %+v", code, created)
	}

	doJSON(t, http.MethodGet, base+"/v1/search?q="+escape("the projector shows nothing"), nil, &res)
	if res.Total != 1 || res.Items[0].Title != "Projector Setup" {
		t.Fatalf("projector search: %+v", res)
	}

	// a rejected update must leave the stored doc untouched
	if code := doJSON(t, http.MethodPut, base+"/v1/docs/"+created.ID, map[string]string{"title": ""}, nil); code != http.StatusBadRequest {
		t.Fatalf("empty-title update: %d, want 400", code)
	}
	var doc struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	doJSON(t, http.MethodGet, base+"/v1/docs/"+created.ID, nil, &doc)
	if doc.Title != "Projector Setup" {
		t.Fatalf("stored doc changed by rejected update: %+v", doc)
	}

	if code := doJSON(t, http.MethodDelete, base+"/v1/docs/"+created.ID, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete doc: %d", code)
	}
}

func TestEmbeddingsAndDomainMetrics(t *testing.T) {
	base, stop := buildTestServer(t, ":18305")
	defer stop()

	var res struct {
		Vectors [][]float64 `json:"vectors"`
		Dim     int         `json:"dim"`
	}
	code := doJSON(t, http.MethodPost, base+"/v1/embeddings", map[string]any{"texts": []string{"hello"}, "dim": 8}, &res)
	if code != http.StatusOK || res.Dim != 8 || len(res.Vectors) != 1 {
		t.Fatalf("embeddings: %d %+v", code, res)
	}

	resp, err := http.Get(base + "/metrics/domain")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "sparkdesk_ai_embedding_calls_total") {
		t.Fatalf("domain metrics missing counters:\n%s", body)
	}
}

func escape(q string) string {
	return strings.ReplaceAll(q, " ", "%20")
}
