// Fallback tier of the message responder: a one-shot chat completion
// against a Groq (OpenAI-compatible) endpoint with a role-aware system
// prompt. The exchange is single-turn; no conversation memory is kept
// across calls.
//
// Failure containment: a missing credential short-circuits to a fixed
// maintenance message without touching the network, and any service or
// transport failure resolves to a fixed apology. Errors are logged, never
// surfaced to the end user.
package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultGroqBaseURL is the OpenAI-compatible Groq API root.
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the completion model used for fallback answers.
	DefaultModel = "llama-3.3-70b-versatile"

	// apiKeyPlaceholder is treated the same as an absent key.
	apiKeyPlaceholder = "YOUR_API_KEY_HERE"

	// MaintenanceReply is returned when no credential is configured.
	MaintenanceReply = "I'm currently undergoing maintenance (API Key missing). Please ask about 'donating' or 'agents' in the meantime!"
	// ApologyReply is returned when the generative service call fails.
	ApologyReply = "I'm having trouble connecting to my brain right now. 🧠 Please try again later or ask simple questions about donating."
)

var fallbackCalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chatbot_fallback_requests_total",
		Help: "Total generative fallback invocations by outcome.",
	},
	[]string{"outcome"}, // ok / failed / unconfigured
)

func init() {
	prometheus.MustRegister(fallbackCalls)
}

// Fallback delegates unmatched messages to the generative responder.
// Safe for concurrent use.
type Fallback struct {
	// APIKey authorizes the completion call; empty (or the placeholder)
	// means the service is unconfigured and no network call is attempted.
	APIKey string
	// BaseURL overrides the API root; empty uses DefaultGroqBaseURL.
	BaseURL string
	// Model overrides the completion model; empty uses DefaultModel.
	Model string
	// Client overrides the HTTP client. The component itself imposes no
	// timeout; bound the exchange via the client or the caller's context.
	Client *http.Client
}

// chatRequest / chatResponse mirror the OpenAI chat-completions wire format,
// reduced to the fields this component uses.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Configured reports whether a usable credential is present.
func (f *Fallback) Configured() bool {
	key := strings.TrimSpace(f.APIKey)
	return key != "" && key != apiKeyPlaceholder
}

// Respond produces an answer for a message no rule matched. It always
// returns a non-empty, user-facing string.
func (f *Fallback) Respond(ctx context.Context, message string, c Context) string {
	if !f.Configured() {
		fallbackCalls.WithLabelValues("unconfigured").Inc()
		return MaintenanceReply
	}

	reply, err := f.complete(ctx, message, c)
	if err != nil {
		fallbackCalls.WithLabelValues("failed").Inc()
		log.Error().Err(err).Msg("generative fallback failed")
		return ApologyReply
	}
	fallbackCalls.WithLabelValues("ok").Inc()
	return reply
}

// complete performs the single-turn exchange and returns the model's answer
// verbatim (no post-processing, no truncation).
func (f *Fallback) complete(ctx context.Context, message string, c Context) (string, error) {
	baseURL := f.BaseURL
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	model := f.Model
	if model == "" {
		model = DefaultModel
	}

	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(c)},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(baseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(f.APIKey))

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("completion response contained no answer")
	}
	return out.Choices[0].Message.Content, nil
}

// systemPrompt embeds the platform mission and the requester's identity
// into the single system turn sent with each exchange.
func systemPrompt(c Context) string {
	role := c.Role
	if role == "" {
		role = "guest"
	}
	return fmt.Sprintf(`You are FoodBot, the intelligent assistant for the "FoodShare" food donation platform.

Your Persona: Friendly, helpful, empathetic, and professional. Use emojis occasionally.

About FoodShare:
- Mission: Zero Hunger, Zero Waste.
- We connect Donors (who have leftover food) with Agents (volunteers who pick it up) to feed the needy.
- We operate 24/7.

User Context:
- Name: %s
- Role: %s (guest, donor, agent, admin)

Guidelines:
- Keep answers concise (under 3 sentences if possible).
- If asked about technical issues (password, bugs), direct them to support@foodshare.com.
- If asked about "how to donate", explain: Sign Up -> Dashboard -> Donate Food.
- If asked about "how to be an agent", explain: Sign Up -> Select Agent Role.
- Do NOT make up facts. If unsure, say you don't know.`, c.DisplayName(), role)
}
