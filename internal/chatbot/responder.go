// Responder glues the two tiers together: rule-based classification first,
// generative fallback second. Its Answer method is the boundary contract of
// the chat path — for any input it resolves to a non-empty, user-facing
// string and never returns an error to the transport.
package chatbot

import (
	"context"
	"strings"

	"github.com/foodshare/go-donation-backend/internal/domain"
)

// emptyMessageReply handles blank input before either tier runs.
const emptyMessageReply = "I didn't catch that. Could you say it again?"

// Responder answers chat messages. Safe for concurrent use.
type Responder struct {
	classifier *Classifier
	fallback   *Fallback
}

// NewResponder wires a classifier and fallback into a responder.
func NewResponder(cl *Classifier, fb *Fallback) *Responder {
	if cl == nil {
		cl = NewClassifier()
	}
	return &Responder{classifier: cl, fallback: fb}
}

// ContextFor derives the chat context from an optional authenticated user.
func ContextFor(u *domain.User) Context {
	if u == nil {
		return GuestContext()
	}
	return Context{Name: u.FirstName, Role: u.Role}
}

// Answer resolves a raw chat message to a reply. Blank messages get a fixed
// prompt to repeat; matched intents get their canned reply; everything else
// goes to the generative fallback, whose own failure paths also resolve to
// fixed strings.
func (r *Responder) Answer(ctx context.Context, message string, c Context) string {
	if strings.TrimSpace(message) == "" {
		return emptyMessageReply
	}
	if reply, ok := r.classifier.Classify(message, c); ok {
		return reply
	}
	if r.fallback == nil {
		return MaintenanceReply
	}
	return r.fallback.Respond(ctx, message, c)
}
