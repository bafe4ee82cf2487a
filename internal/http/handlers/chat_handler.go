// Chatbot HTTP handler.
//
// POST /chatbot/message answers a visitor message. The endpoint is open to
// guests; authenticated callers get replies personalized with their name and
// role. It always returns 200 with {success, reply}: a broken generative
// backend degrades to a canned apology, never to an error status.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodshare/go-donation-backend/internal/chatbot"
	"github.com/foodshare/go-donation-backend/internal/http/middleware"
)

// ChatResponder defines the chatbot surface consumed by the HTTP handler.
type ChatResponder interface {
	// Answer produces a reply for message; it never fails.
	Answer(ctx context.Context, message string, c chatbot.Context) string
}

// ChatRequest is the JSON payload for the chatbot endpoint.
type ChatRequest struct {
	// Message is the visitor's utterance.
	Message string `json:"message" example:"how can I donate food?"`
}

// ChatResponse is the chatbot reply envelope.
type ChatResponse struct {
	Success bool   `json:"success" example:"true"`
	Reply   string `json:"reply" example:"That's wonderful! ❤️"`
}

// ChatMessage godoc
// @ID          chatMessage
// @Summary     Ask the assistant
// @Description Answers a visitor message with a canned reply or a generative fallback. Open to guests.
// @Tags        Chatbot
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (personalizes replies)"
// @Param       body       body    handlers.ChatRequest  true  "Message payload"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /chatbot/message [post]
func (h *Handlers) ChatMessage(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	bc := chatbot.ContextFor(middleware.CurrentUser(c))
	reply := h.bot.Answer(c.Request.Context(), req.Message, bc)
	ok(c, http.StatusOK, ChatResponse{Success: true, Reply: reply})
}
