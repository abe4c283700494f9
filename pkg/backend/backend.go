// Package backend defines the seam between the chat dispatcher and a
// generative-text service.
package backend

import (
	"context"
	"errors"

	"github.com/abyan-ai/askme/pkg/models"
)

// ErrBlocked is returned when the service refuses to answer the prompt.
var ErrBlocked = errors.New("prompt blocked by backend")

// Request is one generation call.
//
// Preamble holds synthetic leading turns, such as a system instruction
// phrased as a user turn plus a canned model acknowledgment, for services
// that have no dedicated system role. History follows the preamble and
// Message is the new user turn.
type Request struct {
	Preamble []models.ChatMessage
	History  []models.ChatMessage
	Message  models.ChatMessage
}

// Turns returns preamble, history and message in send order.
func (r Request) Turns() []models.ChatMessage {
	turns := make([]models.ChatMessage, 0, len(r.Preamble)+len(r.History)+1)
	turns = append(turns, r.Preamble...)
	turns = append(turns, r.History...)
	return append(turns, r.Message)
}

// Backend produces a plain-text reply. An empty string with a nil error
// means the service answered without text.
type Backend interface {
	Generate(ctx context.Context, req Request) (string, error)
}
