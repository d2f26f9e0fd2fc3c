// Package mail renders templates and hands the result to a mail provider.
package mail

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoCredential is returned by dispatchers that send on behalf of
	// the user when no access token is available.
	ErrNoCredential     = errors.New("no access token for mail provider")
	ErrInvalidRecipient = errors.New("invalid recipient")
	ErrUnknownDriver    = errors.New("unknown mail driver")
)

// Message is one outgoing HTML email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Dispatcher sends a message and returns the provider's message id.
// credential is the user's OAuth access token; providers that send from a
// fixed account ignore it.
type Dispatcher interface {
	Send(ctx context.Context, msg Message, credential string) (string, error)
}

func validRecipient(to string) bool {
	return to != "" && !strings.ContainsAny(to, "\r\n")
}
