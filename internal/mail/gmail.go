package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"template-mailer/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailDispatcher sends through the Gmail API as the signed-in user.
type GmailDispatcher struct {
	log  *zap.Logger
	opts []option.ClientOption
}

// NewGmailDispatcher accepts extra client options, e.g. a custom endpoint.
func NewGmailDispatcher(log *zap.Logger, opts ...option.ClientOption) *GmailDispatcher {
	return &GmailDispatcher{log: log, opts: opts}
}

func (d *GmailDispatcher) Send(ctx context.Context, msg Message, credential string) (id string, err error) {
	defer func() { metrics.MailsSent.WithLabelValues("gmail", metrics.Result(err)).Inc() }()

	if credential == "" {
		return "", ErrNoCredential
	}
	if !validRecipient(msg.To) {
		return "", ErrInvalidRecipient
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential})
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, d.opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("gmail client: %w", err)
	}

	sent, err := svc.Users.Messages.Send("me", &gmail.Message{Raw: EncodeRawMessage(msg)}).Context(ctx).Do()
	if err != nil {
		d.log.Warn("gmail send failed", zap.String("to", msg.To), zap.Error(err))
		return "", err
	}
	d.log.Info("gmail message sent", zap.String("to", msg.To), zap.String("message_id", sent.Id))
	return sent.Id, nil
}

// EncodeRawMessage builds the RFC 822 message with a UTF-8 encoded subject
// and HTML body, base64url encoded without padding as Gmail expects.
func EncodeRawMessage(msg Message) string {
	subject := "=?utf-8?B?" + base64.StdEncoding.EncodeToString([]byte(msg.Subject)) + "?="
	lines := []string{
		"To: " + msg.To,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		msg.HTMLBody,
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(lines, "\r\n")))
}
