package mail

import (
	"context"
	"fmt"

	"template-mailer/internal/config"

	"go.uber.org/zap"
)

// New builds the dispatcher selected by MAIL_DRIVER.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Dispatcher, error) {
	switch cfg.MailDriver {
	case "", "gmail":
		return NewGmailDispatcher(log), nil
	case "ses":
		return NewSESDispatcher(ctx, cfg.SESRegion, cfg.SESFrom, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.MailDriver)
	}
}
