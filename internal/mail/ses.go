package mail

import (
	"context"
	"fmt"

	"template-mailer/internal/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESDispatcher sends from a fixed verified address through Amazon SES.
type SESDispatcher struct {
	client sesAPI
	from   string
	log    *zap.Logger
}

func NewSESDispatcher(ctx context.Context, region, from string, log *zap.Logger) (*SESDispatcher, error) {
	if from == "" {
		return nil, fmt.Errorf("ses: sender address is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESDispatcher{client: ses.NewFromConfig(cfg), from: from, log: log}, nil
}

func (d *SESDispatcher) Send(ctx context.Context, msg Message, _ string) (id string, err error) {
	defer func() { metrics.MailsSent.WithLabelValues("ses", metrics.Result(err)).Inc() }()

	if !validRecipient(msg.To) {
		return "", ErrInvalidRecipient
	}

	out, err := d.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(d.from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		d.log.Warn("ses send failed", zap.String("to", msg.To), zap.Error(err))
		return "", err
	}
	id = aws.ToString(out.MessageId)
	d.log.Info("ses message sent", zap.String("to", msg.To), zap.String("message_id", id))
	return id, nil
}
