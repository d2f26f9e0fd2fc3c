package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

func TestSESDispatcher_Send(t *testing.T) {
	var captured *ses.SendEmailInput
	d := &SESDispatcher{
		client: &MockSESService{
			SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				captured = params
				return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
			},
		},
		from: "noreply@example.com",
		log:  zap.NewNop(),
	}

	id, err := d.Send(context.Background(), Message{To: "bob@example.com", Subject: "Hi", HTMLBody: "<p>x</p>"}, "")
	require.NoError(t, err)
	assert.Equal(t, "ses-1", id)
	require.NotNil(t, captured)
	assert.Equal(t, "noreply@example.com", aws.ToString(captured.Source))
	assert.Equal(t, []string{"bob@example.com"}, captured.Destination.ToAddresses)
	assert.Equal(t, "Hi", aws.ToString(captured.Message.Subject.Data))
	assert.Equal(t, "<p>x</p>", aws.ToString(captured.Message.Body.Html.Data))
}

func TestSESDispatcher_Error(t *testing.T) {
	d := &SESDispatcher{
		client: &MockSESService{
			SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
				return nil, errors.New("MessageRejected: Email address is not verified")
			},
		},
		from: "noreply@example.com",
		log:  zap.NewNop(),
	}

	_, err := d.Send(context.Background(), Message{To: "bob@example.com", Subject: "s", HTMLBody: "b"}, "")
	assert.ErrorContains(t, err, "not verified")

	_, err = d.Send(context.Background(), Message{To: ""}, "")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}
