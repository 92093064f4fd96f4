package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/aegisauth/aegis/internal/models"
	pkglogger "github.com/aegisauth/aegis/pkg/logger"
)

// EmailNotifier delivers a message to a recipient out of band. Any failure
// is fatal to the login attempt that requested the delivery.
type EmailNotifier interface {
	Send(ctx context.Context, recipient models.Email, subject, body string) error
}

// SESEmailNotifier sends email through AWS SES.
type SESEmailNotifier struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewSESEmailNotifier creates an SES-backed notifier.
func NewSESEmailNotifier(region, fromAddress string, logger *slog.Logger) (*SESEmailNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESEmailNotifier{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

func (s *SESEmailNotifier) Send(ctx context.Context, recipient models.Email, subject, body string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{recipient.String()},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("email", pkglogger.SanitizedEmail(recipient.String())),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("email", pkglogger.SanitizedEmail(recipient.String())),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

// LogEmailNotifier writes messages to the log instead of delivering them.
// Development backend; the message body (which carries the one-time code)
// goes to the log verbatim, so never use it in production.
type LogEmailNotifier struct {
	logger *slog.Logger
}

func NewLogEmailNotifier(logger *slog.Logger) *LogEmailNotifier {
	return &LogEmailNotifier{logger: logger}
}

func (s *LogEmailNotifier) Send(ctx context.Context, recipient models.Email, subject, body string) error {
	s.logger.Info("email delivery (log backend)",
		slog.String("recipient", recipient.String()),
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
