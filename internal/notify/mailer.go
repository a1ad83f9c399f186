package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Mailer submits one message. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SESConfig options for the SES mailer.
type SESConfig struct {
	Region          string
	From            string
	AccessKeyID     string // optional static credentials
	SecretAccessKey string
	Endpoint        string // optional, for SES-compatible endpoints
}

// SESMailer sends through Amazon SES v2, one recipient per call.
type SESMailer struct {
	client *sesv2.Client
	from   string
	log    *zap.Logger
}

func NewSESMailer(ctx context.Context, cfg SESConfig, log *zap.Logger) (*SESMailer, error) {
	if cfg.From == "" {
		return nil, errors.New("sender address is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	var sesOptions []func(*sesv2.Options)
	if cfg.Endpoint != "" {
		sesOptions = append(sesOptions, func(o *sesv2.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return &SESMailer{
		client: sesv2.NewFromConfig(awsCfg, sesOptions...),
		from:   cfg.From,
		log:    log.With(zap.String("component", "ses")),
	}, nil
}

func (m *SESMailer) Send(ctx context.Context, msg *Message) error {
	out, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return errors.Wrapf(err, "ses send (%s)", apiErr.ErrorCode())
		}
		return errors.Wrap(err, "ses send")
	}
	m.log.Debug("email accepted", zap.String("to", msg.To), zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log.With(zap.String("component", "mailer"))}
}

func (m *LogMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.log.Info("email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}
