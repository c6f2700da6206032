package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"familylink/internal/models"
)

// Notifier sends account notifications. Failures are reported but never
// undo the operation that triggered them.
type Notifier interface {
	NotifyChildLinked(ctx context.Context, parent, child *models.User) error
	SendWelcomeEmail(ctx context.Context, user *models.User) error
}

type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesSender
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service that logs and skips every send.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Info().Msg("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, debug: debug}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info().Str("from", fromEmail).Str("region", awsRegion).Msg("Email service enabled")

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// NotifyChildLinked tells a parent that a child account joined with their code
func (s *EmailService) NotifyChildLinked(ctx context.Context, parent, child *models.User) error {
	if !s.enabled {
		log.Debug().Str("to", parent.Email).Msg("Skipping child-linked email (service disabled)")
		return nil
	}

	dashboard := s.appBaseURL + models.RoleParent.DashboardPath()
	subject := fmt.Sprintf("%s joined your FamilyLink account", child.Username)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi %s,</p>
	<p><strong>%s</strong> (%s) just registered using your parent code and is now linked to your account.</p>
	<p><a href="%s">Open your dashboard</a> to manage your children.</p>
	<p>If you don't recognise this account, you can remove it from your dashboard and generate a new parent code.</p>
</body>
</html>
`, parent.Username, child.Username, child.Email, dashboard)

	textBody := fmt.Sprintf(`Hi %s,

%s (%s) just registered using your parent code and is now linked to your account.

Open your dashboard to manage your children:
%s

If you don't recognise this account, you can remove it from your dashboard and generate a new parent code.
`, parent.Username, child.Username, child.Email, dashboard)

	return s.sendEmail(ctx, parent.Email, subject, htmlBody, textBody)
}

// SendWelcomeEmail sends a welcome email to new users
func (s *EmailService) SendWelcomeEmail(ctx context.Context, user *models.User) error {
	if !s.enabled {
		log.Debug().Str("to", user.Email).Msg("Skipping welcome email (service disabled)")
		return nil
	}

	subject := "Welcome to FamilyLink!"
	var extra string
	if user.IsParent() && user.ParentCode != nil {
		extra = fmt.Sprintf("Your parent code is %s. Share it with your children so they can link their accounts.", *user.ParentCode)
	} else {
		extra = "Your account is linked to your parent."
	}
	login := s.appBaseURL + "/auth/login"

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi %s,</p>
	<p>Your FamilyLink account has been created.</p>
	<p>%s</p>
	<p><a href="%s">Sign in</a></p>
</body>
</html>
`, user.Username, extra, login)

	textBody := fmt.Sprintf(`Hi %s,

Your FamilyLink account has been created.

%s

Sign in: %s
`, user.Username, extra, login)

	return s.sendEmail(ctx, user.Email, subject, htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	evt := log.Info().Str("to", toEmail).Str("subject", subject)
	if s.debug && result.MessageId != nil {
		evt = evt.Str("message_id", *result.MessageId)
	}
	evt.Msg("Email sent")
	return nil
}
