package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *log.Logger
}

func NewSendGridNotifier(apiKey, fromEmail, fromName string, logger *log.Logger) *SendGridNotifier {
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
}

func (n *SendGridNotifier) CourseCompleted(ctx context.Context, event CompletionEvent) error {
	if event.Email == "" {
		n.logger.Printf("[NOTIFY] no email for user %s, skipping completion mail", event.UserID)
		return nil
	}

	message := CompletionMessage(n.from, event)
	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send completion mail: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send completion mail: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}

	n.logger.Printf("[NOTIFY] completion mail sent to %s for course %s", event.Email, event.CourseID)
	return nil
}

// CompletionMessage builds the congratulation mail for event.
func CompletionMessage(from *mail.Email, event CompletionEvent) *mail.SGMailV3 {
	name := event.Name
	if name == "" {
		name = "there"
	}
	to := mail.NewEmail(event.Name, event.Email)
	subject := fmt.Sprintf("You completed %s!", event.CourseTitle)
	plain := fmt.Sprintf("Hi %s,\n\nCongratulations on completing %s. Keep learning!\n", name, event.CourseTitle)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Congratulations on completing <strong>%s</strong>. Keep learning!</p>", name, event.CourseTitle)
	return mail.NewSingleEmail(from, subject, to, plain, html)
}
