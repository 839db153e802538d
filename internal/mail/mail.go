package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	defaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
	appName     = "Where We Go"
)

// Message письмо одному получателю
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	Text      string
	HTML      string
}

// Sender отправка писем
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender выбирает SendGrid при наличии ключа, иначе пишет письма в лог
func NewSender(apiKey, fromEmail string, logger *zap.Logger) Sender {
	if apiKey == "" {
		return &ConsoleSender{logger: logger}
	}
	return NewSendGridSender(apiKey, fromEmail, defaultHost)
}

// ConsoleSender пишет письма в лог (разработка)
type ConsoleSender struct {
	logger *zap.Logger
}

func (s *ConsoleSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("Mail not sent, no SendGrid key configured",
		zap.String("to", msg.ToAddress),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text))
	return nil
}

// SendGridSender отправка через SendGrid v3 API
type SendGridSender struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
}

func NewSendGridSender(apiKey, fromEmail, host string) *SendGridSender {
	return &SendGridSender{
		key:        apiKey,
		host:       host,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (s *SendGridSender) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToAddress))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(s.key, endpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// FeedbackReceipt письмо-подтверждение с кодом обращения
func FeedbackReceipt(f *model.Feedback) Message {
	text := fmt.Sprintf(
		"Hello %s,\n\nWe have received your feedback (%s).\nYour feedback code is %s, please keep it for reference.\n",
		f.Name, f.Reason, f.UID)

	return Message{
		ToName:    f.Name,
		ToAddress: f.Email,
		Subject:   "Feedback received",
		Text:      text,
	}
}
