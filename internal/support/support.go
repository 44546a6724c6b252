// Package support delivers support requests from signed-in users by email.
package support

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"pokerlog/internal/config"
)

// SubjectPrefix marks support mail in the team inbox.
const SubjectPrefix = "[PokerTracker Support] "

const sendTimeout = 15 * time.Second

// ErrNotConfigured is returned in production when no SMTP host is set.
var ErrNotConfigured = errors.New("email service not configured")

// Request is one support message.
type Request struct {
	Subject   string
	Message   string
	UserName  string
	UserEmail string
}

// Validate requires a subject and a message.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Subject) == "" || strings.TrimSpace(r.Message) == "" {
		return errors.New("subject and message are required")
	}
	return nil
}

// Notifier delivers support requests.
type Notifier interface {
	Notify(ctx context.Context, req Request) error
}

// Settings is the SMTP side of the configuration.
type Settings struct {
	Host     string
	Port     int
	Secure   bool
	Username string
	Password string
	From     string
	To       string
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Secure:   cfg.SMTPSecure,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.FromEmail,
		To:       cfg.SupportEmail,
	}
}

// NewNotifier picks SMTP delivery when a host is configured. Without one,
// production refuses requests and other environments only log them.
func NewNotifier(cfg *config.Config, logger *slog.Logger) Notifier {
	if cfg.SMTPConfigured() {
		return NewSMTPNotifier(SettingsFromConfig(cfg), logger)
	}
	if cfg.IsProduction() {
		return unconfiguredNotifier{}
	}
	return &LogNotifier{Logger: logger}
}

// BuildMessage renders the email for req.
func BuildMessage(s Settings, req Request) (*mail.Msg, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(s.To); err != nil {
		return nil, fmt.Errorf("invalid support address: %w", err)
	}
	if req.UserEmail != "" {
		if err := msg.ReplyTo(req.UserEmail); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}
	msg.Subject(SubjectPrefix + strings.TrimSpace(req.Subject))

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s <%s>\n\n", req.UserName, req.UserEmail)
	body.WriteString(req.Message)
	body.WriteString("\n")
	msg.SetBodyString(mail.TypeTextPlain, body.String())
	return msg, nil
}

// SMTPNotifier sends support requests through an SMTP relay.
type SMTPNotifier struct {
	settings Settings
	logger   *slog.Logger
}

func NewSMTPNotifier(s Settings, logger *slog.Logger) *SMTPNotifier {
	return &SMTPNotifier{settings: s, logger: logger}
}

func (n *SMTPNotifier) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(n.settings.Port),
		mail.WithTimeout(sendTimeout),
	}
	if n.settings.Secure {
		opts = append(opts, mail.WithSSL(), mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if n.settings.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.settings.Username),
			mail.WithPassword(n.settings.Password),
		)
	}
	return opts
}

func (n *SMTPNotifier) Notify(ctx context.Context, req Request) error {
	msg, err := BuildMessage(n.settings, req)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(n.settings.Host, n.clientOptions()...)
	if err != nil {
		return fmt.Errorf("create mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send support email: %w", err)
	}

	n.logger.Info("Support email sent",
		slog.String("to", n.settings.To),
		slog.String("user_email", req.UserEmail))
	return nil
}

// LogNotifier records support requests in the log instead of sending them.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(_ context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	n.Logger.Info("Support request received (SMTP not configured, not sent)",
		slog.String("subject", SubjectPrefix+req.Subject),
		slog.String("user_email", req.UserEmail))
	return nil
}

type unconfiguredNotifier struct{}

func (unconfiguredNotifier) Notify(context.Context, Request) error {
	return ErrNotConfigured
}
