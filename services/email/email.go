// Package emailsvc provides the email backends used for notifications.
package emailsvc

import (
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core"
)

// New returns the backend selected by conf.Email.Backend.
func New(conf *core.Config, logger core.Logger) (core.EmailService, error) {
	switch conf.Email.Backend {
	case "", consoleBackend:
		return NewConsoleService(conf, logger), nil
	case sendgridBackend:
		if conf.Email.SendgridAPIKey == "" {
			return nil, errors.New("sendgrid backend requires a SendGrid API key")
		}
		return NewSendgridService(conf, logger), nil
	case smtpBackend:
		if conf.Email.SMTPHost == "" {
			return nil, errors.New("smtp backend requires an SMTP host")
		}
		return NewSMTPService(conf, logger), nil
	default:
		return nil, errors.Errorf("unknown email backend %q", conf.Email.Backend)
	}
}
