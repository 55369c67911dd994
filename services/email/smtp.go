package emailsvc

import (
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/services/metrics"
)

const smtpBackend = "smtp"

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpService struct {
	conf       *core.Config
	addr       string
	auth       smtp.Auth
	from       mail.Address
	subjPrefix string
	logger     core.Logger
	sendMail   sendMailFunc
}

var _ core.EmailService = (*smtpService)(nil)

func NewSMTPService(conf *core.Config, logger core.Logger) *smtpService {
	svc := &smtpService{
		conf:       conf,
		addr:       net.JoinHostPort(conf.Email.SMTPHost, strconv.Itoa(conf.Email.SMTPPort)),
		from:       conf.DefaultFromEmail(),
		subjPrefix: subjectPrefix(conf),
		logger:     logger,
		sendMail:   smtp.SendMail,
	}
	if conf.Email.SMTPUser != "" {
		svc.auth = smtp.PlainAuth("", conf.Email.SMTPUser, conf.Email.SMTPPassword, conf.Email.SMTPHost)
	}
	return svc
}

func (svc *smtpService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.Send(msg)
	}
}

func (svc *smtpService) Send(msg *core.EmailMessage) bool {
	ok := svc.send(msg)
	metrics.RecordEmail(smtpBackend, ok)
	return ok
}

func (svc *smtpService) send(msg *core.EmailMessage) bool {
	if err := msg.Render(svc.conf); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering email: %v", err), err)
		return false
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return false
	}
	body, err := buildMIME(svc.from, svc.subjPrefix+msg.Subject, msg, time.Now())
	if err != nil {
		svc.logger.Error(fmt.Sprintf("building email: %v", err), err)
		return false
	}
	if err = svc.sendMail(svc.addr, svc.auth, svc.from.Address, msg.Recipients(), []byte(body)); err != nil {
		svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
		return false
	}
	return true
}
