package emailsvc

import (
	"net/mail"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/maintenance/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type taskData struct {
	TechnicianName string
	TaskType       string
	ScheduledDate  string
	Priority       string
}

func newMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: "Tom Tech", Address: "tom@example.com"}},
		Cc:           []mail.Address{{Address: "sup@example.com"}},
		Subject:      "New Maintenance Task Assigned",
		TemplateName: "task_assigned",
		TemplateData: taskData{
			TechnicianName: "Tom Tech",
			TaskType:       "Oil change",
			ScheduledDate:  "2026-10-20",
			Priority:       "High",
		},
	}
}

func TestNew(t *testing.T) {
	conf := core.NewTestConfig()

	tests := []struct {
		name    string
		backend string
		setup   func(c *core.Config)
		wantErr bool
	}{
		{name: "default", backend: ""},
		{name: "console", backend: "console"},
		{name: "sendgrid without key", backend: "sendgrid", wantErr: true},
		{name: "sendgrid", backend: "sendgrid", setup: func(c *core.Config) { c.Email.SendgridAPIKey = "key" }},
		{name: "smtp without host", backend: "smtp", wantErr: true},
		{name: "smtp", backend: "smtp", setup: func(c *core.Config) { c.Email.SMTPHost = "localhost" }},
		{name: "unknown", backend: "pigeon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *conf
			c.Email.Backend = tt.backend
			if tt.setup != nil {
				tt.setup(&c)
			}
			svc, err := New(&c, nopLogger{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestConsoleServiceMock_Send(t *testing.T) {
	svc := NewConsoleServiceMock(core.NewTestConfig(), nopLogger{})

	msg := newMessage()
	svc.SendMessages(msg)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "Hello Tom Tech,")
	assert.Contains(t, sent[0].TextContent, "Task Type: Oil change")
	assert.Contains(t, sent[0].TextContent, "Priority Level: High")
	assert.Contains(t, sent[0].HTMLContent, "Oil change")

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestConsoleServiceMock_skipsUndeliverable(t *testing.T) {
	svc := NewConsoleServiceMock(core.NewTestConfig(), nopLogger{})

	noRecipient := newMessage()
	noRecipient.To = nil
	noContent := &core.EmailMessage{To: []mail.Address{{Address: "tom@example.com"}}}
	badTemplate := newMessage()
	badTemplate.TemplateName = "does_not_exist"

	assert.False(t, svc.Send(noRecipient))
	assert.False(t, svc.Send(noContent))
	assert.False(t, svc.Send(badTemplate))
	assert.Empty(t, svc.SentMessages())
}

func TestBuildMIME(t *testing.T) {
	msg := &core.EmailMessage{
		To:          []mail.Address{{Address: "tom@example.com"}},
		TextContent: "plain body",
		HTMLContent: "<p>html body</p>",
	}
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	body, err := buildMIME(mail.Address{Name: "App", Address: "noreply@localhost"}, "[App] Hi", msg, now)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(body, `From: "App" <noreply@localhost>`+"\r\n"))
	assert.Contains(t, body, "Subject: [App] Hi\r\n")
	assert.Contains(t, body, "To: <tom@example.com>\r\n")
	assert.NotContains(t, body, "Cc:")
	assert.Contains(t, body, "Date: "+now.Format(time.RFC1123Z))
	assert.Contains(t, body, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, body, "plain body")
	assert.Contains(t, body, "<p>html body</p>")
	assert.Less(t, strings.Index(body, "text/plain"), strings.Index(body, "text/html"))
}

func TestSMTPService_Send(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Email.Backend = "smtp"
	conf.Email.SMTPHost = "mail.example.com"
	conf.Email.SMTPPort = 2525
	conf.Email.SMTPUser = "bot"
	conf.Email.SMTPPassword = "pwd"

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotBody string
		gotAuth smtp.Auth
	)
	svc := NewSMTPService(conf, nopLogger{})
	svc.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotBody = addr, a, from, to, string(msg)
		return nil
	}

	require.True(t, svc.Send(newMessage()))
	assert.Equal(t, "mail.example.com:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, conf.Email.DefaultFromEmail, gotFrom)
	assert.Equal(t, []string{"tom@example.com", "sup@example.com"}, gotTo)
	assert.Contains(t, gotBody, "Subject: ["+conf.AppName+"] New Maintenance Task Assigned")

	svc.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	assert.False(t, svc.Send(newMessage()))
}

func TestSendgridService_prepare(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Email.SendgridAPIKey = "key"
	svc := NewSendgridService(conf, nopLogger{})

	msg := newMessage()
	require.NoError(t, msg.Render(conf))
	m := svc.prepare(msg)

	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "["+conf.AppName+"] New Maintenance Task Assigned", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "tom@example.com", p.To[0].Address)
	require.Len(t, p.CC, 1)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
}
