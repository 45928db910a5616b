package emailsvc

import (
	"encoding/json"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/libdesk/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	svc := NewConsoleServiceMock(core.NewTestConfig(), nopLogger{})

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Address: "asha@city.test"}},
			Subject:      "Your verification code",
			TemplateName: "otp",
			TemplateData: struct {
				Code    string
				Minutes int
			}{Code: "123456", Minutes: 5},
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
	)

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "123456")
	assert.Contains(t, sent[0].HTMLContent, "123456")
}

func TestSendgridService_Prepare(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewSendgridService(conf, nopLogger{}).(*sendgridService)

	msg := core.EmailMessage{
		To:          []mail.Address{{Name: "Asha", Address: "asha@city.test"}},
		Subject:     "Hello",
		TextContent: "plain",
	}
	req := svc.request(msg)
	assert.Equal(t, host+endpoint, req.BaseURL)

	var body struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			Subject string `json:"subject"`
			To      []struct {
				Email string `json:"email"`
			} `json:"to"`
		} `json:"personalizations"`
		Content []struct {
			Type string `json:"type"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, "noreply@localhost", body.From.Email)
	require.Len(t, body.Personalizations, 1)
	assert.Equal(t, "[LibDesk] Hello", body.Personalizations[0].Subject)
	assert.Equal(t, "asha@city.test", body.Personalizations[0].To[0].Email)
	require.Len(t, body.Content, 1) // no html part without html content
	assert.Equal(t, "text/plain", body.Content[0].Type)
}
