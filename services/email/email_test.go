package emailsvc

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cuaderno/core"
	"github.com/trezcool/cuaderno/fs"
	"github.com/trezcool/cuaderno/tests"
)

func testConfig() *core.Config {
	return &core.Config{
		AppName:          "Cuaderno",
		SendgridApiKey:   "SG.test",
		DefaultFromEmail: mail.Address{Name: "Cuaderno", Address: "noreply@example.com"},
	}
}

func backupMessage(t *testing.T) *core.EmailMessage {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: "profe@example.com"}},
		Subject:      "Copia de seguridad",
		TemplateName: "backup",
		TemplateData: map[string]interface{}{
			"Date": "2025-10-06", "Activities": 2, "Students": 3, "Entries": 4, "Filename": "backup.json",
		},
	}
	require.NoError(t, msg.Attach(bytes.NewReader([]byte(`{}`)), "backup.json", "application/json"))
	return msg
}

func TestConsoleService(t *testing.T) {
	logger := testutil.NewLogger(t)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, true, logger)
	svc := NewConsoleServiceMock(testConfig(), logger)

	svc.SendMessages(
		backupMessage(t),
		&core.EmailMessage{Subject: "no recipients", BodyStr: "hola"},
		&core.EmailMessage{To: []mail.Address{{Address: "profe@example.com"}}, Subject: "no content"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "Alumnado: 3")
	assert.Contains(t, sent[0].HTMLContent, "<strong>backup.json</strong>")
	assert.Equal(t, 0, logger.Count("ERROR"))

	raw, err := svc.compose(sent[0])
	require.NoError(t, err)
	assert.Contains(t, raw, "Subject: [Cuaderno] Copia de seguridad\r\n")
	assert.Contains(t, raw, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, raw, "attachment; filename=backup.json")
}

func TestSendgridService(t *testing.T) {
	logger := testutil.NewLogger(t)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, true, logger)
	svc := NewSendgridService(testConfig(), logger).(*sendgridService)

	var requests []rest.Request
	sendgridAPI = func(req rest.Request) (*rest.Response, error) {
		requests = append(requests, req)
		return &rest.Response{StatusCode: 202}, nil
	}
	defer func() { sendgridAPI = defaultSendgridAPI }()

	require.NoError(t, svc.sendMessage(backupMessage(t)))
	require.Len(t, requests, 1)
	body := string(requests[0].Body)
	assert.Equal(t, rest.Post, requests[0].Method)
	assert.True(t, strings.HasSuffix(requests[0].BaseURL, endpoint))
	assert.Contains(t, body, `"subject":"[Cuaderno] Copia de seguridad"`)
	assert.Contains(t, body, `"filename":"backup.json"`)

	sendgridAPI = func(req rest.Request) (*rest.Response, error) {
		return &rest.Response{StatusCode: 401, Body: "unauthorized"}, nil
	}
	assert.Error(t, svc.sendMessage(backupMessage(t)))
	assert.Equal(t, 1, logger.Count("ERROR"))
}
