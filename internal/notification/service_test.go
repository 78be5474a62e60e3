package notification

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bher20/ecoenergy/internal/config"
)

func TestSend_Disabled(t *testing.T) {
	svc := NewService(config.MailConfig{}, nil)
	require.False(t, svc.Enabled())
	err := svc.Send(context.Background(), Message{To: "ana@example.com"})
	require.ErrorIs(t, err, ErrDisabled)
}

func TestSend_RejectsBadInput(t *testing.T) {
	svc := NewService(config.MailConfig{Provider: "carrier-pigeon", FromAddress: "eco@example.com"}, nil)

	err := svc.Send(context.Background(), Message{To: "not an address"})
	require.ErrorIs(t, err, ErrInvalidRecipient)

	err = svc.Send(context.Background(), Message{To: "ana@example.com"})
	require.ErrorContains(t, err, "unknown mail provider")
}

func TestBuildMIME_CarriesAttachment(t *testing.T) {
	svc := NewService(config.MailConfig{Provider: "smtp", FromAddress: "eco@example.com", FromName: "EcoEnergy"}, nil)
	pdf := bytes.Repeat([]byte("%PDF-1.3 relatório "), 20)
	raw, err := svc.buildMIME(ReportMessage("ana@example.com", "ana", "ana_relatorio.pdf", pdf))
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", msg.Header.Get("To"))
	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	require.Equal(t, "Relatório de Consumo de Energia - ana", subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var parts []*multipart.Part
	var payloads [][]byte
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, p)
		payloads = append(payloads, b)
	}
	require.Len(t, parts, 2)

	body, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(payloads[0]), "\r\n", ""))
	require.NoError(t, err)
	require.Contains(t, string(body), "relatório de consumo de energia de ana")

	require.Equal(t, "ana_relatorio.pdf", parts[1].FileName())
	att, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(payloads[1]), "\r\n", ""))
	require.NoError(t, err)
	require.Equal(t, pdf, att)
}

func TestSendgridMessage_Attachment(t *testing.T) {
	svc := NewService(config.MailConfig{Provider: "sendgrid", FromAddress: "eco@example.com", FromName: "EcoEnergy"}, nil)
	m := svc.sendgridMessage(ReportMessage("ana@example.com", "ana", "ana_relatorio.pdf", []byte("pdf")))
	require.Len(t, m.Attachments, 1)
	require.Equal(t, "ana_relatorio.pdf", m.Attachments[0].Filename)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("pdf")), m.Attachments[0].Content)
	require.Equal(t, "eco@example.com", m.From.Address)
}
