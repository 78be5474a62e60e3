// Package notification mails consumption reports over SMTP or SendGrid.
package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/bher20/ecoenergy/internal/config"
)

var (
	ErrDisabled         = errors.New("email not configured")
	ErrInvalidRecipient = errors.New("invalid recipient address")
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a single outgoing e-mail.
type Message struct {
	To          string
	Subject     string
	Body        string // plain text
	Attachments []Attachment
}

type Service struct {
	cfg config.MailConfig
	log *zap.Logger
}

func NewService(cfg config.MailConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cfg: cfg, log: log}
}

// Enabled reports whether Send can deliver anything.
func (s *Service) Enabled() bool { return s.cfg.Enabled() }

// Send delivers msg through the configured provider.
func (s *Service) Send(ctx context.Context, msg Message) error {
	if !s.cfg.Enabled() {
		return ErrDisabled
	}
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, msg.To)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var err error
	switch s.cfg.Provider {
	case "smtp", "gmail":
		err = s.sendSMTP(msg)
	case "sendgrid":
		err = s.sendSendgrid(ctx, msg)
	default:
		return fmt.Errorf("unknown mail provider: %s", s.cfg.Provider)
	}
	if err != nil {
		s.log.Warn("send email failed", zap.String("provider", s.cfg.Provider), zap.String("to", msg.To), zap.Error(err))
		return err
	}
	s.log.Info("email sent", zap.String("provider", s.cfg.Provider), zap.String("to", msg.To), zap.Int("attachments", len(msg.Attachments)))
	return nil
}

// ReportMessage is the e-mail carrying the PDF report of username.
func ReportMessage(to, username, filename string, pdf []byte) Message {
	return Message{
		To:      to,
		Subject: "Relatório de Consumo de Energia - " + username,
		Body:    "Segue em anexo o relatório de consumo de energia de " + username + ".\n\nEcoEnergy",
		Attachments: []Attachment{
			{Filename: filename, ContentType: "application/pdf", Data: pdf},
		},
	}
}

func (s *Service) from() string {
	return (&mail.Address{Name: s.cfg.FromName, Address: s.cfg.FromAddress}).String()
}

// buildMIME renders msg as a multipart/mixed RFC 5322 message.
func (s *Service) buildMIME(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", s.from())
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {`text/plain; charset="UTF-8"`},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeBase64(body, []byte(msg.Body)); err != nil {
		return nil, err
	}

	for _, a := range msg.Attachments {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {a.ContentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, a.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBase64 wraps encoded lines at 76 characters.
func writeBase64(w io.Writer, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		if _, err := w.Write([]byte(enc[:76] + "\r\n")); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := w.Write([]byte(enc + "\r\n"))
	return err
}

func (s *Service) sendSMTP(msg Message) error {
	cfg := s.cfg
	raw, err := s.buildMIME(msg)
	if err != nil {
		return err
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, port)

	var c *smtp.Client
	switch strings.ToLower(cfg.Encryption) {
	case "ssl":
		// Implicit TLS.
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
		if err != nil {
			return err
		}
		c, err = smtp.NewClient(conn, cfg.Host)
		if err != nil {
			conn.Close()
			return err
		}
	case "tls":
		c, err = smtp.Dial(addr)
		if err != nil {
			return err
		}
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
				c.Close()
				return err
			}
		}
	default:
		var auth smtp.Auth
		if cfg.Username != "" {
			auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		}
		return smtp.SendMail(addr, auth, cfg.FromAddress, []string{msg.To}, raw)
	}
	defer c.Quit()

	if cfg.Username != "" && cfg.Password != "" {
		if err := c.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
			return err
		}
	}
	if err := c.Mail(cfg.FromAddress); err != nil {
		return err
	}
	if err := c.Rcpt(msg.To); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	return w.Close()
}

func (s *Service) sendgridMessage(msg Message) *sgmail.SGMailV3 {
	from := sgmail.NewEmail(s.cfg.FromName, s.cfg.FromAddress)
	to := sgmail.NewEmail("", msg.To)
	m := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Body, "")
	for _, a := range msg.Attachments {
		att := sgmail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(a.Data))
		att.SetType(a.ContentType)
		att.SetFilename(a.Filename)
		att.SetDisposition("attachment")
		m.AddAttachment(att)
	}
	return m
}

func (s *Service) sendSendgrid(ctx context.Context, msg Message) error {
	client := sendgrid.NewSendClient(s.cfg.APIKey)
	resp, err := client.SendWithContext(ctx, s.sendgridMessage(msg))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: %d %s", resp.StatusCode, resp.Body)
	}
	return nil
}
