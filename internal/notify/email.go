package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/juparave/gapaudit/internal/config"
	"github.com/juparave/gapaudit/internal/domain"
	"github.com/juparave/gapaudit/internal/report"
	"github.com/sirupsen/logrus"
)

const maxAttempts = 3

// Service handles email notifications
type Service struct {
	config    config.EmailConfig
	logger    *logrus.Logger
	formatter *report.Formatter
	sleep     func(context.Context, time.Duration) error
	now       func() time.Time
}

// NewService creates a new notification Service
func NewService(cfg config.EmailConfig, logger *logrus.Logger) (*Service, error) {
	if cfg.SMTPHost == "" || cfg.ToAddress == "" || cfg.FromAddress == "" {
		return nil, fmt.Errorf("smtp_host, from_address and to_address are required")
	}
	return &Service{
		config:    cfg,
		logger:    logger,
		formatter: report.NewFormatter(""),
		sleep:     sleepContext,
		now:       time.Now,
	}, nil
}

// SendReport sends the gap report as an HTML summary with the CSV attached
func (s *Service) SendReport(ctx context.Context, rpt *domain.Report) error {
	message, err := s.buildMessage(rpt)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.sendWithTimeout(addr, message, 30*time.Second)
		if err == nil {
			return nil
		}

		lastErr = err
		s.logger.WithFields(logrus.Fields{"attempt": attempt, "error": err}).Warn("email attempt failed")

		if attempt < maxAttempts {
			if err := s.sleep(ctx, time.Duration(attempt*attempt)*time.Second); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}

func (s *Service) buildSubject(rpt *domain.Report) string {
	date := rpt.Date.Format("Jan 2")

	if !rpt.HasFindings() {
		return fmt.Sprintf("[Gap Audit] %s - %s - ✅ No gaps", rpt.Source, date)
	}

	critical := rpt.CriticalCount()
	if critical > 0 {
		return fmt.Sprintf("[Gap Audit] %s - %s - ⚠️ %d findings (%d critical)", rpt.Source, date, rpt.TotalFindings(), critical)
	}

	return fmt.Sprintf("[Gap Audit] %s - %s - %d findings", rpt.Source, date, rpt.TotalFindings())
}

func (s *Service) buildMessage(rpt *domain.Report) ([]byte, error) {
	var csvBody bytes.Buffer
	if err := report.WriteCSV(&csvBody, rpt.Rows); err != nil {
		return nil, fmt.Errorf("rendering csv attachment: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	htmlPart.Write([]byte(s.formatter.ToHTML(rpt)))

	attachment, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/csv; charset=UTF-8"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", report.Filename(rpt, report.FormatCSV))},
	})
	if err != nil {
		return nil, err
	}
	attachment.Write([]byte(wrap(base64.StdEncoding.EncodeToString(csvBody.Bytes()), 76)))

	if err := mw.Close(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	now := s.now()

	// Headers
	buf.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.FromAddress))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", s.config.ToAddress))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", s.buildSubject(rpt)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%s\r\n", mw.Boundary()))
	buf.WriteString(fmt.Sprintf("Date: %s\r\n", now.Format(time.RFC1123Z)))
	buf.WriteString(fmt.Sprintf("Message-ID: <%d@%s>\r\n", now.UnixNano(), s.config.SMTPHost))
	buf.WriteString("\r\n")

	buf.Write(body.Bytes())

	return buf.Bytes(), nil
}

func wrap(s string, width int) string {
	var b bytes.Buffer
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteString("\r\n")
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}

func (s *Service) sendWithTimeout(addr string, message []byte, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("connecting to SMTP server: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Quit()

	// Start TLS if port is 587
	if s.config.SMTPPort == 587 {
		tlsConfig := &tls.Config{ServerName: s.config.SMTPHost}
		if err = client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starting TLS: %w", err)
		}
	}

	if s.config.SMTPUser != "" && s.config.SMTPPassword != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUser, s.config.SMTPPassword, s.config.SMTPHost)
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	if err = client.Mail(s.config.FromAddress); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err = client.Rcpt(s.config.ToAddress); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("getting data writer: %w", err)
	}

	if _, err = writer.Write(message); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}

	return writer.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
