// Package notify emails generated letters and publishes letter events.
package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"

	apperrors "engagement-letters/internal/common/errors"
	"engagement-letters/internal/common/logger"
	"engagement-letters/internal/common/validation"
	"engagement-letters/internal/engagement/templates"
	"engagement-letters/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var ErrInvalidRecipient = errors.New("invalid recipient email")

// SESAPI is the part of the SES client the mailer needs.
type SESAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// Letter is a generated document addressed to a vendor.
type Letter struct {
	DocumentPath string
	To           string
	LoanName     string
	LetterType   models.LetterType
}

func (l Letter) Subject() string {
	return fmt.Sprintf("%s %s Engagement Letter", l.LoanName, templates.DisplayName(l.LetterType))
}

type Mailer struct {
	client SESAPI
	from   string
	logger logger.Logger
}

func NewMailer(client SESAPI, from string, log logger.Logger) *Mailer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Mailer{
		client: client,
		from:   from,
		logger: log.WithFields(map[string]interface{}{"component": "mailer"}),
	}
}

// Send emails the letter as a .docx attachment and returns the SES message id.
func (m *Mailer) Send(ctx context.Context, l Letter) (string, error) {
	if !validation.ValidateEmail(l.To) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRecipient, l.To)
	}

	doc, err := os.ReadFile(l.DocumentPath)
	if err != nil {
		return "", fmt.Errorf("read letter: %w", err)
	}

	raw, err := BuildMessage(m.from, l, doc)
	if err != nil {
		return "", fmt.Errorf("build message: %w", err)
	}

	out, err := m.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(m.from),
		Destinations: []string{l.To},
		RawMessage:   &types.RawMessage{Data: raw},
	})
	if err != nil {
		m.logger.Error("email send failed", map[string]interface{}{
			"to":    l.To,
			"loan":  l.LoanName,
			"error": err.Error(),
		})
		return "", apperrors.NewNotificationSendFailedError("email", err)
	}

	id := aws.ToString(out.MessageId)
	m.logger.Info("letter emailed", map[string]interface{}{
		"to":        l.To,
		"loan":      l.LoanName,
		"messageId": id,
	})
	return id, nil
}

// BuildMessage renders a multipart/mixed message with a short text body and
// the document attached.
func BuildMessage(from string, l Letter, doc []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"7bit"},
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(text, "Please find attached the %s engagement letter for %s.\r\n",
		templates.DisplayName(l.LetterType), l.LoanName)

	name := filepath.Base(l.DocumentPath)
	att, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {mime.FormatMediaType(docxContentType, map[string]string{"name": name})},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": name})},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeBase64(att, doc); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", l.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", l.Subject()))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// writeBase64 wraps encoded output at 76 columns.
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
