package mail

import (
	"bytes"
	"fmt"
	"io"
	netmail "net/mail"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// headerSanitizer drops CR and LF so user-supplied values cannot add headers.
var headerSanitizer = strings.NewReplacer("\r", " ", "\n", " ")

// encodeMessage renders msg as an RFC 5322 message with a multipart/alternative
// body (text first, HTML last).
func encodeMessage(msg Message, from string, now time.Time) ([]byte, error) {
	if msg.To == "" {
		return nil, fmt.Errorf("missing recipient")
	}
	if from == "" {
		return nil, fmt.Errorf("missing sender")
	}
	toAddr, err := netmail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	fromAddr, err := netmail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}

	var h gomail.Header
	h.SetAddressList("From", []*gomail.Address{fromAddr})
	h.SetAddressList("To", []*gomail.Address{toAddr})
	h.SetSubject(headerSanitizer.Replace(msg.Subject))
	h.SetDate(now)
	h.SetMessageID(uuid.NewString() + "@" + domainOf(fromAddr.Address))

	var buf bytes.Buffer
	w, err := gomail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if msg.TextBody != "" {
		if err := writePart(w, "text/plain", msg.TextBody); err != nil {
			return nil, err
		}
	}
	if msg.HTMLBody != "" {
		if err := writePart(w, "text/html", msg.HTMLBody); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePart(w *gomail.InlineWriter, contentType, body string) error {
	var ph gomail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	ph.Set("Content-Transfer-Encoding", "quoted-printable")
	pw, err := w.CreatePart(ph)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(pw, body); err != nil {
		return err
	}
	return pw.Close()
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 && i < len(addr)-1 {
		return strings.Trim(addr[i+1:], "<> ")
	}
	return "localhost"
}
