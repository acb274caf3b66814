package mail

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/portfolio/backend/internal/model"
)

const (
	ownerHTML = `<h2>New Contact Form Submission</h2>
<p><strong>From:</strong> {{.Name}} ({{.Email}})</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`
	ownerText = `New Contact Form Submission

From: {{.Name}} ({{.Email}})
Subject: {{.Subject}}

{{.Message}}
`
	replyHTML = `<h2>Thank you for reaching out!</h2>
<p>Dear {{.Name}},</p>
<p>I have received your message and will get back to you as soon as possible.</p>
<p>Best regards,<br>{{.Signature}}</p>
`
	replyText = `Thank you for reaching out!

Dear {{.Name}},

I have received your message and will get back to you as soon as possible.

Best regards,
{{.Signature}}
`
)

// AutoReplySubject is the subject line of the acknowledgment sent to the submitter.
const AutoReplySubject = "Thank you for contacting me"

var (
	ownerHTMLTmpl = htmltemplate.Must(htmltemplate.New("owner.html").Parse(ownerHTML))
	ownerTextTmpl = texttemplate.Must(texttemplate.New("owner.txt").Parse(ownerText))
	replyHTMLTmpl = htmltemplate.Must(htmltemplate.New("reply.html").Parse(replyHTML))
	replyTextTmpl = texttemplate.Must(texttemplate.New("reply.txt").Parse(replyText))
)

// Composer builds the two notification emails of a contact submission.
type Composer struct {
	ownerAddress string
	signature    string
}

// NewComposer creates a Composer. ownerAddress receives the submission alert,
// signature closes the auto-reply.
func NewComposer(ownerAddress, signature string) *Composer {
	return &Composer{
		ownerAddress: ownerAddress,
		signature:    signature,
	}
}

// OwnerAddress returns the address that receives submission alerts.
func (c *Composer) OwnerAddress() string { return c.ownerAddress }

// OwnerNotification builds the alert sent to the site owner. The message body
// is HTML-escaped verbatim and its line breaks become <br>.
func (c *Composer) OwnerNotification(in model.ContactInput) (Message, error) {
	htmlData := struct {
		Name, Email, Subject string
		Message              htmltemplate.HTML
	}{
		Name:    in.Name,
		Email:   in.Email,
		Subject: in.Subject,
		Message: htmltemplate.HTML(lineBreaks(htmltemplate.HTMLEscapeString(normalizeNewlines(in.Message)))),
	}

	var html, text bytes.Buffer
	if err := ownerHTMLTmpl.Execute(&html, htmlData); err != nil {
		return Message{}, err
	}
	if err := ownerTextTmpl.Execute(&text, in); err != nil {
		return Message{}, err
	}

	return Message{
		To:       c.ownerAddress,
		Subject:  "New Contact Form Submission: " + in.Subject,
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}

// AutoReply builds the acknowledgment sent back to the submitter.
func (c *Composer) AutoReply(in model.ContactInput) (Message, error) {
	data := struct{ Name, Signature string }{Name: in.Name, Signature: c.signature}

	var html, text bytes.Buffer
	if err := replyHTMLTmpl.Execute(&html, data); err != nil {
		return Message{}, err
	}
	if err := replyTextTmpl.Execute(&text, data); err != nil {
		return Message{}, err
	}

	return Message{
		To:       in.Email,
		Subject:  AutoReplySubject,
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func lineBreaks(s string) string {
	return strings.ReplaceAll(s, "\n", "<br>")
}
