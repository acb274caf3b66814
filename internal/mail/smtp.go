package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
)

// TLS modes understood by SMTPSender.
const (
	TLSStartTLS = "starttls"
	TLSImplicit = "tls"
	TLSNone     = "none"
)

// SMTPConfig configures an SMTPSender. Username and Password are used for
// SASL PLAIN when Username is non-empty. From is the envelope sender and the
// default From header.
type SMTPConfig struct {
	Host     string
	Port     int
	TLSMode  string
	Username string
	Password string
	From     string
	// TLSConfig overrides the client TLS settings; nil means verify Host.
	TLSConfig *tls.Config
}

// SMTPSender relays mail through an SMTP submission server, one connection per message.
type SMTPSender struct {
	cfg SMTPConfig
	now func() time.Time
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.TLSMode == "" {
		cfg.TLSMode = TLSStartTLS
	}
	return &SMTPSender{cfg: cfg, now: time.Now}
}

var _ Sender = (*SMTPSender)(nil)

// Send delivers msg. The connection is closed as soon as ctx is done, so a
// stalled server cannot hold the caller past its deadline.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = s.cfg.From
	}
	raw, err := encodeMessage(msg, from, s.now())
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	conn, err := s.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := s.deliver(conn, from, msg.To, raw); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("smtp send to %s: %w", addr, ctxErr)
		}
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	return nil
}

func (s *SMTPSender) deliver(conn net.Conn, from, to string, raw []byte) error {
	var c *gosmtp.Client
	if s.cfg.TLSMode == TLSStartTLS {
		// NewClientStartTLS fails when the server does not offer STARTTLS.
		var err error
		if c, err = gosmtp.NewClientStartTLS(conn, s.tlsConfig()); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	} else {
		c = gosmtp.NewClient(conn)
	}
	defer c.Close()

	if s.cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.SendMail(from, []string{to}, bytes.NewReader(raw)); err != nil {
		return err
	}
	return c.Quit()
}

func (s *SMTPSender) dial(ctx context.Context, addr string) (net.Conn, error) {
	nd := &net.Dialer{Timeout: 30 * time.Second}
	if s.cfg.TLSMode == TLSImplicit {
		td := &tls.Dialer{NetDialer: nd, Config: s.tlsConfig()}
		return td.DialContext(ctx, "tcp", addr)
	}
	return nd.DialContext(ctx, "tcp", addr)
}

func (s *SMTPSender) tlsConfig() *tls.Config {
	if s.cfg.TLSConfig != nil {
		return s.cfg.TLSConfig.Clone()
	}
	return &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
}
