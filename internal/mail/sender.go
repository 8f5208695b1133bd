package mail

import "log/slog"

type Message struct {
	To      []string
	Subject string
	Body    string
	IsHTML  bool
}

type Sender interface {
	Send(message *Message) error
}

// NullSender discards mail; the development default when no SMTP backend is
// configured.
type NullSender struct{}

func (NullSender) Send(message *Message) error {
	slog.Debug("Mail sending disabled, dropping message", "subject", message.Subject)
	return nil
}
