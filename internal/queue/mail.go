package queue

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/planetarium-booking/internal/config"
	"github.com/iliyamo/planetarium-booking/internal/utils"
)

// GomailSender delivers confirmation mail over SMTP.
type GomailSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewGomailSender returns nil when cfg is not enabled, so the result can
// be assigned to Consumer.Mailer directly.
func NewGomailSender(cfg config.SMTPConfig) Mailer {
	if !cfg.Enabled() {
		return nil
	}
	return &GomailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// ConfirmationMessage builds the email for ev with one QR code PNG
// attached per ticket.
func ConfirmationMessage(from string, ev ReservationCreatedEvent) (*gomail.Message, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", ev.UserEmail)
	m.SetHeader("Subject", fmt.Sprintf("Your planetarium reservation #%d", ev.ReservationID))

	var b strings.Builder
	fmt.Fprintf(&b, "Reservation #%d was created at %s.\n\n", ev.ReservationID, ev.CreatedAt.Format("2006-01-02 15:04 MST"))
	for _, t := range ev.Tickets {
		fmt.Fprintf(&b, "Session %d: row %d, seat %d (ticket #%d)\n", t.SessionID, t.Row, t.Seat, t.TicketID)
	}
	m.SetBody("text/plain", b.String())

	for _, t := range ev.Tickets {
		png, err := utils.GenerateQRCode(utils.TicketQRContent(ev.ReservationID, t.TicketID, t.SessionID, t.Row, t.Seat), 256)
		if err != nil {
			return nil, fmt.Errorf("qr for ticket %d: %w", t.TicketID, err)
		}
		filename := fmt.Sprintf("ticket_%d.png", t.TicketID)
		m.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := io.Copy(w, bytes.NewReader(png))
			return err
		}))
	}
	return m, nil
}

func (s *GomailSender) SendReservationCreated(ev ReservationCreatedEvent) error {
	m, err := ConfirmationMessage(s.from, ev)
	if err != nil {
		return err
	}
	return s.dialer.DialAndSend(m)
}
