package notify

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/fiberbendr/OurShopper/internal/config"
	"github.com/fiberbendr/OurShopper/internal/models"
	"github.com/fiberbendr/OurShopper/internal/util"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "notify").Logger()

// Mailer sends one plain-text message.
type Mailer interface {
	Send(subject, body string) error
}

// SMTPMailer delivers through a configured SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// Notifier formats and sends purchase notifications off the request path.
// Submit never blocks and send failures never reach the caller; the
// worker goroutine is the error boundary for the whole side channel.
type Notifier struct {
	mailer Mailer
	jobs   chan models.Purchase
	done   chan struct{}
}

// NewNotifier starts the background worker. A nil mailer turns the
// notifier into a no-op sink, used when SMTP is not configured.
func NewNotifier(mailer Mailer, queueSize int) *Notifier {
	if queueSize <= 0 {
		queueSize = 16
	}
	n := &Notifier{
		mailer: mailer,
		jobs:   make(chan models.Purchase, queueSize),
		done:   make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *Notifier) run() {
	defer close(n.done)
	for p := range n.jobs {
		if n.mailer == nil {
			continue
		}
		subject, body := FormatPurchase(&p)
		if err := n.mailer.Send(subject, body); err != nil {
			logger.Error().Err(err).Str("place", p.Place).Msg("email notification failed")
			continue
		}
		logger.Info().Str("place", p.Place).Msg("email notification sent")
	}
}

// Submit queues a notification for the given purchase. When the queue is
// full the job is dropped: the side channel may lose mail, never block.
func (n *Notifier) Submit(p *models.Purchase) {
	select {
	case n.jobs <- *p:
	default:
		logger.Warn().Str("place", p.Place).Msg("notification queue full, dropping")
	}
}

// Close drains queued jobs and stops the worker.
func (n *Notifier) Close() {
	close(n.jobs)
	<-n.done
}

// FormatPurchase renders the subject and plain-text body for one purchase.
func FormatPurchase(p *models.Purchase) (subject, body string) {
	prices := make([]string, 0, len(p.LineItems))
	var items strings.Builder
	for i, item := range p.LineItems {
		prices = append(prices, item.Price)
		fmt.Fprintf(&items, "%d. %s: $%s\n", i+1, item.Category, util.FormatPrice(item.Price))
	}
	total := util.SumPrices(prices)

	payment := p.PaymentType
	if p.PaymentType == "Check" && p.CheckNumber != nil && *p.CheckNumber != "" {
		payment = fmt.Sprintf("%s #%s", p.PaymentType, *p.CheckNumber)
	}

	subject = fmt.Sprintf("New Purchase: %s - $%s", p.Place, total)
	body = fmt.Sprintf(`A new purchase has been added to OurShopper:

Date: %s
Place: %s
Payment Type: %s

Items:
%s
Total: $%s`,
		p.Date.Format("January 2, 2006"), p.Place, payment, items.String(), total)
	return subject, body
}
