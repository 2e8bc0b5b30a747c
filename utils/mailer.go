package utils

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"gopkg.in/gomail.v2"

	"coldreach/config"
)

// Mailer delivers outreach emails over SMTP and, when IMAP credentials
// are configured, drops a copy into the account's Sent folder so the
// thread shows up in the sender's mailbox.
type Mailer struct {
	SMTP   config.SMTPConfig
	IMAP   config.IMAPConfig
	CC     []string
	Logger *log.Logger
}

func NewMailer(cfg *config.Config, logger *log.Logger) *Mailer {
	return &Mailer{
		SMTP:   cfg.SMTP,
		IMAP:   cfg.IMAP,
		CC:     cfg.CCEmails,
		Logger: logger,
	}
}

// Send delivers one HTML email. The SMTP handoff is the irreversible
// side effect; the IMAP copy afterwards is best-effort only.
func (m *Mailer) Send(to, subject, bodyHTML, from string) error {
	if from == "" {
		from = m.SMTP.Username
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	if len(m.CC) > 0 {
		msg.SetHeader("Cc", m.CC...)
	}
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", bodyHTML)

	d := gomail.NewDialer(m.SMTP.Host, m.SMTP.Port, m.SMTP.Username, m.SMTP.Password)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}

	if m.IMAP.Enabled {
		if err := m.saveToSent(msg); err != nil {
			// the email is already out; losing the mailbox copy is tolerable
			m.Logger.Printf("Failed to save copy to Sent folder: %v", err)
		}
	}

	return nil
}

// saveToSent appends the raw message to whatever Sent folder the account
// exposes. Folder naming varies wildly between providers.
func (m *Mailer) saveToSent(msg *gomail.Message) error {
	addr := fmt.Sprintf("%s:%d", m.IMAP.Host, m.IMAP.Port)
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("IMAP dial failed: %w", err)
	}
	defer c.Logout()

	if err := c.Login(m.IMAP.Username, m.IMAP.Password); err != nil {
		return fmt.Errorf("IMAP login failed: %w", err)
	}

	mailboxes := make(chan *imap.MailboxInfo, 50)
	done := make(chan error, 1)
	go func() {
		done <- c.List("", "*", mailboxes)
	}()

	var folders []string
	for mbox := range mailboxes {
		folders = append(folders, mbox.Name)
	}
	if err := <-done; err != nil {
		return fmt.Errorf("IMAP list failed: %w", err)
	}

	target := pickSentFolder(folders)
	if target == "" {
		return fmt.Errorf("no Sent folder found among %v", folders)
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return err
	}

	if err := c.Append(target, []string{imap.SeenFlag}, time.Now(), &buf); err != nil {
		return fmt.Errorf("IMAP append to %q failed: %w", target, err)
	}

	m.Logger.Printf("Saved sent copy to IMAP folder %q", target)
	return nil
}

func pickSentFolder(folders []string) string {
	candidates := []string{"Sent Items", "Sent", "INBOX.Sent", "INBOX.Sent Items", "Enviados"}
	for _, candidate := range candidates {
		for _, folder := range folders {
			if folder == candidate {
				return folder
			}
		}
	}
	for _, folder := range folders {
		if strings.Contains(strings.ToLower(folder), "sent") {
			return folder
		}
	}
	return ""
}
