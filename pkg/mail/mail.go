// Package mail sends report and failure-notification emails over SMTP.
package mail

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/pkg/errors"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/d9i2r2t1/hh-parser/pkg/config"
)

// addressRe is deliberately loose: the SMTP server is the authority on
// deliverability, this only catches obvious config typos.
var addressRe = regexp.MustCompile(`.+@.+\..+`)

type Sender struct {
	cfg config.Email
}

func NewSender(cfg config.Email) *Sender {
	return &Sender{cfg: cfg}
}

// Message is one outgoing email. Multiple attachments are zipped into a
// single archive before sending.
type Message struct {
	Subject     string
	Text        string
	Attachments []string
}

// SendReport mails the report file to the configured recipients.
func (s *Sender) SendReport(searchText, reportPath string, now time.Time) error {
	subject := s.cfg.EmailSubject
	if subject == "" {
		subject = fmt.Sprintf("Отчет по вакансиям hh.ru: %s", searchText)
	}
	return s.Send(Message{
		Subject: subject,
		Text: fmt.Sprintf("Во вложении отчет по вакансиям на hh.ru по запросу %q за %s.\n",
			searchText, now.Format("02.01.2006")),
		Attachments: []string{reportPath},
	})
}

// SendFailure mails a crash notification, attaching the log file when it exists.
func (s *Sender) SendFailure(runErr error, logPath string, now time.Time) error {
	msg := Message{
		Subject: "EXCEPTION: hh-parser",
		Text:    fmt.Sprintf("%s\n\n%+v\n", now.Format("02.01.2006 15:04:05"), runErr),
	}
	if logPath != "" {
		if _, err := os.Stat(logPath); err == nil {
			msg.Attachments = []string{logPath}
		}
	}
	return s.Send(msg)
}

func (s *Sender) Send(msg Message) error {
	if err := validateAddresses(s.cfg.EmailFrom, s.cfg.EmailTo); err != nil {
		return err
	}

	m := gomail.NewMsg()
	if err := m.From(s.cfg.EmailFrom); err != nil {
		return errors.Wrap(err, "failed to set sender")
	}
	if err := m.To(s.cfg.EmailTo...); err != nil {
		return errors.Wrap(err, "failed to set recipients")
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)

	attachments, cleanup, err := packAttachments(msg.Attachments)
	if err != nil {
		return err
	}
	defer cleanup()
	for _, attachment := range attachments {
		m.AttachFile(attachment)
	}

	client, err := s.newClient()
	if err != nil {
		return err
	}

	zap.S().Infof("Sending email with the subject %q...", msg.Subject)
	if err := client.DialAndSend(m); err != nil {
		return errors.Wrapf(err, "failed to send email %q to %v from %s", msg.Subject, s.cfg.EmailTo, s.cfg.EmailFrom)
	}
	zap.S().Infof("Email %q sent to %v from %s", msg.Subject, s.cfg.EmailTo, s.cfg.EmailFrom)
	return nil
}

func (s *Sender) newClient() (*gomail.Client, error) {
	options := []gomail.Option{
		mailPortOption(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Login),
		gomail.WithPassword(s.cfg.Password),
	}
	if s.cfg.SSL {
		options = append(options, gomail.WithSSL())
	}
	client, err := gomail.NewClient(s.cfg.Server, options...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build SMTP client for %s", s.cfg.Server)
	}
	return client, nil
}

func mailPortOption(port int) gomail.Option {
	if port == 0 {
		return gomail.WithPort(gomail.DefaultPort)
	}
	return gomail.WithPort(port)
}

func validateAddresses(from string, to []string) error {
	if !addressRe.MatchString(from) {
		return errors.Errorf("invalid email %q", from)
	}
	if len(to) == 0 {
		return errors.New("no recipients configured")
	}
	for _, address := range to {
		if !addressRe.MatchString(address) {
			return errors.Errorf("invalid email %q", address)
		}
	}
	return nil
}
