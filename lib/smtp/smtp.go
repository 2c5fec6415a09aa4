package smtp

import (
	"bytes"
	"fmt"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

var Instance Provider

type Provider interface {
	SendEMail(to []string, cc []string, subject, htmlBody, textBody string) error
}

func Connect(user, password, host, port, from, replyTo string, tlsEnabled bool) error {
	Instance = &impl{
		user:       user,
		password:   password,
		host:       host,
		port:       port,
		from:       from,
		replyTo:    replyTo,
		tlsEnabled: tlsEnabled,
	}
	return nil
}

type impl struct {
	user       string
	password   string
	host       string
	port       string
	from       string
	replyTo    string
	tlsEnabled bool
}

func (i impl) SendEMail(to []string, cc []string, subject, htmlBody, textBody string) (err error) {
	logger := log.WithField("sender", i.from).
		WithField("subject", subject)
	if i.user == "" || i.host == "" || i.port == "" {
		logger.Warn("Письмо не отправлено, тк не настроен smtp клиент")
		return nil
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", i.from)
	msg.SetHeader("To", to...)
	if len(cc) != 0 {
		msg.SetHeader("Cc", cc...)
	}
	if i.replyTo != "" {
		msg.SetHeader("Reply-To", i.replyTo)
	}
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-ID", fmt.Sprintf("<%s@employee-portal>", uuid.New().String()))
	msg.SetBody("text/plain", textBody)
	if htmlBody != "" {
		msg.AddAlternative("text/html", htmlBody)
	}
	body := new(bytes.Buffer)
	if _, err = msg.WriteTo(body); err != nil {
		logger.WithError(err).Error("Ошибка формирования письма")
		return err
	}

	sendTo := append([]string{}, to...)
	sendTo = append(sendTo, cc...)
	auth := sasl.NewPlainClient("", i.user, i.password)
	if i.tlsEnabled {
		err = smtp.SendMailTLS(i.host+":"+i.port, auth, i.from, sendTo, bytes.NewReader(body.Bytes()))
	} else {
		err = smtp.SendMail(i.host+":"+i.port, auth, i.from, sendTo, bytes.NewReader(body.Bytes()))
	}
	if err != nil {
		logger.WithError(err).Error("Ошибка отправки сообщения")
		return err
	}
	logger.Info("письмо отправлено")
	return nil
}
