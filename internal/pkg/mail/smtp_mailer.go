package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/env"
)

// SendMail sends an HTML email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendActivationMail sends the account activation email.
func SendActivationMail(to, token string) error {
	base := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:"+env.GetEnv("APP_PORT", "4000"))
	link := fmt.Sprintf("%s/api/auth/verify?token=%s", base, token)
	body := fmt.Sprintf(
		"<p>Bienvenue !</p><p>Cliquez sur le lien suivant pour activer votre compte :</p><p><a href=\"%s\">%s</a></p>",
		link, link,
	)
	return SendMail(to, "Activez votre compte", body)
}

// SendChangeNotification notifies a user about detected changes on one of
// their scheduled scrapes.
func SendChangeNotification(to, scrapeName string, changeCount int) error {
	body := fmt.Sprintf(
		"<p>Votre surveillance <strong>%s</strong> a détecté %d changement(s).</p><p>Connectez-vous à votre tableau de bord pour les consulter.</p>",
		scrapeName, changeCount,
	)
	return SendMail(to, fmt.Sprintf("Changements détectés : %s", scrapeName), body)
}
