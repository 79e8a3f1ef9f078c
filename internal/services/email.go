package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"ecoroute/internal/config"

	"github.com/sirupsen/logrus"
)

// EmailSender renders and sends transactional mail over SMTP. With no host
// configured it logs the message instead, so development works without
// credentials.
type EmailSender struct {
	host     string
	port     int
	username string
	password string
	from     string

	frontendURL string
}

func NewEmailSender(cfg *config.Config) *EmailSender {
	return &EmailSender{
		host:        cfg.SMTPHost,
		port:        cfg.SMTPPort,
		username:    cfg.SMTPUsername,
		password:    cfg.SMTPPassword,
		from:        cfg.EmailFrom,
		frontendURL: cfg.FrontendURL,
	}
}

const welcomeTemplate = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: 'Segoe UI', Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 20px auto; background: white; border-radius: 10px; overflow: hidden; }
        .header { background: linear-gradient(135deg, #4CAF50, #45a049); color: white; padding: 40px 20px; text-align: center; }
        .content { padding: 40px 30px; }
        .btn { display: inline-block; padding: 12px 30px; background: #4CAF50; color: white; text-decoration: none; border-radius: 5px; }
        .footer { text-align: center; padding: 20px; color: #999; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>EcoRoute</h1>
            <p>Sustainable Reverse Logistics</p>
        </div>
        <div class="content">
            <h2>Hello {{.Name}}!</h2>
            <p>Welcome to EcoRoute!</p>
            <p>Your account was created successfully. You can now:</p>
            <ul>
                <li>Manage collection points</li>
                <li>Plan optimized routes</li>
                <li>Track your environmental impact</li>
                <li>Connect with other cooperatives</li>
            </ul>
            <p style="text-align: center; margin-top: 30px;">
                <a href="{{.DashboardURL}}" class="btn">Open Dashboard</a>
            </p>
        </div>
        <div class="footer">
            <p>This is an automated email, please do not reply.</p>
        </div>
    </div>
</body>
</html>
`

const verificationTemplate = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; background: #f9f9f9; border-radius: 10px; }
        .code { font-size: 48px; font-weight: bold; color: #4CAF50; text-align: center; padding: 20px; background: white; border-radius: 10px; margin: 20px 0; letter-spacing: 5px; border: 2px solid #4CAF50; }
    </style>
</head>
<body>
    <div class="container">
        <h2>Hello {{.Name}}!</h2>
        <p>You requested a verification code for your EcoRoute account.</p>
        <div class="code">{{.Code}}</div>
        <p>This code is valid for <strong>10 minutes</strong>.</p>
        <p>If you did not request this code, ignore this email.</p>
    </div>
</body>
</html>
`

const collectionTemplate = `
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Hello {{.Name}}!</h2>
    <p>A collection of <strong>{{.Volume}}kg</strong> was registered at point <strong>{{.PointName}}</strong>.</p>
    <p>Check your dashboard for the updated impact figures.</p>
</body>
</html>
`

const routeTemplate = `
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Hello {{.Name}}!</h2>
    <p>Your route <strong>{{.RouteName}}</strong> was planned and is ready for execution.</p>
    <p>Open the routes page to review the stops.</p>
</body>
</html>
`

func (s *EmailSender) SendWelcome(to, name string) error {
	body, err := render(welcomeTemplate, map[string]string{
		"Name":         name,
		"DashboardURL": s.frontendURL + "/dashboard",
	})
	if err != nil {
		return err
	}
	return s.send(to, "Welcome to EcoRoute!", body)
}

func (s *EmailSender) SendVerificationCode(to, name, code string) error {
	body, err := render(verificationTemplate, map[string]string{"Name": name, "Code": code})
	if err != nil {
		return err
	}
	return s.send(to, "Verification Code - EcoRoute", body)
}

func (s *EmailSender) SendCollection(to, name, pointName string, volume float64) error {
	body, err := render(collectionTemplate, map[string]interface{}{
		"Name":      name,
		"PointName": pointName,
		"Volume":    fmt.Sprintf("%.0f", volume),
	})
	if err != nil {
		return err
	}
	return s.send(to, "New Collection Registered - EcoRoute", body)
}

func (s *EmailSender) SendRoute(to, name, routeName string) error {
	body, err := render(routeTemplate, map[string]string{"Name": name, "RouteName": routeName})
	if err != nil {
		return err
	}
	return s.send(to, "Route Planned - EcoRoute", body)
}

func render(tmpl string, data interface{}) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return body.String(), nil
}

func (s *EmailSender) send(to, subject, htmlBody string) error {
	if s.host == "" {
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("SMTP not configured, email logged instead of sent")
		return nil
	}

	headers := map[string]string{
		"From":         s.from,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": `text/html; charset="UTF-8"`,
	}

	var message bytes.Buffer
	for k, v := range headers {
		fmt.Fprintf(&message, "%s: %s\r\n", k, v)
	}
	message.WriteString("\r\n" + htmlBody)

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, message.Bytes()); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
