package config

// SMTPConfig configures the optional reservation confirmation email sent
// by the booking consumer.  Mail is disabled while Host is empty.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether enough settings are present to send mail.
func (c SMTPConfig) Enabled() bool { return c.Host != "" && c.From != "" }

// LoadSMTPConfig reads SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD
// and SMTP_FROM.
func LoadSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     envStr("SMTP_HOST", ""),
		Port:     envInt("SMTP_PORT", 587),
		Username: envStr("SMTP_USERNAME", ""),
		Password: envStr("SMTP_PASSWORD", ""),
		From:     envStr("SMTP_FROM", ""),
	}
}
