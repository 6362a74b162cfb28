package config

import (
    "errors"
    "time"

    "github.com/joeshaw/envdecode"
)

// MailConfig carries the SMTP relay settings.  It is decoded from the
// environment with envdecode; when none of the variables is set the mail
// subsystem is disabled and confirmations are only logged.
type MailConfig struct {
    Host     string `env:"SMTP_HOST"`
    Port     int    `env:"SMTP_PORT,default=587"`
    Username string `env:"SMTP_USER"`
    Password string `env:"SMTP_PASS"`
    UseSSL   bool   `env:"SMTP_SSL,default=false"`
    TLS      string `env:"SMTP_TLS,default=opportunistic"` // mandatory | opportunistic | none
    From     string `env:"MAIL_FROM,default=Kita-Zeitung <noreply@kita-zeitung.de>"`
    ReplyTo  string `env:"MAIL_REPLY_TO"`
    Timeout  time.Duration `env:"SMTP_TIMEOUT,default=15s"`
}

// Enabled reports whether an SMTP host was configured.
func (m MailConfig) Enabled() bool { return m.Host != "" }

// LoadMailConfig decodes MailConfig.  A fully unset environment is not an
// error; it yields a disabled config.
func LoadMailConfig() (MailConfig, error) {
    var mc MailConfig
    if err := envdecode.Decode(&mc); err != nil {
        if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
            return MailConfig{}, nil
        }
        return MailConfig{}, err
    }
    return mc, nil
}
