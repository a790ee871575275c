package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr         string `yaml:"addr"`          // status API bind address for `serve`
	LogDir       string `yaml:"log_dir"`       // logs directory
	ContactsFile string `yaml:"contacts_file"` // rotation list, "<phone>\t<email>" per line
	StatusFile   string `yaml:"status_file"`   // alert status JSON document
	Timezone     string `yaml:"timezone"`      // rotation wall clock, e.g. "America/Los_Angeles"; empty = local

	AlertPattern string `yaml:"alert_pattern"`
	ReplyPattern string `yaml:"reply_pattern"`
	PageFooter   string `yaml:"page_footer"` // appended to every alert page

	MailDir      string        `yaml:"mail_dir"` // read *.eml from here instead of POP3
	POP3Host     string        `yaml:"pop3_host"`
	POP3Port     int           `yaml:"pop3_port"`
	POP3TLS      bool          `yaml:"pop3_tls"`
	MonitorEmail string        `yaml:"monitor_email"`
	MonitorPass  string        `yaml:"monitor_pass"`
	MonitorPhone string        `yaml:"monitor_phone"` // caller id for SMS/calls
	MailTimeout  time.Duration `yaml:"mail_timeout"`

	TwilioAccountSID string `yaml:"twilio_account_sid"`
	TwilioAuthToken  string `yaml:"twilio_auth_token"`
	CountryCode      string `yaml:"country_code"`
	VoiceCall        bool   `yaml:"voice_call"`
	SlackWebhook     string `yaml:"slack_webhook"`

	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass"`
	SMTPTLS  bool   `yaml:"smtp_tls"`

	ReadAPIKeys    []string `yaml:"read_api_keys"`
	AdminAPIKeys   []string `yaml:"admin_api_keys"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	PageRPM        int      `yaml:"page_rpm"` // manual pages per minute per client on the API
	PageBurst      int      `yaml:"page_burst"`

	PageAttempts int           `yaml:"page_attempts"`
	PageBackoff  time.Duration `yaml:"page_backoff"`
}

func defaults() Config {
	return Config{
		Addr:         "127.0.0.1:8080",
		LogDir:       "logs",
		ContactsFile: "pager_config.txt",
		StatusFile:   "/tmp/pager/pager_status.json",
		AlertPattern: "ALARM",
		ReplyPattern: "^R[eE]:.*ALARM",
		POP3Host:     "pop.gmail.com",
		POP3Port:     995,
		POP3TLS:      true,
		MailTimeout:  30 * time.Second,
		CountryCode:  "1",
		VoiceCall:    true,
		SMTPHost:     "localhost",
		SMTPPort:     25,
		PageRPM:      6,
		PageBurst:    1,
		PageAttempts: 1,
		PageBackoff:  5 * time.Second,
	}
}

func FromEnv() Config {
	cfg := defaults()
	applyEnv(&cfg)
	return cfg
}

// Load reads an optional YAML file on top of the defaults; environment
// variables override both.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	str("API_ADDR", &cfg.Addr)
	str("LOG_DIR", &cfg.LogDir)
	str("PAGER_CONTACTS", &cfg.ContactsFile)
	str("PAGER_STATUS_FILE", &cfg.StatusFile)
	str("PAGER_TZ", &cfg.Timezone)
	str("ALERT_PATTERN", &cfg.AlertPattern)
	str("REPLY_PATTERN", &cfg.ReplyPattern)
	str("PAGE_FOOTER", &cfg.PageFooter)
	str("MAIL_DIR", &cfg.MailDir)
	str("POP3_HOST", &cfg.POP3Host)
	str("MONITOR_EMAIL", &cfg.MonitorEmail)
	str("MONITOR_PHONE", &cfg.MonitorPhone)
	str("TWILIO_ACCOUNT_SID", &cfg.TwilioAccountSID)
	str("COUNTRY_CODE", &cfg.CountryCode)
	str("SLACK_WEBHOOK", &cfg.SlackWebhook)
	str("SMTP_HOST", &cfg.SMTPHost)
	str("SMTP_USER", &cfg.SMTPUser)

	// secrets are taken verbatim
	if v := os.Getenv("MONITOR_PASS"); v != "" {
		cfg.MonitorPass = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.TwilioAuthToken = v
	}
	if v := os.Getenv("SMTP_PASS"); v != "" {
		cfg.SMTPPass = v
	}

	if v := os.Getenv("POP3_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.POP3Port = n
		}
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SMTPPort = n
		}
	}
	if v := os.Getenv("MAIL_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.MailTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("PAGE_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.PageRPM = n
		}
	}
	if v := os.Getenv("PAGE_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PageAttempts = n
		}
	}
	if v := os.Getenv("PAGE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PageBurst = n
		}
	}
	if v := os.Getenv("PAGE_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.PageBackoff = d
		}
	}
	list := func(key string, dst *[]string) {
		if v := os.Getenv(key); v != "" {
			*dst = splitCSV(v)
		}
	}
	list("READ_API_KEYS", &cfg.ReadAPIKeys)
	list("ADMIN_API_KEYS", &cfg.AdminAPIKeys)
	list("ALLOWED_ORIGINS", &cfg.AllowedOrigins)

	boolEnv := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	boolEnv("POP3_TLS", &cfg.POP3TLS)
	boolEnv("VOICE_CALL", &cfg.VoiceCall)
	boolEnv("SMTP_TLS", &cfg.SMTPTLS)
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Location resolves Timezone; empty means the host's local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ValidatePaging checks what a live page needs.
func (c Config) ValidatePaging() error {
	var missing []string
	if c.TwilioAccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if c.TwilioAuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if c.MonitorPhone == "" {
		missing = append(missing, "MONITOR_PHONE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("paging not configured, missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateMailbox checks what fetching mail needs.
func (c Config) ValidateMailbox() error {
	if c.MailDir != "" {
		return nil
	}
	if c.MonitorEmail == "" {
		return errors.New("mailbox not configured, missing MONITOR_EMAIL")
	}
	if c.POP3Host == "" {
		return errors.New("mailbox not configured, missing POP3_HOST")
	}
	return nil
}
