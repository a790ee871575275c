package mailsource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/knadh/go-pop3"
	"go.uber.org/zap"

	"github.com/hamed0406/oncallpager/internal/domain"
)

// POP3Config describes the monitored mailbox.
type POP3Config struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	Timeout  time.Duration
}

// POP3 reads the mailbox over POP3. Acknowledged messages are marked for
// deletion and removed when the session is closed with QUIT.
type POP3 struct {
	cfg  POP3Config
	log  *zap.Logger
	conn *pop3.Conn
}

func NewPOP3(cfg POP3Config, log *zap.Logger) (*POP3, error) {
	if cfg.Host == "" {
		return nil, errors.New("pop3 host is empty")
	}
	if cfg.Username == "" {
		return nil, errors.New("pop3 username is empty")
	}
	if cfg.Port <= 0 {
		cfg.Port = 995
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &POP3{cfg: cfg, log: log}, nil
}

func (p *POP3) connect() error {
	if p.conn != nil {
		return nil
	}
	client := pop3.New(pop3.Opt{
		Host:        p.cfg.Host,
		Port:        p.cfg.Port,
		TLSEnabled:  p.cfg.TLS,
		DialTimeout: p.cfg.Timeout,
	})
	conn, err := client.NewConn()
	if err != nil {
		return fmt.Errorf("pop3 connect %s: %w", p.cfg.Host, err)
	}
	if err := conn.Auth(p.cfg.Username, p.cfg.Password); err != nil {
		_ = conn.Quit()
		return fmt.Errorf("pop3 auth: %w", err)
	}
	p.conn = conn
	return nil
}

func (p *POP3) FetchNew(ctx context.Context) ([]domain.MailEvent, error) {
	if err := p.connect(); err != nil {
		return nil, err
	}
	ids, err := p.conn.List(0)
	if err != nil {
		return nil, fmt.Errorf("pop3 list: %w", err)
	}
	p.log.Info("pop3_listed", zap.Int("count", len(ids)))

	out := make([]domain.MailEvent, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buf, err := p.conn.RetrRaw(id.ID)
		if err != nil {
			return nil, fmt.Errorf("pop3 retr %d: %w", id.ID, err)
		}
		ev := ParseMessage(buf.Bytes())
		ev.Seq = id.ID
		out = append(out, ev)
	}
	return out, nil
}

func (p *POP3) Acknowledge(ctx context.Context, ev domain.MailEvent) error {
	if p.conn == nil {
		return errors.New("pop3 not connected")
	}
	if err := p.conn.Dele(ev.Seq); err != nil {
		return fmt.Errorf("pop3 dele %d: %w", ev.Seq, err)
	}
	return nil
}

func (p *POP3) Close() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.Quit()
	p.conn = nil
	if err != nil {
		return fmt.Errorf("pop3 quit: %w", err)
	}
	return nil
}
