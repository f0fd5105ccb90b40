package telegram

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"sync"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"

	"groupfarm/internal/provider"
	"groupfarm/internal/storage"
)

// Config configures the connection pool.
type Config struct {
	APIID       int
	APIHash     string
	SessionsDir string

	// ServiceUserID is the provider's service notification account;
	// messages from it are forwarded to ForwardTo (0 disables forwarding).
	ServiceUserID int64
	ForwardTo     int64
}

// Pool caches one live session per account. The scheduler borrows
// connections via Acquire; Drop tears one down when an account is disabled
// or deleted.
type Pool struct {
	cfg Config
	log zerolog.Logger

	mu    sync.Mutex
	conns map[int64]*conn
}

func NewPool(cfg Config, log zerolog.Logger) *Pool {
	return &Pool{
		cfg:   cfg,
		log:   log.With().Str("component", "telegram").Logger(),
		conns: map[int64]*conn{},
	}
}

func (p *Pool) Acquire(ctx context.Context, acc storage.Account) (provider.Conn, error) {
	p.mu.Lock()
	if c, ok := p.conns[acc.ID]; ok {
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	c, err := p.dial(ctx, acc)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if existing, ok := p.conns[acc.ID]; ok {
		// Lost the race; keep the first connection.
		p.mu.Unlock()
		c.close()
		return existing, nil
	}
	p.conns[acc.ID] = c
	p.mu.Unlock()
	return c, nil
}

func (p *Pool) Drop(accountID int64) {
	p.mu.Lock()
	c := p.conns[accountID]
	delete(p.conns, accountID)
	p.mu.Unlock()
	if c != nil {
		c.close()
		p.log.Info().Int64("account", accountID).Msg("connection dropped")
	}
}

func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	conns := p.conns
	p.conns = map[int64]*conn{}
	p.mu.Unlock()
	for _, c := range conns {
		c.close()
	}
	return nil
}

// WarmUp dials sessions for the given accounts so forwarding starts without
// waiting for the first provisioning action. Failures are logged per
// account, never fatal.
func (p *Pool) WarmUp(ctx context.Context, accounts []storage.Account) {
	for _, acc := range accounts {
		if _, err := p.Acquire(ctx, acc); err != nil {
			p.log.Warn().Err(err).Int64("account", acc.ID).Str("phone", acc.Phone).
				Msg("warm-up connect failed")
			continue
		}
		p.log.Info().Int64("account", acc.ID).Str("phone", acc.Phone).Msg("session connected")
	}
}

func (p *Pool) dial(ctx context.Context, acc storage.Account) (*conn, error) {
	path := acc.SessionPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.cfg.SessionsDir, path)
	}

	dispatcher := tg.NewUpdateDispatcher()
	opts := telegram.Options{
		SessionStorage: &session.FileStorage{Path: path},
		UpdateHandler:  dispatcher,
		Device: telegram.DeviceConfig{
			DeviceModel:    "POCO X6 Pro 5G",
			SystemVersion:  "Android 15",
			AppVersion:     "11.13.0.1",
			LangCode:       "en",
			SystemLangCode: "en",
		},
	}
	if acc.Proxy.Configured() {
		dial, err := proxyDialFunc(acc.Proxy)
		if err != nil {
			return nil, fmt.Errorf("proxy for account %d: %w", acc.ID, err)
		}
		opts.Resolver = dcs.Plain(dcs.PlainOptions{Dial: dial})
	}

	client := telegram.NewClient(p.cfg.APIID, p.cfg.APIHash, opts)

	// Run the client in the background; the inner func blocks until the
	// connection context is cancelled (Drop/Close).
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ready := make(chan struct{})
	errC := make(chan error, 1)
	go func() {
		errC <- client.Run(runCtx, func(ctx context.Context) error {
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
	}()
	select {
	case <-ready:
	case err := <-errC:
		cancel()
		return nil, fmt.Errorf("connect account %d: %w", acc.ID, err)
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}

	status, err := client.Auth().Status(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("auth status for account %d: %w", acc.ID, mapError(err))
	}
	if !status.Authorized {
		cancel()
		return nil, fmt.Errorf("session for %s is not authorized", acc.Phone)
	}

	api := client.API()
	c := &conn{
		api:    api,
		sender: message.NewSender(api),
		stop:   cancel,
		log:    p.log.With().Int64("account", acc.ID).Logger(),
		peers:  map[string]*tg.InputPeerChannel{},
	}
	p.registerForward(dispatcher, acc, api)
	return c, nil
}

func proxyDialFunc(p storage.ProxyConfig) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	var auth *proxy.Auth
	if p.Username != "" && p.Password != "" {
		auth = &proxy.Auth{User: p.Username, Password: p.Password}
	}
	d, err := proxy.SOCKS5("tcp", fmt.Sprintf("%s:%d", p.Host, p.Port), auth, proxy.Direct)
	if err != nil {
		return nil, err
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks5 dialer does not support context dialing")
	}
	return cd.DialContext, nil
}
