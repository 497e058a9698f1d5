package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/bnema/assistant-console/internal/adapters/assistantapi"
	memoryrepo "github.com/bnema/assistant-console/internal/adapters/repo/memory"
	tomlrepo "github.com/bnema/assistant-console/internal/adapters/repo/toml"
	"github.com/bnema/assistant-console/internal/adapters/sse"
	"github.com/bnema/assistant-console/internal/application"
	"github.com/bnema/assistant-console/internal/config"
	"github.com/bnema/assistant-console/internal/domain"
	"github.com/bnema/assistant-console/internal/observability"
	"github.com/bnema/assistant-console/internal/ports"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	cfg          config.Config
	logger       *logrus.Logger
	sessionStore ports.SessionStore
	sessions     *application.SessionIdentityService
	actions      *application.MemoryActions
	chat         *application.ChatService
	closeLog     func() error
}

// appLoader defers wiring until a command runs, so flags are parsed and
// bound before the configuration is read.
type appLoader struct {
	v *viper.Viper

	once sync.Once
	app  *app
	err  error
}

func newAppLoader(v *viper.Viper) *appLoader {
	return &appLoader{v: v}
}

func (l *appLoader) load(cmd *cobra.Command) (*app, error) {
	l.once.Do(func() {
		l.app, l.err = wireApp(l.v, cmd.ErrOrStderr())
	})
	return l.app, l.err
}

func (l *appLoader) close() error {
	if l.app == nil {
		return nil
	}
	return l.app.close()
}

func wireApp(v *viper.Viper, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := observability.NewLogger(cfg.Log.Level, cfg.Log.File, stderr)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	store, err := newSessionStore(v, cfg)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	entry := logrus.NewEntry(logger)
	api := assistantapi.Client{
		BaseURL:        cfg.BaseURL,
		HTTPClient:     http.DefaultClient,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         entry,
	}
	transport := sse.Transport{
		HTTPClient: &http.Client{},
		Logger:     entry,
	}

	sessions := application.NewSessionIdentityService(store, cfg.Profile, ports.SystemClock{})
	actions := application.NewMemoryActions(api, sessions, cfg.BusinessKey, entry)
	chat := application.NewChatService(transport, api, sessions, actions, domain.NewLedger(), application.ChatServiceConfig{
		BusinessKey: cfg.BusinessKey,
		Logger:      entry,
	})

	return &app{
		cfg:          cfg,
		logger:       logger,
		sessionStore: store,
		sessions:     sessions,
		actions:      actions,
		chat:         chat,
		closeLog:     closeLog,
	}, nil
}

func newSessionStore(v *viper.Viper, cfg config.Config) (ports.SessionStore, error) {
	if cfg.SessionsStore == config.SessionStoreMemory {
		return memoryrepo.NewSessionStore(), nil
	}

	repo, err := tomlrepo.NewSessionRepository(v)
	if err != nil {
		return nil, fmt.Errorf("wire session repository: %w", err)
	}
	return repo, nil
}

func (a *app) close() error {
	return errors.Join(a.chat.Close(), a.closeLog())
}
