package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/assistant-console/internal/adapters/stub"
	"github.com/bnema/assistant-console/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const stubShutdownTimeout = 10 * time.Second

func newServeStubCmd(loader *appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-stub",
		Short: "Run a local assistant backend for development",
		Long:  "serve-stub runs a local backend that speaks the assistant wire format. Answers come from a scripted model, or from Ollama when stub.ollama_url is set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load(cmd)
			if err != nil {
				return err
			}

			model, err := stub.NewModel(app.cfg.Stub.OllamaURL, app.cfg.Stub.OllamaModel)
			if err != nil {
				return err
			}

			server := stub.NewServer(stub.Config{
				Model:      model,
				Logger:     logrus.NewEntry(app.logger),
				TokenDelay: app.cfg.Stub.TokenDelay,
			})

			return serveUntilDone(cmd.Context(), server, app.cfg.Stub.Listen, app.logger)
		},
	}

	flags := cmd.Flags()
	flags.String("listen", config.DefaultStubListen, "Listen address")
	flags.String("ollama-url", "", "Ollama server URL (scripted answers when empty)")
	flags.String("ollama-model", "", "Ollama model name")
	for key, name := range map[string]string{
		config.KeyStubListen:    "listen",
		config.KeyStubOllamaURL: "ollama-url",
		config.KeyStubModel:     "ollama-model",
	} {
		_ = loader.v.BindPFlag(key, flags.Lookup(name))
	}

	return cmd
}

func serveUntilDone(ctx context.Context, server *stub.Server, addr string, logger *logrus.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down stub backend")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), stubShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown stub server: %w", err)
	}

	return <-errCh
}
