package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/assistant-console/internal/config"
	"github.com/spf13/cobra"
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "asst",
		Short:         "Assistant console (asst): chat with the assistant from the terminal",
		Long:          "asst streams answers from the assistant backend, keeps a per-profile session, and saves useful answers as procedural memory.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	v := config.NewDefault()
	flags := rootCmd.PersistentFlags()
	flags.String("base-url", config.DefaultBaseURL, "Assistant backend base URL")
	flags.String("business-key", "", "Business key sent with every request")
	flags.String("profile", config.DefaultProfile, "Session profile name")
	flags.String("log-level", "", "Log level (debug, info, warn, error, off)")

	for key, name := range map[string]string{
		config.KeyBaseURL:     "base-url",
		config.KeyBusinessKey: "business-key",
		config.KeyProfile:     "profile",
		config.KeyLogLevel:    "log-level",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
				return err
			}
			return rootCmd
		}
	}

	loader := newAppLoader(v)
	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return loader.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newAskCmd(loader),
		newChatCmd(loader),
		newWelcomeCmd(loader),
		newMemoryCmd(loader),
		newSessionCmd(loader),
		newServeStubCmd(loader),
	)

	return rootCmd
}
