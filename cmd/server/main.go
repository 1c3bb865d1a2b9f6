package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	if err := newRootCmd(cfg).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *Config) *cobra.Command {
	serve := newServeCmd(cfg)
	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "Realtime text and voice relay with per-conversation history",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&cfg.Addr, "addr", cfg.Addr, "http service address")
	cmd.PersistentFlags().StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "conversation log directory")
	cmd.PersistentFlags().StringVar(&cfg.VoiceDir, "voice-dir", cfg.VoiceDir, "voice note directory")

	cmd.AddCommand(serve, newHistoryCmd(cfg))
	return cmd
}
