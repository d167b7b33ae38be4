package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kirillkom/corpus-admin/internal/config"
	"github.com/kirillkom/corpus-admin/internal/core/domain"
	"github.com/kirillkom/corpus-admin/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("corpusctl", cfg.LogLevel))

	root := newRootCommand(cfg, os.Stdout)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", domain.UserMessage(err))
		os.Exit(1)
	}
}
