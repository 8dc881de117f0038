package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dqtran/inboxagent/internal/app"
	"github.com/dqtran/inboxagent/internal/gateway"
	"github.com/dqtran/inboxagent/internal/logging"
	"github.com/dqtran/inboxagent/internal/model"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	serverURL := flag.String("server", "", "backend base URL (overrides config)")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot load config: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.Server.BaseURL = *serverURL
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot open log file: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting inboxagent",
		zap.String("server", cfg.Server.BaseURL),
		zap.Int("timeout_sec", cfg.Server.TimeoutSec),
	)

	gw := gateway.New(
		cfg.Server.BaseURL,
		time.Duration(cfg.Server.TimeoutSec)*time.Second,
		logger,
	)

	p := tea.NewProgram(app.New(gw, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
