package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/benmeehan/carstatus-relay/internal/service_registry"
	"github.com/benmeehan/carstatus-relay/internal/services"
	"github.com/benmeehan/carstatus-relay/internal/ui"
	"github.com/benmeehan/carstatus-relay/internal/utils"
	"github.com/benmeehan/carstatus-relay/pkg/clock"
	"github.com/benmeehan/carstatus-relay/pkg/file"
	"github.com/benmeehan/carstatus-relay/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "monitor: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	fileClient := file.NewFileService()

	config, err := utils.LoadConfig(configPath, fileClient)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if config.Logging.File == "" {
		config.Logging.File = "monitor.log"
	}
	log, closer, err := logger.New(config.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()

	serviceRegistry := service_registry.NewServiceRegistry(config, fileClient, clock.Real(), log)

	refresher := &lazyRefresher{}
	program := tea.NewProgram(ui.NewTableModel(refresher, config.Monitor.PageSize, config.Remote.Timeout), tea.WithAltScreen())

	monitor, err := serviceRegistry.RegisterMonitor(ui.NewProgramSurface(program))
	if err != nil {
		return err
	}
	refresher.MonitorService = monitor

	if err := serviceRegistry.StartServices(); err != nil {
		return err
	}
	log.Info().Str("source", config.MonitorURL()).Msg("Monitor started")

	_, runErr := program.Run()

	if err := serviceRegistry.StopServices(); err != nil {
		log.Error().Err(err).Msg("Shutdown finished with errors")
	}
	return runErr
}

// lazyRefresher lets the table model be built before the monitor exists.
type lazyRefresher struct {
	*services.MonitorService
}
