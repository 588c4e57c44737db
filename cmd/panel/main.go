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
		fmt.Fprintf(os.Stderr, "panel: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	fileClient := file.NewFileService()

	config, err := utils.LoadConfig(configPath, fileClient)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The terminal belongs to the UI, so logs must go elsewhere.
	if config.Logging.File == "" {
		config.Logging.File = "panel.log"
	}
	log, closer, err := logger.New(config.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()

	serviceRegistry := service_registry.NewServiceRegistry(config, fileClient, clock.Real(), log)

	if config.Relay.Embedded {
		if _, err := serviceRegistry.RegisterRelay(); err != nil {
			return err
		}
	}

	// The program is created before the model it runs so the dispatcher can be
	// handed a surface that delivers into it.
	commander := &lazyCommander{}
	program := tea.NewProgram(ui.NewPanelModel(commander, config.Remote.Timeout), tea.WithAltScreen())

	dispatcher, err := serviceRegistry.RegisterDispatcher(ui.NewProgramSurface(program))
	if err != nil {
		return err
	}
	commander.DispatchService = dispatcher

	if err := serviceRegistry.StartServices(); err != nil {
		return err
	}
	log.Info().Bool("embedded_relay", config.Relay.Embedded).Msg("Panel started")

	_, runErr := program.Run()

	if err := serviceRegistry.StopServices(); err != nil {
		log.Error().Err(err).Msg("Shutdown finished with errors")
	}
	return runErr
}

// lazyCommander lets the panel model be built before the dispatcher exists.
type lazyCommander struct {
	*services.DispatchService
}
