package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benmeehan/carstatus-relay/internal/service_registry"
	"github.com/benmeehan/carstatus-relay/internal/utils"
	"github.com/benmeehan/carstatus-relay/pkg/clock"
	"github.com/benmeehan/carstatus-relay/pkg/file"
	"github.com/benmeehan/carstatus-relay/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file")
	dumpConfig := flag.String("dump-config", "", "Write the effective configuration to this path and exit")
	flag.Parse()

	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *dumpConfig != "" {
		if err := fileClient.WriteYamlFile(*dumpConfig, config); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write configuration: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log, closer, err := logger.New(config.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	serviceRegistry := service_registry.NewServiceRegistry(config, fileClient, clock.Real(), log)

	if _, err := serviceRegistry.RegisterRelay(); err != nil {
		log.Fatal().Err(err).Msg("Failed to register relay")
	}

	if err := serviceRegistry.StartServices(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start services")
	}
	log.Info().Str("remote", config.Remote.BaseURL).Msg("Relay started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		log.Error().Err(err).Msg("Shutdown finished with errors")
	}
}
