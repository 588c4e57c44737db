package service_registry

import (
	"errors"
	"fmt"

	"github.com/benmeehan/carstatus-relay/internal/registry"
	"github.com/benmeehan/carstatus-relay/internal/services"
	"github.com/benmeehan/carstatus-relay/internal/utils"
	"github.com/benmeehan/carstatus-relay/pkg/clock"
	"github.com/benmeehan/carstatus-relay/pkg/file"
	"github.com/benmeehan/carstatus-relay/pkg/identity"
	"github.com/benmeehan/carstatus-relay/pkg/mqtt"
	"github.com/benmeehan/carstatus-relay/pkg/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	config      *utils.Config
	fileClient  file.FileOperations
	mqttService *mqtt.MqttService
	clock       clock.Clock
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(config *utils.Config, fileClient file.FileOperations, clk clock.Clock, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]registry.Service),
		config:     config,
		fileClient: fileClient,
		clock:      clk,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order and disconnects shared clients.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if sr.mqttService != nil {
		sr.mqttService.Disconnect(250)
		sr.mqttService = nil
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterRelay registers the command relay, forwarding to the remote store. When
// MQTT is enabled, records accepted by the store are also published to the vehicle.
func (sr *ServiceRegistry) RegisterRelay() (*services.RelayService, error) {
	remote, err := sr.storeClient(sr.config.Remote.BaseURL, "remote")
	if err != nil {
		return nil, err
	}

	var notifier services.Notifier
	if sr.config.MQTT.Enabled {
		// Unique per process so a panel and a standalone relay can share a broker.
		clientID := sr.config.MQTT.ClientID + "-" + uuid.New().String()
		sr.Logger.Info().Msgf("Using MQTT Client ID: %s", clientID)

		mqttService := mqtt.NewMqttService(sr.fileClient, sr.Logger.With().Str("component", "mqtt").Logger())
		if err := mqttService.Initialize(sr.config.MQTT.Broker, clientID, sr.config.MQTT.CACertificate, sr.config.Remote.Timeout); err != nil {
			return nil, fmt.Errorf("failed to initialize MQTT connection: %w", err)
		}
		sr.mqttService = mqttService
		notifier = services.NewCommandNotifier(
			sr.config.MQTT.Topic,
			sr.config.MQTT.QOS,
			sr.config.Remote.Timeout,
			mqttService,
			sr.Logger.With().Str("component", "notifier").Logger(),
		)
	}

	relay := services.NewRelayService(
		sr.config.Relay.ListenAddr,
		sr.config.Relay.ReadTimeout,
		sr.config.Relay.WriteTimeout,
		remote,
		notifier,
		sr.Logger.With().Str("component", "relay").Logger(),
	)
	sr.RegisterService("relay", relay)
	return relay, nil
}

// RegisterDispatcher registers the command dispatcher. It submits through the relay,
// never to the remote store directly.
func (sr *ServiceRegistry) RegisterDispatcher(surface services.Surface) (*services.DispatchService, error) {
	relayClient, err := sr.storeClient(sr.config.Relay.URL, "relay")
	if err != nil {
		return nil, err
	}

	var resolver identity.AddressResolver = identity.NewInterfaceResolver(sr.Logger)
	if sr.config.Dispatcher.LocalAddress != "" {
		resolver = identity.StaticResolver(sr.config.Dispatcher.LocalAddress)
	}

	dispatcher := services.NewDispatchService(
		relayClient,
		resolver,
		surface,
		sr.config.Dispatcher.Operator,
		sr.config.Dispatcher.StrictCommands,
		sr.config.Dispatcher.QueueSize,
		sr.clock,
		sr.Logger.With().Str("component", "dispatcher").Logger(),
	)
	sr.RegisterService("dispatcher", dispatcher)
	return dispatcher, nil
}

// RegisterMonitor registers the polling monitor against the configured source.
func (sr *ServiceRegistry) RegisterMonitor(sink services.RecordSink) (*services.MonitorService, error) {
	client, err := sr.storeClient(sr.config.MonitorURL(), sr.config.Monitor.Source)
	if err != nil {
		return nil, err
	}

	monitor := services.NewMonitorService(
		client,
		sink,
		sr.config.Monitor.Interval,
		sr.config.Monitor.PageSize,
		sr.config.Monitor.SortByID,
		sr.clock,
		sr.Logger.With().Str("component", "monitor").Logger(),
	)
	sr.RegisterService("monitor", monitor)
	return monitor, nil
}

func (sr *ServiceRegistry) storeClient(baseURL, target string) (*store.Client, error) {
	client, err := store.NewClient(
		baseURL,
		sr.config.Remote.Timeout,
		sr.Logger.With().Str("component", "store").Str("target", target).Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", target, err)
	}
	return client, nil
}
