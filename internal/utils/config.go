package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/benmeehan/carstatus-relay/internal/constants"
	"github.com/benmeehan/carstatus-relay/pkg/file"
	"github.com/benmeehan/carstatus-relay/pkg/logger"
	"github.com/joho/godotenv"
)

// Default configuration values.
const (
	DefaultRemoteURL     = "https://66eafa8655ad32cda47b3666.mockapi.io/IoTCarStatus"
	DefaultRemoteTimeout = 10 * time.Second
	DefaultListenAddr    = "127.0.0.1:5000"
	DefaultRelayURL      = "http://127.0.0.1:5000/carstatus"
	DefaultPollInterval  = 10 * time.Second
	DefaultPageSize      = 10
	DefaultOperator      = "operator"
	DefaultQueueSize     = 8
)

// Config represents the structure of the configuration file.
type Config struct {
	Remote struct {
		BaseURL string        `yaml:"base_url"` // Collection URL of the remote store
		Timeout time.Duration `yaml:"timeout"`  // Bound on every outbound request
	} `yaml:"remote"`

	Relay struct {
		ListenAddr   string        `yaml:"listen_addr"`   // Address the relay listens on
		URL          string        `yaml:"url"`           // URL clients use to reach the relay's collection
		Embedded     bool          `yaml:"embedded"`      // Panel starts the relay in-process
		ReadTimeout  time.Duration `yaml:"read_timeout"`  // HTTP server read timeout
		WriteTimeout time.Duration `yaml:"write_timeout"` // HTTP server write timeout
	} `yaml:"relay"`

	Monitor struct {
		Interval time.Duration `yaml:"interval"`   // Time between the end of one fetch and the next
		PageSize int           `yaml:"page_size"`  // Number of most recent records displayed
		Source   string        `yaml:"source"`     // "remote" or "relay"
		SortByID bool          `yaml:"sort_by_id"` // Sort by numeric id before truncating
	} `yaml:"monitor"`

	Dispatcher struct {
		Operator       string `yaml:"operator"`        // Identity written to the name field
		StrictCommands bool   `yaml:"strict_commands"` // Reject tokens outside the command set
		QueueSize      int    `yaml:"queue_size"`      // Pending commands before the panel reports busy
		LocalAddress   string `yaml:"local_address"`   // Pins ipClient instead of discovering it
	} `yaml:"dispatcher"`

	MQTT struct {
		Enabled       bool   `yaml:"enabled"`        // Publish created records to the vehicle
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID prefix
		CACertificate string `yaml:"ca_certificate"` // Optional path to a CA certificate
		Topic         string `yaml:"topic"`          // Topic created records are published on
		QOS           int    `yaml:"qos"`            // MQTT QoS level
	} `yaml:"mqtt"`

	Logging logger.Config `yaml:"logging"`
}

// LoadConfig loads the YAML configuration from the specified file, then applies
// .env and environment overrides and fills in defaults. A missing file is not an
// error: the defaults and environment are used instead.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	config.Relay.Embedded = true

	if filename != "" {
		exists, err := fileClient.IsFileExists(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if exists {
			if err := fileClient.ReadYamlFile(filename, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// A missing .env file is expected outside development.
	_ = godotenv.Load()

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyEnv() error {
	c.Remote.BaseURL = getEnv("CARSTATUS_REMOTE_URL", c.Remote.BaseURL)
	c.Relay.ListenAddr = getEnv("CARSTATUS_RELAY_ADDR", c.Relay.ListenAddr)
	c.Relay.URL = getEnv("CARSTATUS_RELAY_URL", c.Relay.URL)
	c.Dispatcher.Operator = getEnv("CARSTATUS_OPERATOR", c.Dispatcher.Operator)
	c.Logging.Level = getEnv("CARSTATUS_LOG_LEVEL", c.Logging.Level)
	c.Logging.File = getEnv("CARSTATUS_LOG_FILE", c.Logging.File)

	if broker := os.Getenv("CARSTATUS_MQTT_BROKER"); broker != "" {
		c.MQTT.Broker = broker
		c.MQTT.Enabled = true
	}

	var err error
	if c.Remote.Timeout, err = getEnvDuration("CARSTATUS_REMOTE_TIMEOUT", c.Remote.Timeout); err != nil {
		return err
	}
	if c.Monitor.Interval, err = getEnvDuration("CARSTATUS_POLL_INTERVAL", c.Monitor.Interval); err != nil {
		return err
	}
	if raw := os.Getenv("CARSTATUS_PAGE_SIZE"); raw != "" {
		size, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return fmt.Errorf("invalid CARSTATUS_PAGE_SIZE %q: %w", raw, convErr)
		}
		c.Monitor.PageSize = size
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = DefaultRemoteURL
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = DefaultRemoteTimeout
	}
	if c.Relay.ListenAddr == "" {
		c.Relay.ListenAddr = DefaultListenAddr
	}
	if c.Relay.URL == "" {
		c.Relay.URL = DefaultRelayURL
	}
	if c.Relay.ReadTimeout == 0 {
		c.Relay.ReadTimeout = 15 * time.Second
	}
	if c.Relay.WriteTimeout == 0 {
		// Must outlast the outbound call the handler is waiting on.
		c.Relay.WriteTimeout = c.Remote.Timeout + 5*time.Second
	}
	if c.Monitor.Interval == 0 {
		c.Monitor.Interval = DefaultPollInterval
	}
	if c.Monitor.PageSize == 0 {
		c.Monitor.PageSize = DefaultPageSize
	}
	if c.Monitor.Source == "" {
		c.Monitor.Source = constants.SourceRemote
	}
	if c.Dispatcher.Operator == "" {
		c.Dispatcher.Operator = DefaultOperator
	}
	if c.Dispatcher.QueueSize == 0 {
		c.Dispatcher.QueueSize = DefaultQueueSize
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "carstatus-relay"
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "carstatus/commands"
	}
}

// Validate checks the values that have no sensible fallback.
func (c *Config) Validate() error {
	var errs []error
	if c.Remote.Timeout < 0 {
		errs = append(errs, errors.New("remote.timeout must not be negative"))
	}
	if c.Monitor.Interval <= 0 {
		errs = append(errs, errors.New("monitor.interval must be positive"))
	}
	if c.Monitor.PageSize <= 0 {
		errs = append(errs, errors.New("monitor.page_size must be positive"))
	}
	if c.Monitor.Source != constants.SourceRemote && c.Monitor.Source != constants.SourceRelay {
		errs = append(errs, fmt.Errorf("monitor.source must be %q or %q", constants.SourceRemote, constants.SourceRelay))
	}
	if c.Dispatcher.QueueSize < 0 {
		errs = append(errs, errors.New("dispatcher.queue_size must not be negative"))
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
	}
	if c.MQTT.QOS < 0 || c.MQTT.QOS > 2 {
		errs = append(errs, errors.New("mqtt.qos must be 0, 1 or 2"))
	}
	return errors.Join(errs...)
}

// MonitorURL returns the collection URL the monitor polls.
func (c *Config) MonitorURL() string {
	if c.Monitor.Source == constants.SourceRelay {
		return c.Relay.URL
	}
	return c.Remote.BaseURL
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
