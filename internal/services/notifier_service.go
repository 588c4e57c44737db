package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/benmeehan/carstatus-relay/pkg/mqtt"
	"github.com/rs/zerolog"
)

// CommandNotifier publishes every record accepted by the remote store on an MQTT
// topic so the vehicle can act on it without polling. Delivery is best effort.
type CommandNotifier struct {
	topic      string
	qos        int
	timeout    time.Duration
	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger
}

// NewCommandNotifier initializes a new CommandNotifier.
func NewCommandNotifier(topic string, qos int, timeout time.Duration, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *CommandNotifier {
	return &CommandNotifier{
		topic:      topic,
		qos:        qos,
		timeout:    timeout,
		mqttClient: mqttClient,
		logger:     logger,
	}
}

// Notify publishes the record as received from the store.
func (n *CommandNotifier) Notify(record json.RawMessage) error {
	token := n.mqttClient.Publish(n.topic, byte(n.qos), false, []byte(record))
	if !token.WaitTimeout(n.timeout) {
		return fmt.Errorf("timed out publishing to %s", n.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.topic, err)
	}

	n.logger.Debug().Str("topic", n.topic).Msg("Command published to vehicle")
	return nil
}
