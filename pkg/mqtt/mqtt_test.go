package mqtt_test

import (
	"errors"
	"testing"
	"time"

	"github.com/benmeehan/carstatus-relay/internal/mocks"
	"github.com/benmeehan/carstatus-relay/pkg/mqtt"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestMqttService_Initialize_MissingCACertificate(t *testing.T) {
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("ReadFileRaw", "/etc/carstatus/ca.pem").Return(nil, errors.New("no such file"))

	s := mqtt.NewMqttService(fileClient, zerolog.Nop())
	err := s.Initialize("ssl://broker:8883", "panel", "/etc/carstatus/ca.pem", time.Second)

	assert.ErrorContains(t, err, "failed to read CA certificate")
	fileClient.AssertExpectations(t)
}

func TestMqttService_Initialize_InvalidCACertificate(t *testing.T) {
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("ReadFileRaw", "ca.pem").Return([]byte("not a certificate"), nil)

	s := mqtt.NewMqttService(fileClient, zerolog.Nop())
	err := s.Initialize("ssl://broker:8883", "panel", "ca.pem", time.Second)

	assert.EqualError(t, err, "failed to append CA certificate")
}

func TestMqttService_DisconnectWithoutClient(t *testing.T) {
	s := mqtt.NewMqttService(new(mocks.MockFileOperations), zerolog.Nop())
	assert.NotPanics(t, func() { s.Disconnect(250) })
}

func TestMqttService_Initialize_UnreachableBroker(t *testing.T) {
	s := mqtt.NewMqttService(new(mocks.MockFileOperations), zerolog.Nop())
	err := s.Initialize("tcp://127.0.0.1:1", "panel", "", 500*time.Millisecond)
	assert.Error(t, err)
}
