package services_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/benmeehan/carstatus-relay/internal/mocks"
	"github.com/benmeehan/carstatus-relay/internal/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// TestCommandNotifier_Notify_Success tests publishing a created record.
func TestCommandNotifier_Notify_Success(t *testing.T) {
	// Setup
	mockClient := new(mocks.MockMQTTClient)
	mockToken := new(mocks.MockToken)
	record := json.RawMessage(`{"id":"1","status":"stop"}`)

	mockClient.On("Publish", "carstatus/commands", byte(1), false, []byte(record)).Return(mockToken)
	mockToken.On("WaitTimeout", time.Second).Return(true)
	mockToken.On("Error").Return(nil)

	n := services.NewCommandNotifier("carstatus/commands", 1, time.Second, mockClient, zerolog.Nop())

	// Execute
	err := n.Notify(record)

	// Assert
	assert.NoError(t, err)
	mockClient.AssertExpectations(t)
	mockToken.AssertExpectations(t)
}

// TestCommandNotifier_Notify_Timeout tests a publish that never completes.
func TestCommandNotifier_Notify_Timeout(t *testing.T) {
	mockClient := new(mocks.MockMQTTClient)
	mockToken := new(mocks.MockToken)

	mockClient.On("Publish", "cars", byte(0), false, []byte(`{}`)).Return(mockToken)
	mockToken.On("WaitTimeout", 10*time.Millisecond).Return(false)

	n := services.NewCommandNotifier("cars", 0, 10*time.Millisecond, mockClient, zerolog.Nop())
	err := n.Notify(json.RawMessage(`{}`))

	assert.EqualError(t, err, "timed out publishing to cars")
	mockToken.AssertNotCalled(t, "Error")
}

// TestCommandNotifier_Notify_Error tests a publish rejected by the broker.
func TestCommandNotifier_Notify_Error(t *testing.T) {
	mockClient := new(mocks.MockMQTTClient)
	mockToken := new(mocks.MockToken)

	mockClient.On("Publish", "cars", byte(0), false, []byte(`{}`)).Return(mockToken)
	mockToken.On("WaitTimeout", time.Second).Return(true)
	mockToken.On("Error").Return(errors.New("not authorized"))

	n := services.NewCommandNotifier("cars", 0, time.Second, mockClient, zerolog.Nop())
	err := n.Notify(json.RawMessage(`{}`))

	assert.ErrorContains(t, err, "not authorized")
}
