package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benmeehan/carstatus-relay/internal/constants"
	"github.com/benmeehan/carstatus-relay/internal/mocks"
	"github.com/benmeehan/carstatus-relay/internal/models"
	"github.com/benmeehan/carstatus-relay/internal/services"
	"github.com/benmeehan/carstatus-relay/pkg/clock"
	"github.com/benmeehan/carstatus-relay/pkg/identity"
	"github.com/benmeehan/carstatus-relay/pkg/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestCommandRoundTrip sends a command through the relay and sees it on the next poll.
func TestCommandRoundTrip(t *testing.T) {
	remote := mocks.NewFakeStore()
	defer remote.Close()
	remote.SetNextID(42)

	remoteClient, err := store.NewClient(remote.URL(), time.Second, zerolog.Nop())
	require.NoError(t, err)

	relay := httptest.NewServer(services.NewRelayService("", time.Second, 5*time.Second, remoteClient, nil, zerolog.Nop()).Handler())
	defer relay.Close()

	relayClient, err := store.NewClient(relay.URL+"/carstatus", time.Second, zerolog.Nop())
	require.NoError(t, err)

	now := time.Now()
	surface := new(mocks.MockSurface)
	surface.On("ShowMessage", services.LevelSuccess, "Success: stop record sent").Return()
	surface.On("ShowSent", mock.Anything).Return()
	surface.On("ShowLastCommand", constants.CommandStop).Return()

	dispatcher := services.NewDispatchService(relayClient, identity.StaticResolver("10.0.0.5"), surface,
		"operator", false, 1, clock.NewFake(now), zerolog.Nop())

	outcome := dispatcher.Dispatch(context.Background(), constants.CommandStop)
	require.True(t, outcome.Sent)
	assert.Equal(t, http.StatusCreated, outcome.StatusCode)
	surface.AssertExpectations(t)

	sink := newPageSink()
	monitor := services.NewMonitorService(remoteClient, sink, pollInterval, 10, false, clock.NewFake(now), zerolog.Nop())
	require.True(t, monitor.Refresh(context.Background()))

	page := sink.next(t)
	require.Len(t, page, 1)
	assert.Equal(t, models.RecordID("42"), page[0].ID)
	assert.Equal(t, constants.CommandStop, page[0].Status)
	assert.Equal(t, "operator", page[0].Name)
	assert.Equal(t, "10.0.0.5", page[0].IPClient)
	assert.Equal(t, time.Unix(now.Unix(), 0).Format(models.DateLayout), models.ToRow(page[0]).Date)
}
