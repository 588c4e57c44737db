package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/benmeehan/carstatus-relay/internal/constants"
	"github.com/benmeehan/carstatus-relay/internal/models"
	"github.com/benmeehan/carstatus-relay/internal/utils"
	"github.com/benmeehan/carstatus-relay/pkg/clock"
	"github.com/benmeehan/carstatus-relay/pkg/identity"
	"github.com/benmeehan/carstatus-relay/pkg/store"
	"github.com/rs/zerolog"
)

var (
	// ErrUnknownCommand is returned in strict mode for tokens outside the command set.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrDispatcherBusy is returned by Submit when the command queue is full.
	ErrDispatcherBusy = errors.New("dispatcher busy")
	// ErrDispatcherStopped is returned by Submit when the dispatcher is not running.
	ErrDispatcherStopped = errors.New("dispatcher is not running")
)

// CommandStore is the part of the relay the dispatcher talks to.
type CommandStore interface {
	Create(ctx context.Context, record models.StatusRecord) (models.StatusRecord, int, error)
	List(ctx context.Context) ([]models.StatusRecord, int, error)
}

// DispatchOutcome describes what happened to one command.
type DispatchOutcome struct {
	Record     models.StatusRecord // The record that was submitted
	StatusCode int                 // Zero when no response was obtained
	Sent       bool                // True only for a 201 Created
	Err        error
}

// DispatchService turns panel commands into status records and submits them.
type DispatchService struct {
	store     CommandStore
	resolver  identity.AddressResolver
	surface   Surface
	operator  string
	strict    bool
	commands  map[string]struct{}
	queueSize int
	clock     clock.Clock
	logger    zerolog.Logger

	mu   sync.Mutex
	pool *utils.WorkerPool
}

// NewDispatchService initializes a new DispatchService.
func NewDispatchService(commandStore CommandStore, resolver identity.AddressResolver, surface Surface,
	operator string, strict bool, queueSize int, clk clock.Clock, logger zerolog.Logger) *DispatchService {

	return &DispatchService{
		store:     commandStore,
		resolver:  resolver,
		surface:   surface,
		operator:  operator,
		strict:    strict,
		commands:  utils.SliceToSet(constants.Commands),
		queueSize: queueSize,
		clock:     clk,
		logger:    logger,
	}
}

// Start creates the single-worker queue that carries submitted commands.
func (d *DispatchService) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pool != nil {
		d.logger.Warn().Msg("DispatchService is already running")
		return errors.New("dispatch service is already running")
	}
	d.pool = utils.NewWorkerPool(1, d.queueSize)

	d.logger.Info().Str("operator", d.operator).Msg("DispatchService started successfully")
	return nil
}

// Stop waits for queued commands to be sent and releases the worker.
func (d *DispatchService) Stop() error {
	d.mu.Lock()
	pool := d.pool
	d.pool = nil
	d.mu.Unlock()

	if pool == nil {
		d.logger.Warn().Msg("DispatchService is not running")
		return errors.New("dispatch service is not running")
	}
	pool.Shutdown()

	d.logger.Info().Msg("DispatchService stopped successfully")
	return nil
}

// Submit queues a command without blocking the caller. Commands are sent one at a
// time in submission order. It never reports to the surface itself, so it is safe
// to call from the UI event loop; the caller decides how to show a rejection.
func (d *DispatchService) Submit(token string) error {
	d.mu.Lock()
	pool := d.pool
	d.mu.Unlock()

	if pool == nil {
		return ErrDispatcherStopped
	}
	if !pool.TrySubmit(func() { d.Dispatch(context.Background(), token) }) {
		d.logger.Warn().Str("command", token).Msg("Command queue full, dropping command")
		return ErrDispatcherBusy
	}
	return nil
}

// BuildRecord fills in every client-side field of a record for token.
func (d *DispatchService) BuildRecord(token string) models.StatusRecord {
	address, err := d.resolver.LocalAddress()
	if err != nil || address == "" {
		d.logger.Debug().Err(err).Msg("Local address unavailable")
		address = constants.AddressUnavailable
	}

	return models.StatusRecord{
		Name:     d.operator,
		Status:   token,
		Date:     models.UnixDate(d.clock.Now()),
		IPClient: address,
	}
}

// Dispatch builds and submits the record for token, then reports the result to the
// surface. Failures end here: they are shown to the operator and never returned
// as a panic or propagated further.
func (d *DispatchService) Dispatch(ctx context.Context, token string) DispatchOutcome {
	if d.strict {
		if _, ok := d.commands[token]; !ok {
			d.surface.ShowMessage(LevelError, fmt.Sprintf("Unknown command %q", token))
			return DispatchOutcome{Err: fmt.Errorf("%w: %q", ErrUnknownCommand, token)}
		}
	}

	record := d.BuildRecord(token)
	outcome := DispatchOutcome{Record: record}

	_, code, err := d.store.Create(ctx, record)
	outcome.StatusCode = code
	outcome.Err = err

	var decodeErr *store.DecodeError
	switch {
	case code == http.StatusCreated && (err == nil || errors.As(err, &decodeErr)):
		// The store accepted the record; an unreadable echo does not change that.
		if err != nil {
			d.logger.Warn().Err(err).Msg("Created record could not be decoded")
		}
		outcome.Sent = true
		outcome.Err = nil
		d.surface.ShowMessage(LevelSuccess, fmt.Sprintf("Success: %s record sent", token))
		d.surface.ShowSent(record)
		d.surface.ShowLastCommand(token)
		d.logger.Info().Str("command", token).Msg("Command sent")

	case store.IsNetworkError(err):
		d.surface.ShowMessage(LevelError, fmt.Sprintf("Network error: %v", err))
		d.logger.Error().Err(err).Str("command", token).Msg("Failed to reach relay")

	default:
		if err == nil {
			outcome.Err = fmt.Errorf("unexpected status %d", code)
		}
		d.surface.ShowMessage(LevelError, fmt.Sprintf("Error sending record: %d", code))
		d.logger.Error().Err(outcome.Err).Int("status", code).Str("command", token).Msg("Relay rejected command")
	}

	return outcome
}

// LoadLastCommand shows the status of the most recent record in the store. An
// empty store or a non-success answer shows "none"; an unreachable store or an
// unreadable body shows the error label.
func (d *DispatchService) LoadLastCommand(ctx context.Context) {
	records, _, err := d.store.List(ctx)
	_, answered := store.StatusCode(err)
	switch {
	case err != nil && answered:
		// The store answered with a failure status: there is no last command to show.
		d.logger.Warn().Err(err).Msg("Store refused last record lookup")
		d.surface.ShowLastCommand(constants.LastCommandNone)
	case err != nil:
		d.logger.Warn().Err(err).Msg("Failed to fetch last record")
		d.surface.ShowLastCommand(constants.LastCommandError)
	case len(records) == 0:
		d.surface.ShowLastCommand(constants.LastCommandNone)
	default:
		d.surface.ShowLastCommand(records[len(records)-1].Status)
	}
}
