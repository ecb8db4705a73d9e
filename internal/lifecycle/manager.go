// LiftSync - Local-Network Live Data Sync for Lift Logging
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/fanout"
	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/supervisor"
	"github.com/tomtom215/liftsync/internal/supervisor/services"
)

var (
	// ErrNotStarted is returned by TurnOn and TurnOff before Start.
	ErrNotStarted = errors.New("lifecycle manager not started")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("lifecycle manager already started")
)

// Deps are the collaborators of a Manager.
type Deps struct {
	Tree   *supervisor.SupervisorTree
	Server services.SyncServer
	State  StateStore

	// Advertiser is optional. When set it is supervised next to the server.
	Advertiser services.Advertiser

	// ShutdownTimeout bounds each Stop of the server.
	ShutdownTimeout time.Duration
}

// Manager owns the Sync Server lifecycle state machine:
//
//	Off -> Unknown -> Starting -> On -> Unknown -> Stopping -> Off
//
// TurnOn and TurnOff are serialized. Supervisor hooks only update the state.
type Manager struct {
	cfg  config.LifecycleConfig
	deps Deps
	log  zerolog.Logger
	hub  *fanout.Hub[Status]

	ops sync.Mutex // serializes Start, TurnOn, TurnOff, Close

	// guarded by ops
	started  bool
	cancel   context.CancelFunc
	treeErr  <-chan error
	tokens   []suture.ServiceToken
	lastPort int

	mu        sync.Mutex
	status    Status
	gen       uint64
	listening chan struct{}
}

// New creates a manager in the Off state. Call Start to run the tree.
func New(cfg config.LifecycleConfig, deps Deps) *Manager {
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 10 * time.Second
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 10 * time.Second
	}

	m := &Manager{
		cfg:  cfg,
		deps: deps,
		log:  logging.WithComponent("lifecycle"),
		hub:  fanout.New[Status](),
	}
	m.status = Status{State: StateOff, Since: time.Now().UTC()}
	m.hub.Publish(m.status)
	metrics.LifecycleState.Set(float64(StateOff))
	return m
}

// Start runs the supervisor tree and restores the persisted intent. A
// restore that fails to come up leaves the manager Failed; only state
// store errors are returned.
func (m *Manager) Start(ctx context.Context) error {
	m.ops.Lock()
	defer m.ops.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.treeErr = m.deps.Tree.ServeBackground(runCtx)
	m.started = true

	flag, ok, err := m.deps.State.Load(ctx)
	if err != nil {
		return fmt.Errorf("load lifecycle flag: %w", err)
	}
	if !ok {
		return nil
	}
	m.lastPort = flag.Port
	if !flag.Enabled {
		return nil
	}

	m.log.Info().Int("port", flag.Port).Msg("restoring enabled sync server")
	if _, err := m.turnOn(ctx, flag.Port); err != nil {
		m.log.Warn().Err(err).Int("port", flag.Port).Msg("sync server restore did not complete")
	}
	return nil
}

// TurnOn persists the enabled flag and starts the server on port. It returns
// once the server listens or StartTimeout passes, in which case the state is
// Failed and supervision keeps retrying. A manager already On or Starting is
// left alone.
func (m *Manager) TurnOn(ctx context.Context, port int) (Status, error) {
	if port < 1 || port > 65535 {
		return m.Status(), &models.SyncError{Op: "turn_on", Err: models.ErrBadRequest, Detail: fmt.Sprintf("invalid port %d", port)}
	}

	m.ops.Lock()
	defer m.ops.Unlock()

	if !m.started {
		return m.Status(), ErrNotStarted
	}
	return m.turnOn(ctx, port)
}

func (m *Manager) turnOn(ctx context.Context, port int) (Status, error) {
	switch st := m.Status(); st.State {
	case StateOn, StateStarting:
		return st, nil
	case StateFailed:
		// The failed service may be retrying another port.
		if err := m.removeServices(); err != nil {
			m.log.Warn().Err(err).Msg("failed sync server did not stop in time")
		}
	}

	m.setState(StateUnknown, port, "", nil)

	flag := Flag{Enabled: true, Port: port, UpdatedAt: time.Now().UTC()}
	if err := m.deps.State.Save(ctx, flag); err != nil {
		m.setState(StateOff, 0, "", err)
		return m.Status(), fmt.Errorf("persist lifecycle flag: %w", err)
	}
	m.lastPort = port

	m.mu.Lock()
	m.gen++
	gen := m.gen
	listening := make(chan struct{})
	m.listening = listening
	m.mu.Unlock()

	m.setState(StateStarting, port, "", nil)

	svc := services.NewSyncServerService(m.deps.Server, port, m.deps.ShutdownTimeout, services.SyncServerHooks{
		OnListening: func(addr string) { m.onListening(gen, addr) },
		OnExit:      func(err error) { m.onExit(gen, err) },
	})
	m.tokens = append(m.tokens, m.deps.Tree.AddSyncService(svc))
	if m.deps.Advertiser != nil {
		m.tokens = append(m.tokens, m.deps.Tree.AddSyncService(services.NewAdvertiserService(m.deps.Advertiser, port)))
	}

	timer := time.NewTimer(m.cfg.StartTimeout)
	defer timer.Stop()

	select {
	case <-listening:
		return m.Status(), nil
	case <-timer.C:
		err := &models.SyncError{Op: "turn_on", Err: models.ErrTimeout, Detail: fmt.Sprintf("sync server did not listen on port %d within %s", port, m.cfg.StartTimeout)}
		m.failStart(gen, err)
		return m.Status(), err
	case <-ctx.Done():
		m.failStart(gen, ctx.Err())
		return m.Status(), ctx.Err()
	}
}

// TurnOff stops the server, waits until its port is released and persists
// the disabled flag. A manager already Off or Stopping is left alone.
func (m *Manager) TurnOff(ctx context.Context) (Status, error) {
	m.ops.Lock()
	defer m.ops.Unlock()

	if !m.started {
		return m.Status(), ErrNotStarted
	}

	st := m.Status()
	if st.State == StateOff || st.State == StateStopping {
		return st, nil
	}

	m.setState(StateUnknown, st.Port, st.Addr, nil)
	m.setState(StateStopping, st.Port, st.Addr, nil)

	m.mu.Lock()
	m.gen++
	m.listening = nil
	m.mu.Unlock()

	removeErr := m.removeServices()

	flag := Flag{Enabled: false, Port: m.lastPort, UpdatedAt: time.Now().UTC()}
	if err := m.deps.State.Save(ctx, flag); err != nil {
		m.setState(StateFailed, st.Port, "", err)
		return m.Status(), fmt.Errorf("persist lifecycle flag: %w", err)
	}

	if removeErr != nil {
		m.setState(StateFailed, st.Port, "", removeErr)
		return m.Status(), fmt.Errorf("stop sync server: %w", removeErr)
	}

	m.setState(StateOff, 0, "", nil)
	return m.Status(), nil
}

// removeServices removes every supervised service of the current run and
// waits for each to return.
func (m *Manager) removeServices() error {
	var errs []error
	// Advertiser first so the announcement is withdrawn before the port goes.
	for i := len(m.tokens) - 1; i >= 0; i-- {
		if err := m.deps.Tree.RemoveSyncService(m.tokens[i], m.cfg.StopTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	m.tokens = nil
	return errors.Join(errs...)
}

func (m *Manager) onListening(gen uint64, addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return
	}
	switch m.status.State {
	case StateStarting, StateFailed, StateOn:
	default:
		return
	}
	if m.listening != nil {
		close(m.listening)
		m.listening = nil
	}
	m.setStateLocked(StateOn, m.status.Port, addr, nil)
}

func (m *Manager) onExit(gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		return
	}
	if m.status.State != StateOn {
		m.log.Debug().Err(err).Msg("sync server not listening yet")
		return
	}
	m.setStateLocked(StateFailed, m.status.Port, "", err)
}

func (m *Manager) failStart(gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.status.State != StateStarting {
		return
	}
	m.setStateLocked(StateFailed, m.status.Port, "", err)
}

func (m *Manager) setState(state State, port int, addr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStateLocked(state, port, addr, err)
}

func (m *Manager) setStateLocked(state State, port int, addr string, err error) {
	prev := m.status.State
	m.status = Status{State: state, Port: port, Addr: addr, Since: time.Now().UTC()}
	if err != nil {
		m.status.Error = err.Error()
	}
	m.hub.Publish(m.status)

	metrics.LifecycleState.Set(float64(state))
	metrics.LifecycleTransitions.WithLabelValues(state.String()).Inc()

	ev := m.log.Info()
	if err != nil {
		ev = m.log.Warn().Err(err)
	}
	ev.Str("from", prev.String()).Str("to", state.String()).Int("port", port).Msg("lifecycle transition")
}

// Status returns the current status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Watch subscribes to status changes. The subscriber first receives the
// current status; slow readers only see the latest.
func (m *Manager) Watch() *fanout.Subscriber[Status] {
	return m.hub.Subscribe()
}

// Close stops the supervisor tree, and with it the server, without touching
// the persisted flag. It waits for the tree until ctx is done.
func (m *Manager) Close(ctx context.Context) error {
	m.ops.Lock()
	defer m.ops.Unlock()

	defer m.hub.Close()
	if !m.started {
		return nil
	}
	m.started = false
	m.tokens = nil

	m.mu.Lock()
	m.gen++
	m.listening = nil
	m.mu.Unlock()

	m.cancel()
	var err error
	select {
	case treeErr := <-m.treeErr:
		if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
			err = treeErr
		}
	case <-ctx.Done():
		err = ctx.Err()
	}

	if m.Status().State != StateOff {
		m.setState(StateOff, 0, "", nil)
	}
	return err
}
