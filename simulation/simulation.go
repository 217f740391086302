// Package simulation assembles and runs a complete charger simulation.
package simulation

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sarchlab/chargersim/config"
	"github.com/sarchlab/chargersim/datarecording"
	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/harness"
	"github.com/sarchlab/chargersim/monitoring"
	"github.com/sarchlab/chargersim/report"
	"github.com/sarchlab/chargersim/sim"
)

const releaseInterval = 10 * time.Millisecond

// A Simulation owns everything a run needs.
type Simulation struct {
	id  string
	cfg config.Config

	engine     *sim.SerialEngine
	store      *hal.Store
	board      *hal.Board
	controller harness.Controller
	loop       *harness.DriveLoop

	steps    *report.StepCounter
	recorder datarecording.DataRecorder
	monitor  *monitoring.Monitor
	progress *monitoring.ProgressBar
	closers  []io.Closer
}

// ID returns the unique name of the run.
func (s *Simulation) ID() string {
	return s.id
}

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() config.Config {
	return s.cfg
}

// Engine returns the event engine.
func (s *Simulation) Engine() *sim.SerialEngine {
	return s.engine
}

// Store returns the pin store.
func (s *Simulation) Store() *hal.Store {
	return s.store
}

// Board returns the board the controller runs on.
func (s *Simulation) Board() *hal.Board {
	return s.board
}

// Controller returns the controller under test.
func (s *Simulation) Controller() harness.Controller {
	return s.controller
}

// DriveLoop returns the drive loop.
func (s *Simulation) DriveLoop() *harness.DriveLoop {
	return s.loop
}

// Steps returns the per-output iteration counts.
func (s *Simulation) Steps() *report.StepCounter {
	return s.steps
}

// Recorder returns the data recorder, or nil when recording is off.
func (s *Simulation) Recorder() datarecording.DataRecorder {
	return s.recorder
}

// Monitor returns the monitor, or nil when monitoring is off.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Run drives the controller until the iteration limit is reached or ctx is
// done, and returns the status of the last iteration. A pin access out of
// range stops the run and is returned as the error.
func (s *Simulation) Run(ctx context.Context) (status harness.Status, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		rErr, ok := r.(error)

		var outOfRange *hal.OutOfRangeError
		if !ok || !errors.As(rErr, &outOfRange) {
			panic(r)
		}

		err = outOfRange
		s.engine.Finished()
		status, _ = s.loop.LastStatus()
	}()

	done := make(chan struct{})
	defer close(done)

	go s.releaseOnCancel(ctx, done)

	s.loop.Start(ctx)

	if err := s.engine.Run(); err != nil {
		return harness.Status{}, err
	}

	s.engine.Finished()

	status, _ = s.loop.LastStatus()

	return status, nil
}

// releaseOnCancel keeps the engine going once ctx is done, so that a run
// paused from the monitor still reaches the drive loop and stops.
func (s *Simulation) releaseOnCancel(ctx context.Context, done <-chan struct{}) {
	select {
	case <-done:
		return
	case <-ctx.Done():
	}

	ticker := time.NewTicker(releaseInterval)
	defer ticker.Stop()

	for {
		s.engine.Continue()

		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

// Terminate releases the recorder, the serial port and the monitor.
func (s *Simulation) Terminate() error {
	var errs []error

	if s.progress != nil && s.monitor != nil {
		s.monitor.CompleteProgressBar(s.progress)
	}

	if s.monitor != nil {
		errs = append(errs, s.monitor.StopServer())
	}

	if s.recorder != nil {
		errs = append(errs, s.recorder.Close())
	}

	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}

	return errors.Join(errs...)
}
