// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"github.com/felixgeelhaar/statekit"
	"github.com/rs/zerolog"

	"github.com/pdiddy/pdfconv/pkg/types"
)

// Phase machine events.
const (
	evValidate statekit.EventType = "VALIDATE"
	evSelect   statekit.EventType = "SELECT"
	evConvert  statekit.EventType = "CONVERT"
	evWrite    statekit.EventType = "WRITE"
	evComplete statekit.EventType = "COMPLETE"
	evFail     statekit.EventType = "FAIL"
	evCancel   statekit.EventType = "CANCEL"
)

const (
	stateIdle       = statekit.StateID(types.PhaseIdle)
	stateValidating = statekit.StateID(types.PhaseValidating)
	stateSelecting  = statekit.StateID(types.PhaseSelecting)
	stateConverting = statekit.StateID(types.PhaseConverting)
	stateWriting    = statekit.StateID(types.PhaseWriting)
	stateCompleted  = statekit.StateID(types.PhaseCompleted)
	stateFailed     = statekit.StateID(types.PhaseFailed)
	stateCancelled  = statekit.StateID(types.PhaseCancelled)
)

// phaseLog is the machine context: the phases a request passed through.
type phaseLog struct {
	visited []types.Phase
	log     zerolog.Logger
}

var entered = map[statekit.EventType]types.Phase{
	evValidate: types.PhaseValidating,
	evSelect:   types.PhaseSelecting,
	evConvert:  types.PhaseConverting,
	evWrite:    types.PhaseWriting,
	evComplete: types.PhaseCompleted,
	evFail:     types.PhaseFailed,
	evCancel:   types.PhaseCancelled,
}

func recordEntry(ctx **phaseLog, e statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	p, ok := entered[e.Type]
	if !ok {
		// The initial entry carries no machine event.
		p = types.PhaseIdle
	}
	(*ctx).visited = append((*ctx).visited, p)
	(*ctx).log.Debug().Str("phase", string(p)).Msg("phase entered")
}

// newPhaseMachine builds the conversion statechart. Failed is reachable from
// every working phase; Cancelled from the phases that check for cancellation
// before doing work.
func newPhaseMachine() (*statekit.MachineConfig[*phaseLog], error) {
	return statekit.NewMachine[*phaseLog]("conversion").
		WithInitial(stateIdle).
		WithContext(&phaseLog{}).
		WithAction("record", recordEntry).
		State(stateIdle).
		OnEntry("record").
		On(evValidate).Target(stateValidating).
		On(evFail).Target(stateFailed).
		Done().
		State(stateValidating).
		OnEntry("record").
		On(evSelect).Target(stateSelecting).
		On(evFail).Target(stateFailed).
		On(evCancel).Target(stateCancelled).
		Done().
		State(stateSelecting).
		OnEntry("record").
		On(evConvert).Target(stateConverting).
		On(evFail).Target(stateFailed).
		On(evCancel).Target(stateCancelled).
		Done().
		State(stateConverting).
		OnEntry("record").
		On(evWrite).Target(stateWriting).
		On(evFail).Target(stateFailed).
		On(evCancel).Target(stateCancelled).
		Done().
		State(stateWriting).
		OnEntry("record").
		On(evComplete).Target(stateCompleted).
		On(evFail).Target(stateFailed).
		Done().
		State(stateCompleted).
		Final().
		OnEntry("record").
		Done().
		State(stateFailed).
		Final().
		OnEntry("record").
		Done().
		State(stateCancelled).
		Final().
		OnEntry("record").
		Done().
		Build()
}

// phases drives one request through the machine.
type phases struct {
	interp *statekit.Interpreter[*phaseLog]
	ctx    *phaseLog
}

func startPhases(machine *statekit.MachineConfig[*phaseLog], log zerolog.Logger) *phases {
	ctx := &phaseLog{log: log}
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **phaseLog) {
		*c = ctx
	})
	interp.Start()
	return &phases{interp: interp, ctx: ctx}
}

// send fires ev and returns the phase the machine is in afterwards.
func (p *phases) send(ev statekit.EventType) types.Phase {
	p.interp.Send(statekit.Event{Type: ev})
	return p.current()
}

func (p *phases) current() types.Phase {
	return types.Phase(p.interp.State().Value)
}

func (p *phases) done() bool { return p.interp.Done() }

func (p *phases) visited() []types.Phase {
	return append([]types.Phase(nil), p.ctx.visited...)
}

func (p *phases) stop() { p.interp.Stop() }
