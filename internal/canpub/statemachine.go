package canpub

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/canpub/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/canpub/internal/pkg/util/fsm"
	"github.com/autopeer-io/canpub/pkg/log"
)

// Connection states of a single send cycle.
const (
	StateDisconnected     = "disconnected"
	StateConnecting       = "connecting"
	StateConnected        = "connected"
	StatePublishPending   = "publish_pending"
	StatePublishConfirmed = "publish_confirmed"
	StateLoopStopped      = "loop_stopped"
)

// Events driving the connection state machine.
const (
	// EventDial starts the connection manager.
	EventDial = "dial"
	// EventEstablish records the CONNACK; the delivery loop is running.
	EventEstablish = "establish"
	// EventPublish sends PUBLISH and waits for the acknowledgment.
	EventPublish = "publish"
	// EventConfirm records the acknowledgment.
	EventConfirm = "confirm"
	// EventStop stops the delivery loop. Valid from every live state so that
	// failure paths tear down the same way as the happy path.
	EventStop = "stop"
	// EventRelease returns the handle to Disconnected.
	EventRelease = "release"
)

var connectionStates = []string{
	StateDisconnected,
	StateConnecting,
	StateConnected,
	StatePublishPending,
	StatePublishConfirmed,
	StateLoopStopped,
}

// TransitionFunc observes state changes.
type TransitionFunc func(from, to string)

type connectionStateMachine struct {
	*fsm.FSM
	logger   log.Logger
	observer TransitionFunc
}

func newConnectionStateMachine(logger log.Logger, observer TransitionFunc) *connectionStateMachine {
	m := &connectionStateMachine{logger: logger, observer: observer}

	events := fsm.Events{
		{Name: EventDial, Src: []string{StateDisconnected}, Dst: StateConnecting},
		{Name: EventEstablish, Src: []string{StateConnecting}, Dst: StateConnected},
		{Name: EventPublish, Src: []string{StateConnected}, Dst: StatePublishPending},
		{Name: EventConfirm, Src: []string{StatePublishPending}, Dst: StatePublishConfirmed},
		{
			Name: EventStop,
			Src:  []string{StateConnecting, StateConnected, StatePublishPending, StatePublishConfirmed},
			Dst:  StateLoopStopped,
		},
		{Name: EventRelease, Src: []string{StateLoopStopped}, Dst: StateDisconnected},
	}

	callbacks := fsm.Callbacks{
		"enter_state": fsmutil.WrapEvent(m.onEnterState),
	}

	m.FSM = fsm.NewFSM(StateDisconnected, events, callbacks)
	metrics.SetConnectionState(connectionStates, StateDisconnected)
	return m
}

func (m *connectionStateMachine) onEnterState(_ context.Context, e *fsm.Event) error {
	m.logger.Debug("Connection state changed", "event", e.Event, "from", e.Src, "to", e.Dst)
	metrics.SetConnectionState(connectionStates, e.Dst)
	if m.observer != nil {
		m.observer(e.Src, e.Dst)
	}
	return nil
}

func (m *connectionStateMachine) fire(ctx context.Context, event string) error {
	return fsmutil.Fire(ctx, m.FSM, event)
}
