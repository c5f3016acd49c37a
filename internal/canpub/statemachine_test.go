package canpub

import (
	"context"
	"errors"
	"testing"

	"github.com/looplab/fsm"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/autopeer-io/canpub/internal/pkg/metrics"
	"github.com/autopeer-io/canpub/pkg/log"
)

func TestConnectionStateMachine(t *testing.T) {
	ctx := context.Background()
	sm := newConnectionStateMachine(log.NewNopLogger(), nil)

	var invalid fsm.InvalidEventError
	if err := sm.fire(ctx, EventConfirm); !errors.As(err, &invalid) {
		t.Fatalf("confirm while disconnected: error = %v, want InvalidEventError", err)
	}

	if err := sm.fire(ctx, EventDial); err != nil {
		t.Fatalf("dial: %v", err)
	}
	if got := testutil.ToFloat64(metrics.ConnectionState.WithLabelValues(StateConnecting)); got != 1 {
		t.Errorf("connecting gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.ConnectionState.WithLabelValues(StateDisconnected)); got != 0 {
		t.Errorf("disconnected gauge = %v, want 0", got)
	}

	if err := sm.fire(ctx, EventPublish); !errors.As(err, &invalid) {
		t.Fatalf("publish before establish: error = %v, want InvalidEventError", err)
	}

	for _, ev := range []string{EventStop, EventRelease} {
		if err := sm.fire(ctx, ev); err != nil {
			t.Fatalf("%s: %v", ev, err)
		}
	}
	if sm.Current() != StateDisconnected {
		t.Errorf("state = %s, want %s", sm.Current(), StateDisconnected)
	}
}
