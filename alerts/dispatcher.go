package alerts

import (
	"context"
	"sync"

	"github.com/kendall-kelly/canteen-store-api/realtime"
	"github.com/sirupsen/logrus"
)

// EffectSink performs effects for one observer
type EffectSink interface {
	Execute(ctx context.Context, effect Effect) error
}

// EventObserver is implemented by sinks that also want every applied event along with
// the state it produced
type EventObserver interface {
	Observe(ctx context.Context, event realtime.Event, state ObserverState) error
}

// EffectSinkFunc adapts a function to EffectSink
type EffectSinkFunc func(ctx context.Context, effect Effect) error

func (f EffectSinkFunc) Execute(ctx context.Context, effect Effect) error {
	return f(ctx, effect)
}

// Dispatcher drives one observer: it applies every event from a subscription and runs the
// resulting effects. Effect failures are logged and never stop the loop.
type Dispatcher struct {
	mu    sync.RWMutex
	state ObserverState
	sink  EffectSink
	log   logrus.FieldLogger
}

// NewDispatcher creates a dispatcher starting from state
func NewDispatcher(state ObserverState, sink EffectSink, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		state: state,
		sink:  sink,
		log: log.WithFields(logrus.Fields{
			"observer": state.Kind,
			"user_id":  state.UserID,
		}),
	}
}

// State returns the current observer state
func (d *Dispatcher) State() ObserverState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// SetMuted changes the mute flag for subsequent events
func (d *Dispatcher) SetMuted(muted bool) {
	d.mu.Lock()
	d.state = d.state.WithMuted(muted)
	d.mu.Unlock()
}

// SetPermission changes the native notification permission for subsequent events
func (d *Dispatcher) SetPermission(granted bool) {
	d.mu.Lock()
	d.state = d.state.WithPermission(granted)
	d.mu.Unlock()
}

// Run consumes sub until ctx is done or the subscription is closed. The subscription is
// closed on return.
func (d *Dispatcher) Run(ctx context.Context, sub *realtime.Subscription) error {
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			d.Handle(ctx, event)
		}
	}
}

// Handle applies one event and executes its effects
func (d *Dispatcher) Handle(ctx context.Context, event realtime.Event) {
	d.mu.Lock()
	next, effects, err := Apply(d.state, event)
	if err != nil {
		d.mu.Unlock()
		d.log.WithError(err).WithField("event_id", event.ID).Warn("skipping malformed event")
		return
	}
	d.state = next
	d.mu.Unlock()

	if observer, ok := d.sink.(EventObserver); ok {
		if err := observer.Observe(ctx, event, next); err != nil {
			d.log.WithError(err).WithField("event_id", event.ID).Warn("observer failed to receive event")
		}
	}

	for _, effect := range effects {
		if err := d.sink.Execute(ctx, effect); err != nil {
			d.log.WithFields(logrus.Fields{
				"effect":   effect.Kind(),
				"event_id": event.ID,
			}).WithError(err).Warn("NotificationDeliveryFailure: effect failed")
		}
	}
}
