package bus

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	errs "github.com/simwire/simwire/internal/bus/errors"
	idspkg "github.com/simwire/simwire/internal/bus/ids"
	loggingpkg "github.com/simwire/simwire/internal/bus/logging"
	"github.com/simwire/simwire/internal/bus/msg"
	"github.com/simwire/simwire/internal/bus/ops"
)

const (
	sideSource      = "source"
	sideDestination = "destination"
)

// Send routes a message from a local endpoint at the core's current logical
// time.
func (c *Core) Send(ctx context.Context, from Handle, dest string, payload []byte) error {
	return c.SendAt(ctx, from, dest, payload, c.CurrentTime())
}

// SendAt routes a message from a local endpoint with an explicit logical
// send time. The message folds through the endpoint's source chain, clone
// watchers duplicate it, and every surviving message is delivered to its
// destination endpoint (folding through that endpoint's destination chain
// when it is local).
func (c *Core) SendAt(ctx context.Context, from Handle, dest string, payload []byte, at msg.Time) error {
	if c.closed.Load() {
		return errs.ErrCoreClosed
	}
	c.mu.RLock()
	ep := c.endpoints[from]
	c.mu.RUnlock()
	if ep == nil {
		return fmt.Errorf("sending from handle %d: %w", from, errs.ErrNotAnEndpoint)
	}

	m := &msg.Message{
		UUID:        idspkg.NewULID(),
		Source:      ep.name,
		OrigSource:  ep.name,
		Dest:        dest,
		OrigDest:    dest,
		SendTime:    at,
		ReceiveTime: at,
	}
	if payload != nil {
		m.Payload = make([]byte, len(payload))
		copy(m.Payload, payload)
	}

	ep.seqMu.Lock()
	defer ep.seqMu.Unlock()
	c.retirer.Enter()
	defer c.retirer.Exit()

	outs, dups := c.foldChain(ctx, ep.name, m, sideSource)
	for _, out := range outs {
		c.deliver(ctx, out, true)
	}
	for _, dup := range dups {
		c.deliverDirect(ctx, dup)
	}
	return nil
}

// RouteMessage folds a message through the filter chain attached to the
// endpoint at the given handle and returns the resulting set of messages,
// without delivering them. The source chain applies when the endpoint is
// the message's source, the destination chain when it is the destination.
// An unknown handle is a contract violation and is reported as an error.
func (c *Core) RouteMessage(ctx context.Context, m *msg.Message, at Handle) ([]*msg.Message, error) {
	if m == nil {
		return nil, nil
	}
	c.mu.RLock()
	ep := c.endpoints[at]
	c.mu.RUnlock()
	if ep == nil {
		c.logger.Error("Routing through unknown handle", errs.ErrUnknownHandle, loggingpkg.LogFields{"handle": at})
		return nil, fmt.Errorf("routing through handle %d: %w", at, errs.ErrUnknownHandle)
	}

	side := sideSource
	switch ep.name {
	case m.Source:
		side = sideSource
	case m.Dest:
		side = sideDestination
	default:
		return nil, fmt.Errorf("message %s does not transit endpoint %q: %w", m.UUID, ep.name, errs.ErrNotAnEndpoint)
	}

	ep.seqMu.Lock()
	defer ep.seqMu.Unlock()
	c.retirer.Enter()
	defer c.retirer.Exit()

	outs, dups := c.foldChain(ctx, ep.name, m, side)
	return append(outs, dups...), nil
}

// foldChain runs the ordered (non-cloning) chain for one side of an
// endpoint and collects the duplicates emitted by cloning watchers on that
// side. Chain folding: each filter's output becomes the next filter's
// input; a filter yielding zero messages short-circuits the remainder.
// Clone watchers see the original message regardless of what the chain did
// to it, so duplicates are byte-identical to the submitted message except
// for their destination.
func (c *Core) foldChain(ctx context.Context, endpoint string, m *msg.Message, side string) (outs, dups []*msg.Message) {
	c.mu.RLock()
	var chain, watch []*filterRecord
	if side == sideSource {
		chain = append([]*filterRecord(nil), c.srcChains[endpoint]...)
		watch = append([]*filterRecord(nil), c.srcWatch[endpoint]...)
	} else {
		chain = append([]*filterRecord(nil), c.destChains[endpoint]...)
		watch = append([]*filterRecord(nil), c.destWatch[endpoint]...)
	}
	c.mu.RUnlock()

	c.metrics.incRouted(side)

	for _, rec := range watch {
		c.mu.RLock()
		op, active := rec.op, rec.resolve.Resolved && !rec.retired
		c.mu.RUnlock()
		if !active || op == nil {
			continue
		}
		out, err := c.runOperation(ctx, rec, op, m)
		if err != nil {
			c.reportFault(rec, m, err)
			continue
		}
		// A clone operation returns the original first, then the duplicates.
		if len(out) > 1 {
			dups = append(dups, out[1:]...)
			c.metrics.addCloned(len(out) - 1)
		}
	}

	msgs := []*msg.Message{m}
	for _, rec := range chain {
		c.mu.RLock()
		op, active := rec.op, rec.resolve.Resolved && !rec.retired
		c.mu.RUnlock()
		if !active || op == nil {
			continue
		}

		next := make([]*msg.Message, 0, len(msgs))
		for _, in := range msgs {
			out, err := c.runOperation(ctx, rec, op, in)
			if err != nil {
				// Recover by passing the message through unmodified.
				c.reportFault(rec, in, err)
				next = append(next, in)
				continue
			}
			if len(out) == 1 && out[0].Dest != in.Dest {
				c.metrics.incRerouted()
			}
			next = append(next, out...)
		}
		msgs = next
		if len(msgs) == 0 {
			c.metrics.incDropped()
			break
		}
	}
	return msgs, dups
}

// runOperation executes one bound operation against a private copy of the
// message, inside an OpenTelemetry span, converting panics into errors so a
// misbehaving transform can never take down the routing path.
func (c *Core) runOperation(ctx context.Context, rec *filterRecord, op ops.Operation, m *msg.Message) (out []*msg.Message, err error) {
	_, span := c.tracer.Start(ctx, "FilterOperation")
	defer span.End()
	span.SetAttributes(
		attribute.String("filter.name", rec.name),
		attribute.String("filter.type", op.Type().String()),
		attribute.String("message.uuid", m.UUID),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("filter operation panicked: %v", r)
		}
	}()

	out = op.Process(m.Clone())
	return out, nil
}

func (c *Core) reportFault(rec *filterRecord, m *msg.Message, err error) {
	c.metrics.incFaults()
	c.logger.Error("Filter operation fault; message passed through unmodified", err, loggingpkg.LogFields{
		"filter":       rec.name,
		"message_uuid": m.UUID,
	})
}

// deliver hands a routed message to its destination. Local destinations
// fold through their destination-side chain first; remote destinations go
// out through the transport.
func (c *Core) deliver(ctx context.Context, m *msg.Message, throughDestChain bool) {
	c.mu.RLock()
	ep := c.byName[m.Dest]
	c.mu.RUnlock()

	if ep == nil {
		c.deliverRemote(ctx, m)
		return
	}

	if !throughDestChain {
		ep.push(m)
		return
	}

	outs, dups := c.foldChain(ctx, ep.name, m, sideDestination)
	for _, out := range outs {
		if out.Dest == ep.name {
			ep.push(out)
			continue
		}
		// A destination-side reroute moved the message; deliver it where it
		// now points, without running further chains.
		c.deliverDirect(ctx, out)
	}
	for _, dup := range dups {
		c.deliverDirect(ctx, dup)
	}
}

// deliverDirect places a message into its destination inbox (or onto the
// transport) without running any filter chain. Clone duplicates and
// post-reroute deliveries take this path so a watcher on the delivery
// endpoint cannot recursively re-clone traffic.
func (c *Core) deliverDirect(ctx context.Context, m *msg.Message) {
	c.mu.RLock()
	ep := c.byName[m.Dest]
	c.mu.RUnlock()

	if ep != nil {
		ep.push(m)
		return
	}
	c.deliverRemote(ctx, m)
}

func (c *Core) deliverRemote(ctx context.Context, m *msg.Message) {
	c.mu.RLock()
	topic, routed := c.remoteRoutes[m.Dest]
	c.mu.RUnlock()

	if !routed || c.publisher == nil {
		c.logger.Debug("Dropping message for unknown destination", loggingpkg.LogFields{
			"dest":         m.Dest,
			"message_uuid": m.UUID,
		})
		return
	}

	wm, err := marshalEnvelope(m)
	if err != nil {
		c.logger.Error("Failed to marshal message envelope", err, loggingpkg.LogFields{"message_uuid": m.UUID})
		return
	}
	if err := c.publisher.Publish(topic, wm); err != nil {
		c.logger.Error("Failed to publish remote message", err, loggingpkg.LogFields{
			"topic":        topic,
			"message_uuid": m.UUID,
		})
	}
}

// Run subscribes to this core's transport topic and injects arriving
// messages into local destination chains until the context is cancelled.
func (c *Core) Run(ctx context.Context) error {
	if c.subscriber == nil {
		return fmt.Errorf("running core %q: no transport configured", c.name)
	}
	topic := c.conf.RemoteTopic
	if topic == "" {
		topic = c.name
	}

	messages, err := c.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribing to %q: %w", topic, err)
	}
	c.logger.Info("Core receiving remote traffic", loggingpkg.LogFields{"topic": topic})

	for wm := range messages {
		m, err := unmarshalEnvelope(wm)
		if err != nil {
			c.logger.Error("Discarding undecodable remote message", err, loggingpkg.LogFields{"message_uuid": wm.UUID})
			wm.Ack()
			continue
		}
		c.injectRemote(ctx, m)
		wm.Ack()
	}
	return ctx.Err()
}

// injectRemote delivers a message that arrived over the transport, folding
// it through the local destination chain.
func (c *Core) injectRemote(ctx context.Context, m *msg.Message) {
	c.mu.RLock()
	ep := c.byName[m.Dest]
	c.mu.RUnlock()
	if ep == nil {
		c.logger.Debug("Remote message for unknown local endpoint", loggingpkg.LogFields{
			"dest":         m.Dest,
			"message_uuid": m.UUID,
		})
		return
	}

	ep.seqMu.Lock()
	defer ep.seqMu.Unlock()
	c.retirer.Enter()
	defer c.retirer.Exit()

	c.deliver(ctx, m, true)
}
