// Package bus implements the core of the co-simulation message bus: the
// handle registry, the routing records binding filters to endpoints, and the
// message routing path that folds traffic through filter chains.
package bus

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/simwire/simwire/internal/bus/config"
	errs "github.com/simwire/simwire/internal/bus/errors"
	idspkg "github.com/simwire/simwire/internal/bus/ids"
	loggingpkg "github.com/simwire/simwire/internal/bus/logging"
	"github.com/simwire/simwire/internal/bus/msg"
	"github.com/simwire/simwire/internal/bus/ops"
	transportpkg "github.com/simwire/simwire/internal/bus/transport"
)

var nextCoreID atomic.Int32

// CoreDependencies holds the optional collaborators a Core can use. Leave
// fields zero to get the defaults.
type CoreDependencies struct {
	// TransportFactory overrides how the delivery plane is built. Tests
	// inject factories here to avoid real brokers.
	TransportFactory transportpkg.Factory
	// DisableTransport skips building a delivery plane entirely; the core
	// then only routes between its own endpoints.
	DisableTransport bool
}

// endpointState is the per-endpoint runtime state. seqMu serializes chain
// execution for the endpoint so messages submitted through the same handle
// keep their order; different endpoints route fully in parallel.
type endpointState struct {
	handle Handle
	fed    FederateID
	name   string

	seqMu sync.Mutex

	inboxMu sync.Mutex
	inbox   []*msg.Message
}

func (ep *endpointState) push(m *msg.Message) {
	ep.inboxMu.Lock()
	ep.inbox = append(ep.inbox, m)
	ep.inboxMu.Unlock()
}

func (ep *endpointState) pop() (*msg.Message, bool) {
	ep.inboxMu.Lock()
	defer ep.inboxMu.Unlock()
	if len(ep.inbox) == 0 {
		return nil, false
	}
	m := ep.inbox[0]
	ep.inbox = ep.inbox[1:]
	return m, true
}

func (ep *endpointState) depth() int {
	ep.inboxMu.Lock()
	defer ep.inboxMu.Unlock()
	return len(ep.inbox)
}

// FilterRegistration captures how a filter should be registered on a core.
type FilterRegistration struct {
	// Name identifies the filter; empty means auto-generated.
	Name string
	// Target is the endpoint name the filter attaches to. The endpoint does
	// not have to exist yet; resolution happens when it registers.
	Target string
	// InputType and OutputType are declared payload type tags. The core
	// records them verbatim.
	InputType  string
	OutputType string
	// DestFilter selects the destination side of the target endpoint;
	// false means the source side.
	DestFilter bool
	// Cloning marks the registration as a cloning watcher: it never gates
	// the base chain, it only emits duplicates.
	Cloning bool
	// Operation is the initial bound operation. May be nil and bound later
	// through SetOperator; the filter stays inert until then.
	Operation ops.Operation
}

// Core owns the handle table, the routing records, and the per-endpoint
// filter chains of one bus process. Routing-table lookups run under a
// shared lock while registration and rebinding are the rare exclusive
// writers; transforms always execute outside any lock.
type Core struct {
	id     BrokerID
	name   string
	conf   *configpkg.Config
	logger loggingpkg.BusLogger
	tracer trace.Tracer

	mu         sync.RWMutex
	handles    *handleManager
	records    map[Handle]*filterRecord
	byFID      map[FilterID]*filterRecord
	nextFID    FilterID
	srcChains  map[string][]*filterRecord
	destChains map[string][]*filterRecord
	srcWatch   map[string][]*filterRecord
	destWatch  map[string][]*filterRecord
	pending    map[string][]*filterRecord

	endpoints map[Handle]*endpointState
	byName    map[string]*endpointState

	federates    map[FederateID]string
	nextFederate FederateID

	remoteRoutes map[string]string

	retirer *Retirer
	metrics *routingMetrics

	publisher  message.Publisher
	subscriber message.Subscriber

	now    atomic.Int64
	closed atomic.Bool
}

// NewCore constructs a Core for the supplied configuration, panicking when
// the transport cannot be built. Use TryNewCore to handle the error.
func NewCore(ctx context.Context, conf *configpkg.Config, log loggingpkg.BusLogger, deps CoreDependencies) *Core {
	c, err := TryNewCore(ctx, conf, log, deps)
	if err != nil {
		panic(err)
	}
	return c
}

// TryNewCore constructs a Core for the supplied configuration.
func TryNewCore(ctx context.Context, conf *configpkg.Config, log loggingpkg.BusLogger, deps CoreDependencies) (*Core, error) {
	if conf == nil {
		conf = &configpkg.Config{}
	}
	if log == nil {
		log = loggingpkg.NopLogger()
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid core config: %w", err)
	}

	name := conf.CoreName
	if name == "" {
		name = "core_" + idspkg.NewULID()
	}

	c := &Core{
		id:           BrokerID(nextCoreID.Add(1)),
		name:         name,
		conf:         conf,
		logger:       log.With(loggingpkg.LogFields{"core": name}),
		tracer:       otel.Tracer("simwire.core"),
		handles:      newHandleManager(),
		records:      make(map[Handle]*filterRecord),
		byFID:        make(map[FilterID]*filterRecord),
		srcChains:    make(map[string][]*filterRecord),
		destChains:   make(map[string][]*filterRecord),
		srcWatch:     make(map[string][]*filterRecord),
		destWatch:    make(map[string][]*filterRecord),
		pending:      make(map[string][]*filterRecord),
		endpoints:    make(map[Handle]*endpointState),
		byName:       make(map[string]*endpointState),
		federates:    make(map[FederateID]string),
		remoteRoutes: make(map[string]string),
		retirer:      NewRetirer(),
	}

	if conf.MetricsEnabled {
		c.metrics = newRoutingMetrics(name)
	}

	if !deps.DisableTransport {
		factory := deps.TransportFactory
		if factory == nil {
			factory = transportpkg.DefaultFactory()
		}
		t, err := factory.Build(ctx, conf, loggingpkg.NewWatermillAdapter(c.logger))
		if err != nil {
			return nil, fmt.Errorf("building transport: %w", err)
		}
		c.publisher = t.Publisher
		c.subscriber = t.Subscriber
	}

	c.logger.Info("Created core", loggingpkg.LogFields{
		"transport": conf.Transport,
		"metrics":   conf.MetricsEnabled,
	})
	return c, nil
}

// Name reports the core's name.
func (c *Core) Name() string { return c.name }

// ID reports the core's broker identity.
func (c *Core) ID() BrokerID { return c.id }

// SetTime advances the core's logical clock. The time-coordination layer
// owns when this is called.
func (c *Core) SetTime(t msg.Time) {
	c.now.Store(int64(t))
}

// CurrentTime reports the core's logical clock.
func (c *Core) CurrentTime() msg.Time {
	return msg.Time(c.now.Load())
}

// RegisterFederate joins a federate to the core and assigns its identity.
func (c *Core) RegisterFederate(name string) (FederateID, error) {
	if c.closed.Load() {
		return InvalidFederateID, errs.ErrCoreClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextFederate
	c.nextFederate++
	c.federates[id] = name
	c.logger.Debug("Registered federate", loggingpkg.LogFields{"federate": name, "id": id})
	return id, nil
}

// RegisterEndpoint registers a named message endpoint for a federate.
// Filter records declared against this name resolve now.
func (c *Core) RegisterEndpoint(fed FederateID, name, msgType string) (Handle, error) {
	if c.closed.Load() {
		return InvalidHandle, errs.ErrCoreClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.federates[fed]; !ok {
		return InvalidHandle, fmt.Errorf("registering endpoint %q: %w", name, errs.ErrUnknownFederate)
	}
	if name != "" && c.handles.getEndpoint(name) != nil {
		return InvalidHandle, fmt.Errorf("registering endpoint %q: %w", name, errs.ErrDuplicateName)
	}

	info := c.handles.addHandle(fed, kindEndpoint, name, "", msgType, "")
	ep := &endpointState{handle: info.handle, fed: fed, name: info.name}
	c.endpoints[info.handle] = ep
	c.byName[info.name] = ep

	c.resolvePendingLocked(info)

	c.logger.Debug("Registered endpoint", loggingpkg.LogFields{
		"endpoint": info.name,
		"handle":   info.handle,
		"federate": fed,
	})
	return info.handle, nil
}

// resolvePendingLocked fills in the resolved target of every filter record
// that was declared against the freshly registered endpoint.
func (c *Core) resolvePendingLocked(info *basicHandle) {
	waiting := c.pending[info.name]
	if len(waiting) == 0 {
		return
	}
	for _, rec := range waiting {
		rec.resolve = TargetResolution{Resolved: true, Federate: info.fed, Endpoint: info.handle}
		c.logger.Debug("Resolved filter target", loggingpkg.LogFields{
			"filter": rec.name,
			"target": info.name,
		})
	}
	delete(c.pending, info.name)
}

// RegisterFilter allocates a routing record and attaches it to the target
// endpoint's chain (or watcher set for cloning registrations). The target
// endpoint may not exist yet; the record stays unresolved and inert until
// an endpoint of that name registers.
func (c *Core) RegisterFilter(reg FilterRegistration) (FilterID, Handle, error) {
	if c.closed.Load() {
		return InvalidFilterID, InvalidHandle, errs.ErrCoreClosed
	}
	if reg.Target == "" {
		return InvalidFilterID, InvalidHandle, errs.ErrTargetRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	kind := kindSourceFilter
	if reg.Cloning {
		kind = kindCloningFilter
	} else if reg.DestFilter {
		kind = kindDestFilter
	}

	info := c.handles.addHandle(InvalidFederateID, kind, reg.Name, reg.Target, reg.InputType, reg.OutputType)

	rec := &filterRecord{
		coreID:     c.id,
		handle:     info.handle,
		fid:        c.nextFID,
		name:       info.name,
		target:     reg.Target,
		inputType:  reg.InputType,
		outputType: reg.OutputType,
		destFilter: reg.DestFilter,
		cloning:    reg.Cloning,
		op:         reg.Operation,
	}
	c.nextFID++
	c.records[rec.handle] = rec
	c.byFID[rec.fid] = rec

	switch {
	case reg.Cloning && reg.DestFilter:
		c.destWatch[reg.Target] = append(c.destWatch[reg.Target], rec)
	case reg.Cloning:
		c.srcWatch[reg.Target] = append(c.srcWatch[reg.Target], rec)
	case reg.DestFilter:
		c.destChains[reg.Target] = append(c.destChains[reg.Target], rec)
	default:
		c.srcChains[reg.Target] = append(c.srcChains[reg.Target], rec)
	}

	if ep := c.handles.getEndpoint(reg.Target); ep != nil {
		rec.resolve = TargetResolution{Resolved: true, Federate: ep.fed, Endpoint: ep.handle}
	} else {
		c.pending[reg.Target] = append(c.pending[reg.Target], rec)
	}

	c.metrics.setActiveFilters(len(c.records))
	c.logger.Info("Registered filter", loggingpkg.LogFields{
		"filter":   rec.name,
		"target":   rec.target,
		"handle":   rec.handle,
		"dest":     rec.destFilter,
		"cloning":  rec.cloning,
		"resolved": rec.resolve.Resolved,
	})
	return rec.fid, rec.handle, nil
}

// SetOperator rebinds the operation of the filter at the given handle. The
// previous operation stays valid for any routing call that already started;
// it is handed to the retirer instead of being dropped here.
func (c *Core) SetOperator(h Handle, op ops.Operation) error {
	c.mu.Lock()
	rec, ok := c.records[h]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("setting operator on handle %d: %w", h, errs.ErrUnknownHandle)
	}
	if rec.retired {
		c.mu.Unlock()
		return fmt.Errorf("setting operator on handle %d: %w", h, errs.ErrHandleRetired)
	}
	old := rec.op
	rec.op = op
	c.mu.Unlock()

	if old != nil {
		c.retirer.ScheduleForDestruction(old)
	}
	return nil
}

// Operator returns the operation currently bound to the filter handle.
func (c *Core) Operator(h Handle) (ops.Operation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[h]
	if !ok {
		return nil, fmt.Errorf("reading operator of handle %d: %w", h, errs.ErrUnknownHandle)
	}
	return rec.op, nil
}

func (c *Core) record(h Handle) (*filterRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[h]
	if !ok {
		return nil, fmt.Errorf("handle %d: %w", h, errs.ErrUnknownHandle)
	}
	return rec, nil
}

// FilterName reports the authoritative (possibly auto-generated) name of
// the filter at the given handle.
func (c *Core) FilterName(h Handle) (string, error) {
	rec, err := c.record(h)
	if err != nil {
		return "", err
	}
	return rec.name, nil
}

// FilterTarget reports the declared target endpoint name of the filter.
func (c *Core) FilterTarget(h Handle) (string, error) {
	rec, err := c.record(h)
	if err != nil {
		return "", err
	}
	return rec.target, nil
}

// FilterInputType reports the declared input type tag of the filter.
func (c *Core) FilterInputType(h Handle) (string, error) {
	rec, err := c.record(h)
	if err != nil {
		return "", err
	}
	return rec.inputType, nil
}

// FilterOutputType reports the declared output type tag of the filter.
func (c *Core) FilterOutputType(h Handle) (string, error) {
	rec, err := c.record(h)
	if err != nil {
		return "", err
	}
	return rec.outputType, nil
}

// FilterSummary returns the diagnostic view of the routing record at the
// given handle, including its resolution state.
func (c *Core) FilterSummary(h Handle) (FilterSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[h]
	if !ok {
		return FilterSummary{}, fmt.Errorf("handle %d: %w", h, errs.ErrUnknownHandle)
	}
	return rec.summary(), nil
}

// RemoveFilter detaches the routing record at the given handle from its
// chain. The record itself is retired through the deferred-destruction
// path once in-flight routing drains.
func (c *Core) RemoveFilter(h Handle) error {
	c.mu.Lock()
	rec, ok := c.records[h]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("removing filter at handle %d: %w", h, errs.ErrUnknownHandle)
	}
	delete(c.records, h)
	delete(c.byFID, rec.fid)
	rec.retired = true

	detach := func(chains map[string][]*filterRecord) {
		chain := chains[rec.target]
		for i, r := range chain {
			if r == rec {
				chains[rec.target] = append(chain[:i:i], chain[i+1:]...)
				break
			}
		}
	}
	switch {
	case rec.cloning && rec.destFilter:
		detach(c.destWatch)
	case rec.cloning:
		detach(c.srcWatch)
	case rec.destFilter:
		detach(c.destChains)
	default:
		detach(c.srcChains)
	}
	if waiting := c.pending[rec.target]; len(waiting) > 0 {
		for i, r := range waiting {
			if r == rec {
				c.pending[rec.target] = append(waiting[:i:i], waiting[i+1:]...)
				break
			}
		}
	}
	c.metrics.setActiveFilters(len(c.records))
	c.mu.Unlock()

	c.retirer.ScheduleForDestruction(rec)
	if rec.op != nil {
		c.retirer.ScheduleForDestruction(rec.op)
	}
	c.logger.Info("Removed filter", loggingpkg.LogFields{"filter": rec.name, "handle": h})
	return nil
}

// EndpointHandle looks up the handle of a registered endpoint by name.
func (c *Core) EndpointHandle(name string) (Handle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ep, ok := c.byName[name]
	if !ok {
		return InvalidHandle, fmt.Errorf("endpoint %q: %w", name, errs.ErrUnknownHandle)
	}
	return ep.handle, nil
}

// HasMessage reports whether the endpoint at the given handle has pending
// messages in its inbox.
func (c *Core) HasMessage(h Handle) bool {
	c.mu.RLock()
	ep := c.endpoints[h]
	c.mu.RUnlock()
	if ep == nil {
		return false
	}
	return ep.depth() > 0
}

// Receive pops the oldest message from the endpoint's inbox.
func (c *Core) Receive(h Handle) (*msg.Message, error) {
	c.mu.RLock()
	ep := c.endpoints[h]
	c.mu.RUnlock()
	if ep == nil {
		return nil, fmt.Errorf("receiving on handle %d: %w", h, errs.ErrNotAnEndpoint)
	}
	m, ok := ep.pop()
	if !ok {
		return nil, nil
	}
	return m, nil
}

// AddRemoteRoute maps a destination endpoint name onto the transport topic
// of the core that owns it. Messages for unrouted remote endpoints are
// dropped with a diagnostic.
func (c *Core) AddRemoteRoute(endpoint, topic string) {
	c.mu.Lock()
	c.remoteRoutes[endpoint] = topic
	c.mu.Unlock()
}

// Retirer exposes the deferred-destruction collaborator, mainly so tests
// and shutdown hooks can force a drain.
func (c *Core) Retirer() *Retirer {
	return c.retirer
}

// MetricsHandler returns an HTTP handler serving this core's Prometheus
// metrics.
func (c *Core) MetricsHandler() http.Handler {
	return c.metrics.handler()
}

// StartMetricsServer serves the metrics endpoint on the configured port, if
// metrics are enabled. Runs in a background goroutine for the process
// lifetime.
func (c *Core) StartMetricsServer() {
	if c.conf == nil || !c.conf.MetricsEnabled || c.conf.MetricsPort <= 0 {
		return
	}
	addr := fmt.Sprintf(":%d", c.conf.MetricsPort)
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.MetricsHandler())
	c.logger.Info("Starting metrics server", loggingpkg.LogFields{"address": addr})
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			c.logger.Error("Metrics server failed", err, loggingpkg.LogFields{"address": addr})
		}
	}()
}

// Close shuts the core down: no further registrations or sends are
// accepted, in-flight routing drains through the retirer, and the transport
// is released.
func (c *Core) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.retirer.Drain()

	var firstErr error
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			firstErr = err
		}
	}
	// gochannel transports share one object for both halves.
	if c.subscriber != nil && any(c.subscriber) != any(c.publisher) {
		if err := c.subscriber.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.logger.Info("Core closed", nil)
	return firstErr
}
