package simwire

import (
	buspkg "github.com/simwire/simwire/internal/bus"
	configpkg "github.com/simwire/simwire/internal/bus/config"
	errspkg "github.com/simwire/simwire/internal/bus/errors"
	filterpkg "github.com/simwire/simwire/internal/bus/filter"
	jsoncodec "github.com/simwire/simwire/internal/bus/jsoncodec"
	loggingpkg "github.com/simwire/simwire/internal/bus/logging"
	msgpkg "github.com/simwire/simwire/internal/bus/msg"
	opspkg "github.com/simwire/simwire/internal/bus/ops"
	transportpkg "github.com/simwire/simwire/internal/bus/transport"
)

type (
	Config           = configpkg.Config
	Core             = buspkg.Core
	CoreDependencies = buspkg.CoreDependencies
	Transport        = transportpkg.Transport
	TransportFactory = transportpkg.Factory

	Message = msgpkg.Message
	Time    = msgpkg.Time

	Handle     = buspkg.Handle
	FilterID   = buspkg.FilterID
	FederateID = buspkg.FederateID
	BrokerID   = buspkg.BrokerID

	FilterRegistration = buspkg.FilterRegistration
	FilterSummary      = buspkg.FilterSummary
	TargetResolution   = buspkg.TargetResolution
	Retirer            = buspkg.Retirer
	Retirable          = buspkg.Retirable

	Filter            = filterpkg.Filter
	SourceFilter      = filterpkg.SourceFilter
	DestinationFilter = filterpkg.DestinationFilter
	CloningFilter     = filterpkg.CloningFilter
	FilterConfig      = filterpkg.ConfigDocument
	FilterConfigEntry = filterpkg.ConfigEntry

	Operation            = opspkg.Operation
	OperationType        = opspkg.Type
	TransformFunc        = opspkg.TransformFunc
	CustomOperation      = opspkg.CustomOperation
	CustomOption         = opspkg.CustomOption
	DelayOperation       = opspkg.DelayOperation
	RandomDelayOperation = opspkg.RandomDelayOperation
	RandomDropOperation  = opspkg.RandomDropOperation
	RerouteOperation     = opspkg.RerouteOperation
	CloneOperation       = opspkg.CloneOperation
	Distribution         = opspkg.Distribution

	LogFields = loggingpkg.LogFields
	BusLogger = loggingpkg.BusLogger

	ConfigValidationError = errspkg.ConfigValidationError
)

const (
	InvalidHandle   = buspkg.InvalidHandle
	InvalidFilterID = buspkg.InvalidFilterID

	TimeZero = msgpkg.TimeZero

	CustomFilter       = opspkg.Custom
	DelayFilter        = opspkg.Delay
	RandomDelayFilter  = opspkg.RandomDelay
	RandomDropFilter   = opspkg.RandomDrop
	RerouteFilter      = opspkg.Reroute
	CloneFilter        = opspkg.Clone
	UnrecognizedFilter = opspkg.Unrecognized

	DistConstant    = opspkg.DistConstant
	DistUniform     = opspkg.DistUniform
	DistExponential = opspkg.DistExponential
	DistNormal      = opspkg.DistNormal
)

var (
	NewCore        = buspkg.NewCore
	TryNewCore     = buspkg.TryNewCore
	NewRetirer     = buspkg.NewRetirer
	ValidateConfig = configpkg.ValidateConfig

	DefaultTransportFactory = transportpkg.DefaultFactory

	NewSourceFilter       = filterpkg.NewSourceFilter
	NewDestinationFilter  = filterpkg.NewDestinationFilter
	NewCloningFilter      = filterpkg.NewCloningFilter
	MakeSourceFilter      = filterpkg.MakeSourceFilter
	MakeDestinationFilter = filterpkg.MakeDestinationFilter
	LoadFilterConfig      = filterpkg.LoadConfig

	ParseFilterType      = opspkg.ParseType
	ParseDistribution    = opspkg.ParseDistribution
	NewOperation         = opspkg.New
	NewDelayOperation    = opspkg.NewDelayOperation
	NewRandomDelay       = opspkg.NewRandomDelayOperation
	NewRandomDrop        = opspkg.NewRandomDropOperation
	NewRerouteOperation  = opspkg.NewRerouteOperation
	NewCloneOperation    = opspkg.NewCloneOperation
	NewCustomOperation   = opspkg.NewCustomOperation
	WithSetHandler       = opspkg.WithSetHandler
	WithSetStringHandler = opspkg.WithSetStringHandler

	TimeFromSeconds = msgpkg.TimeFromSeconds

	NewSlogBusLogger      = loggingpkg.NewSlogBusLogger
	NewWatermillBusLogger = loggingpkg.NewWatermillBusLogger
	NopLogger             = loggingpkg.NopLogger

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal

	ErrCoreRequired      = errspkg.ErrCoreRequired
	ErrTargetRequired    = errspkg.ErrTargetRequired
	ErrOperationRequired = errspkg.ErrOperationRequired
	ErrUnrecognizedType  = errspkg.ErrUnrecognizedType
	ErrUnknownProperty   = errspkg.ErrUnknownProperty
	ErrInvalidProperty   = errspkg.ErrInvalidProperty
	ErrUnknownHandle     = errspkg.ErrUnknownHandle
	ErrUnknownFederate   = errspkg.ErrUnknownFederate
	ErrHandleRetired     = errspkg.ErrHandleRetired
	ErrDuplicateName     = errspkg.ErrDuplicateName
	ErrNotAnEndpoint     = errspkg.ErrNotAnEndpoint
	ErrNotAFilter        = errspkg.ErrNotAFilter
	ErrCoreClosed        = errspkg.ErrCoreClosed
)
