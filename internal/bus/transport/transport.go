// Package transport builds the delivery plane a core uses for messages
// whose destination endpoint lives on another core. Every transport yields a
// Watermill publisher/subscriber pair; the in-process channel transport is
// the default and the one unit tests run against.
package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/simwire/simwire/internal/bus/config"
)

// Transport combines a publisher and subscriber pair produced by a factory.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Factory abstracts how the core initialises its message transport. Tests
// substitute factories to avoid touching real brokers.
type Factory interface {
	Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error)
}

// DefaultFactory returns the built-in factory that selects a transport from
// the configuration.
func DefaultFactory() Factory {
	return defaultFactory{}
}

type defaultFactory struct{}

func (defaultFactory) Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	if conf == nil {
		return Transport{}, fmt.Errorf("config is required")
	}

	switch strings.ToLower(conf.Transport) {
	case "", "channel", "gochannel":
		return channelTransport(conf, logger)
	case "nats":
		return natsTransport(conf, logger)
	case "kafka":
		return kafkaTransport(conf, logger)
	case "rabbitmq", "amqp":
		return rabbitTransport(conf, logger)
	case "http":
		return httpTransport(conf, logger)
	case "aws":
		return awsTransport(ctx, conf, logger)
	default:
		return Transport{}, fmt.Errorf("unknown transport %q", conf.Transport)
	}
}
