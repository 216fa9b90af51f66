package transport

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/simwire/simwire/internal/bus/config"
)

var (
	NATSPublisherFactory = func(cfg nats.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return nats.NewPublisher(cfg, logger)
	}
	NATSSubscriberFactory = func(cfg nats.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		return nats.NewSubscriber(cfg, logger)
	}
)

// natsTransport maps cores to NATS subjects one to one. Each core publishes
// to the subject named after the destination core and subscribes on its own.
func natsTransport(conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	codec := &nats.NATSMarshaler{}

	pub, err := NATSPublisherFactory(nats.PublisherConfig{
		URL:       conf.NATSURL,
		Marshaler: codec,
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("nats publisher: %w", err)
	}

	sub, err := NATSSubscriberFactory(nats.SubscriberConfig{
		URL:         conf.NATSURL,
		Unmarshaler: codec,
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("nats subscriber: %w", err)
	}

	return Transport{Publisher: pub, Subscriber: sub}, nil
}
