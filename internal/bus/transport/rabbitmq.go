package transport

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/simwire/simwire/internal/bus/config"
)

var (
	AmqpConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
		return amqp.NewConnection(cfg, logger)
	}
	AmqpPublisherFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Publisher, error) {
		return amqp.NewPublisherWithConnection(cfg, logger, conn)
	}
	AmqpSubscriberFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Subscriber, error) {
		return amqp.NewSubscriberWithConnection(cfg, logger, conn)
	}
)

// rabbitTransport shares one connection between the publisher and subscriber.
// Queues are durable and suffixed with the core name, so a restarted core
// picks up traffic that arrived while it was down.
func rabbitTransport(conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	amqpConfig := amqp.NewDurablePubSubConfig(
		conf.RabbitMQURL,
		amqp.GenerateQueueNameTopicNameWithSuffix("-"+coreQueueName(conf)),
	)

	conn, err := AmqpConnectionFactory(amqp.ConnectionConfig{
		AmqpURI:   conf.RabbitMQURL,
		Reconnect: amqp.DefaultReconnectConfig(),
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("amqp connection: %w", err)
	}

	pub, err := AmqpPublisherFactory(amqpConfig, logger, conn)
	if err != nil {
		return Transport{}, fmt.Errorf("amqp publisher: %w", err)
	}
	sub, err := AmqpSubscriberFactory(amqpConfig, logger, conn)
	if err != nil {
		return Transport{}, fmt.Errorf("amqp subscriber: %w", err)
	}

	return Transport{Publisher: pub, Subscriber: sub}, nil
}
