package transport

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/simwire/simwire/internal/bus/config"
)

var (
	KafkaPublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return kafka.NewPublisher(cfg, logger)
	}
	KafkaSubscriberFactory = func(cfg kafka.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		return kafka.NewSubscriber(cfg, logger)
	}
)

// kafkaTransport uses one topic per core. The consumer group lets several
// instances of the same core split inbound traffic when scaled out.
func kafkaTransport(conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	pub, err := KafkaPublisherFactory(kafka.PublisherConfig{
		Brokers:   conf.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("kafka publisher: %w", err)
	}

	sub, err := KafkaSubscriberFactory(kafka.SubscriberConfig{
		Brokers:       conf.KafkaBrokers,
		Unmarshaler:   kafka.DefaultMarshaler{},
		ConsumerGroup: conf.KafkaConsumerGroup,
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("kafka subscriber: %w", err)
	}

	return Transport{Publisher: pub, Subscriber: sub}, nil
}
