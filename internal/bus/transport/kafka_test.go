package transport

import (
	"fmt"
	"slices"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/simwire/simwire/internal/bus/config"
)

func TestKafkaTransport_ConfigWiring(t *testing.T) {
	origPub := KafkaPublisherFactory
	origSub := KafkaSubscriberFactory
	defer func() {
		KafkaPublisherFactory = origPub
		KafkaSubscriberFactory = origSub
	}()

	var pubBrokers []string
	var subGroup string
	KafkaPublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		pubBrokers = cfg.Brokers
		return nopPublisher{}, nil
	}
	KafkaSubscriberFactory = func(cfg kafka.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		subGroup = cfg.ConsumerGroup
		return nopSubscriber{}, nil
	}

	conf := &config.Config{
		KafkaBrokers:       []string{"k1:9092", "k2:9092"},
		KafkaConsumerGroup: "core_group",
	}
	if _, err := kafkaTransport(conf, watermill.NopLogger{}); err != nil {
		t.Fatalf("kafkaTransport: %v", err)
	}
	if !slices.Equal(pubBrokers, conf.KafkaBrokers) {
		t.Errorf("brokers = %v", pubBrokers)
	}
	if subGroup != "core_group" {
		t.Errorf("consumer group = %q", subGroup)
	}
}

func TestKafkaTransport_FactoryErrors(t *testing.T) {
	origPub := KafkaPublisherFactory
	origSub := KafkaSubscriberFactory
	defer func() {
		KafkaPublisherFactory = origPub
		KafkaSubscriberFactory = origSub
	}()

	KafkaPublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return nil, fmt.Errorf("pub error")
	}
	if _, err := kafkaTransport(&config.Config{}, watermill.NopLogger{}); err == nil {
		t.Fatal("expected publisher factory error to propagate")
	}

	KafkaPublisherFactory = func(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return nopPublisher{}, nil
	}
	KafkaSubscriberFactory = func(cfg kafka.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		return nil, fmt.Errorf("sub error")
	}
	if _, err := kafkaTransport(&config.Config{}, watermill.NopLogger{}); err == nil {
		t.Fatal("expected subscriber factory error to propagate")
	}
}
