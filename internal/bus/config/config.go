package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Config groups the settings required to initialise a Core. Each transport
// only uses the keys that are relevant to it.
type Config struct {
	// CoreName identifies this core in a multi-core federation. Empty means
	// an auto-generated name.
	CoreName string

	// Transport selects the delivery plane used for messages whose
	// destination endpoint lives on another core. Supported values:
	// "channel" (in-process, the default), "kafka", "rabbitmq", "nats",
	// "http", or "aws" (SNS/SQS).
	Transport string

	// RemoteTopic is the topic/queue traffic for other cores is published
	// to, and the one this core subscribes on. Defaults to the core name.
	RemoteTopic string

	// Kafka configuration.
	KafkaBrokers       []string
	KafkaClientID      string
	KafkaConsumerGroup string

	// RabbitMQ configuration.
	RabbitMQURL string

	// NATS configuration.
	NATSURL string

	// HTTP configuration.
	HTTPServerAddress string
	// HTTPPublisherURL is the base URL where remote messages will be sent.
	HTTPPublisherURL string

	// AWS (SNS/SQS) configuration.
	AWSRegion          string
	AWSAccountID       string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	// AWSEndpoint optionally points to a custom endpoint (for example,
	// LocalStack in local development).
	AWSEndpoint string

	// Metrics configuration.
	MetricsEnabled bool
	// MetricsPort is the port where Prometheus metrics will be exposed.
	MetricsPort int
}

const redacted = "***REDACTED***"

// String renders the config for startup logs with credentials masked. Broker
// URLs keep their usernames and hosts; only passwords and AWS keys are
// replaced.
func (c Config) String() string {
	masked := c
	if masked.AWSAccessKeyID != "" {
		masked.AWSAccessKeyID = redacted
	}
	if masked.AWSSecretAccessKey != "" {
		masked.AWSSecretAccessKey = redacted
	}
	masked.RabbitMQURL = maskURLPassword(masked.RabbitMQURL)
	masked.NATSURL = maskURLPassword(masked.NATSURL)

	// Alias strips the String method so Sprintf does not recurse.
	type plain Config
	return fmt.Sprintf("%+v", plain(masked))
}

func maskURLPassword(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		// Cannot tell where the password is, so hide everything.
		return "***REDACTED_URL***"
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)
		}
	}
	return u.String()
}

// Validate reports every missing or invalid setting for the selected
// transport at once, joined into a single error.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Transport) {
	case "", "channel", "gochannel", "http":
		// Nothing required up front.
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("kafka: brokers are required"))
		}
	case "rabbitmq", "amqp":
		if c.RabbitMQURL == "" {
			errs = append(errs, errors.New("rabbitmq: URL is required"))
		}
	case "nats":
		if c.NATSURL == "" {
			errs = append(errs, errors.New("nats: URL is required"))
		}
	case "aws":
		if c.AWSRegion == "" {
			errs = append(errs, errors.New("aws: region is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}

	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("metrics: invalid port %d", c.MetricsPort))
	}

	return errors.Join(errs...)
}

// ValidateConfig validates a config pointer, treating nil as invalid.
func ValidateConfig(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}
