package transport

import (
	"fmt"
	net_http "net/http"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/simwire/simwire/internal/bus/config"
)

var (
	HTTPPublisherFactory = func(cfg http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		return http.NewPublisher(cfg, logger)
	}
	HTTPSubscriberFactory = func(addr string, cfg http.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		return http.NewSubscriber(addr, cfg, logger)
	}
)

// httpTransport posts remote traffic to HTTPPublisherURL + destination core
// name and serves inbound traffic on HTTPServerAddress. Useful for
// federations that span networks where no broker is reachable.
func httpTransport(conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	pub, err := HTTPPublisherFactory(http.PublisherConfig{
		MarshalMessageFunc: func(topic string, msg *message.Message) (*net_http.Request, error) {
			return http.DefaultMarshalMessageFunc(conf.HTTPPublisherURL+topic, msg)
		},
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("http publisher: %w", err)
	}

	sub, err := HTTPSubscriberFactory(conf.HTTPServerAddress, http.SubscriberConfig{
		UnmarshalMessageFunc: http.DefaultUnmarshalMessageFunc,
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("http subscriber: %w", err)
	}

	go func() {
		// Mocked subscribers are not *http.Subscriber, so only the real one
		// gets its server started.
		if s, ok := sub.(*http.Subscriber); ok {
			if err := s.StartHTTPServer(); err != nil {
				logger.Error("Failed to start HTTP subscriber server", err, nil)
			}
		}
	}()

	return Transport{Publisher: pub, Subscriber: sub}, nil
}
