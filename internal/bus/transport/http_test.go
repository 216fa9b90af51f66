package transport

import (
	net_http "net/http"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/simwire/simwire/internal/bus/config"
)

func TestHTTPTransport_PublisherTargetsConfiguredURL(t *testing.T) {
	origPub := HTTPPublisherFactory
	origSub := HTTPSubscriberFactory
	defer func() {
		HTTPPublisherFactory = origPub
		HTTPSubscriberFactory = origSub
	}()

	var marshal func(topic string, msg *message.Message) (*net_http.Request, error)
	HTTPPublisherFactory = func(cfg http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
		marshal = cfg.MarshalMessageFunc
		return nopPublisher{}, nil
	}
	var subAddr string
	HTTPSubscriberFactory = func(addr string, cfg http.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
		subAddr = addr
		return nopSubscriber{}, nil
	}

	conf := &config.Config{
		HTTPServerAddress: ":8087",
		HTTPPublisherURL:  "http://peer:8088/",
	}
	if _, err := httpTransport(conf, watermill.NopLogger{}); err != nil {
		t.Fatalf("httpTransport: %v", err)
	}
	if subAddr != ":8087" {
		t.Errorf("subscriber address = %q", subAddr)
	}

	req, err := marshal("core_b", message.NewMessage("u", []byte("x")))
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	if got := req.URL.String(); got != "http://peer:8088/core_b" {
		t.Errorf("request URL = %q", got)
	}
}
