package transport

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/simwire/simwire/internal/bus/config"
)

// GoChannelFactory builds the in-process pub/sub pair. Tests swap it out to
// share one gochannel instance between several cores in the same process.
var GoChannelFactory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
	ps := gochannel.NewGoChannel(cfg, logger)
	return ps, ps
}

// channelTransport is the default when no broker is configured. A single
// gochannel instance serves as both halves, so loopback delivery between
// cores needs no external infrastructure.
func channelTransport(conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	pub, sub := GoChannelFactory(gochannel.Config{OutputChannelBuffer: 64}, logger)
	return Transport{Publisher: pub, Subscriber: sub}, nil
}
