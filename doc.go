// Package simwire is the message routing core for distributed co-simulation.
// Federates register named endpoints on a Core and exchange timestamped
// messages; filters interpose on those endpoints to delay, randomly delay,
// probabilistically drop, reroute, or clone traffic without the sending or
// receiving federate knowing.
//
// A Core routes locally through in-memory inboxes and remotely over a
// Watermill transport (Go channels, NATS, Kafka, RabbitMQ, AWS SNS/SQS, or
// HTTP) selected by Config. Filters may be registered before their target
// endpoint exists; they stay inert until the endpoint appears. Source filters
// run before a message leaves its sender, destination filters run before it
// reaches the receiver's inbox, and cloning filters watch any number of
// endpoints and duplicate matching traffic to delivery endpoints without
// disturbing the originals.
//
// # Filter operations
//
// Five built-in operations cover the common cases:
//   - delay: shift delivery time by a fixed interval
//   - random_delay: shift delivery time by a sampled interval
//     (uniform, exponential, normal, or constant)
//   - random_drop: drop messages with a configured probability
//   - reroute: redirect messages to a different endpoint
//   - clone: duplicate messages to extra delivery endpoints
//
// Arbitrary behavior plugs in through NewCustomOperation and SetOperator.
// Operations are configured by name through Set and SetString; unknown
// property names are rejected so typos fail loudly.
//
// A minimal setup fills Config, creates a Core with NewCore (or TryNewCore),
// registers federates and endpoints, attaches filters, and calls Send. The
// examples directory shows complete programs.
package simwire
