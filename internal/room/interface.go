package room

import "context"

// Transport is the session's view of one push-channel connection.
// *channel.Conn is the production implementation.
type Transport interface {
	// Run reads inbound frames and passes each to handler, returning when
	// the connection closes.
	Run(handler func([]byte))
	// Send queues one outbound frame, fire-and-forget.
	Send(v interface{}) error
	// Close tears the connection down. Must be safe to call repeatedly.
	Close() error
}

// Dialer opens a transport authenticated with the given credential.
type Dialer func(ctx context.Context, credential string) (Transport, error)
