// Package kafka provides the client capabilities and connection policy
// used by the reconnaissance engine.
//
// The package defines two narrow interfaces over a live cluster:
//
//   - AdminClient: topology metadata plus per-resource configuration
//   - ConsumerClient: topology metadata only
//
// Both are implemented on top of segmentio/kafka-go. The Connector owns
// the connection policy: consumer-group defaulting, the bootstrap-address
// precondition, candidate selection, and the independent construction of
// the two handles. A failed handle never prevents the sibling handle from
// being attempted; partial success is a valid, observable end state.
package kafka
