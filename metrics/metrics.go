// Package metrics defines the observability hook used by the Broadcaster
// and VirtualCircuit. It is optional: pass nil wherever a Metrics is
// accepted to disable collection with zero overhead.
package metrics

// Metrics records protocol-level events for a Broadcaster or
// VirtualCircuit. Implementations must be safe for concurrent use, since
// id-counter and send/recv activity may originate from different
// goroutines in a surrounding client.
//
// Example usage:
//
//	m := prometheus.New()
//	b := broadcaster.New(ca.CLIENT, 13, nil, m)
//
//	// Without metrics (pass nil for zero overhead)
//	b := broadcaster.New(ca.CLIENT, 13, nil, nil)
type Metrics interface {
	// RecordCommandSent counts one outbound command by its code.
	RecordCommandSent(command string)

	// RecordCommandReceived counts one inbound command by its code.
	RecordCommandReceived(command string)

	// RecordProtocolError counts a LocalProtocolError or RemoteProtocolError,
	// tagged with its kind ("local" or "remote").
	RecordProtocolError(kind string)

	// RecordSearchCompleted counts a SearchResponse matched against an
	// unanswered search.
	RecordSearchCompleted()

	// SetActiveChannels reports the current number of channels on a circuit.
	SetActiveChannels(count int)

	// SetActiveSubscriptions reports the current number of live
	// subscriptions on a circuit.
	SetActiveSubscriptions(count int)
}
