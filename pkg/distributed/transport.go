// Package distributed re-expresses the original MPI master/worker
// CLARA protocol as a Transport abstraction: tagged, point-to-point
// message passing between numbered ranks. ChannelTransport backs it
// with goroutines standing in for MPI ranks, which is what lets the
// distributed algorithm run and be tested without an MPI runtime.
package distributed

import (
	"context"

	"github.com/clusterforge/kmedoids/pkg/kmedoids"
)

// Tag classifies a message the same way an MPI tag does. The three
// values mirror the original protocol's REQUEST/COMPLETED/TERMINATE
// exchange between a CLARA master and its workers.
type Tag int

const (
	// RequestTag: worker -> master with no payload asks for a sample;
	// master -> worker carries a freshly drawn sample.
	RequestTag Tag = iota + 1
	// CompletedTag: worker -> master, carries a finished sample's
	// medoid rows.
	CompletedTag
	// TerminateTag: master -> worker, no more samples remain.
	TerminateTag
)

func (t Tag) String() string {
	switch t {
	case RequestTag:
		return "REQUEST"
	case CompletedTag:
		return "COMPLETED"
	case TerminateTag:
		return "TERMINATE"
	default:
		return "UNKNOWN"
	}
}

// Envelope is one message as delivered to a rank's Recv.
type Envelope struct {
	From    int
	Tag     Tag
	Payload []byte
}

// Transport is point-to-point message passing between numbered ranks.
// Messages sent from the same (From) rank with the same Tag to the
// same destination are delivered in FIFO order, matching MPI's
// ordering guarantee for a single source/tag pair.
type Transport interface {
	// Rank is this transport's own rank number.
	Rank() int
	// Size is the total number of ranks in the network.
	Size() int
	// Send delivers payload to rank `to`, tagged tag. It blocks until
	// the destination's inbox has room or ctx is done.
	Send(ctx context.Context, to int, tag Tag, payload []byte) error
	// Recv blocks for the next message addressed to this rank,
	// regardless of source or tag (MPI_ANY_SOURCE/MPI_ANY_TAG), or
	// returns an error if ctx is done first.
	Recv(ctx context.Context) (Envelope, error)
	// Close releases this rank's slot in the network. Ranks that have
	// already called Close must not Send or Recv again.
	Close()
}

// ChannelNetwork is an in-process Transport fabric: every rank gets a
// buffered inbox channel, and Send on one rank's Transport writes
// directly into the destination rank's inbox. There is no real
// network hop, no serialization beyond what the caller puts in
// Payload, and no partial-failure mode — it exists to let the
// distributed CLARA master/worker state machine run against something
// that behaves like MPI without requiring an MPI runtime or generated
// RPC stubs.
type ChannelNetwork struct {
	inboxes []chan Envelope
}

// NewChannelNetwork allocates a fully-connected network of size ranks.
func NewChannelNetwork(size int) (*ChannelNetwork, error) {
	if size <= 0 {
		return nil, kmedoids.NewInvalidArgument("network size must be positive, got %d", size)
	}
	inboxes := make([]chan Envelope, size)
	for i := range inboxes {
		inboxes[i] = make(chan Envelope, 64)
	}
	return &ChannelNetwork{inboxes: inboxes}, nil
}

// Size returns the number of ranks in the network.
func (n *ChannelNetwork) Size() int { return len(n.inboxes) }

// Transport returns the Transport handle for the given rank.
func (n *ChannelNetwork) Transport(rank int) (Transport, error) {
	if rank < 0 || rank >= len(n.inboxes) {
		return nil, kmedoids.NewInvalidArgument("rank %d out of range [0,%d)", rank, len(n.inboxes))
	}
	return &channelTransport{rank: rank, network: n}, nil
}

type channelTransport struct {
	rank    int
	network *ChannelNetwork
}

func (t *channelTransport) Rank() int { return t.rank }
func (t *channelTransport) Size() int { return len(t.network.inboxes) }

func (t *channelTransport) Send(ctx context.Context, to int, tag Tag, payload []byte) error {
	if to < 0 || to >= len(t.network.inboxes) {
		return kmedoids.NewInvalidArgument("send: destination rank %d out of range", to)
	}
	env := Envelope{From: t.rank, Tag: tag, Payload: payload}
	select {
	case t.network.inboxes[to] <- env:
		return nil
	case <-ctx.Done():
		return kmedoids.NewTransportFailure("send to rank %d: %s", to, ctx.Err())
	}
}

func (t *channelTransport) Recv(ctx context.Context) (Envelope, error) {
	select {
	case env, ok := <-t.network.inboxes[t.rank]:
		if !ok {
			return Envelope{}, kmedoids.NewTransportFailure("recv on rank %d: inbox closed", t.rank)
		}
		return env, nil
	case <-ctx.Done():
		return Envelope{}, kmedoids.NewTransportFailure("recv on rank %d: %s", t.rank, ctx.Err())
	}
}

func (t *channelTransport) Close() {
	close(t.network.inboxes[t.rank])
}
