package ag

import (
	"github.com/golang/groupcache/lru"
	uuid "github.com/satori/go.uuid"
)

// callbackRef locates the owning peer and slot of a queued PendingOp
// callback, so CancelStream(id) doesn't need every peer to scan its own
// pending op (spec §5 Cancellation).
type callbackRef struct {
	peer *Peer
	id   uuid.UUID
}

// callbackRegistry is the process-wide callback-id -> owner index,
// mirroring kryptco-kr's enclave_client.go requestCallbacksByRequestID:
// an LRU cache bounds memory even if a misbehaving caller never cancels
// its callbacks, while the common case (orderly cancel or completion)
// removes entries explicitly long before eviction would matter.
type callbackRegistry struct {
	byID *lru.Cache
}

func newCallbackRegistry() *callbackRegistry {
	return &callbackRegistry{byID: lru.New(1024)}
}

func (r *callbackRegistry) register(peer *Peer, id uuid.UUID) {
	r.byID.Add(id, callbackRef{peer: peer, id: id})
}

func (r *callbackRegistry) lookup(id uuid.UUID) (callbackRef, bool) {
	v, ok := r.byID.Get(id)
	if !ok {
		return callbackRef{}, false
	}
	return v.(callbackRef), true
}

func (r *callbackRegistry) forget(id uuid.UUID) {
	r.byID.Remove(id)
}

func newCallbackID() uuid.UUID {
	return uuid.NewV4()
}
