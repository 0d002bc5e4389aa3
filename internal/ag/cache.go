package ag

import lru "github.com/hashicorp/golang-lru/v2"

// sdpCacheKey identifies a previously discovered RFCOMM channel for a
// device address under a given profile; a device can expose different
// channels for HSP and HFP simultaneously.
type sdpCacheKey struct {
	addr    string
	profile Profile
}

// sdpChannelCache is a bounded, purely-optional accelerator: a cache hit
// lets a reconnecting peer skip a redundant SDP search (spec §4.G
// "Transport acquisition"), a miss just means we fall back to the normal
// search path. Never a source of truth: spec invariant is unaffected by
// cache presence or absence. Mirrors kryptco-kr's ssh_agent.go
// hostAuthCallbacksBySessionID LRU sizing choice (128 entries).
type sdpChannelCache struct {
	cache *lru.Cache[sdpCacheKey, int]
}

func newSDPChannelCache() *sdpChannelCache {
	c, _ := lru.New[sdpCacheKey, int](128)
	return &sdpChannelCache{cache: c}
}

func (c *sdpChannelCache) get(addr string, profile Profile) (int, bool) {
	return c.cache.Get(sdpCacheKey{addr: addr, profile: profile})
}

func (c *sdpChannelCache) put(addr string, profile Profile, channel int) {
	c.cache.Add(sdpCacheKey{addr: addr, profile: profile}, channel)
}

func (c *sdpChannelCache) invalidate(addr string, profile Profile) {
	c.cache.Remove(sdpCacheKey{addr: addr, profile: profile})
}

// dialHistory keeps a short per-peer redial diagnostic trail (AT+BLDN is
// always forwarded live to Telephony per spec §4.E; this cache never
// answers a command, it only backs a diagnostic accessor for operators).
type dialHistory struct {
	cache *lru.Cache[string, []string]
}

func newDialHistory() *dialHistory {
	c, _ := lru.New[string, []string](128)
	return &dialHistory{cache: c}
}

const dialHistoryDepth = 8

func (h *dialHistory) record(peerID string, number string) {
	existing, _ := h.cache.Get(peerID)
	existing = append([]string{number}, existing...)
	if len(existing) > dialHistoryDepth {
		existing = existing[:dialHistoryDepth]
	}
	h.cache.Add(peerID, existing)
}

func (h *dialHistory) recent(peerID string) []string {
	existing, _ := h.cache.Get(peerID)
	return existing
}
