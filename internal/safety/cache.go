package safety

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheKey pairs a command signature with the policy version that produced
// its cached decision, so a policy reload invalidates stale entries without
// an explicit flush.
type cacheKey struct {
	sigHash       string
	policyVersion int
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%s@%d", k.sigHash, k.policyVersion)
}

// decisionCache is a bounded LRU cache of safety decisions (spec.md §4.5
// layer 5). A cache hit is still audited by the caller.
type decisionCache struct {
	lru *lru.Cache[cacheKey, SafetyDecision]
}

func newDecisionCache(size int) *decisionCache {
	if size <= 0 {
		size = 512
	}
	c, _ := lru.New[cacheKey, SafetyDecision](size)
	return &decisionCache{lru: c}
}

func (c *decisionCache) get(sig CommandSignature, policyVersion int) (SafetyDecision, bool) {
	if c == nil || c.lru == nil {
		return SafetyDecision{}, false
	}
	d, ok := c.lru.Get(cacheKey{sigHash: sig.Hash(), policyVersion: policyVersion})
	return d, ok
}

func (c *decisionCache) put(sig CommandSignature, policyVersion int, d SafetyDecision) {
	if c == nil || c.lru == nil {
		return
	}
	c.lru.Add(cacheKey{sigHash: sig.Hash(), policyVersion: policyVersion}, d)
}
