package evidence

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Tracer manages evidence chains, one per finding. Appends to a single chain
// are strictly ordered through a per-chain lock; the chain hash depends on
// order, so concurrent appends must serialize.
type Tracer struct {
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	chains map[string]*Chain
	locks  map[string]*sync.Mutex
}

// NewTracer creates an evidence tracer.
func NewTracer(logger *slog.Logger) *Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracer{
		logger: logger.With("component", "evidence-tracer"),
		now:    time.Now,
		chains: make(map[string]*Chain),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Attach appends a piece of evidence to the finding's chain, creating the
// chain on first use, and advances the chain hash.
func (t *Tracer) Attach(findingID, evidenceType, source string, content any, collector string) (*Evidence, error) {
	item, err := newEvidence(evidenceType, source, content, collector, t.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("attaching evidence to finding %s: %w", findingID, err)
	}

	unlock := t.lockChain(findingID)
	defer unlock()

	chain := t.chain(findingID)
	chain.Evidence = append(chain.Evidence, item)
	chain.ChainHash = linkHash(chain.ChainHash, item.Hash)

	t.logger.Info("evidence attached",
		"finding_id", findingID,
		"evidence_id", item.ID,
		"type", evidenceType,
		"chain_length", len(chain.Evidence),
	)
	return &item, nil
}

// Chain returns a copy of the finding's evidence chain.
func (t *Tracer) Chain(findingID string) (*Chain, error) {
	unlock := t.lockChain(findingID)
	defer unlock()

	t.mu.Lock()
	chain, ok := t.chains[findingID]
	t.mu.Unlock()
	if !ok {
		return nil, &ChainNotFoundError{FindingID: findingID}
	}
	return chain.Clone(), nil
}

// Verify recomputes every evidence content hash and the running chain hash
// from the stored evidence, and compares them to the stored values. A
// mismatch returns *IntegrityViolation naming the first inconsistent index.
// Tampering must never pass silently.
func (t *Tracer) Verify(findingID string) error {
	unlock := t.lockChain(findingID)
	defer unlock()

	t.mu.Lock()
	chain, ok := t.chains[findingID]
	t.mu.Unlock()
	if !ok {
		return &ChainNotFoundError{FindingID: findingID}
	}

	running := GenesisHash
	for i, item := range chain.Evidence {
		recomputed, err := hashContent(item.Content)
		if err != nil {
			return fmt.Errorf("verifying finding %s evidence %d: %w", findingID, i, err)
		}
		if recomputed != item.Hash {
			return &IntegrityViolation{
				FindingID: findingID,
				Index:     i,
				Expected:  item.Hash,
				Actual:    recomputed,
			}
		}
		running = linkHash(running, item.Hash)
	}
	if running != chain.ChainHash {
		return &IntegrityViolation{
			FindingID: findingID,
			Index:     -1,
			Expected:  chain.ChainHash,
			Actual:    running,
		}
	}
	return nil
}

// Conclude records the closing summary, reviewer, and residual risk level on
// the finding's chain. The chain must exist and verify cleanly.
func (t *Tracer) Conclude(findingID, conclusion, riskLevel, reviewer string) (*Chain, error) {
	if err := t.Verify(findingID); err != nil {
		return nil, err
	}

	unlock := t.lockChain(findingID)
	defer unlock()

	t.mu.Lock()
	chain := t.chains[findingID]
	t.mu.Unlock()

	now := t.now().UTC()
	chain.Conclusion = conclusion
	chain.Reviewer = reviewer
	chain.RiskLevel = riskLevel
	chain.ConcludedAt = &now

	t.logger.Info("evidence chain concluded",
		"finding_id", findingID,
		"reviewer", reviewer,
		"risk_level", riskLevel,
	)
	return chain.Clone(), nil
}

// chain returns the finding's chain, creating an empty one at the genesis
// hash if none exists. Callers must hold the chain lock.
func (t *Tracer) chain(findingID string) *Chain {
	t.mu.Lock()
	defer t.mu.Unlock()
	chain, ok := t.chains[findingID]
	if !ok {
		chain = &Chain{FindingID: findingID, ChainHash: GenesisHash}
		t.chains[findingID] = chain
	}
	return chain
}

// lockChain returns an unlock function for the finding's chain lock,
// creating it on first use.
func (t *Tracer) lockChain(findingID string) func() {
	t.mu.Lock()
	lock, ok := t.locks[findingID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[findingID] = lock
	}
	t.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
