package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenesisHash is the chain hash of an empty chain. It is the length of a
// hex-encoded SHA-256 digest, all zeros, so a chain hash is always 64 hex
// characters regardless of length.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Evidence is one item supporting a finding: a document, a query result, a
// screenshot reference, or any other material the handler collected.
type Evidence struct {
	// ID uniquely identifies the evidence item.
	ID string `json:"id"`

	// Type classifies the evidence (e.g. "document", "query-result").
	Type string `json:"type"`

	// Source names where the evidence came from.
	Source string `json:"source"`

	// Content is the evidence payload. It must be JSON-serializable.
	Content any `json:"content"`

	// Hash is the hex-encoded SHA-256 of the content's canonical JSON.
	Hash string `json:"hash"`

	// CollectedAt is when the evidence was attached.
	CollectedAt time.Time `json:"collected_at"`

	// Collector identifies who attached the evidence.
	Collector string `json:"collector"`
}

// Chain is the ordered, hash-linked evidence for one finding.
type Chain struct {
	// FindingID is the finding the chain belongs to.
	FindingID string `json:"finding_id"`

	// Evidence lists the items in attachment order.
	Evidence []Evidence `json:"evidence"`

	// ChainHash is the running hash over the evidence sequence.
	ChainHash string `json:"chain_hash"`

	// Conclusion is the handler's closing summary, set by Conclude.
	Conclusion string `json:"conclusion,omitempty"`

	// Reviewer identifies who signed off the conclusion.
	Reviewer string `json:"reviewer,omitempty"`

	// RiskLevel is the residual risk assessment recorded at conclusion.
	RiskLevel string `json:"risk_level,omitempty"`

	// ConcludedAt is when the conclusion was recorded.
	ConcludedAt *time.Time `json:"concluded_at,omitempty"`
}

// Len returns the number of evidence items in the chain.
func (c *Chain) Len() int {
	return len(c.Evidence)
}

// Clone returns a deep copy safe to hand to callers.
func (c *Chain) Clone() *Chain {
	clone := *c
	clone.Evidence = append([]Evidence(nil), c.Evidence...)
	if c.ConcludedAt != nil {
		concluded := *c.ConcludedAt
		clone.ConcludedAt = &concluded
	}
	return &clone
}

// hashContent computes the hex-encoded SHA-256 of the content's canonical
// JSON encoding.
func hashContent(content any) (string, error) {
	encoded, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("encoding evidence content: %w", err)
	}
	digest := sha256.Sum256(encoded)
	return hex.EncodeToString(digest[:]), nil
}

// linkHash folds an evidence hash into the running chain hash.
func linkHash(prev, evidenceHash string) string {
	digest := sha256.Sum256([]byte(prev + evidenceHash))
	return hex.EncodeToString(digest[:])
}

// newEvidence builds a hashed evidence item at the given time.
func newEvidence(evidenceType, source string, content any, collector string, now time.Time) (Evidence, error) {
	hash, err := hashContent(content)
	if err != nil {
		return Evidence{}, err
	}
	return Evidence{
		ID:          uuid.NewString(),
		Type:        evidenceType,
		Source:      source,
		Content:     content,
		Hash:        hash,
		CollectedAt: now,
		Collector:   collector,
	}, nil
}
