package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// chainPayload is the canonical byte representation an entry's hash covers.
// Field order is fixed by the struct; Details round-trips through encoding/json
// which sorts map keys, so the digest is deterministic.
type chainPayload struct {
	ID         string         `json:"id"`
	Seq        uint64         `json:"seq"`
	Actor      string         `json:"actor,omitempty"`
	Action     Action         `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id"`
	Details    map[string]any `json:"details,omitempty"`
	Origin     string         `json:"origin"`
	Timestamp  string         `json:"timestamp"`
	PrevHash   string         `json:"prev_hash"`
}

// ChainHash computes the tamper-evidence hash for an entry given the hash of
// its predecessor (empty for the first entry).
func ChainHash(e Entry, prevHash string) (string, error) {
	p := chainPayload{
		ID:         e.ID.String(),
		Seq:        e.Seq,
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Details:    e.Details,
		Origin:     e.Origin,
		Timestamp:  e.Timestamp.UTC().Format(time.RFC3339Nano),
		PrevHash:   prevHash,
	}
	if e.Actor != nil {
		p.Actor = e.Actor.String()
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal chain payload: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyChain walks entries in insertion order and reports the first link
// whose stored hash does not match a recomputation. A nil return means the
// history is intact.
func VerifyChain(entries []Entry) error {
	prev := ""
	for i, e := range entries {
		if e.PrevHash != prev {
			return fmt.Errorf("entry %d (seq %d): prev hash mismatch", i, e.Seq)
		}
		want, err := ChainHash(e, prev)
		if err != nil {
			return err
		}
		if e.Hash != want {
			return fmt.Errorf("entry %d (seq %d): hash mismatch", i, e.Seq)
		}
		prev = e.Hash
	}
	return nil
}
