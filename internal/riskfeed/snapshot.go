package riskfeed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/flood-alert-dashboard/internal/domain"
)

// Snapshot is one message on the risk feed topic. Each snapshot replaces the
// previous risk set entirely.
type Snapshot struct {
	Points      []domain.RiskPoint `json:"points"`
	GeneratedAt time.Time          `json:"generatedAt,omitzero"`
}

// DecodeSnapshot parses and validates a feed message.
func DecodeSnapshot(raw domain.RawMessage) (Snapshot, error) {
	if len(bytes.TrimSpace(raw.Value)) == 0 {
		return Snapshot{}, errors.New("empty snapshot message")
	}

	var s Snapshot
	if err := json.Unmarshal(raw.Value, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Points == nil {
		return Snapshot{}, errors.New("snapshot has no points field")
	}
	if err := domain.ValidateRiskPoints(s.Points); err != nil {
		return Snapshot{}, fmt.Errorf("invalid snapshot: %w", err)
	}
	return s, nil
}

// EncodeSnapshot is the inverse of DecodeSnapshot.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	if s.Points == nil {
		s.Points = []domain.RiskPoint{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}
