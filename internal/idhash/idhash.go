// Package idhash derives deterministic identifiers from pipe-joined fields.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"marketing-attribution/internal/domain"
)

func sum(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:])
}

// JourneyID identifies an assembled journey.
// Formula: SHA256(user_id|first_event_id|conversion_event_id), hex encoded.
// Re-assembling the same events yields the same id.
func JourneyID(userID, firstEventID, conversionEventID string) string {
	return sum(userID, firstEventID, conversionEventID)
}

// RunID identifies a pipeline run over a conversion window.
// Formula: SHA256(model_kind|from_ms|to_ms), hex encoded.
func RunID(kind domain.ModelKind, from, to time.Time) string {
	return sum(string(kind), fmt.Sprint(from.UnixMilli()), fmt.Sprint(to.UnixMilli()))
}
