// Package sharecode turns a plan snapshot into a URL-safe token and back.
// The transform is pure and fully local: no network, no storage. A recipient
// holding only the token can reconstruct the snapshot.
package sharecode

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sanchar-ai/hangout-planner/internal/models"
)

// formatVersion prefixes every token before compression framing so the
// format can evolve without breaking links already in the wild.
const formatVersion = byte(1)

// Snapshot is the shareable subset of a plan.
type Snapshot struct {
	Title  string            `json:"title"`
	Mood   string            `json:"mood"`
	Budget string            `json:"budget"`
	Places []models.PlanItem `json:"places"`
}

// DecodeError is the single failure category for Decode. Every malformed
// token (wrong alphabet, truncated payload, unknown version, corrupted
// compression stream, bad JSON) collapses into it; the user-facing message
// is always the same.
type DecodeError struct {
	cause error
}

func (e *DecodeError) Error() string { return "invalid or corrupted link" }

func (e *DecodeError) Unwrap() error { return e.cause }

// Encode serializes the snapshot to a token containing only characters legal
// in a URL path segment. Output is deterministic for identical input. Places
// are capped to the itinerary limit before encoding.
func Encode(s Snapshot) (string, error) {
	s.Places = models.CapItinerary(s.Places)

	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteByte(formatVersion)
	zw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("init compressor: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		return "", fmt.Errorf("compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("flush compressor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode. Any malformed token yields a *DecodeError; Decode
// never panics and makes no partial-recovery attempt.
func Decode(token string) (Snapshot, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Snapshot{}, &DecodeError{cause: err}
	}
	if len(raw) < 2 {
		return Snapshot{}, &DecodeError{cause: fmt.Errorf("token too short: %d bytes", len(raw))}
	}
	if raw[0] != formatVersion {
		return Snapshot{}, &DecodeError{cause: fmt.Errorf("unknown format version %d", raw[0])}
	}

	zr := flate.NewReader(bytes.NewReader(raw[1:]))
	payload, err := io.ReadAll(zr)
	if err != nil {
		return Snapshot{}, &DecodeError{cause: fmt.Errorf("decompress: %w", err)}
	}
	if err := zr.Close(); err != nil {
		return Snapshot{}, &DecodeError{cause: fmt.Errorf("close decompressor: %w", err)}
	}

	var s Snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return Snapshot{}, &DecodeError{cause: fmt.Errorf("parse snapshot: %w", err)}
	}
	s.Places = models.CapItinerary(s.Places)
	return s, nil
}
