// Package id provides centralized ID generation for the bridge.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: Enables efficient time-based queries
//   - Prefixed types: Type-specific prefixes for debugging (inst_*, doc_*, client_*)
//   - Type safety: Separate types prevent ID misuse
//   - Performance: ~2μs per ULID behind a single mutex
//
// Design Principles:
//   - ULIDs only: Single ID format across the bridge
//   - K-sortable: Mount timelines readable without timestamps
//   - Debuggable: Prefixes make logs and wire traces readable
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ============================================================================
// Type-Safe ID Wrappers
// ============================================================================

// InstanceID identifies a mounted render instance
type InstanceID string

// DocHandle identifies a served sandbox document
type DocHandle string

// ClientID identifies a connected frontend stream
type ClientID string

// RequestID identifies an outbound tool call round-trip
type RequestID string

// ============================================================================
// ID Prefixes (for debugging and type identification)
// ============================================================================

const (
	InstancePrefix = "inst"
	DocPrefix      = "doc"
	ClientPrefix   = "client"
	RequestPrefix  = "req"
)

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	// Default generator with cryptographically secure entropy
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator. Entropy is monotonic, so
// IDs minted within the same millisecond still sort in generation order.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// ============================================================================
// Typed ID Generators
// ============================================================================

// NewInstanceID generates a new render instance ID
func NewInstanceID() InstanceID {
	return InstanceID(Default().GenerateWithPrefix(InstancePrefix))
}

// NewDocHandle generates a new sandbox document handle
func NewDocHandle() DocHandle {
	return DocHandle(Default().GenerateWithPrefix(DocPrefix))
}

// NewClientID generates a new stream client ID
func NewClientID() ClientID {
	return ClientID(Default().GenerateWithPrefix(ClientPrefix))
}

// NewRequestID generates a new tool call request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// ============================================================================
// Type Conversion and Validation
// ============================================================================

// String methods for ID types
func (id InstanceID) String() string { return string(id) }
func (id DocHandle) String() string  { return string(id) }
func (id ClientID) String() string   { return string(id) }
func (id RequestID) String() string  { return string(id) }

// IsValid checks if an ID string is a valid bare ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a bare ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// ParsePrefixed splits a prefixed ID and parses its ULID part
func ParsePrefixed(id string) (string, ulid.ULID, error) {
	prefix, raw, found := strings.Cut(id, "_")
	if !found {
		return "", ulid.ULID{}, fmt.Errorf("id %q has no prefix", id)
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return "", ulid.ULID{}, err
	}
	return prefix, parsed, nil
}

// HasPrefix reports whether id is a well-formed ULID under the given prefix
func HasPrefix(id, prefix string) bool {
	p, _, err := ParsePrefixed(id)
	return err == nil && p == prefix
}

// Timestamp extracts the timestamp from a bare ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
