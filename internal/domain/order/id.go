package order

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	idPrefix       = "ORDER-"
	idSuffixLength = 5
)

// IDGenerator produces ids of the form ORDER-<base36 millis>-<5 base36 chars>.
// Uniqueness is best effort.
type IDGenerator struct {
	now     func() time.Time
	entropy func() (uuid.UUID, error)
}

// IDGeneratorOption configures an IDGenerator
type IDGeneratorOption func(*IDGenerator)

// WithClock overrides the time source
func WithClock(now func() time.Time) IDGeneratorOption {
	return func(g *IDGenerator) {
		g.now = now
	}
}

// WithEntropy overrides the random source
func WithEntropy(entropy func() (uuid.UUID, error)) IDGeneratorOption {
	return func(g *IDGenerator) {
		g.entropy = entropy
	}
}

// NewIDGenerator creates a generator backed by the wall clock and random UUIDs
func NewIDGenerator(opts ...IDGeneratorOption) *IDGenerator {
	g := &IDGenerator{
		now:     time.Now,
		entropy: uuid.NewRandom,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a new order id
func (g *IDGenerator) Generate() (string, error) {
	u, err := g.entropy()
	if err != nil {
		return "", fmt.Errorf("generate order id: %w", err)
	}
	millis := strconv.FormatInt(g.now().UnixMilli(), 36)
	return idPrefix + millis + "-" + randomSuffix(u), nil
}

func randomSuffix(u uuid.UUID) string {
	const space = 36 * 36 * 36 * 36 * 36
	n := binary.BigEndian.Uint64(u[:8]) % space
	s := strconv.FormatUint(n, 36)
	if len(s) < idSuffixLength {
		s = strings.Repeat("0", idSuffixLength-len(s)) + s
	}
	return strings.ToUpper(s)
}
