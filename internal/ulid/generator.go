package ulid

import (
	"crypto/rand"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces block client IDs.
type Generator interface {
	Next() string
}

type monotonic struct {
	entropy io.Reader
	now     func() time.Time
}

// NewGenerator returns a generator of monotonically increasing ULIDs. It is
// safe for concurrent use.
func NewGenerator() Generator {
	return &monotonic{
		entropy: &ulid.LockedMonotonicReader{MonotonicReader: ulid.Monotonic(rand.Reader, 0)},
		now:     time.Now,
	}
}

func (g *monotonic) Next() string {
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

// Sequence returns a deterministic generator yielding prefix-1, prefix-2...
// It is meant for tests and golden files.
func Sequence(prefix string) Generator {
	return &sequence{prefix: prefix}
}

type sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (s *sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	var b strings.Builder
	_, _ = b.WriteString(s.prefix)
	_ = b.WriteByte('-')
	_, _ = b.WriteString(strconv.Itoa(s.n))
	return b.String()
}

var defaultGenerator = NewGenerator()

// GenerateID returns a new ULID from the process-wide generator.
func GenerateID() string {
	return defaultGenerator.Next()
}

// ValidID reports whether id is a well-formed ULID in canonical upper case.
func ValidID(id string) bool {
	parsed, err := ulid.ParseStrict(id)
	return err == nil && parsed.String() == id
}
