package idgen

import (
	"math/rand/v2"
	"strconv"
	"sync"
	"time"
)

const (
	suffixLen = 9
	alphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Generator builds identifiers of the form <unix-ms>-<base36 suffix>.
// Ids sort by creation time and are unique within one process.
type Generator struct {
	mu  sync.Mutex
	now func() time.Time
	rnd *rand.Rand
}

// New returns a generator backed by the wall clock and a randomly seeded source.
func New() *Generator {
	return NewWithSource(time.Now, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

// NewWithSource lets tests pin the clock and the random source.
func NewWithSource(now func() time.Time, rnd *rand.Rand) *Generator {
	return &Generator{now: now, rnd: rnd}
}

// New returns a fresh identifier.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	buf := make([]byte, 0, 14+1+suffixLen)
	buf = strconv.AppendInt(buf, g.now().UnixMilli(), 10)
	buf = append(buf, '-')
	for i := 0; i < suffixLen; i++ {
		buf = append(buf, alphabet[g.rnd.IntN(len(alphabet))])
	}
	return string(buf)
}
