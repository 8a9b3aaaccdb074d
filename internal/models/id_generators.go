package models

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type IDGenerator interface {
	ID() (string, error)
}

// ULIDGenerator hands out ULIDs that keep increasing even within the same millisecond,
// so sorting the IDs gives the order in which they were generated.
type ULIDGenerator struct {
	lock    sync.Mutex
	entropy io.Reader
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ULIDGenerator) ID() (string, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
