// Package idgenerator contains the default [domain.IDGenerator]
// implementation, which builds ObjectIds from the current time, a random
// process value and a counter.
package idgenerator

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"

	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/timegetter"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDGenerator implements [domain.IDGenerator].
type IDGenerator struct {
	reader     io.Reader
	timeGetter domain.TimeGetter

	mu      sync.Mutex
	process [5]byte
	counter uint32
	seeded  bool
}

// NewIDGenerator implements [domain.IDGenerator].
func NewIDGenerator(opts ...Option) domain.IDGenerator {
	i := IDGenerator{
		reader:     rand.Reader,
		timeGetter: timegetter.NewTimeGetter(),
	}
	for _, opt := range opts {
		opt(&i)
	}
	return &i
}

// GenerateID implements [domain.IDGenerator]. The random part is read once,
// on the first call.
func (i *IDGenerator) GenerateID() (primitive.ObjectID, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.seeded {
		var seed [8]byte
		if _, err := io.ReadFull(i.reader, seed[:]); err != nil {
			return primitive.NilObjectID, err
		}
		copy(i.process[:], seed[:5])
		i.counter = uint32(seed[5])<<16 | uint32(seed[6])<<8 | uint32(seed[7])
		i.seeded = true
	}

	var id primitive.ObjectID
	binary.BigEndian.PutUint32(id[0:4], uint32(i.timeGetter.GetTime().Unix()))
	copy(id[4:9], i.process[:])
	id[9] = byte(i.counter >> 16)
	id[10] = byte(i.counter >> 8)
	id[11] = byte(i.counter)
	i.counter = (i.counter + 1) & 0xffffff
	return id, nil
}
