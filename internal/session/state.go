package session

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/erinpentecost/wallpaint/internal/mask"
	"github.com/erinpentecost/wallpaint/internal/paint"
)

// ID identifies an assignment for the lifetime of a Workspace. IDs are
// issued in increasing order and never reused.
type ID uint64

func (id ID) String() string {
	return fmt.Sprintf("#%d", uint64(id))
}

// Assignment binds one mask to one paint.
type Assignment struct {
	ID    ID
	Mask  *mask.Mask
	Paint paint.Paint
}

// state is an immutable snapshot of the live assignments. Mutations
// clone it first.
type state struct {
	items map[ID]Assignment
}

func emptyState() state {
	return state{items: map[ID]Assignment{}}
}

func (s state) clone() state {
	return state{items: maps.Clone(s.items)}
}

// ordered returns the live assignments in ascending ID order, which is
// also paint order.
func (s state) ordered() []Assignment {
	ids := slices.Sorted(maps.Keys(s.items))
	out := make([]Assignment, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.items[id])
	}
	return out
}

// key hashes everything that affects the composite.
func (s state) key() [sha256.Size]byte {
	h := sha256.New()
	var buf [8]byte
	putU64 := func(v uint64) {
		binary.BigEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	for _, a := range s.ordered() {
		putU64(uint64(a.ID))
		putU64(math.Float64bits(a.Paint.Color.L))
		putU64(math.Float64bits(a.Paint.Color.A))
		putU64(math.Float64bits(a.Paint.Color.B))
		putU64(uint64(a.Paint.Finish))
		putU64(math.Float64bits(a.Paint.Reflectance))
		d := a.Mask.Digest()
		h.Write(d[:])
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
