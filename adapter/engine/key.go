package engine

import (
	"encoding/binary"
	"math"

	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

// EncodeKey returns the storage key of an _id value: one byte with the kind
// followed by an encoding of the payload. Integers, doubles and dates keep
// their numeric order under byte comparison, so a collection is iterated in
// (kind, value) order.
func EncodeKey(id domain.Value) ([]byte, error) {
	key := []byte{byte(id.Kind())}
	switch id.Kind() {
	case domain.KindString:
		s, _ := id.AsString()
		return append(key, s...), nil
	case domain.KindInt32:
		i, _ := id.AsInt32()
		return binary.BigEndian.AppendUint32(key, uint32(i)^(1<<31)), nil
	case domain.KindInt64:
		i, _ := id.AsInt64()
		return appendInt64(key, i), nil
	case domain.KindDateTime:
		t, _ := id.AsDateTime()
		return appendInt64(key, t.UnixMilli()), nil
	case domain.KindDouble:
		f, _ := id.AsDouble()
		if f == 0 {
			f = 0 // -0 and +0 are the same id
		}
		bits := math.Float64bits(f)
		if f < 0 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}
		return binary.BigEndian.AppendUint64(key, bits), nil
	case domain.KindDecimal:
		d, _ := id.AsDecimal()
		h, l := d.GetBytes()
		key = binary.BigEndian.AppendUint64(key, h)
		return binary.BigEndian.AppendUint64(key, l), nil
	case domain.KindBoolean:
		b, _ := id.AsBoolean()
		if b {
			return append(key, 1), nil
		}
		return append(key, 0), nil
	case domain.KindBinary:
		b, _ := id.AsBinary()
		return append(key, b...), nil
	case domain.KindObjectID:
		oid, _ := id.AsObjectID()
		return append(key, oid[:]...), nil
	case domain.KindGUID:
		g, _ := id.AsGUID()
		return append(key, g[:]...), nil
	default:
		return nil, domain.ErrInvalidID{Kind: id.Kind()}
	}
}

func appendInt64(b []byte, i int64) []byte {
	return binary.BigEndian.AppendUint64(b, uint64(i)^(1<<63))
}
