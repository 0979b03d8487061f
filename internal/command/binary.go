package command

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vanguard/agent/internal/geom"
	"github.com/vanguard/agent/internal/model"
)

// AppendBinary appends the wire form of c: the kind byte followed by the
// kind's parameters, little-endian. The same bytes feed the match journal.
func (c Command) AppendBinary(b []byte) []byte {
	b = append(b, byte(c.Kind))
	switch c.Kind {
	case KindSelectRegion, KindAddToSelection, KindSelectCategory:
		b = append(b, byte(c.Category))
		b = appendF(b, c.Bounds.Left, c.Bounds.Top, c.Bounds.Right, c.Bounds.Bottom)
	case KindAssignGroup, KindSelectGroup:
		b = binary.LittleEndian.AppendUint32(b, uint32(c.Group))
	case KindMove:
		b = appendF(b, c.X, c.Y)
	case KindRotate:
		b = appendF(b, c.X, c.Y, c.Angle)
	case KindScale:
		b = appendF(b, c.X, c.Y, c.Factor)
	case KindStrike:
		b = binary.LittleEndian.AppendUint64(b, uint64(c.Target))
		b = appendF(b, c.X, c.Y)
	}
	return b
}

func appendF(b []byte, vs ...float64) []byte {
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	return b
}

// ParseBinary decodes one command produced by AppendBinary and reports how
// many bytes it consumed.
func ParseBinary(b []byte) (Command, int, error) {
	if len(b) == 0 {
		return Command{}, 0, fmt.Errorf("parse command: empty input")
	}
	d := decoder{buf: b, off: 1}
	c := Command{Kind: Kind(b[0])}
	switch c.Kind {
	case KindSelectRegion, KindAddToSelection, KindSelectCategory:
		c.Category = model.Category(d.u8())
		c.Bounds = geom.Rect(d.f64(), d.f64(), d.f64(), d.f64(), c.Category)
	case KindAssignGroup, KindSelectGroup:
		c.Group = int(int32(d.u32()))
	case KindMove:
		c.X, c.Y = d.f64(), d.f64()
	case KindRotate:
		c.X, c.Y, c.Angle = d.f64(), d.f64(), d.f64()
	case KindScale:
		c.X, c.Y, c.Factor = d.f64(), d.f64(), d.f64()
	case KindStrike:
		c.Target = model.EntityID(d.u64())
		c.X, c.Y = d.f64(), d.f64()
	default:
		return Command{}, 0, fmt.Errorf("parse command: unknown kind %d", b[0])
	}
	if d.short {
		return Command{}, 0, fmt.Errorf("parse command %s: truncated", c.Kind)
	}
	return c, d.off, nil
}

type decoder struct {
	buf   []byte
	off   int
	short bool
}

func (d *decoder) take(n int) []byte {
	if d.off+n > len(d.buf) {
		d.short = true
		return make([]byte, n)
	}
	p := d.buf[d.off : d.off+n]
	d.off += n
	return p
}

func (d *decoder) u8() byte     { return d.take(1)[0] }
func (d *decoder) u32() uint32  { return binary.LittleEndian.Uint32(d.take(4)) }
func (d *decoder) u64() uint64  { return binary.LittleEndian.Uint64(d.take(8)) }
func (d *decoder) f64() float64 { return math.Float64frombits(d.u64()) }
