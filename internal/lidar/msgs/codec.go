package msgs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrShortBuffer is returned when a payload ends before the message does.
var ErrShortBuffer = errors.New("buffer too short")

type writer struct {
	buf     *bytes.Buffer
	scratch [8]byte
}

func newWriter(buf *bytes.Buffer) *writer {
	return &writer{buf: buf}
}

func (w *writer) uint8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *writer) bool(v bool) {
	if v {
		w.uint8(1)
		return
	}
	w.uint8(0)
}

func (w *writer) uint32(v uint32) {
	binary.LittleEndian.PutUint32(w.scratch[:4], v)
	w.buf.Write(w.scratch[:4])
}

func (w *writer) int32(v int32) {
	w.uint32(uint32(v))
}

func (w *writer) float32(v float32) {
	w.uint32(math.Float32bits(v))
}

func (w *writer) float64(v float64) {
	binary.LittleEndian.PutUint64(w.scratch[:8], math.Float64bits(v))
	w.buf.Write(w.scratch[:8])
}

func (w *writer) string(s string) {
	w.uint32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *writer) bytes(b []byte) {
	w.uint32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *writer) float32s(vs []float32) {
	w.uint32(uint32(len(vs)))
	for _, v := range vs {
		w.float32(v)
	}
}

func (w *writer) float64s(vs []float64) {
	w.uint32(uint32(len(vs)))
	for _, v := range vs {
		w.float64(v)
	}
}

// reader decodes what writer produced. The first short read latches err and
// turns every later read into a zero value.
type reader struct {
	data []byte
	off  int
	err  error
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w for %s at offset %d", ErrShortBuffer, what, r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) uint8() uint8 {
	b := r.take(1, "uint8")
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) bool() bool {
	return r.uint8() != 0
}

func (r *reader) uint32() uint32 {
	b := r.take(4, "uint32")
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) int32() int32 {
	return int32(r.uint32())
}

func (r *reader) float32() float32 {
	return math.Float32frombits(r.uint32())
}

func (r *reader) string() string {
	n := r.uint32()
	return string(r.take(int(n), "string"))
}

func (r *reader) bytes() []byte {
	n := r.uint32()
	b := r.take(int(n), "bytes")
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (r *reader) float32s() []float32 {
	n := int(r.uint32())
	if r.err != nil {
		return nil
	}
	if n*4 > len(r.data)-r.off {
		r.err = fmt.Errorf("%w for %d float32 values at offset %d", ErrShortBuffer, n, r.off)
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = r.float32()
	}
	return out
}
