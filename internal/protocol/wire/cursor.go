package wire

import "encoding/binary"

// Writer writes little-endian fields into a fixed destination. Writes past the
// end of the destination are dropped and mark the writer short.
type Writer struct {
	buf   []byte
	n     int
	short bool
}

// NewWriter returns a Writer positioned at the start of dst.
func NewWriter(dst []byte) *Writer {
	return &Writer{buf: dst}
}

// Reset repositions w at the start of dst.
func (w *Writer) Reset(dst []byte) {
	w.buf = dst
	w.n = 0
	w.short = false
}

// Len returns the number of bytes written, including dropped writes.
func (w *Writer) Len() int { return w.n }

// Short reports whether any write did not fit.
func (w *Writer) Short() bool { return w.short }

func (w *Writer) next(width int) []byte {
	start := w.n
	w.n += width
	if w.short || w.n > len(w.buf) {
		w.short = true
		return nil
	}
	return w.buf[start:w.n]
}

func (w *Writer) U8(v uint8) {
	if b := w.next(1); b != nil {
		b[0] = v
	}
}

func (w *Writer) U16(v uint16) {
	if b := w.next(2); b != nil {
		binary.LittleEndian.PutUint16(b, v)
	}
}

func (w *Writer) U32(v uint32) {
	if b := w.next(4); b != nil {
		binary.LittleEndian.PutUint32(b, v)
	}
}

func (w *Writer) U64(v uint64) {
	if b := w.next(8); b != nil {
		binary.LittleEndian.PutUint64(b, v)
	}
}

func (w *Writer) U128(v Uint128) {
	if b := w.next(16); b != nil {
		binary.LittleEndian.PutUint64(b[0:8], v.Lo)
		binary.LittleEndian.PutUint64(b[8:16], v.Hi)
	}
}

// Reader reads little-endian fields from a source. Reads past the end of the
// source return zero and mark the reader short.
type Reader struct {
	buf   []byte
	n     int
	short bool
}

// NewReader returns a Reader positioned at the start of src.
func NewReader(src []byte) *Reader {
	return &Reader{buf: src}
}

// Reset repositions r at the start of src.
func (r *Reader) Reset(src []byte) {
	r.buf = src
	r.n = 0
	r.short = false
}

// Len returns the number of bytes consumed, including failed reads.
func (r *Reader) Len() int { return r.n }

// Short reports whether any read ran past the source.
func (r *Reader) Short() bool { return r.short }

func (r *Reader) next(width int) []byte {
	start := r.n
	r.n += width
	if r.short || r.n > len(r.buf) {
		r.short = true
		return nil
	}
	return r.buf[start:r.n]
}

func (r *Reader) U8() uint8 {
	if b := r.next(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *Reader) U16() uint16 {
	if b := r.next(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *Reader) U32() uint32 {
	if b := r.next(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *Reader) U64() uint64 {
	if b := r.next(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (r *Reader) U128() Uint128 {
	if b := r.next(16); b != nil {
		return Uint128{
			Lo: binary.LittleEndian.Uint64(b[0:8]),
			Hi: binary.LittleEndian.Uint64(b[8:16]),
		}
	}
	return Uint128{}
}

// PeekU16 reads a little-endian uint16 at offset off without a cursor.
func PeekU16(src []byte, off int) (uint16, bool) {
	if off < 0 || len(src) < off+2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(src[off : off+2]), true
}

// PutU16 writes v at offset off of dst. It reports false if dst is too short.
func PutU16(dst []byte, off int, v uint16) bool {
	if off < 0 || len(dst) < off+2 {
		return false
	}
	binary.LittleEndian.PutUint16(dst[off:off+2], v)
	return true
}
