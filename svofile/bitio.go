package svofile

import "io"

// bitWriter packs values LSB first.
type bitWriter struct {
	buf []byte
	acc uint64
	n   uint8
}

func newBitWriter(sizeHint int) *bitWriter {
	return &bitWriter{buf: make([]byte, 0, sizeHint)}
}

func (w *bitWriter) writeBits(v uint64, bits uint8) {
	w.acc |= (v & ((1 << bits) - 1)) << w.n
	w.n += bits
	for w.n >= 8 {
		w.buf = append(w.buf, byte(w.acc&0xFF))
		w.acc >>= 8
		w.n -= 8
	}
}

// bytes flushes the partial byte, zero padded.
func (w *bitWriter) bytes() []byte {
	if w.n > 0 {
		w.buf = append(w.buf, byte(w.acc&0xFF))
		w.acc = 0
		w.n = 0
	}
	return w.buf
}

type bitReader struct {
	data []byte
	acc  uint64
	n    uint8
	pos  int
}

func newBitReader(b []byte) *bitReader { return &bitReader{data: b} }

func (r *bitReader) readBits(bits uint8) (uint64, error) {
	for r.n < bits {
		if r.pos >= len(r.data) {
			return 0, io.ErrUnexpectedEOF
		}
		r.acc |= uint64(r.data[r.pos]) << r.n
		r.n += 8
		r.pos++
	}
	mask := uint64((1 << bits) - 1)
	v := r.acc & mask
	r.acc >>= bits
	r.n -= bits
	return v, nil
}

// remaining reports whether unread non-padding bits are left.
func (r *bitReader) remaining() bool {
	return r.pos < len(r.data) || r.acc != 0
}
