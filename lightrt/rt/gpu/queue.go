package gpu

import (
	"errors"
	"fmt"
)

// ErrQueueOverflow is raised when a write falls outside a queue's capacity.
var ErrQueueOverflow = errors.New("gpu: write past buffer capacity")

// NumBuffers is the number of GPU buffers behind each UpdateQueue.
const NumBuffers = 2

type pendingWrite struct {
	offset int
	data   []byte
}

// span is a half-open byte range [lo, hi). hi <= lo is empty.
type span struct {
	lo, hi int
}

func (s span) empty() bool { return s.hi <= s.lo }

func (s span) extend(lo, hi int) span {
	lo &^= 3
	if hi%4 != 0 {
		hi += 4 - hi%4
	}
	if s.empty() {
		return span{lo, hi}
	}
	if lo < s.lo {
		s.lo = lo
	}
	if hi > s.hi {
		s.hi = hi
	}
	return s
}

// UpdateQueue stages byte-exact writes against a CPU mirror and uploads them
// into the write side of a double-buffered GPU array once per frame. The read
// buffer is what shaders bind during the current frame.
type UpdateQueue struct {
	label   string
	mirror  []byte
	pending []pendingWrite

	buffers [NumBuffers]Buffer
	// Bytes of the mirror each buffer has not received yet.
	stale [NumBuffers]span

	read, write int
}

// NewUpdateQueue allocates NumBuffers buffers of size bytes on dev.
func NewUpdateQueue(dev Device, label string, size int) *UpdateQueue {
	size = int(alignedSize(uint64(size)))
	q := &UpdateQueue{
		label:  label,
		mirror: make([]byte, size),
		read:   0,
		write:  1,
	}
	for i := range q.buffers {
		q.buffers[i] = dev.CreateBuffer(fmt.Sprintf("%s[%d]", label, i), uint64(size))
	}
	return q
}

func (q *UpdateQueue) Label() string { return q.label }

// Capacity is the size of each buffer in bytes.
func (q *UpdateQueue) Capacity() int { return len(q.mirror) }

func (q *UpdateQueue) checkRange(offset, n int) {
	if offset < 0 || offset+n > len(q.mirror) {
		panic(fmt.Errorf("%w: %s offset %d + %d > %d", ErrQueueOverflow, q.label, offset, n, len(q.mirror)))
	}
}

// QueueUpdate stages a copy of data at offset. Writes are applied in order on
// the next flush, so the last write to a byte wins.
func (q *UpdateQueue) QueueUpdate(offset int, data []byte) {
	q.checkRange(offset, len(data))
	if len(data) == 0 {
		return
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	q.pending = append(q.pending, pendingWrite{offset: offset, data: cp})
}

// QueueRecord stages rec at array slot index.
func (q *UpdateQueue) QueueRecord(rec Record, index int) {
	q.QueueUpdate(index*rec.Size(), rec.Marshal())
}

// Pending is the number of staged writes not yet flushed.
func (q *UpdateQueue) Pending() int { return len(q.pending) }

// WriteRange writes data into the mirror and every buffer immediately.
// Used for one-time initialization, bypassing the per-frame protocol.
func (q *UpdateQueue) WriteRange(offset int, data []byte) {
	q.checkRange(offset, len(data))
	copy(q.mirror[offset:], data)

	// Uploads must stay 4-byte aligned, so widen to the enclosing words.
	s := span{}.extend(offset, offset+len(data))
	for _, b := range q.buffers {
		b.Write(uint64(s.lo), q.mirror[s.lo:s.hi])
	}
}

// FlushBuffer applies staged writes to the mirror and uploads every byte the
// write buffer is missing. A buffer that was on the read side while writes
// arrived catches up here even if nothing new was staged. Reports whether
// anything was uploaded.
func (q *UpdateQueue) FlushBuffer() bool {
	for _, w := range q.pending {
		copy(q.mirror[w.offset:], w.data)
		for i := range q.stale {
			q.stale[i] = q.stale[i].extend(w.offset, w.offset+len(w.data))
		}
	}
	q.pending = q.pending[:0]

	s := q.stale[q.write]
	if s.empty() {
		return false
	}
	q.buffers[q.write].Write(uint64(s.lo), q.mirror[s.lo:s.hi])
	q.stale[q.write] = span{}
	return true
}

// SwapBuffers exchanges the read and write roles.
func (q *UpdateQueue) SwapBuffers() {
	q.read, q.write = q.write, q.read
}

// ReadBuffer is the buffer shaders should bind this frame.
func (q *UpdateQueue) ReadBuffer() Buffer { return q.buffers[q.read] }

func (q *UpdateQueue) WriteBuffer() Buffer { return q.buffers[q.write] }

// Snapshot returns a copy of the CPU mirror, excluding unflushed writes.
func (q *UpdateQueue) Snapshot() []byte {
	out := make([]byte, len(q.mirror))
	copy(out, q.mirror)
	return out
}

// Clear drops staged writes and zeroes the mirror. Both buffers are
// re-uploaded on their next flush.
func (q *UpdateQueue) Clear() {
	q.pending = q.pending[:0]
	for i := range q.mirror {
		q.mirror[i] = 0
	}
	for i := range q.stale {
		q.stale[i] = span{0, len(q.mirror)}
	}
}

func (q *UpdateQueue) Release() {
	for i, b := range q.buffers {
		if b != nil {
			b.Release()
			q.buffers[i] = nil
		}
	}
	q.pending = nil
}
