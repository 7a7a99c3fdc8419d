package mpu401

// hostQueue is the bounded ring buffer between the core and the host's
// data-port reads (§3 HostQueue). Overflow is logged and the byte dropped;
// it never blocks the caller.
type hostQueue struct {
	storage [hostQueueCapacity]byte
	pos     int // next read position
	used    int // number of valid bytes
}

func (q *hostQueue) clear() {
	q.pos = 0
	q.used = 0
}

// push appends data, dropping it (and logging through the caller) on
// overflow. Reports whether the byte was actually stored and whether the
// queue was empty before the push (the latter drives the pending-IRQ rule
// in §4.1/§4.6's MPU401_QueueByte).
func (q *hostQueue) push(data byte) (stored bool, wasEmpty bool) {
	wasEmpty = q.used == 0
	if q.used >= hostQueueCapacity {
		return false, wasEmpty
	}
	pos := q.used + q.pos
	if pos >= hostQueueCapacity {
		pos -= hostQueueCapacity
	}
	if q.pos >= hostQueueCapacity {
		q.pos -= hostQueueCapacity
	}
	q.used++
	q.storage[pos] = data
	return true, wasEmpty
}

// pop dequeues the next byte. ok is false on an empty queue, in which case
// callers (PortSurface) substitute the ACK byte per §4.1.
func (q *hostQueue) pop() (b byte, ok bool) {
	if q.used == 0 {
		return 0, false
	}
	if q.pos >= hostQueueCapacity {
		q.pos -= hostQueueCapacity
	}
	b = q.storage[q.pos]
	q.pos++
	q.used--
	return b, true
}

func (q *hostQueue) empty() bool { return q.used == 0 }

// recordQueue is the bounded ring buffer for inbound/record data (§3
// RecordQueue). Larger than hostQueue and with different overflow
// semantics: the caller (InputRouter) receives a residual length back so
// it can stall the inbound stream rather than silently dropping bytes.
type recordQueue struct {
	storage [recordQueueCapacity]byte
	pos     int
	used    int
}

func (q *recordQueue) clear() {
	q.pos = 0
	q.used = 0
}

func (q *recordQueue) empty() bool { return q.used == 0 }

func (q *recordQueue) full() bool { return q.used >= recordQueueCapacity }

// push appends one byte, returning false if the queue is already full.
func (q *recordQueue) push(b byte) bool {
	if q.full() {
		return false
	}
	pos := q.used + q.pos
	if pos >= recordQueueCapacity {
		pos -= recordQueueCapacity
	}
	q.storage[pos] = b
	q.used++
	return true
}

// peek returns the oldest byte without removing it.
func (q *recordQueue) peek() byte {
	// §9(b): guard the position explicitly rather than assume pos < cap
	// holds from bookkeeping elsewhere.
	pos := q.pos
	if pos >= recordQueueCapacity {
		pos -= recordQueueCapacity
	}
	return q.storage[pos]
}

// advance drops the oldest byte (used once it has been copied into the
// host queue by the rec-copy path in §4.1).
func (q *recordQueue) advance() {
	if q.used == 0 {
		return
	}
	if q.pos >= recordQueueCapacity {
		q.pos -= recordQueueCapacity
	}
	q.pos++
	q.used--
}
