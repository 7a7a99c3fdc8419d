package mpu401

import "time"

// onEventTick is the periodic tempo-driven callback (§4.6). It only runs
// while clock.active is true, which startClock/stopClock maintain per
// §5's lazy-enable rule.
func (d *Device) onEventTick() {
	period := time.Duration(d.clock.eventPeriodMicros()) * time.Microsecond

	if d.irqIsPending() && d.clock.active {
		d.eventTimer.Advance(period)
		return
	}

	if d.playing {
		for t := 0; t < 8; t++ {
			if d.amask&(1<<uint(t)) == 0 {
				continue
			}
			buf := &d.playbuf[t]
			if buf.counter == 0 {
				continue
			}
			buf.counter--
			if buf.counter == 0 {
				d.updateTrack(t)
			}
		}
	}

	if d.conductor && d.condbuf.counter > 0 {
		d.condbuf.counter--
		if d.condbuf.counter == 0 {
			d.condbuf.vlength = 0
			d.condbuf.counter = 0xF0
			d.reqMask |= 1 << reqBitConductor
		}
	}

	if d.clockToHost {
		d.clock.cthCounter++
		if d.clock.cthCounter >= int(d.clock.cthRate[d.clock.cthMode]) {
			d.clock.cthCounter = 0
			d.clock.cthMode = (d.clock.cthMode + 1) % 4
			d.reqMask |= 1 << reqBitClockHost
		}
	}

	if d.rec == RecOn {
		d.clock.recCounter++
		if d.clock.recCounter >= recTimeout {
			d.clock.recCounter = 0
			d.reqMask |= 1 << reqBitRecording
		}
	}

	if d.playing || d.rec == RecOn {
		d.clock.measureCounter++
		if d.clock.measureCounter >= d.clock.maxMeasureCount() {
			if d.filter.rtOut {
				d.sink.RealtimeByte(msgClock)
			}
			d.clock.measureCounter = 0
			if d.filter.recMeasureEnd && d.rec == RecOn {
				d.reqMask |= 1 << reqBitMeasure
			}
		}
	}

	if !d.irqIsPending() && d.reqMask != 0 {
		d.eoiHandler()
	}

	if d.clock.active {
		d.eventTimer.Advance(period)
	}
}

// eoiHandler dispatches immediately when send_now is set (a track asked
// for a zero-delay notification), otherwise defers through a 60-µs
// one-shot so bursts of req_mask bits coalesce into individually-spaced
// host notifications (§4.6 tail).
func (d *Device) eoiHandler() {
	if d.sendNow {
		d.sendNow = false
		d.eoiHandlerDispatch()
		return
	}
	if d.eoiScheduled {
		return
	}
	d.eoiScheduled = true
	d.eoiTimer.SetDelay(time.Duration(eoiDeferMicros) * time.Microsecond)
}

func (d *Device) onEOITimerFire() {
	d.eoiScheduled = false
	d.eoiHandlerDispatch()
}

// eoiHandlerDispatch serialises the lowest set req_mask bit to the host
// as a single 0xF0+i marker byte.
func (d *Device) eoiHandlerDispatch() {
	for i := 0; i < 16; i++ {
		if d.reqMask&(1<<uint(i)) != 0 {
			d.reqMask &^= 1 << uint(i)
			d.queueByte(0xF0 + byte(i))
			return
		}
	}
}
