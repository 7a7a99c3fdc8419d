package mpu401

import "time"

// WriteCommand is the command-port write half of PortSurface (§4.1/§4.2).
func (d *Device) WriteCommand(val byte) {
	// The very first write after power-on turns on midi_thru — a
	// documented firmware quirk, reproduced verbatim.
	d.midiThruQuirk = true

	if d.resetInProgress {
		if val != 0xFF {
			d.cmdPending = int(val) + 1
			return
		}
	}
	if !d.intelligent && val != 0xFF && val != 0x3F {
		return
	}
	if d.mode == ModeUART && val != 0xFF && (d.intelligent || val != 0x3F) {
		return
	}

	d.dispatchCommand(val)
}

func (d *Device) dispatchCommand(val byte) {
	queueAck := true

	switch {
	case val <= 0x2F:
		if d.commandSequencer(val) {
			queueAck = false
		}
	case val >= 0x30 && val <= 0x37:
		d.commandFilterToggle(val)
	case val == 0x3F:
		d.queueByte(msgACK)
		d.mode = ModeUART
		d.clock.active = false
		d.eventTimer.Disable()
		d.eoiTimer.Disable()
		queueAck = false
	case val >= 0x40 && val <= 0x7F:
		slot := int(val>>4) - 4
		d.ref.setReferenceChannel(slot, val&0x0F)
	case val == 0x80:
		// Recomputed unconditionally even if clock.active is false — §9(a),
		// preserved verbatim pending hardware verification.
		d.eventTimer.SetDelay(time.Duration(d.clock.eventPeriodMicros()) * time.Microsecond)
	case val == 0x86, val == 0x87:
		d.filter.benderIn = val&1 == 1
	case val == 0x88, val == 0x89:
		d.setMidiThruFilter(val&1 == 1)
	case val == 0x8A, val == 0x8B:
		d.filter.dataInStop = val&1 == 1
	case val == 0x8C, val == 0x8D:
		d.filter.recMeasureEnd = val&1 == 1
	case val == 0x8E, val == 0x8F:
		d.condSet = val&1 == 1
	case val == 0x90, val == 0x91:
		d.filter.rtAffection = val&1 == 1
	case val == 0x94:
		d.stopClock()
		d.clockToHost = false
	case val == 0x95:
		d.startClock()
		d.clockToHost = true
	case val == 0x96:
		d.filter.sysexIn = false
	case val == 0x97:
		d.filter.sysexIn = true
		d.filter.sysexThru = false
	case val >= 0x98 && val <= 0x9F:
		slot := int(val-0x98) >> 1
		d.ref.chanRefs[slot].on = val&1 == 1
	case val >= 0xA0 && val <= 0xAF:
		d.commandDataReturn(val)
		queueAck = false
	case val == 0xB1:
		d.clock.tempoRel = 0x40
	case val == 0xB8, val == 0xB9:
		d.clearPlayCounters()
	case val == 0xBA:
		d.clock.recCounter = 0
	case val >= 0xC2 && val <= 0xC8:
		d.clock.timebase = mpuClockBase[val-0xC2]
	case val >= 0xD0 && val <= 0xD7:
		d.oldTrack = d.track
		d.track = val & 0x07
		d.wsd = true
		d.wsm = false
		d.wsdStart = true
	case val == 0xDF:
		d.wsd = false
		d.wsm = true
		d.wsdStart = true
	case val == 0xE0, val == 0xE1, val == 0xE2, val == 0xE4, val == 0xE6, val == 0xE7,
		val == 0xEC, val == 0xED, val == 0xEE, val == 0xEF:
		d.commandByte = val
	case val == 0xFF:
		d.Reset()
		d.resetInProgress = true
		d.resetTimer.SetDelay(time.Duration(resetBusyMicros) * time.Microsecond)
		queueAck = false
	}

	if queueAck {
		d.queueByte(msgACK)
	}
}

// commandSequencer decodes the 0x00..0x2F sequencer-control family: three
// independent bitfields selecting a realtime echo, a playback transition,
// and a recording transition. Returns true if it already queued its own
// ACK sequence (the 0x10 record-stop packet), false if the caller should
// queue the ordinary single ACK.
func (d *Device) commandSequencer(val byte) bool {
	switch val & 0x03 {
	case 1:
		d.sendRealtimeFiltered(0xFC)
	case 2:
		d.sendRealtimeFiltered(0xFA)
	case 3:
		d.sendRealtimeFiltered(0xFB)
	}

	switch val & 0x0C {
	case 0x04:
		d.stopPlayback()
	case 0x08:
		d.startPlayback()
	}

	ackHandled := false
	switch val & 0x30 {
	case 0x10:
		d.stopRecording()
		d.queueByte(msgACK)
		d.queueByte(d.clock.recCounter)
		d.queueByte(msgEnd)
		d.clock.recCounter = 0
		ackHandled = true
	case 0x20:
		d.startRecording()
	}

	// Quirk required by one title (Prism) and destructive if applied
	// elsewhere (Ballade) — reproduced verbatim per the original.
	if val == 0x20 || val == 0x26 {
		if d.rec == RecOn {
			d.recQ.push(d.clock.recCounter)
		}
	}

	return ackHandled
}

func (d *Device) commandFilterToggle(val byte) {
	switch val {
	case 0x30:
		d.filter.allNotesOffOut = false
	case 0x31:
		d.filter.rtOut = false
	case 0x32:
		d.filter.allThru = false
	case 0x33:
		d.filter.timingInStop = true
	case 0x34:
		d.filter.modeMsgsIn = true
	case 0x35:
		d.filter.sysexThru = true
	case 0x36:
		d.filter.commonMsgsIn = true
	case 0x37:
		d.filter.rtIn = true
	}
}

func (d *Device) setMidiThruFilter(on bool) {
	d.filter.midiThru = on
	for i := range d.ref.inputRefs {
		d.ref.inputRefs[i].on = on
		if !on {
			d.ref.inputRefs[i].keys.clear()
		}
	}
}

func (d *Device) commandDataReturn(val byte) {
	switch {
	case val <= 0xA7:
		t := val & 0x07
		if d.cmask&(1<<t) != 0 {
			d.queueByte(d.playbuf[t].counter)
		}
	case val == 0xAB:
		d.queueByte(msgACK)
		d.queueByte(0)
	case val == 0xAC:
		d.queueByte(msgACK)
		d.queueByte(deviceVersion)
	case val == 0xAD:
		d.queueByte(msgACK)
		d.queueByte(deviceRevision)
	case val == 0xAF:
		d.queueByte(msgACK)
		d.queueByte(d.clock.tempo)
	}
}

func (d *Device) clearPlayCounters() {
	for ch := uint8(0); ch < 16; ch++ {
		d.notesOff(ch)
	}
	for i := range d.playbuf {
		d.playbuf[i].counter = 0
		d.playbuf[i].kind = bufOverflow
	}
	d.condbuf.counter = 0
	d.condbuf.kind = bufOverflow
	d.clock.cthCounter = 0
	d.clock.cthMode = 0
	d.clock.measureCounter = 0
	d.amask = d.tmask
	d.conductor = d.condSet
	d.reqMask = 0
	d.irqPending = true
	d.updateIRQ(true)
}

func (d *Device) sendRealtimeFiltered(b byte) {
	d.lastRtCmd = b
	if d.filter.rtOut {
		d.sink.RealtimeByte(b)
	}
}

// stopPlayback and startPlayback call stop/startClock with the state flags
// still at their pre-transition values, matching the original's call order:
// the clock's lazy-enable guard only fires while the flag it is about to
// govern has not yet flipped (§5).
func (d *Device) stopPlayback() {
	d.stopClock()
	d.playing = false
	for ch := uint8(0); ch < 16; ch++ {
		d.notesOff(ch)
	}
	d.filter.prchgMask = 0
}

func (d *Device) startPlayback() {
	d.startClock()
	d.playing = true
	d.clrQueue()
}

// startRecording mirrors the original's 0x20 "Start" case: recording only
// actually arms RecOn (and replays buffered program changes) once a prior
// MIDI realtime Continue/Start byte primed last_rtcmd; otherwise it settles
// into RecStb and waits.
func (d *Device) startRecording() {
	if d.rec != RecOn {
		d.clock.recCounter = 0
		d.rec = RecStb
	}
	if d.lastRtCmd == 0xFA || d.lastRtCmd == 0xFB {
		d.clock.recCounter = 0
		d.startClock()
		d.rec = RecOn
		d.replayProgramChanges()
	}
}

func (d *Device) stopRecording() {
	d.stopClock()
	d.rec = RecOff
	d.filter.prchgMask = 0
}
