package mpu401

// intelligentOut dispatches a parsed TrackBuffer to the outbound MIDI
// sink, applying the reference-table note-suppression discipline (§4.4).
func (d *Device) intelligentOut(buf *trackBuffer) {
	switch buf.kind {
	case bufOverflow:
		return
	case bufMark:
		if buf.sysVal == 0xFC {
			d.sink.RealtimeByte(buf.sysVal)
			if t := d.trackIndexOf(buf); t >= 0 {
				d.amask &^= 1 << uint(t)
				d.reqMask &^= 1 << uint(t)
			}
		}
	case bufMidiNorm:
		d.emitMidiNorm(buf)
	}
}

func (d *Device) trackIndexOf(buf *trackBuffer) int {
	for i := range d.playbuf {
		if &d.playbuf[i] == buf {
			return i
		}
	}
	return -1
}

func (d *Device) emitMidiNorm(buf *trackBuffer) {
	status := buf.value[0]
	channel := status & 0x0F
	message := status & 0xF0
	key := buf.value[1] & 0x7F

	chrefnum := d.ref.chToRef[channel]
	cref := &d.ref.chanRefs[chrefnum]
	iref := &d.ref.inputRefs[channel]

	switch message {
	case 0x80:
		suppress := iref.keys.get(key) || (cref.on && !cref.keys.get(key))
		cref.keys.del(key)
		if suppress {
			return
		}
	case 0x90:
		if iref.keys.get(key) || cref.keys.get(key) {
			d.sink.RawByte(0x80 | channel)
			d.sink.RawByte(key)
			d.sink.RawByte(0)
		}
		cref.keys.set(key)
	case 0xB0:
		if key == 123 {
			d.notesOff(channel)
			return
		}
	}

	d.sink.RawByte(status)
	for i := 1; i < buf.vlength; i++ {
		d.sink.RawByte(buf.value[i])
	}
}

// updateTrack fires when a playing track's counter reaches zero (§4.6
// step 2): dispatch the buffered message, then arm the buffer for its
// next message unless IntelligentOut already retired the track (the
// 0xFC "mark" case clears amask itself).
func (d *Device) updateTrack(t int) {
	buf := &d.playbuf[t]
	d.intelligentOut(buf)
	if d.amask&(1<<uint(t)) != 0 {
		buf.vlength = 0
		buf.kind = bufOverflow
		buf.counter = 0xF0
		d.reqMask |= 1 << uint(t)
	}
	if d.amask == 0 && !d.conductor {
		d.reqMask |= 1 << reqBitMeasure
	}
}

// notesOff implements the all-notes-off policy for one channel (§4.5).
func (d *Device) notesOff(channel uint8) {
	cref := &d.ref.chanRefs[d.ref.chToRef[channel]]
	iref := &d.ref.inputRefs[channel]

	if d.filter.allNotesOffOut && !iref.keys.any() {
		cref.keys.clear()
		d.sink.RawByte(0xB0 | channel)
		d.sink.RawByte(123)
		d.sink.RawByte(0)
		return
	}

	for key := uint8(0); key < 128; key++ {
		if cref.keys.get(key) && !iref.keys.get(key) {
			d.sink.RawByte(0x80 | channel)
			d.sink.RawByte(key)
			d.sink.RawByte(0)
		}
		cref.keys.del(key)
	}
}

// replayProgramChanges resends any program-change messages buffered by
// InputRouter while playback/recording was stopped (SPEC_FULL supplement,
// grounded on the original's filter.prchg_buf/prchg_mask).
func (d *Device) replayProgramChanges() {
	for ch := uint8(0); ch < 16; ch++ {
		if d.filter.prchgMask&(1<<ch) == 0 {
			continue
		}
		d.sink.RawByte(0xC0 | ch)
		d.sink.RawByte(d.filter.prchgBuf[ch])
		d.filter.prchgMask &^= 1 << ch
	}
}
