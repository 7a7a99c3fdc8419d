package mpu401

// InputMsg handles one inbound 1..3-byte MIDI channel message, or a
// realtime status byte (§4.7). In UART mode the bytes are simply queued
// to the host; intelligent mode applies thru, reference-table note
// tracking, input filters, and recording.
func (d *Device) InputMsg(data []byte) {
	if len(data) == 0 {
		return
	}
	if d.mode == ModeUART {
		for _, b := range data {
			d.hostQ.push(b)
		}
		return
	}
	if !d.cfg.ReceiveInput {
		return
	}

	status := data[0]
	if status >= 0xF8 {
		d.handleInputRealtime(status)
		return
	}

	var msg [3]byte
	var n int
	if status < 0x80 {
		// running status: old_msg supplies the missing status byte.
		msg[0] = d.oldMsg
		n = copy(msg[1:], data) + 1
	} else {
		d.oldMsg = status
		n = copy(msg[:], data)
	}

	channel := msg[0] & 0x0F
	message := msg[0] & 0xF0

	d.inputThru(msg[:n], channel, message)
	d.inputFilterAndRecord(msg[:n], channel, message)
}

// handleInputRealtime applies rt_in thru filtering and, when rt_affection
// is set, synthesises the matching internal command byte (§4.7). The
// synthesised command runs with block_ack set so no ACK is queued for a
// command the host never issued.
func (d *Device) handleInputRealtime(b byte) {
	if d.filter.rtIn {
		d.sink.RealtimeByte(b)
	}
	if !d.filter.rtAffection {
		return
	}
	switch b {
	case 0xFA:
		d.blockAck = true
		d.WriteCommand(0x0A)
	case 0xFB:
		d.blockAck = true
		d.WriteCommand(0x0B)
	case 0xFC:
		d.blockAck = true
		d.WriteCommand(0x0D)
	case 0xF2, 0xF3:
		d.blockAck = true
		d.WriteCommand(0xB8)
	}
}

// inputThru forwards msg to the outbound sink when midi_thru is active,
// tracking note state into the per-channel InputRef bitmap regardless of
// whether thru is enabled (NotesOff needs that bitmap even with thru off).
func (d *Device) inputThru(msg []byte, channel, message byte) {
	iref := &d.ref.inputRefs[channel]

	switch message {
	case 0x80:
		if len(msg) >= 2 {
			iref.keys.del(msg[1] & 0x7F)
		}
	case 0x90:
		if len(msg) >= 2 {
			key := msg[1] & 0x7F
			if len(msg) >= 3 && msg[2] == 0 {
				iref.keys.del(key)
			} else {
				iref.keys.set(key)
			}
		}
	}

	if !d.filter.allThru || !d.filter.midiThru || !d.midiThruQuirk || !iref.on {
		return
	}
	for _, b := range msg {
		d.sink.RawByte(b)
	}
}

// inputFilterAndRecord applies the per-category input filters and then
// appends a {delta, status, data1, data2} record-queue entry (§4.7).
func (d *Device) inputFilterAndRecord(msg []byte, channel, message byte) {
	switch message {
	case 0xE0:
		if !d.filter.benderIn {
			return
		}
	case 0xB0:
		if len(msg) >= 2 && msg[1] >= 120 && !d.filter.modeMsgsIn {
			return
		}
	case 0xC0:
		if !d.playing && len(msg) >= 2 {
			d.filter.prchgBuf[channel] = msg[1]
			d.filter.prchgMask |= 1 << channel
		}
	}

	delta := d.clock.recCounter
	d.clock.recCounter = 0
	d.recQueueBuffer([]byte{delta, msg[0], byteAt(msg, 1), byteAt(msg, 2)})
}

// InputSysex handles an inbound SysEx chunk (§4.7). abort reports a
// transport-level abort (e.g. a new status byte arrived mid-stream). The
// return value is the number of trailing bytes of data that did not fit
// in the record queue; InputRouter's caller is expected to retry them.
func (d *Device) InputSysex(data []byte, abort bool) int {
	if d.mode == ModeUART {
		for _, b := range data {
			d.hostQ.push(b)
		}
		return 0
	}
	if !d.cfg.ReceiveInput {
		return 0
	}

	if d.filter.sysexIn {
		if abort {
			d.sysexInFinished = true
			d.recQ.clear()
			return 0
		}
		if d.sysexInFinished {
			d.sysexInFinished = false
			d.clock.recCounter = 0
			d.recQ.push(msgEnd)
		}
		for i, b := range data {
			if d.recQ.full() {
				return len(data) - i
			}
			d.recQ.push(b)
			if b == msgEOX {
				d.sysexInFinished = true
				return 0
			}
		}
		return 0
	}

	if d.filter.sysexThru && d.filter.midiThru && d.midiThruQuirk {
		d.sink.RawByte(0xF0)
		for _, b := range data {
			d.sink.RawByte(b)
		}
	}
	return 0
}

func byteAt(b []byte, i int) byte {
	if i < len(b) {
		return b[i]
	}
	return 0
}
