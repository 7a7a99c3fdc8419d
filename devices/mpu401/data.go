package mpu401

// WriteData is the data-port write half of PortSurface (§4.1/§4.3).
func (d *Device) WriteData(b byte) {
	if d.mode == ModeUART {
		if b == msgEnd {
			d.sink.Reset()
		}
		d.sink.RawByte(b)
		return
	}

	if d.commandByte != 0 {
		cb := d.commandByte
		d.commandByte = 0
		d.applyCommandByteArg(cb, b)
		return
	}

	if d.wsd {
		d.handleWSD(b)
		return
	}
	if d.wsm {
		d.handleWSM(b)
		return
	}
	if d.condReq {
		d.handleConductorParse(b)
		return
	}
	d.handleTrackParse(b)
}

func (d *Device) applyCommandByteArg(cb, operand byte) {
	switch cb {
	case 0xE0:
		d.clock.tempo = clampTempo(operand)
	case 0xE1:
		d.clock.tempoRel = operand
	case 0xE2:
		d.clock.tempoGrad = operand
	case 0xE4:
		d.clock.midiMetro = operand
	case 0xE6:
		d.clock.metroMeas = operand
	case 0xE7:
		if operand == 0 {
			operand = 64
		}
		base := operand >> 2
		for i := 0; i < 4; i++ {
			d.clock.cthRate[i] = base + cthDataTable[(int(operand&3)<<2)+i]
		}
		d.clock.cthMode = 0
	case 0xEC:
		d.tmask = operand
	case 0xED:
		d.cmask = operand
	case 0xEE:
		d.midiMask = (d.midiMask &^ 0x00FF) | uint16(operand)
	case 0xEF:
		d.midiMask = (d.midiMask &^ 0xFF00) | (uint16(operand) << 8)
	}
}

// handleWSD implements the write-system-data submode: a single direct MIDI
// message addressed at d.track, buffered in that track's TrackBuffer and
// dispatched through IntelligentOut once complete.
func (d *Device) handleWSD(b byte) {
	buf := &d.playbuf[d.track]

	if d.wsdStart {
		d.wsdStart = false
		if b < 0x80 {
			// running-status continuation: value[0] keeps the previous
			// status byte and length, whatever they were.
			buf.value[1] = b
			buf.vlength = 2
		} else {
			switch b & 0xF0 {
			case 0xC0, 0xD0:
				buf.length = 2
			case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
				buf.length = 3
			default:
				// illegal WSD first byte (0xF0 family): log, restore
				// track, abort silently, no ACK.
				d.logger.Printf("mpu401: illegal WSD first byte 0x%02x", b)
				d.wsd = false
				d.track = d.oldTrack
				return
			}
			buf.kind = bufMidiNorm
			buf.value[0] = b
			buf.vlength = 1
		}
		if buf.vlength >= buf.length {
			d.dispatchWSD(buf)
		}
		return
	}

	buf.value[buf.vlength] = b
	buf.vlength++
	if buf.vlength >= buf.length {
		d.dispatchWSD(buf)
	}
}

func (d *Device) dispatchWSD(buf *trackBuffer) {
	d.intelligentOut(buf)
	d.wsd = false
	d.track = d.oldTrack
}

// handleWSM implements the write-system-message submode: a fixed-length
// system common message or a streamed SysEx, passed through to the sink
// byte by byte.
func (d *Device) handleWSM(b byte) {
	if d.wsdStart {
		d.wsdStart = false
		d.sink.RawByte(b)
		switch b {
		case 0xF2:
			d.wsmLength, d.wsmStreaming = 3, false
		case 0xF3:
			d.wsmLength, d.wsmStreaming = 2, false
		case 0xF6:
			d.wsmLength, d.wsmStreaming = 1, false
		default:
			d.wsmLength, d.wsmStreaming = 0, true
		}
		d.wsmCount = 1
		if !d.wsmStreaming && d.wsmCount >= d.wsmLength {
			d.wsm = false
		}
		return
	}

	d.sink.RawByte(b)
	d.wsmCount++

	if d.wsmStreaming {
		if b&0x80 != 0 {
			d.sink.RawByte(msgEOX)
			d.wsm = false
		}
		return
	}
	if d.wsmCount >= d.wsmLength {
		d.wsm = false
	}
}

// handleConductorParse implements the three-state conductor-track parser
// that runs while cond_req is set (§4.3 step 4).
func (d *Device) handleConductorParse(b byte) {
	switch d.dataOnOff {
	case 0:
		if b >= 0xF0 {
			d.finishConductorParse()
			return
		}
		d.condbuf.counter = b
		d.dataOnOff = 1
	case 1:
		if b == 0xF8 || b == 0xF9 || b == 0xFC {
			d.condbuf.kind = bufOverflow
			d.finishConductorParse()
			return
		}
		d.condbuf.kind = bufMark
		d.condbuf.value[0] = b
		if b&0xF0 == 0xE0 {
			d.dataOnOff = 2
			return
		}
		d.finishConductorParse()
	case 2:
		d.condbuf.value[1] = b
		d.finishConductorParse()
	}
}

func (d *Device) finishConductorParse() {
	d.dataOnOff = -1
	d.condReq = false
	d.eoiHandler()
}

// handleTrackParse implements the three-state parser for the currently
// addressed play track (§4.3 step 5, default submode).
func (d *Device) handleTrackParse(b byte) {
	buf := &d.playbuf[d.track]

	switch d.dataOnOff {
	case 0:
		buf.counter = b
		if b == 0 {
			d.sendNow = true
		}
		d.dataOnOff = 1
	case 1:
		d.trackParseBody(buf, b)
	}
}

func (d *Device) trackParseBody(buf *trackBuffer, b byte) {
	if buf.vlength == 0 && b >= 0xF8 {
		if b == 0xF9 {
			d.clock.measureCounter = 0
		}
		if b == 0xF8 || b == 0xF9 || b == 0xFC {
			buf.kind = bufMark
		} else {
			buf.kind = bufOverflow
		}
		buf.sysVal = b
		d.finishTrackParse()
		return
	}

	if buf.vlength == 0 && b < 0x80 {
		buf.kind = bufMidiNorm
		buf.value[1] = b
		buf.vlength = 2
		if buf.vlength >= buf.length {
			d.finishTrackParse()
		}
		return
	}

	if buf.vlength == 0 {
		buf.kind = bufMidiNorm
		buf.value[0] = b
		buf.vlength = 1
		switch b & 0xF0 {
		case 0xC0, 0xD0:
			buf.length = 2
		default:
			buf.length = 3
		}
		if buf.vlength >= buf.length {
			d.finishTrackParse()
		}
		return
	}

	buf.value[buf.vlength] = b
	buf.vlength++
	if buf.vlength >= buf.length {
		d.finishTrackParse()
	}
}

func (d *Device) finishTrackParse() {
	d.dataOnOff = -1
}
