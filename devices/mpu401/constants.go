// Package mpu401 emulates the Roland MPU-401 intelligent-mode protocol
// engine: the command/data port pair, the track/conductor parsers, the
// periodic tempo clock, and the MIDI thru/record routing that sits on
// top of a raw two-port I/O range.
package mpu401

// Wire bytes the device sends to the host (§6).
const (
	msgACK          byte = 0xFE
	msgEnd          byte = 0xFF
	msgClock        byte = 0xF8
	msgCommandReq   byte = 0xF9
	msgDataReqFirst byte = 0xF0 // data-request markers span 0xF0..0xF7 (track n = byte&7)
	msgDataReqLast  byte = 0xF7
	msgEOX          byte = 0xF7
)

// Status port bits (§4.1).
const (
	statusCmdPending byte = 0x40
	statusRxEmpty    byte = 0x80
	statusLowBits    byte = 0x3F
)

// Version/revision returned by 0xAC/0xAD, matching the original's
// MPU401_VERSION/MPU401_REVISION constants.
const (
	deviceVersion  byte = 0x15
	deviceRevision byte = 0x01
)

// Queue capacities (§3).
const (
	hostQueueCapacity   = 32
	recordQueueCapacity = 1024
)

// req_mask bit assignments used by the EOI handler (§4.6/§8 glossary).
const (
	reqBitRecording  = 8
	reqBitConductor  = 9
	reqBitMeasure    = 12
	reqBitClockHost  = 13
)

// TIMECONSTANT ~= 60,000,000 / 24 microseconds, the 24-PPQN metronome
// base the tempo clock derives its tick period from (§4.6).
const timeConstant = 60_000_000 / 24

// mpuClockBase is the seven-entry timebase table selected by 0xC2..0xC8.
var mpuClockBase = [7]uint16{48, 72, 96, 120, 144, 168, 192}

// cthDataTable is the four-phase clock-to-host adjustment table used by
// the 0xE7 command-byte-continuation handler.
var cthDataTable = [16]uint8{0, 0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 0, 1, 1, 1, 0}

// recTimeout is the MPU "timeout" value for the recording counter (§4.6 step 5).
const recTimeout = 240

// resetBusyMicros is the width of the reset window armed by 0xFF.
const resetBusyMicros = 14

// eoiDeferMicros is the EOI handler's deferred-dispatch delay when send_now is set.
const eoiDeferMicros = 60
