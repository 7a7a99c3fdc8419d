package mpu401

import (
	"fmt"
	"io"
	"log"
	"time"
)

// I/O direction constants matching devices.IODirectionIn/Out by value —
// duck-typed rather than imported, so this package stays free of a
// dependency on its host integration.
const (
	ioDirectionIn  uint8 = 0
	ioDirectionOut uint8 = 1
)

// Mode selects between UART passthrough and the full intelligent-mode
// protocol engine (§3 Mode).
type Mode int

const (
	ModeUART Mode = iota
	ModeIntelligent
)

// RecState is the three-state recording state machine (§3 StateFlags.rec).
type RecState int

const (
	RecOff RecState = iota
	RecStb
	RecOn
)

// InterruptRaiser is the IRQ-signalling contract the device expects from
// whatever sits on the other end of its configured IRQ line. Declared
// locally (rather than importing the devices package) so this package has
// no dependency on its host integration; any devices.InterruptRaiser
// (PICDevice, etc.) satisfies it structurally.
type InterruptRaiser interface {
	RaiseIRQ(irqLine uint8)
	LowerIRQ(irqLine uint8)
}

// Device is the Roland MPU-401 intelligent-mode core: the two-port
// protocol engine described in spec.md. It runs as a single-threaded
// cooperative state machine (§5) — the host is responsible for
// serialising HandleIO/InputMsg/InputSysex/timer-callback invocations;
// Device deliberately holds no lock of its own.
type Device struct {
	cfg       Config
	irqLine   uint8
	irqRaiser InterruptRaiser
	sink      MidiSink
	scheduler TimerScheduler
	logger    *log.Logger

	eventTimer Timer
	eoiTimer   Timer
	resetTimer Timer

	// external IRQ override hooks (§"External IRQ override hook" in
	// SPEC_FULL, grounded on the original's mpu401_irq_attach).
	extIRQUpdate  func(set bool)
	extIRQPending func() bool

	pos *POSRegisters // non-nil only for the MCA variant

	mode        Mode
	intelligent bool // capability: can this device ever leave UART mode?

	// midiThruQuirk is the original's top-level mpu->midi_thru flag: a
	// documented firmware quirk that turns thru on after the very first
	// command-port write, distinct from filter.midiThru (toggled by
	// 0x88/0x89). Cleared on reset.
	midiThruQuirk bool

	filter filterState
	clock  clockState
	ref    referenceTables

	playbuf [8]trackBuffer
	condbuf trackBuffer

	hostQ hostQueue
	recQ  recordQueue

	// state flags (§3 StateFlags), kept as plain fields mirroring the
	// original's mpu->state.* layout.
	playing         bool
	clockToHost     bool
	rec             RecState
	resetInProgress bool
	cmdPending      int // 0 = none, else value+1
	wsd             bool
	wsm             bool
	wsdStart        bool
	condReq         bool
	condSet         bool
	conductor       bool
	dataOnOff       int8 // -1, 0, 1, 2
	track           uint8
	oldTrack        uint8
	trackReq        bool
	commandByte     byte
	sendNow         bool
	blockAck        bool
	eoiScheduled    bool
	sysexInFinished bool
	recCopy         bool
	irqPending      bool
	tmask           uint8
	amask           uint8
	cmask           uint8
	midiMask        uint16
	reqMask         uint16
	lastRtCmd       byte

	oldMsg byte // running-status memory for inbound MIDI (§4.7)

	// WSM (write-system-message) parse state, separate from the
	// TrackBuffer-based WSD/track/conductor parsers since a system
	// message is not addressed to any track.
	wsmLength    int
	wsmCount     int
	wsmStreaming bool
}

// NewDevice constructs a Device wired to irqRaiser and sink, scheduling
// its timers through scheduler. Panics if cfg fails Validate, matching
// the fail-fast posture of the teacher's constructors (e.g.
// devices.NewNE2000Device rejects a malformed MAC outright).
func NewDevice(cfg Config, irqRaiser InterruptRaiser, sink MidiSink, scheduler TimerScheduler, logger *log.Logger) *Device {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	d := &Device{
		cfg:         cfg,
		irqLine:     cfg.ResolvedIRQ(),
		irqRaiser:   irqRaiser,
		sink:        sink,
		scheduler:   scheduler,
		logger:      logger,
		intelligent: cfg.Intelligent,
	}
	if cfg.MCA {
		d.pos = NewPOSRegisters()
	}
	d.eventTimer = scheduler.NewTimer(d.onEventTick)
	d.eoiTimer = scheduler.NewTimer(d.onEOITimerFire)
	d.resetTimer = scheduler.NewTimer(d.onResetDone)
	d.Reset()
	return d
}

// AttachIRQ installs an external IRQ override, matching the original's
// mpu401_irq_attach: update(set) replaces the InterruptRaiser call, and
// pending() replaces the internal irq_pending flag for MPU401_IRQPending.
func (d *Device) AttachIRQ(update func(set bool), pending func() bool) {
	d.extIRQUpdate = update
	d.extIRQPending = pending
}

// POS exposes the MCA register block, or nil for non-MCA configurations.
func (d *Device) POS() *POSRegisters { return d.pos }

// Mode reports the current protocol mode.
func (d *Device) Mode() Mode { return d.mode }

func (d *Device) updateIRQ(set bool) {
	if d.extIRQUpdate != nil {
		d.extIRQUpdate(set)
		return
	}
	if d.irqRaiser == nil {
		return
	}
	if set {
		d.irqRaiser.RaiseIRQ(d.irqLine)
	} else {
		d.irqRaiser.LowerIRQ(d.irqLine)
	}
}

func (d *Device) irqIsPending() bool {
	if d.extIRQPending != nil {
		return d.extIRQPending()
	}
	return d.irqPending
}

// startClock arms the periodic tempo-driven event timer, but only while
// none of {playing, clock_to_host, rec==RecOn} already justify it (§5's
// lazy-enable rule).
func (d *Device) startClock() {
	if !d.playing && !d.clockToHost && d.rec != RecOn && !d.clock.active {
		d.clock.active = true
		d.eventTimer.SetDelay(time.Duration(d.clock.eventPeriodMicros()) * time.Microsecond)
	}
}

// stopClock mirrors the original's MPU401_StopClock verbatim, guard and
// all: callers invoke it with the relevant state flag still at its
// pre-transition value (§5), so in the common single-condition stop this
// guard does not fire and the timer is left ticking — onEventTick's own
// per-feature checks (playing/clock_to_host/rec) make that harmless. The
// timer is only ever unconditionally disabled on a full Reset or on
// entering UART mode (0x3F).
func (d *Device) stopClock() {
	if d.playing && !d.clockToHost && d.rec == RecOn {
		d.clock.active = false
		d.eventTimer.Disable()
	}
}

// queueByte is the single choke point for pushing a byte to the host
// queue (§4.6 MPU401_QueueByte / §3 HostQueue). It applies the
// block_ack reentrancy guard, raises the pending-IRQ/IRQ line on a
// first-byte insertion in intelligent mode, and logs (never panics on)
// ordinary overflow.
func (d *Device) queueByte(b byte) {
	if d.blockAck {
		d.blockAck = false
		return
	}
	stored, wasEmpty := d.hostQ.push(b)
	if wasEmpty && d.mode == ModeIntelligent {
		d.irqPending = true
		d.updateIRQ(true)
	}
	if !stored {
		d.logger.Printf("mpu401: host queue full, dropping byte 0x%02x", b)
	}
}

// recQueueBuffer appends buf to the record queue (§3 RecordQueue,
// grounded on MPU401_RecQueueBuffer), stopping early if a SysEx EOX byte
// completes an in-progress SysEx. When the host queue is empty and no
// IRQ is already pending, it eagerly copies the first queued byte across
// into the host queue (the "rec_copy" path §4.1 relies on to drain into
// PortSurface reads).
func (d *Device) recQueueBuffer(buf []byte) {
	for _, b := range buf {
		if !d.recQ.push(b) {
			break
		}
		if !d.sysexInFinished && b == msgEOX {
			d.sysexInFinished = true
			break
		}
	}
	if d.hostQ.empty() {
		if d.recCopy || d.irqIsPending() {
			return
		}
		d.recCopy = true
		b := d.recQ.peek()
		d.recQ.advance()
		d.queueByte(b)
	}
}

// clrQueue drops both queues and marks any in-flight SysEx finished
// (§4.2 command 0x08 "Start" / MPU401_ClrQueue).
func (d *Device) clrQueue() {
	d.hostQ.clear()
	d.recQ.clear()
	d.sysexInFinished = true
}

// readStatus implements the status-port read of §4.1.
func (d *Device) readStatus() byte {
	ret := statusLowBits
	if d.cmdPending != 0 {
		ret |= statusCmdPending
	}
	if d.hostQ.empty() {
		ret |= statusRxEmpty
	}
	return ret
}

// Reset restores power-on/reset defaults (§4.6 MPU401_Reset), arming the
// device into intelligent mode (subject to capability) with default
// tempo/timebase/metronome values per §8's round-trip property.
func (d *Device) Reset() {
	d.sink.Reset()
	d.sink.ClearBuffer()
	for ch := uint8(0xB0); ch <= 0xBF; ch++ {
		d.sink.RawByte(ch)
		d.sink.RawByte(0x7B)
		d.sink.RawByte(0)
	}
	d.updateIRQ(false)

	d.mode = ModeIntelligent
	if !d.intelligent {
		// UART-only capability: stays locked to UART even across reset,
		// per the original's SB16/AWE32 "reduced capability" comment.
		d.mode = ModeUART
	}
	d.clock.active = false
	d.eventTimer.Disable()
	d.eoiTimer.Disable()
	d.eoiScheduled = false
	d.wsd = false
	d.wsm = false
	d.conductor = false
	d.condReq = false
	d.condSet = false
	d.playing = false
	d.irqPending = false
	d.midiThruQuirk = false
	d.rec = RecOff
	d.cmask = 0xFF
	d.amask = 0
	d.tmask = 0
	d.midiMask = 0xFFFF
	d.dataOnOff = -1
	d.commandByte = 0
	d.blockAck = false

	d.clock.reset()
	d.clockToHost = false

	d.clrQueue()
	d.reqMask = 0
	d.condbuf = trackBuffer{kind: bufOverflow}
	d.lastRtCmd = 0

	for i := range d.playbuf {
		d.playbuf[i] = trackBuffer{kind: bufOverflow}
	}

	d.filter.reset()
	d.ref.reset()
}

// onResetDone fires resetBusyMicros after 0xFF was written, replaying any
// command that arrived mid-reset (§5 reset-collision guarantee).
func (d *Device) onResetDone() {
	d.resetInProgress = false
	if d.cmdPending != 0 {
		val := byte(d.cmdPending - 1)
		d.cmdPending = 0
		d.WriteCommand(val)
	}
}

// HandleIO implements devices.PioDevice (structurally — this package does
// not import devices to avoid a cycle with the device that embeds it).
// Port address bit 0 selects data (0) vs command/status (1), per §4.1.
func (d *Device) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	if size != 1 {
		return fmt.Errorf("mpu401: I/O size %d not supported on port 0x%x", size, port)
	}
	isCommand := port&1 == 1

	switch direction {
	case ioDirectionOut:
		if isCommand {
			d.WriteCommand(data[0])
		} else {
			d.WriteData(data[0])
		}
		return nil
	case ioDirectionIn:
		if isCommand {
			data[0] = d.readStatus()
		} else {
			data[0] = d.readDataPort()
		}
		return nil
	default:
		return fmt.Errorf("mpu401: unknown I/O direction %d on port 0x%x", direction, port)
	}
}

// readDataPort implements the data-port read half of PortSurface (§4.1).
func (d *Device) readDataPort() byte {
	b, ok := d.hostQ.pop()
	if !ok {
		b = msgACK
	}

	if d.mode == ModeIntelligent {
		if d.recCopy && d.recQ.empty() {
			d.recCopy = false
			d.eoiHandler()
		}

		switch {
		case b >= msgDataReqFirst && b <= msgDataReqLast:
			d.track = b & 0x07
			d.dataOnOff = 0
			d.condReq = false
		case b == msgCommandReq:
			d.condReq = true
			d.dataOnOff = 0
			if d.condbuf.kind != bufOverflow {
				// synthesise the conductor's pending command; block_ack
				// suppresses the ACK this internal write would otherwise
				// queue back to the host.
				d.blockAck = true
				cmd := d.condbuf.value[0]
				d.WriteCommand(cmd)
				if cmd&0xF0 == 0xE0 {
					d.WriteData(d.condbuf.value[1])
				}
			}
		case b == msgEnd, b == msgClock, b == msgACK:
			d.dataOnOff = -1
			d.eoiHandler()
		}
	}

	return b
}
