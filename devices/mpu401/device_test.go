package mpu401_test

import (
	"testing"

	"core_engine/devices/mpu401"
)

func TestNewDeviceDefaultsToIntelligentMode(t *testing.T) {
	dev, _, _, _ := newTestDevice(defaultConfig())

	if dev.Mode() != mpu401.ModeIntelligent {
		t.Fatalf("expected ModeIntelligent after construction, got %v", dev.Mode())
	}
	if dev.POS() != nil {
		t.Fatalf("expected nil POS for a non-MCA config")
	}
}

func TestUARTOnlyCapabilityStaysLockedAcrossReset(t *testing.T) {
	cfg := defaultConfig()
	cfg.Intelligent = false
	dev, _, _, _ := newTestDevice(cfg)

	if dev.Mode() != mpu401.ModeUART {
		t.Fatalf("expected ModeUART for a non-intelligent-capable device, got %v", dev.Mode())
	}

	// Non-0xFF/0x3F commands are refused outright on a capability-locked
	// device; the status port must still read as an empty host queue.
	writeCommand(dev, 0x94)
	if status := readStatus(dev); status&0x80 == 0 {
		t.Fatalf("expected RxEmpty bit set after a refused command, got status 0x%02x", status)
	}

	writeCommand(dev, 0xFF)
	if dev.Mode() != mpu401.ModeUART {
		t.Fatalf("expected ModeUART to survive reset on a capability-locked device, got %v", dev.Mode())
	}
}

func TestResetDataPortReadsACKWhenQueueEmpty(t *testing.T) {
	dev, _, _, _ := newTestDevice(defaultConfig())

	if b := readData(dev); b != 0xFE {
		t.Fatalf("expected ACK (0xFE) from an empty host queue, got 0x%02x", b)
	}
}

func TestEveryDispatchedCommandEventuallyQueuesAnACK(t *testing.T) {
	dev, _, _, _ := newTestDevice(defaultConfig())

	// 0x00 is inert within the sequencer family (no realtime echo,
	// no play/rec transition bits set) and so falls through to the
	// default single ACK.
	writeCommand(dev, 0x00)
	if b := readData(dev); b != 0xFE {
		t.Fatalf("expected command 0x00 to queue a single ACK, got 0x%02x", b)
	}
	if b := readData(dev); b != 0xFE {
		t.Fatalf("expected the host queue to be empty after draining the ACK, got 0x%02x", b)
	}
}

func TestUnknownCommandOpcodeStillQueuesACK(t *testing.T) {
	dev, _, _, _ := newTestDevice(defaultConfig())

	// 0x38 falls outside every documented opcode family (§7: unknown
	// command opcodes are silently ACKed).
	writeCommand(dev, 0x38)
	if b := readData(dev); b != 0xFE {
		t.Fatalf("expected unknown opcode 0x38 to still ACK, got 0x%02x", b)
	}
}

func TestVersionAndRevisionQueryRoundTrip(t *testing.T) {
	dev, _, _, _ := newTestDevice(defaultConfig())

	writeCommand(dev, 0xAC) // version query
	if b := readData(dev); b != 0xFE {
		t.Fatalf("expected ACK before version byte, got 0x%02x", b)
	}
	if b := readData(dev); b != 0x15 {
		t.Fatalf("expected version 0x15, got 0x%02x", b)
	}

	writeCommand(dev, 0xAD) // revision query
	if b := readData(dev); b != 0xFE {
		t.Fatalf("expected ACK before revision byte, got 0x%02x", b)
	}
	if b := readData(dev); b != 0x01 {
		t.Fatalf("expected revision 0x01, got 0x%02x", b)
	}
}

func TestTempoQueryReturnsResetDefault(t *testing.T) {
	dev, _, _, _ := newTestDevice(defaultConfig())

	writeCommand(dev, 0xAF) // tempo query
	readData(dev)           // ACK
	if b := readData(dev); b != 100 {
		t.Fatalf("expected reset-default tempo 100, got %d", b)
	}
}

func TestHostQueueOverflowDropsBytesWithoutError(t *testing.T) {
	dev, _, _, _ := newTestDevice(defaultConfig())

	// Queue capacity is 32; push far more ACKs than that by repeatedly
	// dispatching the inert 0x00 command, and confirm no HandleIO call
	// ever reports an error even once the queue is saturated.
	for i := 0; i < 64; i++ {
		if err := writeCommand(dev, 0x00); err != nil {
			t.Fatalf("unexpected error from HandleIO on write %d: %v", i, err)
		}
	}
}

func TestIRQRaisedOnFirstQueuedByteInIntelligentMode(t *testing.T) {
	dev, raiser, _, _ := newTestDevice(defaultConfig())

	if raiser.raisedCount() != 0 {
		t.Fatalf("expected no IRQ before any command, got %d raises", raiser.raisedCount())
	}
	writeCommand(dev, 0x00)
	if raiser.raisedCount() != 1 {
		t.Fatalf("expected exactly one IRQ raise for the first queued ACK, got %d", raiser.raisedCount())
	}
}

func TestResetClearsOutstandingIRQAndSinkState(t *testing.T) {
	dev, raiser, sink, _ := newTestDevice(defaultConfig())

	writeCommand(dev, 0x00) // queues an ACK, raises IRQ
	if raiser.raisedCount() == 0 {
		t.Fatalf("expected an IRQ raise to set up this test")
	}
	beforeLowered := raiser.loweredCount()

	writeCommand(dev, 0xFF) // reset
	if raiser.loweredCount() <= beforeLowered {
		t.Fatalf("expected reset to lower the IRQ line")
	}
	if sink.resetCount < 2 { // once at construction, once at this reset
		t.Fatalf("expected sink.Reset to be called at least twice, got %d", sink.resetCount)
	}
	if b := readData(dev); b != 0xFE {
		t.Fatalf("expected an empty host queue after reset, got 0x%02x", b)
	}
}

func TestFilterTogglePairsAreIdempotentAndIndependent(t *testing.T) {
	dev, _, sink, _ := newTestDevice(defaultConfig())

	// 0x86/0x87 toggle bender_in; observe its effect indirectly by
	// checking that a pitch-bend input message only reaches the record
	// path (not directly observable here) without affecting thru output,
	// which stays gated purely by midi_thru/all_thru regardless of
	// bender_in's value. The toggle pair itself must simply accept
	// repeated writes without side effects bleeding into unrelated state.
	writeCommand(dev, 0x86)
	writeCommand(dev, 0x86) // idempotent: setting the same state twice
	writeCommand(dev, 0x87)
	writeCommand(dev, 0x87)

	// 0x88/0x89 toggle midi_thru; confirm thru actually stops and starts.
	writeCommand(dev, 0x89) // midi_thru on (setMidiThruFilter default already on post-reset)
	base := len(sink.rawBytes()) // construction Reset's all-notes-off bytes
	dev.InputMsg([]byte{0x90, 0x40, 0x40})
	if len(sink.rawBytes()) == base {
		t.Fatalf("expected thru output while midi_thru is on")
	}

	writeCommand(dev, 0x88) // midi_thru off
	before := len(sink.rawBytes())
	dev.InputMsg([]byte{0x90, 0x41, 0x40})
	if len(sink.rawBytes()) != before {
		t.Fatalf("expected no new thru output while midi_thru is off")
	}
}
