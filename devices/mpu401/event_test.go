package mpu401_test

import "testing"

// attachAlwaysClearIRQ overrides the pending hook to report "never
// pending", mirroring a host integration whose real interrupt controller
// has already serviced the line — letting the periodic engine proceed
// past its irq_pending gate regardless of how many bytes were queued.
func attachAlwaysClearIRQ(dev interface {
	AttachIRQ(update func(set bool), pending func() bool)
}) *[]bool {
	sets := &[]bool{}
	dev.AttachIRQ(func(set bool) { *sets = append(*sets, set) }, func() bool { return false })
	return sets
}

func TestClockToHostTicksSetRequestBitAfterFullCycle(t *testing.T) {
	dev, _, _, sched := newTestDevice(defaultConfig())
	attachAlwaysClearIRQ(dev)

	writeCommand(dev, 0x95) // clock-to-host on, starts the periodic timer
	readData(dev)           // drain the ACK the command queued

	// cth_rate defaults to 60 in every phase (clock.reset()); after 60
	// ticks cth_counter wraps and req_mask bit 13 is requested. send_now
	// is clear (it only ever gets set by the track-parse counter=0 case),
	// so eoiHandler defers the dispatch to the EOI one-shot.
	for i := 0; i < 60; i++ {
		sched.event().fire()
	}
	// reading the ACK above already scheduled a deferred EOI dispatch (it
	// consumed the msgACK marker, which also triggers eoiHandler); fire
	// that one-shot to flush the now-pending clock-to-host request bit.
	sched.eoi().fire()

	if b := readData(dev); b != 0xF0+13 {
		t.Fatalf("expected clock-to-host request marker 0xFD, got 0x%02x", b)
	}
}

func TestMeasureRealtimePulseFiresDuringPlayback(t *testing.T) {
	dev, _, sink, sched := newTestDevice(defaultConfig())
	attachAlwaysClearIRQ(dev)

	writeCommand(dev, 0x08) // start playback (bits 2-3 = 0x08)
	readData(dev)           // drain ACK

	// max_meascnt = timebase(120) * midimetro(12) * metromeas(8) / 24 = 480.
	for i := 0; i < 480; i++ {
		sched.event().fire()
	}

	found := false
	for _, b := range sink.realtime {
		if b == 0xF8 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a realtime 0xF8 measure pulse, got realtime bytes %v", sink.realtime)
	}
}

func TestEventTimerReschedulesWhileClockActive(t *testing.T) {
	dev, _, _, sched := newTestDevice(defaultConfig())
	attachAlwaysClearIRQ(dev)

	writeCommand(dev, 0x95)
	readData(dev)

	before := sched.event().delay
	sched.event().fire()
	after := sched.event().delay
	if before == 0 || after == 0 {
		t.Fatalf("expected the event timer to stay armed with a nonzero period, got before=%v after=%v", before, after)
	}
}
