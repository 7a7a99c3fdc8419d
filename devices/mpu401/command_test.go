package mpu401_test

import "testing"

func TestSequencerRealtimeEchoBitsForwardToSink(t *testing.T) {
	cases := []struct {
		val  byte
		want byte
	}{
		{0x01, 0xFC},
		{0x02, 0xFA},
		{0x03, 0xFB},
	}
	for _, c := range cases {
		dev, _, sink, _ := newTestDevice(defaultConfig())
		writeCommand(dev, c.val)
		got := sink.realtime
		if len(got) != 1 || got[0] != c.want {
			t.Fatalf("command 0x%02x: expected realtime byte 0x%02x, got %v", c.val, c.want, got)
		}
	}
}

func TestRecordStopQueuesAckCounterEndPacket(t *testing.T) {
	dev, _, _, _ := newTestDevice(defaultConfig())

	writeCommand(dev, 0x20) // start recording first so the stop has something to report
	readData(dev)           // drain its ACK

	writeCommand(dev, 0x10) // stop recording
	if b := readData(dev); b != 0xFE {
		t.Fatalf("expected ACK as the first byte of the record-stop packet, got 0x%02x", b)
	}
	readData(dev) // rec counter value, unconstrained
	if b := readData(dev); b != 0xFF {
		t.Fatalf("expected END (0xFF) marker closing the record-stop packet, got 0x%02x", b)
	}
}

func TestReferenceChannelAssignmentRemapsPriorSlot(t *testing.T) {
	dev, _, sink, _ := newTestDevice(defaultConfig())
	base := len(sink.rawBytes()) // construction Reset's all-notes-off bytes

	// 0x40 assigns reference slot 0 to channel 5; channel 5 starts out
	// mapped to the dummy slot 4 (reset default for channels > 3), so this
	// should be the only remap of channel 5.
	writeCommand(dev, 0x45) // slot 0 (0x40 + (0>>4 implied)), channel 5
	readData(dev)

	// a note-on on channel 5 now tracks its key in slot 0's bitmap: send it
	// twice and expect the second to be preceded by a synthesised note-off.
	writeCommand(dev, 0xD0)
	readData(dev)
	writeData(dev, 0x95) // note-on channel 5
	writeData(dev, 0x30)
	writeData(dev, 0x70)

	writeCommand(dev, 0xD0)
	readData(dev)
	writeData(dev, 0x95)
	writeData(dev, 0x30)
	writeData(dev, 0x70)

	got := sink.rawBytes()[base:]
	want := []byte{0x95, 0x30, 0x70, 0x85, 0x30, 0x00, 0x95, 0x30, 0x70}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestFilterToggleFamilyAcceptsEveryDocumentedOpcode(t *testing.T) {
	dev, _, _, _ := newTestDevice(defaultConfig())
	for val := byte(0x30); val <= 0x37; val++ {
		if err := writeCommand(dev, val); err != nil {
			t.Fatalf("unexpected error writing filter-toggle opcode 0x%02x: %v", val, err)
		}
		if b := readData(dev); b != 0xFE {
			t.Fatalf("expected filter-toggle opcode 0x%02x to ACK, got 0x%02x", val, b)
		}
	}
}

func TestClearPlayCountersRaisesIRQAndQueuesSingleACK(t *testing.T) {
	dev, raiser, _, _ := newTestDevice(defaultConfig())

	before := raiser.raisedCount()
	writeCommand(dev, 0xB8)
	if raiser.raisedCount() <= before {
		t.Fatalf("expected 0xB8 to raise an IRQ via clearPlayCounters, got count %d (was %d)", raiser.raisedCount(), before)
	}
	if b := readData(dev); b != 0xFE {
		t.Fatalf("expected the ordinary single ACK for 0xB8, got 0x%02x", b)
	}
}

func TestModeCannotLeaveUARTWithoutFullReset(t *testing.T) {
	dev, _, _, _ := newTestDevice(defaultConfig())

	writeCommand(dev, 0x3F) // enter UART mode
	readData(dev)           // ACK

	// non-0xFF writes while in UART mode are ignored outright, per
	// WriteCommand's mode gate.
	writeCommand(dev, 0x94)
	if b := readData(dev); b != 0xFE {
		t.Fatalf("expected no queued byte from a command ignored in UART mode, got 0x%02x", b)
	}
}
