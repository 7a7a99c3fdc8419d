package mpu401_test

import "testing"

func TestWriteSystemDataRoundTripsANoteOn(t *testing.T) {
	dev, _, sink, _ := newTestDevice(defaultConfig())
	base := len(sink.rawBytes()) // construction Reset's all-notes-off bytes

	writeCommand(dev, 0xD0) // begin WSD addressed at track 0
	if b := readData(dev); b != 0xFE {
		t.Fatalf("expected the WSD-begin command to ACK, got 0x%02x", b)
	}

	writeData(dev, 0x90) // note-on channel 0
	writeData(dev, 0x40) // key
	writeData(dev, 0x7F) // velocity

	got := sink.rawBytes()[base:]
	want := []byte{0x90, 0x40, 0x7F}
	if len(got) != len(want) {
		t.Fatalf("expected %v on the outbound sink, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v on the outbound sink, got %v", want, got)
		}
	}
}

func TestWriteSystemDataRetriggersAHeldNote(t *testing.T) {
	dev, _, sink, _ := newTestDevice(defaultConfig())

	sendNoteOn := func(key byte) {
		writeCommand(dev, 0xD0)
		readData(dev) // drain ACK
		writeData(dev, 0x90)
		writeData(dev, key)
		writeData(dev, 0x7F)
	}

	sendNoteOn(0x40)
	before := len(sink.rawBytes())
	sendNoteOn(0x40) // same key still held: must retrigger with an off first

	got := sink.rawBytes()[before:]
	want := []byte{0x80, 0x40, 0x00, 0x90, 0x40, 0x7F}
	if len(got) != len(want) {
		t.Fatalf("expected a retrigger off+on sequence %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected a retrigger off+on sequence %v, got %v", want, got)
		}
	}
}

func TestWriteSystemDataIllegalFirstByteAbortsSilently(t *testing.T) {
	dev, _, sink, _ := newTestDevice(defaultConfig())
	base := len(sink.rawBytes()) // construction Reset's all-notes-off bytes

	writeCommand(dev, 0xD0)
	readData(dev) // ACK

	writeData(dev, 0xF5) // illegal WSD first byte (0xF0 family)
	if len(sink.rawBytes()) != base {
		t.Fatalf("expected no sink output from an illegal WSD message, got %v", sink.rawBytes()[base:])
	}

	// the device must have silently restored track/wsd state rather than
	// getting stuck waiting for more WSD bytes: a fresh WSD begin/note-on
	// still round-trips normally.
	writeCommand(dev, 0xD0)
	readData(dev)
	writeData(dev, 0x90)
	writeData(dev, 0x41)
	writeData(dev, 0x60)
	if len(sink.rawBytes()) != base+3 {
		t.Fatalf("expected the device to recover and accept a new WSD message, got %v", sink.rawBytes()[base:])
	}
}

func TestWriteSystemMessageStreamsSysexUntilHighBit(t *testing.T) {
	dev, _, sink, _ := newTestDevice(defaultConfig())
	base := len(sink.rawBytes()) // construction Reset's all-notes-off bytes

	writeCommand(dev, 0xDF) // begin WSM
	readData(dev)           // ACK

	writeData(dev, 0xF0) // streaming sysex start
	writeData(dev, 0x41)
	writeData(dev, 0x10)
	writeData(dev, 0xF7) // high bit set: ends the message, EOX appended

	got := sink.rawBytes()[base:]
	want := []byte{0xF0, 0x41, 0x10, 0xF7, 0xF7}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
