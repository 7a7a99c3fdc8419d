package mpu401_test

import "testing"

func TestInputThruForwardsWhenEnabled(t *testing.T) {
	dev, _, sink, _ := newTestDevice(defaultConfig())
	base := len(sink.rawBytes()) // construction Reset's all-notes-off bytes
	writeCommand(dev, 0x00)      // the midi_thru power-on quirk only engages after
	readData(dev)                // the first command-port write; drain its ACK

	dev.InputMsg([]byte{0x91, 0x3C, 0x60}) // note-on channel 1

	got := sink.rawBytes()[base:]
	want := []byte{0x91, 0x3C, 0x60}
	if len(got) != len(want) {
		t.Fatalf("expected thru forward %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected thru forward %v, got %v", want, got)
		}
	}
}

func TestInputThruSuppressedWhenMidiThruOff(t *testing.T) {
	dev, _, sink, _ := newTestDevice(defaultConfig())
	base := len(sink.rawBytes()) // construction Reset's all-notes-off bytes
	writeCommand(dev, 0x88)      // midi_thru off; also engages the power-on quirk
	readData(dev)

	dev.InputMsg([]byte{0x91, 0x3C, 0x60})
	if len(sink.rawBytes()) != base {
		t.Fatalf("expected no thru output with midi_thru off, got %v", sink.rawBytes()[base:])
	}
}

func TestInputRealtimeByteNotEchoedUnlessRtInIsSet(t *testing.T) {
	dev, _, sink, _ := newTestDevice(defaultConfig())

	dev.InputMsg([]byte{0xF8}) // realtime clock byte, rt_in off by reset default
	if len(sink.realtime) != 0 {
		t.Fatalf("expected no realtime echo with rt_in off, got %v", sink.realtime)
	}

	writeCommand(dev, 0x37) // commandFilterToggle sets rt_in
	dev.InputMsg([]byte{0xF8})
	if len(sink.realtime) != 1 || sink.realtime[0] != 0xF8 {
		t.Fatalf("expected a single realtime echo once rt_in is set, got %v", sink.realtime)
	}
}

func TestInputRealtimeStartSynthesisesPlaybackStart(t *testing.T) {
	dev, _, _, sched := newTestDevice(defaultConfig())

	dev.InputMsg([]byte{0xFA}) // MIDI Start, rt_affection defaults on

	// rt_affection synthesises WriteCommand(0x0A), whose 0x08 playback-start
	// bit arms the tempo clock; the event timer only gets a nonzero delay
	// once startClock actually runs.
	if sched.event().delay == 0 {
		t.Fatalf("expected the synthesised playback-start command to arm the event timer")
	}
}

func TestInputProgramChangeReplaysOnceRecordingArmsOn(t *testing.T) {
	dev, _, sink, _ := newTestDevice(defaultConfig())
	base := len(sink.rawBytes()) // construction Reset's all-notes-off bytes
	writeCommand(dev, 0x00)
	readData(dev)

	dev.InputMsg([]byte{0xC3, 0x07}) // program change, channel 3, program 7

	// midi_thru forwards it live regardless of the buffering below; the
	// buffer exists so the SAME program change can be resent once
	// recording actually starts capturing, independent of this live copy.
	afterThru := len(sink.rawBytes())
	if afterThru != base+2 {
		t.Fatalf("expected the live thru copy [0xC3 0x07], got %v", sink.rawBytes()[base:])
	}

	// a realtime Continue (0xFA) primes last_rtcmd; only then does the
	// recording-start command (0x20) actually arm RecOn and replay every
	// buffered program change. A bare 0x20 with no such priming only
	// parks recording in the standby state and replays nothing.
	writeCommand(dev, 0x02) // realtime echo bits (val&3==2) -> last_rtcmd = 0xFA
	readData(dev)

	writeCommand(dev, 0x20) // recording start
	got := sink.rawBytes()[afterThru:]
	want := []byte{0xC3, 0x07}
	if len(got) != len(want) {
		t.Fatalf("expected the buffered program change %v to replay once recording reaches RecOn, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected the buffered program change %v to replay once recording reaches RecOn, got %v", want, got)
		}
	}
}

func TestInputSysexThruRequiresSysexThruFilter(t *testing.T) {
	dev, _, sink, _ := newTestDevice(defaultConfig())
	base := len(sink.rawBytes()) // construction Reset's all-notes-off bytes
	writeCommand(dev, 0x00)      // engage the midi_thru power-on quirk
	readData(dev)

	n := dev.InputSysex([]byte{0x41, 0x10}, false)
	if n != 0 {
		t.Fatalf("expected InputSysex to report 0 unconsumed bytes, got %d", n)
	}
	if len(sink.rawBytes()) != base {
		t.Fatalf("expected no sysex thru output with sysex_thru off by default, got %v", sink.rawBytes()[base:])
	}

	writeCommand(dev, 0x35) // commandFilterToggle sets sysex_thru
	dev.InputSysex([]byte{0x41, 0x10}, false)
	got := sink.rawBytes()[base:]
	want := []byte{0xF0, 0x41, 0x10}
	if len(got) != len(want) {
		t.Fatalf("expected sysex thru %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected sysex thru %v, got %v", want, got)
		}
	}
}

func TestInputSysexRecordModeBypassesThru(t *testing.T) {
	dev, _, sink, _ := newTestDevice(defaultConfig())
	base := len(sink.rawBytes()) // construction Reset's all-notes-off bytes
	writeCommand(dev, 0x97)      // sysex_in on, sysex_thru forced off by the same command

	n := dev.InputSysex([]byte{0x41, 0xF7}, false) // 0xF7 (EOX) ends the message
	if n != 0 {
		t.Fatalf("expected InputSysex to report 0 unconsumed bytes, got %d", n)
	}
	if len(sink.rawBytes()) != base {
		t.Fatalf("expected sysex_in mode to bypass thru entirely, got %v", sink.rawBytes()[base:])
	}
}
