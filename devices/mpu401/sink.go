package mpu401

import "io"

// MidiSink is the outbound MIDI transport contract (§6): the sink that
// accepts raw bytes or realtime bytes from the core. It is an external
// collaborator per §1 — the core never synthesises audio or owns a wire
// transport, it only calls through this interface.
type MidiSink interface {
	// RawByte sends one ordinary MIDI byte.
	RawByte(b byte)
	// RealtimeByte sends one realtime status byte (0xF8/0xFA/0xFB/0xFC),
	// kept distinct from RawByte because real transports often give
	// realtime bytes priority/out-of-band delivery.
	RealtimeByte(b byte)
	// Reset asks the transport to reset the downstream MIDI device
	// (issued when the data port receives 0xFF in UART mode, and as part
	// of MPU401_Reset).
	Reset()
	// ClearBuffer asks the transport to drop any buffered output.
	ClearBuffer()
}

// WriterSink adapts any io.Writer into a MidiSink by writing raw and
// realtime bytes through unchanged and treating Reset/ClearBuffer as
// no-ops. Grounded on devices.SerialPortDevice's io.Writer-backed output
// path, generalized into a standalone, reusable type.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink wraps w as a MidiSink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) RawByte(b byte)      { s.w.Write([]byte{b}) }
func (s *WriterSink) RealtimeByte(b byte) { s.w.Write([]byte{b}) }
func (s *WriterSink) Reset()              {}
func (s *WriterSink) ClearBuffer()        {}
