package mpu401_test

import (
	"sync"
	"time"

	"core_engine/devices/mpu401"
)

// mockInterruptRaiser implements mpu401.InterruptRaiser for testing,
// grounded on devices/ne2000_test.go's MockInterruptRaiser.
type mockInterruptRaiser struct {
	mu      sync.Mutex
	raised  []uint8
	lowered []uint8
}

func (m *mockInterruptRaiser) RaiseIRQ(line uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raised = append(m.raised, line)
}

func (m *mockInterruptRaiser) LowerIRQ(line uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lowered = append(m.lowered, line)
}

func (m *mockInterruptRaiser) raisedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.raised)
}

func (m *mockInterruptRaiser) loweredCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lowered)
}

// mockSink records every byte the device sends outbound, in place of a real
// transport, grounded on devices/ne2000_test.go's MockTapDevice.
type mockSink struct {
	mu          sync.Mutex
	raw         []byte
	realtime    []byte
	resetCount  int
	clearCount  int
}

func (s *mockSink) RawByte(b byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = append(s.raw, b)
}

func (s *mockSink) RealtimeByte(b byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.realtime = append(s.realtime, b)
}

func (s *mockSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetCount++
}

func (s *mockSink) ClearBuffer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCount++
}

func (s *mockSink) rawBytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.raw))
	copy(out, s.raw)
	return out
}

// mockTimer is a manually-fired stand-in for mpu401.Timer: tests decide
// when a scheduled callback runs instead of waiting on a real clock.
type mockTimer struct {
	callback func()
	delay    time.Duration
	disabled bool
}

func (t *mockTimer) SetDelay(d time.Duration) {
	t.delay = d
	t.disabled = false
}

func (t *mockTimer) Advance(d time.Duration) {
	t.SetDelay(d)
}

func (t *mockTimer) Disable() {
	t.disabled = true
}

func (t *mockTimer) fire() {
	if !t.disabled {
		t.callback()
	}
}

// mockScheduler hands out mockTimers in construction order. NewDevice
// always builds eventTimer, then eoiTimer, then resetTimer, so index 0..2
// below name them explicitly for tests that need to fire one directly.
type mockScheduler struct {
	timers []*mockTimer
}

func (s *mockScheduler) NewTimer(callback func()) mpu401.Timer {
	t := &mockTimer{callback: callback}
	s.timers = append(s.timers, t)
	return t
}

func (s *mockScheduler) event() *mockTimer  { return s.timers[0] }
func (s *mockScheduler) eoi() *mockTimer    { return s.timers[1] }
func (s *mockScheduler) resetT() *mockTimer { return s.timers[2] }

func newTestDevice(cfg mpu401.Config) (*mpu401.Device, *mockInterruptRaiser, *mockSink, *mockScheduler) {
	raiser := &mockInterruptRaiser{}
	sink := &mockSink{}
	sched := &mockScheduler{}
	dev := mpu401.NewDevice(cfg, raiser, sink, sched, nil)
	return dev, raiser, sink, sched
}

func defaultConfig() mpu401.Config {
	return mpu401.Config{Base: 0x330, IRQ: 5, ReceiveInput: true, Intelligent: true}
}

func writeCommand(dev *mpu401.Device, val byte) error {
	return dev.HandleIO(0x331, 1, 1, []byte{val})
}

func writeData(dev *mpu401.Device, val byte) error {
	return dev.HandleIO(0x330, 1, 1, []byte{val})
}

func readStatus(dev *mpu401.Device) byte {
	buf := make([]byte, 1)
	dev.HandleIO(0x331, 0, 1, buf)
	return buf[0]
}

func readData(dev *mpu401.Device) byte {
	buf := make([]byte, 1)
	dev.HandleIO(0x330, 0, 1, buf)
	return buf[0]
}
