package mpu401

// clockState holds the tempo/timebase/metronome bookkeeping the event
// engine drives every tick (§3 ClockState, C3).
type clockState struct {
	tempo     uint8 // clamped 4..250
	timebase  uint16
	tempoRel  uint8
	tempoGrad uint8
	midiMetro uint8
	metroMeas uint8

	measureCounter int
	// measureOld/cthOld snapshot measureCounter/cthCounter across the
	// MIDI stop/start/continue realtime commands (SPEC_FULL supplement,
	// grounded on the original's clock.meas_old/clock.cth_old).
	measureOld int
	cthOld     int

	cthCounter int
	cthMode    int
	cthRate    [4]uint8

	recCounter uint8

	// active mirrors §5's lazy periodic-timer rule: enabled only while
	// playing, clock_to_host, or rec==RecOn holds.
	active bool
}

// reset restores the power-on/reset defaults (§4.6, §8 round-trip property).
func (c *clockState) reset() {
	c.tempo = 100
	c.timebase = 120
	c.tempoRel = 0x40
	c.tempoGrad = 0
	c.midiMetro = 12
	c.metroMeas = 8
	c.measureCounter = 0
	c.measureOld = 0
	c.cthCounter = 0
	c.cthOld = 0
	c.cthMode = 0
	for i := range c.cthRate {
		c.cthRate[i] = 60
	}
	c.recCounter = 0
	c.active = false
}

// clampTempo enforces the true MPU-401's hard tempo range (§4.3 case 0xE0).
func clampTempo(v uint8) uint8 {
	if v < 4 {
		return 4
	}
	if v > 250 {
		return 250
	}
	return v
}

// eventPeriodMicros is the tempo-clock tick period (§4.6).
func (c *clockState) eventPeriodMicros() uint64 {
	return uint64(timeConstant) / (uint64(c.tempo) * uint64(c.timebase))
}

// maxMeasureCount is the metronome measure length in ticks (§4.6 step 6).
func (c *clockState) maxMeasureCount() int {
	return int(c.timebase) * int(c.midiMetro) * int(c.metroMeas) / 24
}
