package mpu401

// filterState holds the boolean routing/filtering flags governing thru,
// record, sysex, and realtime handling (§3 Filter, C2).
type filterState struct {
	rtOut           bool
	rtIn            bool
	rtAffection     bool
	allThru         bool
	midiThru        bool
	commonMsgsThru  bool
	commonMsgsIn    bool
	sysexThru       bool
	sysexIn         bool
	modeMsgsIn      bool
	timingInStop    bool
	dataInStop      bool
	recMeasureEnd   bool
	allNotesOffOut  bool
	benderIn        bool
	prchgMask       uint16
	prchgBuf        [16]byte
}

// reset restores the power-on/reset defaults from §4.6 (MPU401_Reset).
func (f *filterState) reset() {
	*f = filterState{
		recMeasureEnd:  true,
		rtOut:          true,
		rtAffection:    true,
		allNotesOffOut: true,
		allThru:        true,
		midiThru:       true,
		commonMsgsThru: true,
	}
}
