package mpu401

// keyBitmap is a 128-bit (4x32) set of pressed MIDI note numbers,
// re-expressing the original's M_GETKEY/M_SETKEY/M_DELKEY macros as
// methods (§9 design note).
type keyBitmap [4]uint32

func (k *keyBitmap) get(key uint8) bool {
	return k[key>>5]&(1<<(key&0x1F)) != 0
}

func (k *keyBitmap) set(key uint8) {
	k[key>>5] |= 1 << (key & 0x1F)
}

func (k *keyBitmap) del(key uint8) {
	k[key>>5] &^= 1 << (key & 0x1F)
}

func (k *keyBitmap) any() bool {
	return k[0] != 0 || k[1] != 0 || k[2] != 0 || k[3] != 0
}

func (k *keyBitmap) clear() {
	*k = keyBitmap{}
}

// channelRef is one of the four reference-table slots a MIDI channel can
// be bound to via 0x40..0x7F (§3 ChannelRef, C4).
type channelRef struct {
	on      bool
	channel uint8
	trmask  uint8
	keys    keyBitmap
}

// inputRef is the per-MIDI-channel input reference table used for thru
// note-state tracking (§3 InputRef, C4).
type inputRef struct {
	on      bool
	channel uint8
	keys    keyBitmap
}

// referenceTables bundles the four ChannelRef slots, the sixteen InputRef
// slots, and the channel->slot map (§3's ch_toref). chanRefs has five
// entries: slots 0..3 are the real reference tables set by 0x40..0x7F;
// slot 4 is the permanently-off dummy slot every unbound channel falls
// back to.
type referenceTables struct {
	chanRefs  [5]channelRef
	inputRefs [16]inputRef
	chToRef   [16]int // index into chanRefs; 4 is the unused dummy slot
}

// reset restores the power-on/reset defaults (§4.6): each of the first
// four channels maps to its own slot, channels 4..15 fall back to the
// dummy slot 4 (chanRefs[4], whose on flag is never set).
func (r *referenceTables) reset() {
	*r = referenceTables{}
	for i := 0; i < 4; i++ {
		r.chanRefs[i].on = true
		r.chanRefs[i].channel = uint8(i)
		r.chToRef[i] = i
	}
	for i := 0; i < 16; i++ {
		r.inputRefs[i].on = true
		r.inputRefs[i].channel = uint8(i)
		if i > 3 {
			r.chToRef[i] = 4
		}
	}
}

// setReferenceChannel implements the 0x40..0x7F "set reference table
// channel" command (§4.2). slot is (opcode>>4)-4, channel is opcode&0xF.
func (r *referenceTables) setReferenceChannel(slot int, channel uint8) {
	r.chanRefs[slot].on = true
	r.chanRefs[slot].channel = channel
	r.chanRefs[slot].trmask = 0
	r.chanRefs[slot].keys.clear()

	for i := 0; i < 16; i++ {
		if r.chToRef[i] == slot {
			r.chToRef[i] = 4
		}
	}
	r.chToRef[channel] = slot
}
