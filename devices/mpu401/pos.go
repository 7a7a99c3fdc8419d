package mpu401

// POSRegisters models the eight-byte MCA Programmable Option Select
// register block (§6 "MCA POS registers"), grounded on the original's
// mpu401_mca_read/mpu401_mca_write/pos_regs. POS[0]/POS[1] are the fixed
// adapter ID bytes; bit 1 of POS[2] selects the 0x0330 vs 0x1330 base.
type POSRegisters struct {
	regs [8]byte
}

// NewPOSRegisters returns a POS block pre-loaded with the MPU-401's
// fixed adapter ID.
func NewPOSRegisters() *POSRegisters {
	p := &POSRegisters{}
	p.regs[0] = 0x0F
	p.regs[1] = 0x6C
	return p
}

// Read returns the raw byte for port&7.
func (p *POSRegisters) Read(port int) byte {
	return p.regs[port&7]
}

// Write stores val at port&7. When port&7==2, the base-select bit may
// have changed; rebase is invoked with the newly selected base so the
// host can move the device's IOBus registration (the actual rewiring is
// an external-collaborator concern per §1 — this just computes the
// address and hands it off).
func (p *POSRegisters) Write(port int, val byte, rebase func(addr uint16)) {
	idx := port & 7
	p.regs[idx] = val
	if idx == 2 && rebase != nil {
		rebase(p.Base())
	}
}

// Base returns the currently selected MCA base address.
func (p *POSRegisters) Base() uint16 {
	if p.regs[2]&0x02 != 0 {
		return 0x0330
	}
	return 0x1330
}
