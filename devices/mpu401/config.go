package mpu401

import "fmt"

// allowedBases enumerates the I/O base addresses real MPU-401 cards could
// be strapped to (§6).
var allowedBases = []uint16{0x220, 0x230, 0x240, 0x250, 0x300, 0x320, 0x330, 0x332, 0x334, 0x336, 0x340, 0x350}

// allowedISAIRQs enumerates the ISA-variant IRQ selection (§6); 2 remaps to 9.
var allowedISAIRQs = []uint8{2, 3, 4, 5, 6, 7}

// allowedMCAIRQs enumerates the MCA-variant IRQ selection (§6).
var allowedMCAIRQs = []uint8{3, 4, 5, 6, 7, 9}

// Config describes how a Device is wired up (§6 "Configuration enumeration").
type Config struct {
	// Base is the I/O port base; address+0 is data, address+1 is command/status.
	Base uint16
	// IRQ is the interrupt line the device raises through its InterruptRaiser.
	IRQ uint8
	// MCA selects the MCA IRQ enumeration (and enables the POS register
	// block) instead of the ISA one.
	MCA bool
	// ReceiveInput gates whether inbound MIDI (InputMsg/InputSysex) does
	// anything; mirrors the original's receive_input device config flag.
	ReceiveInput bool
	// Intelligent selects full intelligent-mode capability. false locks the
	// device into UART-only capability the way the SB16/AWE32 MPU-401
	// clones do: only 0xFF and 0x3F are ever honored on the command port.
	Intelligent bool
}

// Validate checks Base/IRQ against the known strap enumerations. MCA
// devices must leave Base==0 (the base is supplied later through the POS
// register block instead of this field).
func (c Config) Validate() error {
	if c.MCA {
		if c.Base != 0 {
			return fmt.Errorf("mpu401: MCA config must leave Base unset (POS registers choose it), got 0x%x", c.Base)
		}
		if !contains(allowedMCAIRQs, c.IRQ) {
			return fmt.Errorf("mpu401: IRQ %d is not a valid MCA selection", c.IRQ)
		}
		return nil
	}
	if !contains(allowedBases, c.Base) {
		return fmt.Errorf("mpu401: base 0x%x is not a recognized MPU-401 port", c.Base)
	}
	if !contains(allowedISAIRQs, c.IRQ) {
		return fmt.Errorf("mpu401: IRQ %d is not a valid ISA selection", c.IRQ)
	}
	return nil
}

// ResolvedIRQ applies the documented ISA quirk of remapping IRQ 2 to IRQ 9
// (the cascade line on the second PIC is what IRQ2 actually reaches).
func (c Config) ResolvedIRQ() uint8 {
	if !c.MCA && c.IRQ == 2 {
		return 9
	}
	return c.IRQ
}

func contains[T comparable](xs []T, v T) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
