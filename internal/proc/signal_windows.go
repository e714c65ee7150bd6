//go:build windows

package proc

import "os"

// Windows cannot deliver interrupts to other processes; Signal fails and
// Release falls through to a forced kill.
var terminateSignal = os.Interrupt
