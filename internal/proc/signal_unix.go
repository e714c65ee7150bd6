//go:build !windows

package proc

import "syscall"

var terminateSignal = syscall.SIGTERM
