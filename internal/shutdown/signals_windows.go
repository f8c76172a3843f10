//go:build windows

package shutdown

import "os"

var terminationSignals = []os.Signal{os.Interrupt}
