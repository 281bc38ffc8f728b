package ltlink

import (
	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// openSerial opens a port in raw 8N1 mode. Closing the port interrupts a
// pending Read.
func openSerial(path string, baud int) (serial.Port, error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s at %d baud", path, baud)
	}
	return port, nil
}
