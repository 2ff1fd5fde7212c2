package monitor

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the oven controller firmware.
const DefaultBaudRate = 115200

// SerialConfig holds the port parameters. Framing is fixed at 8N2.
type SerialConfig struct {
	Port     string
	BaudRate int
}

// OpenSerial opens the port and returns a line source reading from it.
func OpenSerial(cfg SerialConfig) (*ReaderSource, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("open serial: no port given")
	}
	baud := cfg.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Port, err)
	}
	Infof("opened %s at %d baud (8N2)", cfg.Port, baud)
	return NewReaderSource(port), nil
}

// ListSerialPorts returns the serial ports visible to the OS.
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
