package sensor

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// ModbusIO exposes a bank of discrete inputs and a single siren coil on
// one Modbus TCP unit. Requests are serialized over the shared handler.
type ModbusIO struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client

	inputAddr uint16
	inputQty  uint16
	coilAddr  uint16
}

// ModbusConfig describes the field wiring of the I/O unit.
type ModbusConfig struct {
	Endpoint     string
	UnitID       uint8
	Timeout      time.Duration
	InputAddress uint16
	InputCount   uint16
	CoilAddress  uint16
}

// NewModbusIO connects to the I/O unit.
func NewModbusIO(cfg ModbusConfig) (*ModbusIO, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus io: endpoint required")
	}
	if cfg.InputCount == 0 {
		return nil, errors.New("modbus io: input count must be positive")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &ModbusIO{
		handler:   h,
		client:    modbus.NewClient(h),
		inputAddr: cfg.InputAddress,
		inputQty:  cfg.InputCount,
		coilAddr:  cfg.CoilAddress,
	}, nil
}

// Close closes the underlying TCP connection.
func (c *ModbusIO) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// Read fetches the discrete inputs (FC 2) and unpacks them LSB-first.
func (c *ModbusIO) Read() ([]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := c.client.ReadDiscreteInputs(c.inputAddr, c.inputQty)
	if err != nil {
		return nil, err
	}

	out := make([]bool, c.inputQty)
	for i := range out {
		byteIdx := i / 8
		if byteIdx >= len(payload) {
			break
		}
		out[i] = payload[byteIdx]&(1<<uint(i%8)) != 0
	}
	return out, nil
}

// Set drives the siren coil (FC 5).
func (c *ModbusIO) Set(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var value uint16
	if on {
		value = 0xFF00
	}
	_, err := c.client.WriteSingleCoil(c.coilAddr, value)
	return err
}
