package adapter

import (
	"context"
	"fmt"
	"time"

	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/si7021"
)

var _ si7021.Transport = &GobotBus{}

// GobotBus runs the driver on any gobot-supported board through the
// platform's I2C connector. The platform adaptor has to be connected before
// the transport is used.
type GobotBus struct {
	connector i2c.Connector
	busNr     int
	conns     map[byte]i2c.Connection
	waddr     byte
	wbuf      []byte
	rbuf      []byte
}

// NewGobotBus creates a transport over the given connector and bus number.
// A negative bus number selects the platform default.
func NewGobotBus(connector i2c.Connector, busNr int) *GobotBus {
	if busNr < 0 {
		busNr = connector.DefaultI2cBus()
	}
	return &GobotBus{
		connector: connector,
		busNr:     busNr,
		conns:     make(map[byte]i2c.Connection),
	}
}

func (b *GobotBus) Init(ctx context.Context) error {
	// connections are opened lazily per device address
	return nil
}

func (b *GobotBus) BeginTransmission(ctx context.Context, address byte) error {
	b.waddr = address
	b.wbuf = b.wbuf[:0]
	return nil
}

func (b *GobotBus) Write(ctx context.Context, data ...byte) error {
	b.wbuf = append(b.wbuf, data...)
	return nil
}

func (b *GobotBus) EndTransmission(ctx context.Context) error {
	conn, err := b.connection(b.waddr)
	if err != nil {
		return err
	}
	n, err := conn.Write(b.wbuf)
	if err != nil {
		return fmt.Errorf("could not write to device %x: %w", b.waddr, err)
	}
	if n != len(b.wbuf) {
		return fmt.Errorf("short write to device %x: %d of %d bytes", b.waddr, n, len(b.wbuf))
	}
	return nil
}

func (b *GobotBus) RequestFrom(ctx context.Context, address byte, count int) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	buf := make([]byte, count)
	n, err := conn.Read(buf)
	if err != nil {
		return fmt.Errorf("could not read from device %x: %w", address, err)
	}
	b.rbuf = buf[:n]
	return nil
}

func (b *GobotBus) Available(ctx context.Context) int {
	return len(b.rbuf)
}

func (b *GobotBus) ReadByte(ctx context.Context) (byte, error) {
	if len(b.rbuf) == 0 {
		return 0, fmt.Errorf("%w from %x", ErrNoData, b.waddr)
	}
	value := b.rbuf[0]
	b.rbuf = b.rbuf[1:]
	return value, nil
}

func (b *GobotBus) Delay(duration time.Duration) {
	time.Sleep(duration)
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

// Close tears down every connection opened so far.
func (b *GobotBus) Close() error {
	var first error
	for addr, conn := range b.conns {
		if err := conn.Close(); err != nil && first == nil {
			first = fmt.Errorf("could not close connection to %x: %w", addr, err)
		}
		delete(b.conns, addr)
	}
	return first
}

func (b *GobotBus) connection(address byte) (i2c.Connection, error) {
	if conn, ok := b.conns[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c connection to %x: %w", address, err)
	}
	b.conns[address] = conn
	return conn, nil
}
