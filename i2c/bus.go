package i2c

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/si7021"
)

var _ si7021.Transport = &GenericBus{}

// GenericBus adapts a periph.io I2C bus to the driver transport. Bytes
// queued between BeginTransmission and EndTransmission go out as one bus
// transaction; RequestFrom performs a single read transaction and buffers
// the response for byte-wise consumption, so Available is the number of
// buffered bytes still unread.
type GenericBus struct {
	name  string
	bus   i2c.BusCloser
	waddr byte
	wbuf  []byte
	rbuf  []byte
}

// NewGenericBus creates a transport over the named periph bus (an empty
// name selects the first available one). The bus is opened by Init.
func NewGenericBus(dev string) *GenericBus {
	return &GenericBus{name: dev}
}

func (b *GenericBus) Init(ctx context.Context) error {
	state, err := host.Init()
	if err != nil {
		return fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("loaded host driver", "driver", driver.String())
	}
	bus, err := i2creg.Open(b.name)
	if err != nil {
		return fmt.Errorf("could not open i2c bus: %w", err)
	}
	b.bus = bus
	return nil
}

func (b *GenericBus) BeginTransmission(ctx context.Context, address byte) error {
	b.waddr = address
	b.wbuf = b.wbuf[:0]
	return nil
}

func (b *GenericBus) Write(ctx context.Context, data ...byte) error {
	b.wbuf = append(b.wbuf, data...)
	return nil
}

func (b *GenericBus) EndTransmission(ctx context.Context) error {
	err := b.bus.Tx(uint16(b.waddr), b.wbuf, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", b.waddr, err)
	}
	return nil
}

func (b *GenericBus) RequestFrom(ctx context.Context, address byte, count int) error {
	buf := make([]byte, count)
	err := b.bus.Tx(uint16(address), nil, buf)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	b.rbuf = buf
	return nil
}

func (b *GenericBus) Available(ctx context.Context) int {
	return len(b.rbuf)
}

func (b *GenericBus) ReadByte(ctx context.Context) (byte, error) {
	if len(b.rbuf) == 0 {
		return 0, fmt.Errorf("no data available on i2c bus %x", b.waddr)
	}
	value := b.rbuf[0]
	b.rbuf = b.rbuf[1:]
	return value, nil
}

func (b *GenericBus) Delay(d time.Duration) {
	time.Sleep(d)
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
