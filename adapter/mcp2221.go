package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/si7021"
	"github.com/mklimuk/si7021/cmd/si7021/console"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

var ErrCommandFailed = errors.New("command failed")
var ErrNoData = errors.New("no data fetched from the I2C engine")

// HID command bytes of the MCP2221 USB bridge.
const (
	hidCmdStatus    byte = 0x10
	hidCmdReadData  byte = 0x40
	hidCmdWriteI2C  byte = 0x90
	hidCmdReadI2C   byte = 0x91
	busReleaseFlag  byte = 0x10
	notReadyMarker  byte = 127
)

var _ si7021.Transport = &MCP2221{}

// MCP2221 drives the sensor through a Microchip MCP2221 USB-to-I2C bridge.
// Write bytes are staged between BeginTransmission and EndTransmission and
// shipped in a single 64-byte HID frame. Available fetches pending read data
// from the bridge's I2C engine lazily and reports 0 while the engine is
// still busy, which is what gives the driver's readiness poll loop real
// semantics on this hardware.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	waddr        byte
	wbuf         []byte
	rpending     int
	raddr        byte
	rbuf         []byte
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

func NewMCP2221() *MCP2221 {
	return &MCP2221{
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
	}
}

// Init checks that exactly one bridge is attached. The HID handle itself is
// opened per transaction.
func (d *MCP2221) Init(ctx context.Context) error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return fmt.Errorf("MCP2221 device not found")
	}
	if len(devs) > 1 {
		return fmt.Errorf("ambiguous device identification")
	}
	return nil
}

func (d *MCP2221) BeginTransmission(ctx context.Context, address byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.waddr = address
	d.wbuf = d.wbuf[:0]
	return nil
}

func (d *MCP2221) Write(ctx context.Context, data ...byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.wbuf = append(d.wbuf, data...)
	return nil
}

func (d *MCP2221) EndTransmission(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = hidCmdWriteI2C
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(d.wbuf)))
	d.request[3] = d.waddr << 1
	if len(d.wbuf) > 0 {
		copy(d.request[4:], d.wbuf)
	}
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", d.waddr, err)
	}
	// write could not be performed
	if d.response[1] == 0x01 {
		console.Debug("adapter busy")
		return si7021.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) RequestFrom(ctx context.Context, address byte, count int) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = hidCmdReadI2C
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(count))
	d.request[3] = address<<1 + 1
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		return si7021.ErrBusBusy
	}
	d.raddr = address
	d.rpending = count
	d.rbuf = d.rbuf[:0]
	return nil
}

// Available fetches whatever the I2C engine has collected so far and
// reports the number of bytes ready for ReadByte. It reports 0 while the
// engine has not completed the transfer.
func (d *MCP2221) Available(ctx context.Context) int {
	d.mx.Lock()
	defer d.mx.Unlock()
	if len(d.rbuf) > 0 || d.rpending == 0 {
		return len(d.rbuf)
	}
	d.resetBuffers()
	d.request[0] = hidCmdReadData
	err := d.send(ctx, true)
	if err != nil {
		console.Debugf("read data fetch failed: %s", err)
		return 0
	}
	// engine still busy with the transfer
	if d.response[1] == 0x41 {
		return 0
	}
	size := int(d.response[3])
	if size == int(notReadyMarker) || size > d.rpending {
		return 0
	}
	d.rbuf = append(d.rbuf, d.response[4:4+size]...)
	d.rpending -= size
	return len(d.rbuf)
}

func (d *MCP2221) ReadByte(ctx context.Context) (byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if len(d.rbuf) == 0 {
		return 0, fmt.Errorf("%w from %x", ErrNoData, d.raddr)
	}
	value := d.rbuf[0]
	d.rbuf = d.rbuf[1:]
	return value, nil
}

func (d *MCP2221) Delay(duration time.Duration) {
	time.Sleep(duration)
}

func (d *MCP2221) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	_, err := d.releaseBus(ctx)
	return err
}

// Status reads the I2C engine state of the bridge.
func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = hidCmdStatus
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// ReleaseBus cancels any transfer in flight and returns the resulting
// engine state.
func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.releaseBus(ctx)
}

func (d *MCP2221) releaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.resetBuffers()
	d.request[0] = hidCmdStatus
	d.request[2] = busReleaseFlag
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9:  Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11: Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12: Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13: Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16: Lower byte (16-bit value) of the I2C address being used
		17: Higher byte (16-bit value) of the I2C address being used
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

func (d *MCP2221) send(ctx context.Context, response bool) error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return fmt.Errorf("MCP2221 device not found")
	}
	if len(devs) > 1 {
		return fmt.Errorf("ambiguous device identification")
	}
	dev, err := devs[0].Open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() {
		_ = dev.Close()
	}()
	verbose := console.IsVerbose(ctx)
	if verbose {
		console.Printf("sending message to adapter:\n%s\n", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short write: %d", n)
	}
	if !response {
		return nil
	}
	time.Sleep(d.responseWait)
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		console.Printf("read message from adapter:\n%s\n", hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := 0; i < len(buf)-1; i++ {
		buf[i] = 0x00
	}
}
