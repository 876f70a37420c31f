package si7021

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultAddress is the fixed 7-bit bus address of the Si7021.
const DefaultAddress byte = 0x40

// Command bytes from the Si7021 datasheet. The hold-master-mode variants
// keep the bus stretched during conversion; this driver only issues the
// no-hold variants and polls for readiness instead.
const (
	cmdMeasureHumidityHold      byte = 0xE5
	cmdMeasureHumidityNoHold    byte = 0xF5
	cmdMeasureTemperatureHold   byte = 0xE3
	cmdMeasureTemperatureNoHold byte = 0xF3
	cmdTempFromPreviousRH       byte = 0xE0
	cmdReset                    byte = 0xFE
	cmdWriteUserRegister        byte = 0xE6
	cmdReadUserRegister         byte = 0xE7
	cmdWriteHeaterControl       byte = 0x51
	cmdReadHeaterControl        byte = 0x11
)

// Two-byte access commands for the factory-programmed identifiers.
var (
	cmdSerialFirstAccess  = []byte{0xFA, 0x0F}
	cmdSerialSecondAccess = []byte{0xFC, 0xC9}
	cmdFirmwareRevision   = []byte{0x84, 0xB8}
)

const (
	// HTRE bit of the user register.
	heaterEnableBit byte = 0x04
	// low four bits of the heater control register select the current
	heaterPowerMask byte = 0x0F
	// RES[1:0] live on the top and the bottom bit of the user register
	resolutionMask byte = 0x7E
)

// readTimeout bounds the readiness poll loop of readSensor. At 100kHz the
// three-byte response takes under 40ms; 50 increments of 1ms on top of the
// conversion wait is safe for every command.
const readTimeout = 50

const (
	pollInterval = time.Millisecond
	// worst case conversion is 14-bit temperature plus 12-bit humidity,
	// 12 + 10.8ms; one 25ms wait covers every command
	conversionWait = 25 * time.Millisecond
	// the device takes up to 15ms (5ms typical) to come back after reset
	resetWait = 15 * time.Millisecond
)

// ReadTimedOut is the raw value readSensor yields when the transport never
// delivers the expected byte count. The two low bits of the LSB are forced
// to zero on every successful read, so 1 can never come from the device.
const ReadTimedOut uint16 = 1

var (
	ErrReadTimeout       = errors.New("device did not deliver data within the poll window")
	ErrChecksum          = errors.New("measurement checksum mismatch")
	ErrInvalidResolution = errors.New("resolution selector out of range")
)

// Resolution selects one of the four RH/temperature measurement resolution
// pairs of the device.
type Resolution byte

const (
	// Resolution12BitRH14BitTemp is the power-on default.
	Resolution12BitRH14BitTemp Resolution = iota
	Resolution8BitRH12BitTemp
	Resolution10BitRH13BitTemp
	Resolution11BitRH11BitTemp
)

// resolutionBits is the total mapping from selector to RES[1:0] placement
// in the user register.
var resolutionBits = map[Resolution]byte{
	Resolution12BitRH14BitTemp: 0x00,
	Resolution8BitRH12BitTemp:  0x01,
	Resolution10BitRH13BitTemp: 0x80,
	Resolution11BitRH11BitTemp: 0x81,
}

// FirmwareRevision interprets the raw firmware version byte.
type FirmwareRevision byte

const (
	FirmwareRev1 FirmwareRevision = 0xFF
	FirmwareRev2 FirmwareRevision = 0x20
)

func (r FirmwareRevision) String() string {
	switch r {
	case FirmwareRev1:
		return "1.0"
	case FirmwareRev2:
		return "2.0"
	default:
		return fmt.Sprintf("unknown (%#x)", byte(r))
	}
}

// Sensor represents a Silicon Labs Si7021 relative humidity and temperature
// sensor. See: https://www.silabs.com/documents/public/data-sheets/Si7021-A20.pdf
//
// All operations are synchronous and block the calling goroutine for the
// duration of the bus transaction plus any conversion or settle wait.
type Sensor struct {
	transport   Transport
	address     byte
	validateCRC bool
}

type Config struct {
	Address          byte
	ValidateChecksum bool
}

type ConfigOption func(*Config)

// WithAddress overrides the device bus address. Useful only behind address
// translators; the Si7021 itself is hardwired to DefaultAddress.
func WithAddress(address byte) ConfigOption {
	return func(c *Config) {
		c.Address = address
	}
}

// WithChecksumValidation turns on verification of the checksum byte appended
// to measurement responses. The device CRC covers the raw bytes before the
// humidity status bits are cleared.
func WithChecksumValidation() ConfigOption {
	return func(c *Config) {
		c.ValidateChecksum = true
	}
}

// New creates a Sensor connector over the given transport.
func New(trans Transport, opts ...ConfigOption) *Sensor {
	config := &Config{
		Address: DefaultAddress,
	}
	for _, opt := range opts {
		opt(config)
	}
	return &Sensor{
		transport:   trans,
		address:     config.Address,
		validateCRC: config.ValidateChecksum,
	}
}

// Begin initializes the bus transport. It has to be called once before any
// other operation.
func (s *Sensor) Begin(ctx context.Context) error {
	if err := s.transport.Init(ctx); err != nil {
		return fmt.Errorf("si7021: could not init transport: %w", err)
	}
	return nil
}

// MeasureTemperature triggers a temperature conversion and returns the
// result in Celsius. Reading humidity also forces a temperature conversion,
// so prefer TemperatureFromPreviousHumidityMeasurement after MeasureHumidity.
func (s *Sensor) MeasureTemperature(ctx context.Context) (float32, error) {
	raw, err := s.readSensor(ctx, cmdMeasureTemperatureNoHold, 3)
	if err != nil {
		return 0, fmt.Errorf("si7021: temperature measurement failed: %w", err)
	}
	return rawToCelsius(raw), nil
}

// MeasureTemperatureF is MeasureTemperature in Fahrenheit.
func (s *Sensor) MeasureTemperatureF(ctx context.Context) (float32, error) {
	temp, err := s.MeasureTemperature(ctx)
	if err != nil {
		return 0, err
	}
	return celsiusToFahrenheit(temp), nil
}

// MeasureHumidity triggers a humidity conversion and returns the result in
// percent of relative humidity.
func (s *Sensor) MeasureHumidity(ctx context.Context) (float32, error) {
	raw, err := s.readSensor(ctx, cmdMeasureHumidityNoHold, 3)
	if err != nil {
		return 0, fmt.Errorf("si7021: humidity measurement failed: %w", err)
	}
	return rawToHumidity(raw), nil
}

// TemperatureFromPreviousHumidityMeasurement returns, in Celsius, the
// temperature conversion the device performed internally during the last
// humidity measurement. It does not trigger a new conversion and is only
// meaningful after MeasureHumidity; the driver does not track that ordering.
func (s *Sensor) TemperatureFromPreviousHumidityMeasurement(ctx context.Context) (float32, error) {
	// this response carries no checksum byte
	raw, err := s.readSensor(ctx, cmdTempFromPreviousRH, 2)
	if err != nil {
		return 0, fmt.Errorf("si7021: compensation temperature read failed: %w", err)
	}
	return rawToCelsius(raw), nil
}

// TemperatureFromPreviousHumidityMeasurementF is the Fahrenheit variant of
// TemperatureFromPreviousHumidityMeasurement.
func (s *Sensor) TemperatureFromPreviousHumidityMeasurementF(ctx context.Context) (float32, error) {
	temp, err := s.TemperatureFromPreviousHumidityMeasurement(ctx)
	if err != nil {
		return 0, err
	}
	return celsiusToFahrenheit(temp), nil
}

// Reset performs a soft reset of the device and waits for it to settle.
func (s *Sensor) Reset(ctx context.Context) error {
	if err := s.writeCommand(ctx, cmdReset); err != nil {
		return fmt.Errorf("si7021: reset failed: %w", err)
	}
	s.transport.Delay(resetWait)
	return nil
}

// SerialNumber reads the factory-programmed 64-bit electronic identifier.
// The identifier is spread over two access commands; every data byte on the
// wire is followed by a checksum byte which is discarded without
// verification. Reading it costs four bus transactions, so it is best kept
// to startup or debugging paths.
func (s *Sensor) SerialNumber(ctx context.Context) (uint64, error) {
	var serial uint64
	for _, access := range [][]byte{cmdSerialFirstAccess, cmdSerialSecondAccess} {
		if err := s.writeCommand(ctx, access...); err != nil {
			return 0, fmt.Errorf("si7021: serial number access failed: %w", err)
		}
		// 4 identifier bytes, each followed by a CRC
		if err := s.transport.RequestFrom(ctx, s.address, 8); err != nil {
			return 0, fmt.Errorf("si7021: serial number read failed: %w", err)
		}
		for s.transport.Available(ctx) >= 2 {
			data, err := s.transport.ReadByte(ctx)
			if err != nil {
				return 0, fmt.Errorf("si7021: serial number read failed: %w", err)
			}
			serial = serial<<8 | uint64(data)
			if _, err = s.transport.ReadByte(ctx); err != nil {
				return 0, fmt.Errorf("si7021: serial number read failed: %w", err)
			}
		}
	}
	return serial, nil
}

// FirmwareVersion reads the raw firmware revision byte. Wrap it in
// FirmwareRevision to interpret the datasheet sentinels.
func (s *Sensor) FirmwareVersion(ctx context.Context) (byte, error) {
	if err := s.writeCommand(ctx, cmdFirmwareRevision...); err != nil {
		return 0, fmt.Errorf("si7021: firmware revision access failed: %w", err)
	}
	// single byte response, no checksum
	if err := s.transport.RequestFrom(ctx, s.address, 1); err != nil {
		return 0, fmt.Errorf("si7021: firmware revision read failed: %w", err)
	}
	var version byte
	for s.transport.Available(ctx) > 0 {
		var err error
		version, err = s.transport.ReadByte(ctx)
		if err != nil {
			return 0, fmt.Errorf("si7021: firmware revision read failed: %w", err)
		}
	}
	return version, nil
}

// ReadRegister reads a single configuration byte. The register is selected
// by its read command (cmdReadUserRegister or cmdReadHeaterControl); the
// response carries no checksum. The device value is always re-read before a
// modification, never cached.
func (s *Sensor) ReadRegister(ctx context.Context, reg byte) (byte, error) {
	if err := s.writeCommand(ctx, reg); err != nil {
		return 0, fmt.Errorf("si7021: register select failed: %w", err)
	}
	if err := s.transport.RequestFrom(ctx, s.address, 1); err != nil {
		return 0, fmt.Errorf("si7021: register read failed: %w", err)
	}
	var value byte
	for s.transport.Available(ctx) > 0 {
		var err error
		value, err = s.transport.ReadByte(ctx)
		if err != nil {
			return 0, fmt.Errorf("si7021: register read failed: %w", err)
		}
	}
	return value, nil
}

// WriteRegister writes a single configuration byte through the register's
// write command.
func (s *Sensor) WriteRegister(ctx context.Context, reg byte, value byte) error {
	if err := s.writeCommand(ctx, reg, value); err != nil {
		return fmt.Errorf("si7021: register write failed: %w", err)
	}
	return nil
}

// SetHeater switches the integrated heater. When enabling, power selects the
// heater current on its low four bits (0 ≈ 3mA up to 15 ≈ 94mA at 3.3V);
// any higher bits of power are dropped silently. Consult the datasheet
// before running the heater at full power.
func (s *Sensor) SetHeater(ctx context.Context, on bool, power byte) error {
	if !on {
		reg, err := s.ReadRegister(ctx, cmdReadUserRegister)
		if err != nil {
			return fmt.Errorf("si7021: could not read user register: %w", err)
		}
		return s.WriteRegister(ctx, cmdWriteUserRegister, reg&^heaterEnableBit)
	}
	reg, err := s.ReadRegister(ctx, cmdReadHeaterControl)
	if err != nil {
		return fmt.Errorf("si7021: could not read heater control register: %w", err)
	}
	reg |= power & heaterPowerMask
	if err = s.WriteRegister(ctx, cmdWriteHeaterControl, reg); err != nil {
		return err
	}
	reg, err = s.ReadRegister(ctx, cmdReadUserRegister)
	if err != nil {
		return fmt.Errorf("si7021: could not read user register: %w", err)
	}
	return s.WriteRegister(ctx, cmdWriteUserRegister, reg|heaterEnableBit)
}

// SetResolution selects the measurement resolution pair, leaving every other
// bit of the user register untouched.
func (s *Sensor) SetResolution(ctx context.Context, res Resolution) error {
	bits, ok := resolutionBits[res]
	if !ok {
		return fmt.Errorf("si7021: %w: %d", ErrInvalidResolution, res)
	}
	reg, err := s.ReadRegister(ctx, cmdReadUserRegister)
	if err != nil {
		return fmt.Errorf("si7021: could not read user register: %w", err)
	}
	reg &= resolutionMask
	reg |= bits
	return s.WriteRegister(ctx, cmdWriteUserRegister, reg)
}

// readSensor issues a measurement command and collects the raw 16-bit
// result. count selects the response length: 3 for measurements that append
// a checksum byte, 2 for the previous-RH temperature read.
//
// On a poll timeout the returned raw value is ReadTimedOut alongside
// ErrReadTimeout, preserving the out-of-band sentinel for callers that look
// at the raw value only.
func (s *Sensor) readSensor(ctx context.Context, cmd byte, count int) (uint16, error) {
	if err := s.writeCommand(ctx, cmd); err != nil {
		return 0, err
	}
	s.transport.Delay(conversionWait)

	if err := s.transport.RequestFrom(ctx, s.address, count); err != nil {
		return 0, fmt.Errorf("read request failed: %w", err)
	}
	var timeout int
	for s.transport.Available(ctx) < count {
		s.transport.Delay(pollInterval)
		timeout++
		if timeout > readTimeout {
			return ReadTimedOut, ErrReadTimeout
		}
	}

	msb, err := s.transport.ReadByte(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not read MSB: %w", err)
	}
	lsb, err := s.transport.ReadByte(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not read LSB: %w", err)
	}
	if count >= 3 {
		crc, err := s.transport.ReadByte(ctx)
		if err != nil {
			return 0, fmt.Errorf("could not read checksum byte: %w", err)
		}
		if s.validateCRC && crc8(msb, lsb) != crc {
			return 0, ErrChecksum
		}
	}

	// a humidity measurement always returns xxxxxx10 in the LSB field;
	// clear the two status bits (temperature reads have them at zero)
	lsb &= 0xFC

	return uint16(msb)<<8 | uint16(lsb), nil
}

func (s *Sensor) writeCommand(ctx context.Context, cmd ...byte) error {
	if err := s.transport.BeginTransmission(ctx, s.address); err != nil {
		return fmt.Errorf("could not open write transaction: %w", err)
	}
	if err := s.transport.Write(ctx, cmd...); err != nil {
		return fmt.Errorf("could not write command: %w", err)
	}
	if err := s.transport.EndTransmission(ctx); err != nil {
		return fmt.Errorf("could not commit write transaction: %w", err)
	}
	return nil
}
