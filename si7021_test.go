package si7021

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport plays back canned read responses and records every write
// transaction, so driver behavior can be checked without a bus.
type scriptedTransport struct {
	writes   [][]byte // committed write transactions
	pending  []byte
	reads    [][]byte // canned responses, consumed one per RequestFrom
	buf      []byte
	requests []int
	delays   int
	silent   bool // simulate a device that never delivers data
	initErr  error
}

func (t *scriptedTransport) Init(ctx context.Context) error {
	return t.initErr
}

func (t *scriptedTransport) BeginTransmission(ctx context.Context, address byte) error {
	t.pending = nil
	return nil
}

func (t *scriptedTransport) Write(ctx context.Context, data ...byte) error {
	t.pending = append(t.pending, data...)
	return nil
}

func (t *scriptedTransport) EndTransmission(ctx context.Context) error {
	t.writes = append(t.writes, t.pending)
	t.pending = nil
	return nil
}

func (t *scriptedTransport) RequestFrom(ctx context.Context, address byte, count int) error {
	t.requests = append(t.requests, count)
	if t.silent || len(t.reads) == 0 {
		t.buf = nil
		return nil
	}
	t.buf = t.reads[0]
	t.reads = t.reads[1:]
	return nil
}

func (t *scriptedTransport) Available(ctx context.Context) int {
	return len(t.buf)
}

func (t *scriptedTransport) ReadByte(ctx context.Context) (byte, error) {
	if len(t.buf) == 0 {
		return 0, fmt.Errorf("no data available")
	}
	b := t.buf[0]
	t.buf = t.buf[1:]
	return b, nil
}

func (t *scriptedTransport) Delay(d time.Duration) {
	t.delays++
}

func (t *scriptedTransport) Release(ctx context.Context) error {
	return nil
}

func TestBegin(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, New(&scriptedTransport{}).Begin(ctx))

	failing := &scriptedTransport{initErr: errors.New("no such bus")}
	assert.Error(t, New(failing).Begin(ctx))
}

func TestReadSensor_ClearsHumidityStatusBits(t *testing.T) {
	trans := &scriptedTransport{reads: [][]byte{{0x6B, 0xFB, 0x00}}}
	sensor := New(trans)

	raw, err := sensor.readSensor(context.Background(), cmdMeasureHumidityNoHold, 3)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x6BF8), raw)
	assert.Zero(t, raw&0x0003)
	assert.Equal(t, [][]byte{{0xF5}}, trans.writes)
	assert.Equal(t, []int{3}, trans.requests)
}

func TestReadSensor_NeverOneOnValidData(t *testing.T) {
	responses := [][]byte{
		{0x00, 0x01, 0x00},
		{0x00, 0x02, 0x00},
		{0x00, 0x03, 0x00},
		{0xFF, 0xFF, 0x00},
	}
	for _, resp := range responses {
		trans := &scriptedTransport{reads: [][]byte{resp}}
		sensor := New(trans)
		raw, err := sensor.readSensor(context.Background(), cmdMeasureHumidityNoHold, 3)
		require.NoError(t, err)
		assert.NotEqual(t, ReadTimedOut, raw)
		assert.Zero(t, raw&0x0003)
	}
}

func TestReadSensor_TimeoutReturnsSentinel(t *testing.T) {
	trans := &scriptedTransport{silent: true}
	sensor := New(trans)

	raw, err := sensor.readSensor(context.Background(), cmdMeasureTemperatureNoHold, 3)
	assert.ErrorIs(t, err, ErrReadTimeout)
	assert.Equal(t, ReadTimedOut, raw)
	assert.EqualValues(t, 1, raw)
	// conversion wait plus one delay per poll increment
	assert.Equal(t, readTimeout+2, trans.delays)
}

func TestReadSensor_ChecksumValidation(t *testing.T) {
	good := crc8(0xDC, 0x02)
	trans := &scriptedTransport{reads: [][]byte{{0xDC, 0x02, good}}}
	sensor := New(trans, WithChecksumValidation())

	raw, err := sensor.readSensor(context.Background(), cmdMeasureHumidityNoHold, 3)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xDC00), raw)

	trans = &scriptedTransport{reads: [][]byte{{0xDC, 0x02, good ^ 0x55}}}
	sensor = New(trans, WithChecksumValidation())
	_, err = sensor.readSensor(context.Background(), cmdMeasureHumidityNoHold, 3)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestMeasureTemperature(t *testing.T) {
	trans := &scriptedTransport{reads: [][]byte{{0x00, 0x00, 0x00}}}
	sensor := New(trans)

	temp, err := sensor.MeasureTemperature(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -46.85, temp, 0.001)
	assert.Equal(t, [][]byte{{0xF3}}, trans.writes)
}

func TestMeasureTemperature_Timeout(t *testing.T) {
	sensor := New(&scriptedTransport{silent: true})
	_, err := sensor.MeasureTemperature(context.Background())
	assert.ErrorIs(t, err, ErrReadTimeout)
}

func TestMeasureHumidity(t *testing.T) {
	trans := &scriptedTransport{reads: [][]byte{{0x00, 0x00, 0x00}}}
	sensor := New(trans)

	hum, err := sensor.MeasureHumidity(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -6.0, hum, 0.001)
	assert.Equal(t, [][]byte{{0xF5}}, trans.writes)
}

func TestMeasureTemperatureF_MatchesCelsius(t *testing.T) {
	response := []byte{0x5A, 0xA8, 0x00}

	sensor := New(&scriptedTransport{reads: [][]byte{response}})
	celsius, err := sensor.MeasureTemperature(context.Background())
	require.NoError(t, err)

	sensor = New(&scriptedTransport{reads: [][]byte{response}})
	fahrenheit, err := sensor.MeasureTemperatureF(context.Background())
	require.NoError(t, err)

	assert.Equal(t, celsius*1.8+32.0, fahrenheit)
}

func TestTemperatureFromPreviousHumidityMeasurement(t *testing.T) {
	trans := &scriptedTransport{reads: [][]byte{{0x5C, 0xF2}}}
	sensor := New(trans)

	temp, err := sensor.TemperatureFromPreviousHumidityMeasurement(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, rawToCelsius(0x5CF0), temp, 0.0001)
	// no checksum byte for this command
	assert.Equal(t, []int{2}, trans.requests)
	assert.Equal(t, [][]byte{{0xE0}}, trans.writes)
}

func TestTemperatureFromPreviousHumidityMeasurementF(t *testing.T) {
	response := []byte{0x5C, 0xF2}

	sensor := New(&scriptedTransport{reads: [][]byte{response}})
	celsius, err := sensor.TemperatureFromPreviousHumidityMeasurement(context.Background())
	require.NoError(t, err)

	sensor = New(&scriptedTransport{reads: [][]byte{response}})
	fahrenheit, err := sensor.TemperatureFromPreviousHumidityMeasurementF(context.Background())
	require.NoError(t, err)

	assert.Equal(t, celsius*1.8+32.0, fahrenheit)
}

func TestReset(t *testing.T) {
	trans := &scriptedTransport{}
	sensor := New(trans)

	require.NoError(t, sensor.Reset(context.Background()))
	assert.Equal(t, [][]byte{{0xFE}}, trans.writes)
	assert.Equal(t, 1, trans.delays)
}

func TestSerialNumber(t *testing.T) {
	trans := &scriptedTransport{reads: [][]byte{
		{0xDE, 0xCC, 0xAD, 0xCC, 0xBE, 0xCC, 0xEF, 0xCC},
		{0x01, 0xCC, 0x02, 0xCC, 0x03, 0xCC, 0x04, 0xCC},
	}}
	sensor := New(trans)

	serial, err := sensor.SerialNumber(context.Background())
	require.NoError(t, err)
	// data bytes only, big-endian; the interleaved checksum bytes are dropped
	assert.Equal(t, uint64(0xDEADBEEF01020304), serial)
	assert.Equal(t, [][]byte{{0xFA, 0x0F}, {0xFC, 0xC9}}, trans.writes)
	assert.Equal(t, []int{8, 8}, trans.requests)
}

func TestFirmwareVersion(t *testing.T) {
	trans := &scriptedTransport{reads: [][]byte{{0xFF}}}
	sensor := New(trans)

	version, err := sensor.FirmwareVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(0xFF), version)
	assert.Equal(t, [][]byte{{0x84, 0xB8}}, trans.writes)
}

func TestFirmwareRevisionString(t *testing.T) {
	assert.Equal(t, "1.0", FirmwareRevision(0xFF).String())
	assert.Equal(t, "2.0", FirmwareRevision(0x20).String())
	assert.Equal(t, "unknown (0x42)", FirmwareRevision(0x42).String())
}

func TestSetHeater_EnableMasksPower(t *testing.T) {
	for power := 0; power < 16; power++ {
		trans := &scriptedTransport{reads: [][]byte{{0x00}, {0x3A}}}
		sensor := New(trans)

		require.NoError(t, sensor.SetHeater(context.Background(), true, byte(power)))
		assert.Equal(t, [][]byte{
			{0x11},
			{0x51, byte(power)},
			{0xE7},
			{0xE6, 0x3E},
		}, trans.writes)
	}

	// bits above the low four of power are dropped silently, upper register
	// bits stay untouched
	trans := &scriptedTransport{reads: [][]byte{{0x30}, {0x3A}}}
	sensor := New(trans)
	require.NoError(t, sensor.SetHeater(context.Background(), true, 0xFF))
	assert.Equal(t, []byte{0x51, 0x3F}, trans.writes[1])
}

func TestSetHeater_Disable(t *testing.T) {
	trans := &scriptedTransport{reads: [][]byte{{0x3E}}}
	sensor := New(trans)

	require.NoError(t, sensor.SetHeater(context.Background(), false, 0))
	assert.Equal(t, [][]byte{{0xE7}, {0xE6, 0x3A}}, trans.writes)
}

func TestSetResolution(t *testing.T) {
	tests := []struct {
		given    Resolution
		expected byte
	}{
		{Resolution12BitRH14BitTemp, 0x3A},
		{Resolution8BitRH12BitTemp, 0x3B},
		{Resolution10BitRH13BitTemp, 0xBA},
		{Resolution11BitRH11BitTemp, 0xBB},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.given), func(t *testing.T) {
			trans := &scriptedTransport{reads: [][]byte{{0xBB}}}
			sensor := New(trans)

			require.NoError(t, sensor.SetResolution(context.Background(), test.given))
			assert.Equal(t, [][]byte{{0xE7}, {0xE6, test.expected}}, trans.writes)
		})
	}
}

func TestSetResolution_OutOfRange(t *testing.T) {
	trans := &scriptedTransport{}
	sensor := New(trans)

	err := sensor.SetResolution(context.Background(), Resolution(7))
	assert.ErrorIs(t, err, ErrInvalidResolution)
	// rejected before any bus traffic
	assert.Empty(t, trans.writes)
}

func TestWithAddress(t *testing.T) {
	sensor := New(&scriptedTransport{}, WithAddress(0x41))
	assert.Equal(t, byte(0x41), sensor.address)
}
