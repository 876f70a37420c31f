package si7021

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertTemperature(t *testing.T) {
	tests := []struct {
		given    uint16
		expected float64
	}{
		{0x0000, -46.85},
		{0xFFFF, 128.39},
		{0x6666, 23.248},
		{0x5CF0, 16.77},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#04x", test.given), func(t *testing.T) {
			assert.InDelta(t, test.expected, rawToCelsius(test.given), 0.01)
		})
	}
}

func TestConvertHumidity(t *testing.T) {
	tests := []struct {
		given    uint16
		expected float64
	}{
		{0x0000, -6.0},
		{0xFFFF, 119.0},
		{0x7FFC, 56.49},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#04x", test.given), func(t *testing.T) {
			assert.InDelta(t, test.expected, rawToHumidity(test.given), 0.01)
		})
	}
}

func TestConvertFahrenheit(t *testing.T) {
	tests := []struct {
		given    float32
		expected float64
	}{
		{0.0, 32.0},
		{100.0, 212.0},
		{-40.0, -40.0},
		{25.0, 77.0},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%.1f", test.given), func(t *testing.T) {
			assert.InDelta(t, test.expected, celsiusToFahrenheit(test.given), 0.0001)
		})
	}
}

func TestConvertFahrenheitRoundTrip(t *testing.T) {
	for _, raw := range []uint16{0x0000, 0x2AB8, 0x6664, 0xFFFC} {
		celsius := rawToCelsius(raw)
		assert.Equal(t, celsius*1.8+32.0, celsiusToFahrenheit(celsius))
	}
}

func TestCRC8(t *testing.T) {
	tests := []struct {
		given    []byte
		expected byte
	}{
		{[]byte{0x00, 0x00}, 0x00},
		{[]byte{0xDC}, 0x79},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%x", test.given), func(t *testing.T) {
			assert.Equal(t, test.expected, crc8(test.given...))
		})
	}
}
