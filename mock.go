package si7021

import (
	"context"
)

// TemperatureBehaviorFunc produces a temperature in Celsius or an error.
type TemperatureBehaviorFunc func(ctx context.Context) (float32, error)

// HumidityBehaviorFunc produces a relative humidity in %RH or an error.
type HumidityBehaviorFunc func(ctx context.Context) (float32, error)

// MockSensor mimics the measurement surface of Sensor using behavior
// functions, so code consuming the driver can run without hardware.
//
// Example usage:
//
//	sensor := si7021.NewMockSensor(
//		func(ctx context.Context) (float32, error) { return 22.5, nil },
//		func(ctx context.Context) (float32, error) { return 45.0, nil },
//	)
type MockSensor struct {
	tempBehavior TemperatureBehaviorFunc
	humBehavior  HumidityBehaviorFunc
}

// NewMockSensor creates a mock with the given behavior functions. The
// temperature behavior backs both the direct measurement and the
// previous-humidity-measurement read.
func NewMockSensor(tempBehavior TemperatureBehaviorFunc, humBehavior HumidityBehaviorFunc) *MockSensor {
	return &MockSensor{
		tempBehavior: tempBehavior,
		humBehavior:  humBehavior,
	}
}

func (m *MockSensor) MeasureTemperature(ctx context.Context) (float32, error) {
	return m.tempBehavior(ctx)
}

func (m *MockSensor) MeasureTemperatureF(ctx context.Context) (float32, error) {
	temp, err := m.tempBehavior(ctx)
	if err != nil {
		return 0, err
	}
	return celsiusToFahrenheit(temp), nil
}

func (m *MockSensor) MeasureHumidity(ctx context.Context) (float32, error) {
	return m.humBehavior(ctx)
}

func (m *MockSensor) TemperatureFromPreviousHumidityMeasurement(ctx context.Context) (float32, error) {
	return m.tempBehavior(ctx)
}

func (m *MockSensor) TemperatureFromPreviousHumidityMeasurementF(ctx context.Context) (float32, error) {
	temp, err := m.tempBehavior(ctx)
	if err != nil {
		return 0, err
	}
	return celsiusToFahrenheit(temp), nil
}
