package si7021

import (
	"context"
	"fmt"
	"testing"
)

func TestMockSensor_StaticValues(t *testing.T) {
	sensor := NewMockSensor(
		func(ctx context.Context) (float32, error) { return 22.5, nil },
		func(ctx context.Context) (float32, error) { return 45.0, nil },
	)

	ctx := context.Background()

	temp, err := sensor.MeasureTemperature(ctx)
	if err != nil {
		t.Fatalf("MeasureTemperature: unexpected error: %v", err)
	}
	if temp != 22.5 {
		t.Errorf("expected temperature 22.5, got %f", temp)
	}

	hum, err := sensor.MeasureHumidity(ctx)
	if err != nil {
		t.Fatalf("MeasureHumidity: unexpected error: %v", err)
	}
	if hum != 45.0 {
		t.Errorf("expected humidity 45.0, got %f", hum)
	}

	comp, err := sensor.TemperatureFromPreviousHumidityMeasurement(ctx)
	if err != nil {
		t.Fatalf("TemperatureFromPreviousHumidityMeasurement: unexpected error: %v", err)
	}
	if comp != 22.5 {
		t.Errorf("expected compensation temperature 22.5, got %f", comp)
	}
}

func TestMockSensor_FahrenheitDerivesFromBehavior(t *testing.T) {
	sensor := NewMockSensor(
		func(ctx context.Context) (float32, error) { return 100.0, nil },
		func(ctx context.Context) (float32, error) { return 50.0, nil },
	)

	ctx := context.Background()

	temp, err := sensor.MeasureTemperatureF(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if temp != 212.0 {
		t.Errorf("expected 212.0, got %f", temp)
	}

	comp, err := sensor.TemperatureFromPreviousHumidityMeasurementF(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comp != 212.0 {
		t.Errorf("expected 212.0, got %f", comp)
	}
}

func TestMockSensor_ErrorHandling(t *testing.T) {
	sensor := NewMockSensor(
		func(ctx context.Context) (float32, error) {
			return 0, fmt.Errorf("temperature sensor error")
		},
		func(ctx context.Context) (float32, error) {
			return 0, fmt.Errorf("humidity sensor error")
		},
	)

	ctx := context.Background()

	if _, err := sensor.MeasureTemperature(ctx); err == nil || err.Error() != "temperature sensor error" {
		t.Errorf("MeasureTemperature: expected specific error, got %v", err)
	}
	if _, err := sensor.MeasureTemperatureF(ctx); err == nil {
		t.Error("MeasureTemperatureF: expected error")
	}
	if _, err := sensor.MeasureHumidity(ctx); err == nil || err.Error() != "humidity sensor error" {
		t.Errorf("MeasureHumidity: expected specific error, got %v", err)
	}
}

func TestMockSensor_DynamicBehavior(t *testing.T) {
	currentTemp := float32(20.0)

	sensor := NewMockSensor(
		func(ctx context.Context) (float32, error) { return currentTemp, nil },
		func(ctx context.Context) (float32, error) { return 50.0, nil },
	)

	ctx := context.Background()

	temp, err := sensor.MeasureTemperature(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if temp != 20.0 {
		t.Errorf("expected 20.0, got %f", temp)
	}

	currentTemp = 25.0
	temp, err = sensor.MeasureTemperature(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if temp != 25.0 {
		t.Errorf("expected 25.0, got %f", temp)
	}
}
