package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/si7021/cmd/si7021/console"
)

// metrics exposed to Prometheus, labelled by the device serial number
var (
	gaugeHumidity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "si7021_humidity",
			Help: "Relative humidity (units: % of relative Humidity)",
		},
		[]string{"serial_number"},
	)
	gaugeTemperature = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "si7021_temperature",
			Help: "Air temperature (units: degrees Celsius)",
		},
		[]string{"serial_number"},
	)
)

var exportCmd = cli.Command{
	Name:  "export",
	Usage: "expose periodic measurements as Prometheus metrics",
	Flags: []cli.Flag{
		adapterFlag,
		&cli.StringFlag{
			Name:  "listen",
			Usage: "address to serve /metrics on",
		},
		&cli.DurationFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "time between sensor reads",
		},
		verboseFlag,
	},
	Action: func(c *cli.Context) error {
		sensor, ctx, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		cfg := getConfig(c)
		listen := c.String("listen")
		if listen == "" {
			listen = cfg.Export.Listen
		}
		interval := c.Duration("interval")
		if interval == 0 {
			interval = time.Duration(cfg.Export.IntervalSeconds) * time.Second
		}

		serial, err := sensor.SerialNumber(ctx)
		if err != nil {
			return console.Exit(1, "error reading serial number: %s", console.Red(err))
		}
		label := fmt.Sprintf("%016x", serial)

		prometheus.MustRegister(gaugeHumidity)
		prometheus.MustRegister(gaugeTemperature)
		prometheus.MustRegister(prometheus.NewBuildInfoCollector())

		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(
				prometheus.DefaultGatherer,
				promhttp.HandlerOpts{
					EnableOpenMetrics: true,
				},
			))
			slog.Error("metrics server stopped", "error", http.ListenAndServe(listen, nil))
		}()
		slog.Info("exporting measurements", "serial_number", label, "listen", listen, "interval", interval)

		// the bus transport is a single shared resource, all reads stay on
		// this goroutine
		for {
			hum, err := sensor.MeasureHumidity(ctx)
			if err != nil {
				slog.Error("humidity read failed", "error", err)
			} else {
				gaugeHumidity.WithLabelValues(label).Set(float64(hum))
				temp, err := sensor.TemperatureFromPreviousHumidityMeasurement(ctx)
				if err != nil {
					slog.Error("temperature read failed", "error", err)
				} else {
					gaugeTemperature.WithLabelValues(label).Set(float64(temp))
				}
			}
			time.Sleep(interval)
		}
	},
}
