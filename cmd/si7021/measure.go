package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/si7021/cmd/si7021/console"
)

var measureCmd = cli.Command{
	Name:    "measure",
	Aliases: []string{"m"},
	Usage:   "read relative humidity and temperature",
	Flags: []cli.Flag{
		adapterFlag,
		&cli.BoolFlag{
			Name:    "fahrenheit",
			Aliases: []string{"f"},
			Usage:   "report temperature in Fahrenheit",
		},
		verboseFlag,
	},
	Action: func(c *cli.Context) error {
		sensor, ctx, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		hum, err := sensor.MeasureHumidity(ctx)
		if err != nil {
			return console.Exit(1, "error getting humidity read: %s", console.Red(err))
		}
		// the humidity conversion already measured temperature for
		// compensation, read that instead of triggering a second one
		var temp float32
		if c.Bool("fahrenheit") {
			temp, err = sensor.TemperatureFromPreviousHumidityMeasurementF(ctx)
		} else {
			temp, err = sensor.TemperatureFromPreviousHumidityMeasurement(ctx)
		}
		if err != nil {
			return console.Exit(1, "error getting temperature read: %s", console.Red(err))
		}
		console.Printf("%s  %s\n%s %s\n", console.PictoThermometer, console.White(temp), console.PictoHumidity, console.White(hum))
		return nil
	},
}
