package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/si7021/cmd/si7021/console"
)

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "soft reset the device",
	Flags: []cli.Flag{
		adapterFlag,
		verboseFlag,
	},
	Action: func(c *cli.Context) error {
		sensor, ctx, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		if err = sensor.Reset(ctx); err != nil {
			return console.Exit(1, "error resetting device: %s", console.Red(err))
		}
		console.Infof("device reset")
		return nil
	},
}
