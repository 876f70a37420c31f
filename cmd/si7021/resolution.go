package main

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/si7021"
	"github.com/mklimuk/si7021/cmd/si7021/console"
)

var resolutionDescriptions = map[si7021.Resolution]string{
	si7021.Resolution12BitRH14BitTemp: "12 bit RH / 14 bit temperature",
	si7021.Resolution8BitRH12BitTemp:  "8 bit RH / 12 bit temperature",
	si7021.Resolution10BitRH13BitTemp: "10 bit RH / 13 bit temperature",
	si7021.Resolution11BitRH11BitTemp: "11 bit RH / 11 bit temperature",
}

var resolutionCmd = cli.Command{
	Name:      "resolution",
	Usage:     "set the measurement resolution pair",
	ArgsUsage: "<0-3>",
	Flags: []cli.Flag{
		adapterFlag,
		verboseFlag,
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return console.Exit(1, "usage: si7021 resolution <0-3>")
		}
		selector, err := strconv.Atoi(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "invalid resolution selector: %s", console.Red(c.Args().Get(0)))
		}
		sensor, ctx, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		res := si7021.Resolution(selector)
		if err = sensor.SetResolution(ctx, res); err != nil {
			return console.Exit(1, "error setting resolution: %s", console.Red(err))
		}
		console.Infof("resolution set to %s", console.White(resolutionDescriptions[res]))
		return nil
	},
}
