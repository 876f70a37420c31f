package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/si7021/cmd/si7021/console"
)

// heater currents above this selector get a confirmation prompt; the top
// setting draws up to 95mA at 3.3V
const heaterPowerWarnThreshold = 12

var heaterCmd = cli.Command{
	Name:  "heater",
	Usage: "control the integrated heater",
	Subcommands: cli.Commands{
		&heaterOnCmd,
		&heaterOffCmd,
	},
}

var heaterOnCmd = cli.Command{
	Name:  "on",
	Usage: "enable the heater",
	Flags: []cli.Flag{
		adapterFlag,
		&cli.IntFlag{
			Name:    "power",
			Aliases: []string{"p"},
			Usage:   "heater current selector, 0 (~3mA) to 15 (~94mA)",
		},
		&cli.BoolFlag{
			Name:  "yes",
			Usage: "skip the high power confirmation prompt",
		},
		verboseFlag,
	},
	Action: func(c *cli.Context) error {
		power := c.Int("power")
		if power < 0 || power > 15 {
			return console.Exit(1, "power must be between 0 and 15, got %s", console.Red(power))
		}
		if power >= heaterPowerWarnThreshold && !c.Bool("yes") {
			answer, err := console.YesOrNo(fmt.Sprintf("%s heater power %d draws up to 95mA, continue?", console.PictoFire, power))
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if answer != console.Yes {
				return nil
			}
		}
		sensor, ctx, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		if err = sensor.SetHeater(ctx, true, byte(power)); err != nil {
			return console.Exit(1, "error enabling heater: %s", console.Red(err))
		}
		console.Infof("heater enabled at power %s", console.White(power))
		return nil
	},
}

var heaterOffCmd = cli.Command{
	Name:  "off",
	Usage: "disable the heater",
	Flags: []cli.Flag{
		adapterFlag,
		verboseFlag,
	},
	Action: func(c *cli.Context) error {
		sensor, ctx, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		if err = sensor.SetHeater(ctx, false, 0); err != nil {
			return console.Exit(1, "error disabling heater: %s", console.Red(err))
		}
		console.Infof("heater disabled")
		return nil
	},
}
