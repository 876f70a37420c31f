package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/si7021"
	"github.com/mklimuk/si7021/adapter"
	"github.com/mklimuk/si7021/cmd/si7021/console"
	i2cbus "github.com/mklimuk/si7021/i2c"
)

var adapterFlag = &cli.StringFlag{
	Name:    "adapter",
	Aliases: []string{"a"},
	Usage:   "bus adapter: mcp2221, periph or gobot",
}

var verboseFlag = &cli.BoolFlag{
	Name:    "verbose",
	Aliases: []string{"v"},
}

// openSensor builds the transport selected by flag or config and runs the
// driver initialization against it.
func openSensor(c *cli.Context) (*si7021.Sensor, context.Context, error) {
	ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
	cfg := getConfig(c)
	kind := c.String("adapter")
	if kind == "" {
		kind = cfg.Adapter
	}
	var trans si7021.Transport
	switch kind {
	case "mcp2221":
		trans = adapter.NewMCP2221()
	case "periph":
		trans = i2cbus.NewGenericBus(cfg.Bus)
	case "gobot":
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		trans = adapter.NewGobotBus(npi, cfg.GobotBus)
	default:
		return nil, nil, fmt.Errorf("unknown adapter %q", kind)
	}
	sensor := si7021.New(trans)
	if err := sensor.Begin(ctx); err != nil {
		return nil, nil, err
	}
	return sensor, ctx, nil
}
