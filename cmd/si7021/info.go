package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/si7021"
	"github.com/mklimuk/si7021/cmd/si7021/console"
)

type deviceInfo struct {
	SerialNumber     string `yaml:"serial_number"`
	FirmwareVersion  string `yaml:"firmware_version"`
	FirmwareRevision string `yaml:"firmware_revision"`
}

var infoCmd = cli.Command{
	Name:  "info",
	Usage: "read the electronic serial number and firmware revision",
	Flags: []cli.Flag{
		adapterFlag,
		verboseFlag,
	},
	Action: func(c *cli.Context) error {
		sensor, ctx, err := openSensor(c)
		if err != nil {
			return console.Exit(1, "adapter initialization error: %s", console.Red(err))
		}
		serial, err := sensor.SerialNumber(ctx)
		if err != nil {
			return console.Exit(1, "error reading serial number: %s", console.Red(err))
		}
		firmware, err := sensor.FirmwareVersion(ctx)
		if err != nil {
			return console.Exit(1, "error reading firmware version: %s", console.Red(err))
		}
		enc := yaml.NewEncoder(os.Stdout)
		err = enc.Encode(deviceInfo{
			SerialNumber:     fmt.Sprintf("%016x", serial),
			FirmwareVersion:  fmt.Sprintf("%#x", firmware),
			FirmwareRevision: si7021.FirmwareRevision(firmware).String(),
		})
		if err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return nil
	},
}
