package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/campus-simulator/cmd"
)

func main() {
	app := &cli.App{
		Name:   "campus-simulator",
		Usage:  "simulates campus IoT sensors reporting to the platform over HTTP",
		Action: cmd.SimulatorCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "url",
				Usage:    "base URL of the IoT platform (e.g. http://localhost:3000)",
				EnvVars:  []string{"PLATFORM_URL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "device-id",
				Usage:   "unique device identifier, derived from the name when empty",
				EnvVars: []string{"DEVICE_ID"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:     "name",
				Usage:    "device name",
				EnvVars:  []string{"DEVICE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "type",
				Usage:    "device type: temperature, humidity, occupancy or lighting",
				EnvVars:  []string{"DEVICE_TYPE"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "location",
				Usage:    "device location",
				EnvVars:  []string{"DEVICE_LOCATION"},
				Required: true,
			},
			&cli.IntFlag{
				Name:    "interval",
				Usage:   "update interval in seconds",
				EnvVars: []string{"INTERVAL"},
				Value:   10,
			},
			&cli.IntFlag{
				Name:    "count",
				Usage:   "number of devices to simulate from this definition",
				EnvVars: []string{"DEVICE_COUNT"},
				Value:   1,
			},
			&cli.DurationFlag{
				Name:    "stagger",
				Usage:   "delay between device start-ups",
				EnvVars: []string{"STAGGER"},
				Value:   0,
			},
			&cli.DurationFlag{
				Name:    "summary-interval",
				Usage:   "how often to log a fleet summary, 0 disables it",
				EnvVars: []string{"SUMMARY_INTERVAL"},
				Value:   time.Minute,
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "listen address for /metrics, disabled when empty",
				EnvVars: []string{"METRICS_ADDR"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-host",
				EnvVars: []string{"MQTT_HOST"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-pass",
				EnvVars: []string{"MQTT_PASS"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-user",
				EnvVars: []string{"MQTT_USER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
