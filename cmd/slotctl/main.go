package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"smart-schedule/core/logger"
	"smart-schedule/core/server"
	"smart-schedule/modules/availability/dto"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "slotctl",
		Usage: "Compute bookable slots from the command line.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", EnvVars: []string{"CONFIG_FILE"}, Usage: "Path to a config file."},
		},
		Commands: []*cli.Command{
			slotsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("slotctl failed", "error", err)
		os.Exit(1)
	}
}

func slotsCommand() *cli.Command {
	return &cli.Command{
		Name:  "slots",
		Usage: "Print the available slots of an event type as JSON.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "event-type", Required: true, Usage: "Event type id."},
			&cli.StringFlag{Name: "from", Required: true, Usage: "First date (YYYY-MM-DD or RFC3339)."},
			&cli.StringFlag{Name: "to", Required: true, Usage: "Last date, inclusive (YYYY-MM-DD or RFC3339)."},
			&cli.StringFlag{Name: "tz", Value: "UTC", Usage: "Booker timezone."},
			&cli.StringSliceFlag{Name: "host", Usage: "Restrict to these host ids."},
			&cli.IntFlag{Name: "duration", Usage: "Override the event length in minutes."},
			&cli.StringFlag{Name: "previous-host", Usage: "Host of the booking being rescheduled."},
			&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "Deadline for the computation."},
		},
		Action: func(c *cli.Context) error {
			app, err := server.Bootstrap(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to bootstrap: %w", err)
			}
			defer app.Close()

			svc, err := app.AvailabilityService()
			if err != nil {
				return fmt.Errorf("failed to build availability service: %w", err)
			}

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()

			response, appErr := svc.GetAvailableSlots(ctx, &dto.AvailabilityRequest{
				EventTypeID:     c.String("event-type"),
				HostIDs:         c.StringSlice("host"),
				DateFrom:        c.String("from"),
				DateTo:          c.String("to"),
				BookerTimezone:  c.String("tz"),
				DurationMinutes: c.Int("duration"),
				PreviousHostID:  c.String("previous-host"),
			})
			if appErr != nil {
				return appErr
			}

			encoder := json.NewEncoder(c.App.Writer)
			encoder.SetIndent("", "  ")
			return encoder.Encode(response)
		},
	}
}
