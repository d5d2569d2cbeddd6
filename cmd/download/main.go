package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-ensemble/internal/marketdata"
)

const dateLayout = "2006-01-02"

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "download OHLCV history from a market data provider into a CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "provider",
				Value: string(marketdata.ProviderPolygon),
				Usage: "market data provider (polygon or binance)",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "provider API key; defaults to the POLYGON_API_KEY environment variable",
			},
			&cli.StringFlag{
				Name:     "symbol",
				Required: true,
				Usage:    "symbol to download",
			},
			&cli.StringFlag{
				Name:  "start",
				Value: time.Now().AddDate(-1, 0, 0).Format(dateLayout),
				Usage: "start date (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "end",
				Value: time.Now().Format(dateLayout),
				Usage: "end date (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "interval",
				Value: string(marketdata.IntervalDay),
				Usage: "bar interval (minute, hour or day)",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "output CSV path; defaults to <symbol>.csv",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("download failed: %v", err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	interval := marketdata.Interval(cmd.String("interval"))
	if err := marketdata.ValidateInterval(interval); err != nil {
		return err
	}

	start, err := time.Parse(dateLayout, cmd.String("start"))
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	end, err := time.Parse(dateLayout, cmd.String("end"))
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}

	apiKey := cmd.String("api-key")
	if apiKey == "" {
		apiKey = os.Getenv("POLYGON_API_KEY")
	}

	provider, err := marketdata.NewProvider(marketdata.ProviderType(cmd.String("provider")), apiKey)
	if err != nil {
		return err
	}

	symbol := cmd.String("symbol")

	series, err := provider.Fetch(ctx, symbol, start, end, interval)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		output = symbol + ".csv"
	}

	if err := marketdata.WriteCSV(output, series); err != nil {
		return err
	}

	fmt.Printf("Downloaded %d bars of %s to %s\n", series.Len(), symbol, output)

	return nil
}
