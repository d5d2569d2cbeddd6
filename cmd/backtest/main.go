package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-ensemble/internal/agent"
	"github.com/rxtech-lab/argo-ensemble/internal/backtest"
	"github.com/rxtech-lab/argo-ensemble/internal/backtest/store"
	"github.com/rxtech-lab/argo-ensemble/internal/ensemble"
	"github.com/rxtech-lab/argo-ensemble/internal/logger"
	"github.com/rxtech-lab/argo-ensemble/internal/marketdata"
	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/mocks"
)

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "replay OHLCV history through strategy agents and report performance",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the backtest YAML config",
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "path to a CSV file of bars; omitted runs on synthetic data",
			},
			&cli.StringFlag{
				Name:  "pair-csv",
				Usage: "path to the paired series CSV for the pairs trading agent",
			},
			&cli.StringFlag{
				Name:  "symbol",
				Value: "TEST",
				Usage: "symbol of the series",
			},
			&cli.StringSliceFlag{
				Name:  "agent",
				Value: []string{string(agent.TypeMeanReversion)},
				Usage: "agent types to run; more than one builds an ensemble",
			},
			&cli.StringFlag{
				Name:  "method",
				Value: string(ensemble.MethodMajorityVote),
				Usage: "ensemble aggregation method",
			},
			&cli.StringFlag{
				Name:  "output",
				Value: "backtest_result.yaml",
				Usage: "path the result summary is written to",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "duckdb path for the signal and trade audit trail",
			},
			&cli.StringFlag{
				Name:  "parquet",
				Usage: "export the run's trades to this parquet file",
			},
			&cli.BoolFlag{
				Name:  "print-schema",
				Usage: "print the config JSON schema and exit",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("backtest failed: %v", err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("print-schema") {
		schema, err := backtest.GenerateSchemaJSON()
		if err != nil {
			return err
		}

		fmt.Println(schema)

		return nil
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	series, err := loadSeries(cmd.String("csv"), cmd.String("symbol"))
	if err != nil {
		return err
	}

	tradingAgent, err := buildAgent(cmd.StringSlice("agent"), ensemble.Method(cmd.String("method")), cmd.String("pair-csv"), appLogger)
	if err != nil {
		return err
	}

	backtester, err := backtest.New(cfg, appLogger)
	if err != nil {
		return err
	}

	var auditStore *store.DuckDBStore

	if storePath := cmd.String("store"); storePath != "" {
		auditStore, err = store.NewDuckDBStore(storePath, appLogger)
		if err != nil {
			return err
		}
		defer auditStore.Close()

		backtester.SetStore(auditStore)
	}

	bar := progressbar.NewOptions(series.Len(),
		progressbar.OptionSetDescription(fmt.Sprintf("Backtesting %s", series.Symbol())),
		progressbar.OptionShowCount())

	onProgress := optional.Some(backtest.ProgressCallback(func(current, total int) {
		_ = bar.Set(current)
	}))

	result, err := backtester.Run(ctx, tradingAgent, series, onProgress)
	if err != nil {
		return err
	}

	_ = bar.Finish()

	if err := types.WriteResult(cmd.String("output"), result); err != nil {
		return err
	}

	if parquetPath := cmd.String("parquet"); parquetPath != "" && auditStore != nil {
		if err := auditStore.ExportTradesParquet(result.ID, parquetPath); err != nil {
			return err
		}
	}

	fmt.Printf("\nRun %s: %d trades, final equity %.2f (%.2f%% return), written to %s\n",
		result.ID, len(result.Trades), result.FinalEquity, result.Metrics.TotalReturn*100, cmd.String("output"))

	return nil
}

func loadConfig(path string) (backtest.Config, error) {
	if path == "" {
		return backtest.DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return backtest.Config{}, err
	}

	return backtest.ParseConfig(data)
}

func loadSeries(csvPath, symbol string) (*types.MarketSeries, error) {
	if csvPath == "" {
		return mocks.GenerateDaily(symbol, 504)
	}

	return marketdata.LoadCSV(csvPath, symbol)
}

// buildAgent assembles a single agent or, for multiple types, an ensemble.
func buildAgent(agentTypes []string, method ensemble.Method, pairCSV string, log *logger.Logger) (agent.Agent, error) {
	agents := make([]agent.Agent, 0, len(agentTypes))

	for _, agentType := range agentTypes {
		built, err := agent.New(agent.Type(agentType), nil)
		if err != nil {
			return nil, err
		}

		if pairs, ok := built.(*agent.PairsTrading); ok && pairCSV != "" {
			pairSeries, err := marketdata.LoadCSV(pairCSV, "PAIR")
			if err != nil {
				return nil, err
			}

			pairs.SetPairSeries(pairSeries)
		}

		agents = append(agents, built)
	}

	if len(agents) == 1 {
		return agents[0], nil
	}

	return ensemble.New(ensemble.Config{Method: method, Logger: log}, agents...)
}
