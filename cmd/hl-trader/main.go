package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fractrade-xyz/fractrade-hl-simple/api"
	"github.com/fractrade-xyz/fractrade-hl-simple/internal/config"
	"github.com/fractrade-xyz/fractrade-hl-simple/pkg/hyperliquid"
	"github.com/fractrade-xyz/fractrade-hl-simple/pkg/models"
)

var (
	cfgFile string
	logger  *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hl-trader",
		Short: "Hyperliquid trading client",
		Long:  `A trading client for the Hyperliquid exchange with position management, bracket orders and trailing stops`,
		Run:   runServer,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(
		balanceCmd(),
		priceCmd(),
		positionsCmd(),
		ordersCmd(),
		buyCmd(),
		sellCmd(),
		closeCmd(),
		cancelCmd(),
		trailCmd(),
		fundingCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func setup() (*hyperliquid.Client, *config.Config) {
	logger = logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.WithError(err).Error("Invalid log level, using INFO")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	var account *models.Account
	if cfg.Hyperliquid.PublicAddress != "" {
		account = &models.Account{
			PublicAddress: cfg.Hyperliquid.PublicAddress,
			PrivateKey:    cfg.Hyperliquid.PrivateKey,
		}
	}

	client, err := hyperliquid.New(account, cfg.Hyperliquid.Env, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create client")
	}
	return client, cfg
}

func runServer(cmd *cobra.Command, args []string) {
	client, cfg := setup()

	apiServer := api.NewServer(client, logger, fmt.Sprintf("%d", cfg.Server.Port))
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start API server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("hl-trader is running. Press Ctrl+C to stop.")

	<-sigChan
	logger.Info("Received shutdown signal")
	logger.Info("hl-trader stopped")
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the perp account balance",
		Run: func(cmd *cobra.Command, args []string) {
			client, _ := setup()
			balance, err := client.GetPerpBalance(cmd.Context(), "")
			if err != nil {
				logger.WithError(err).Fatal("Failed to fetch balance")
			}
			fmt.Printf("Perp balance: %s USD\n", balance.StringFixed(2))
		},
	}
}

func priceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price [symbol]",
		Short: "Show the current mid price for a symbol",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			client, _ := setup()
			price, err := client.GetPrice(cmd.Context(), args[0])
			if err != nil {
				logger.WithError(err).Fatal("Failed to fetch price")
			}
			fmt.Printf("%s: %v\n", args[0], price)
		},
	}
}

func positionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "List open positions",
		Run: func(cmd *cobra.Command, args []string) {
			client, _ := setup()
			positions, err := client.GetPositions(cmd.Context())
			if err != nil {
				logger.WithError(err).Fatal("Failed to fetch positions")
			}
			if len(positions) == 0 {
				fmt.Println("No open positions")
				return
			}
			for _, p := range positions {
				fmt.Printf("%-8s size=%s entry=%s pnl=%s\n",
					p.Symbol, p.Size.String(), p.EntryPrice.String(), p.UnrealizedPnl.String())
			}
		},
	}
}

func ordersCmd() *cobra.Command {
	var symbol string
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List open orders",
		Run: func(cmd *cobra.Command, args []string) {
			client, _ := setup()
			orders, err := client.GetOpenOrders(cmd.Context(), symbol)
			if err != nil {
				logger.WithError(err).Fatal("Failed to fetch orders")
			}
			if len(orders) == 0 {
				fmt.Println("No open orders")
				return
			}
			for _, o := range orders {
				side := "sell"
				if o.IsBuy {
					side = "buy"
				}
				fmt.Printf("%-10s %-8s %-4s size=%s class=%s\n",
					o.OrderID, o.Symbol, side, o.Size.String(), o.Class)
			}
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	return cmd
}

func buyCmd() *cobra.Command {
	var limit float64
	cmd := &cobra.Command{
		Use:   "buy [symbol] [size]",
		Short: "Place a buy order (market unless --limit is given)",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			runEntry(cmd, args, limit, true)
		},
	}
	cmd.Flags().Float64Var(&limit, "limit", 0, "limit price (0 for market)")
	return cmd
}

func sellCmd() *cobra.Command {
	var limit float64
	cmd := &cobra.Command{
		Use:   "sell [symbol] [size]",
		Short: "Place a sell order (market unless --limit is given)",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			runEntry(cmd, args, limit, false)
		},
	}
	cmd.Flags().Float64Var(&limit, "limit", 0, "limit price (0 for market)")
	return cmd
}

func runEntry(cmd *cobra.Command, args []string, limit float64, isBuy bool) {
	client, _ := setup()
	size, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		logger.WithError(err).Fatal("Invalid size")
	}
	var limitPrice *float64
	if limit > 0 {
		limitPrice = &limit
	}

	var placed models.Order
	if isBuy {
		placed, err = client.Buy(cmd.Context(), args[0], size, limitPrice)
	} else {
		placed, err = client.Sell(cmd.Context(), args[0], size, limitPrice)
	}
	if err != nil {
		logger.WithError(err).Fatal("Order failed")
	}
	fmt.Printf("Order %s status=%s\n", placed.OrderID, placed.Status)
}

func closeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close [symbol]",
		Short: "Close an open position at market",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			client, _ := setup()
			order, err := client.Close(cmd.Context(), args[0], nil)
			if err != nil {
				logger.WithError(err).Fatal("Failed to close position")
			}
			fmt.Printf("Close order %s status=%s\n", order.OrderID, order.Status)
		},
	}
}

func cancelCmd() *cobra.Command {
	var symbol string
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel all open orders, optionally for one symbol",
		Run: func(cmd *cobra.Command, args []string) {
			client, _ := setup()
			if err := client.CancelAllOrders(cmd.Context(), symbol); err != nil {
				logger.WithError(err).Fatal("Failed to cancel orders")
			}
			fmt.Println("Done")
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "only cancel orders for this symbol")
	return cmd
}

func trailCmd() *cobra.Command {
	var trailPercent float64
	var interval int
	cmd := &cobra.Command{
		Use:   "trail [symbol]",
		Short: "Run a trailing stop for an open position",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			client, cfg := setup()
			if trailPercent == 0 {
				trailPercent = cfg.Trading.DefaultTrailPercent
			}
			if interval == 0 {
				interval = cfg.Trading.TrailIntervalSeconds
			}

			controller, err := hyperliquid.NewTrailingStopController(client, hyperliquid.TrailingStopConfig{
				Symbol:       args[0],
				TrailPercent: trailPercent,
				Interval:     time.Duration(interval) * time.Second,
			})
			if err != nil {
				logger.WithError(err).Fatal("Invalid trailing stop config")
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigChan
				logger.Info("Received shutdown signal")
				cancel()
			}()

			if err := controller.Run(ctx); err != nil && err != context.Canceled {
				logger.WithError(err).Fatal("Trailing stop failed")
			}
			logger.Info("Trailing stop finished")
		},
	}
	cmd.Flags().Float64Var(&trailPercent, "trail", 0, "trail distance in percent")
	cmd.Flags().IntVar(&interval, "interval", 0, "check interval in seconds")
	return cmd
}

func fundingCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "funding",
		Short: "Show funding rates sorted highest first",
		Run: func(cmd *cobra.Command, args []string) {
			client, _ := setup()
			rates, err := client.GetFundingRates(cmd.Context())
			if err != nil {
				logger.WithError(err).Fatal("Failed to fetch funding rates")
			}
			if limit > 0 && len(rates) > limit {
				rates = rates[:limit]
			}
			for _, rate := range rates {
				fmt.Printf("%-10s %+.6f%% hourly\n", rate.Symbol, rate.Rate*100)
			}
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of rows to print")
	return cmd
}
