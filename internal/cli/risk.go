package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/tradedesk/internal/analytics"
	"github.com/vietddude/tradedesk/internal/control"
)

var lpLocked float64

var riskCmd = &cobra.Command{
	Use:   "risk [mint]",
	Short: "Assess a token mint and print the scored record",
	Args:  cobra.ExactArgs(1),
	Run:   runRisk,
}

func init() {
	riskCmd.Flags().Float64Var(&lpLocked, "lp-locked", -1, "locked LP percentage in [0,100]; omit when unknown")
	rootCmd.AddCommand(riskCmd)
}

func runRisk(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	app, err := control.NewApp(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize tradedesk", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	var o analytics.Overrides
	if cmd.Flags().Changed("lp-locked") {
		o.LPLockedPercentage = &lpLocked
	}

	rec, err := app.Analyzer().Assess(ctx, args[0], o)
	if err != nil {
		slog.Error("Assessment failed", "mint", args[0], "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rec)
}
