package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/tradedesk/internal/core/domain"
	"github.com/vietddude/tradedesk/internal/infra/chain/solana"
	"github.com/vietddude/tradedesk/internal/infra/rpc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current slot reported by every configured endpoint",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "#\tENDPOINT\tSLOT\tLATENCY\tERROR")

	for i, ep := range cfg.Solana.Endpoints {
		slot, latency, err := probe(ep, cfg.Solana.Timeout)
		if err != nil {
			_, _ = fmt.Fprintf(w, "%d\t%s\t-\t%s\t%v\n", i, ep.Name, latency.Round(time.Millisecond), err)
			continue
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\t\n", i, ep.Name, slot, latency.Round(time.Millisecond))
	}
	_ = w.Flush()
}

// probe asks a single endpoint for its slot, bypassing failover.
func probe(ep domain.Endpoint, timeout time.Duration) (uint64, time.Duration, error) {
	client, err := rpc.NewClient([]domain.Endpoint{ep}, timeout)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	slot, err := solana.NewClient(client).GetCurrentSlot(ctx)
	return slot, time.Since(start), err
}
