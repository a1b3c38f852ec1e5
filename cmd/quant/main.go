// Command quant ranks tickers by risk-adjusted momentum and backtests
// periodic top-K rebalancing.
package main

import (
	"os"

	"github.com/Rahul711sharma/momentum-analysis/cmd/quant/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
