// survival fits exponential proportional hazards models to censored survival data and
// draws posterior predictive survival times.
//
// Usage:
//
//	survival simulate -o data.csv [--n=44] [--coef=1.0] [--seed=1]
//	survival fit --data=data.csv [--name=trial]
//	survival predict --run=<id> [--method=truncated|naive] [--report=report.html]
//	survival summary [--run=<id>]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
