package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/someplaceguy/parsat/pkg/engine"
	"github.com/someplaceguy/parsat/pkg/limit"
	"github.com/someplaceguy/parsat/pkg/metrics"
	"github.com/someplaceguy/parsat/pkg/parallel"
)

var (
	extraSolvers int
	window       time.Duration
	timeout      time.Duration
	seed         int64
	metricsAddr  string
	debug        bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "parsat <cnf-file>",
		Short: "solve a DIMACS CNF formula with a portfolio of SAT solvers",
		Args:  cobra.ExactArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				log.SetLevel(log.DebugLevel)
			}
		},
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().IntVarP(&extraSolvers, "solvers", "j", 3, "number of clone solvers to race against the master")
	rootCmd.Flags().DurationVar(&window, "window", 500*time.Millisecond, "solve slice between sharing points")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "overall solve timeout, 0 for none")
	rootCmd.Flags().Int64Var(&seed, "seed", 1, "master random seed")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "listen address for Prometheus metrics, empty to disable")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return errors.Wrap(err, "opening cnf file")
	}
	defer f.Close()

	root := limit.New()
	master, err := engine.FromDimacs(f, parallel.Config{Seed: seed, Phase: parallel.PhaseCaching}, root)
	if err != nil {
		return err
	}

	p, err := engine.NewPortfolio(master, extraSolvers,
		engine.WithWindow(window),
		engine.WithPortfolioLogger(log.StandardLogger()),
	)
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		metrics.Register(prometheus.DefaultRegisterer)
		go func() {
			if err := http.ListenAndServe(metricsAddr, promhttp.Handler()); err != nil {
				log.WithError(err).Error("metrics listener failed")
			}
		}()
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := p.Solve(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.WithFields(log.Fields{
		"elapsed": time.Since(start),
		"winner":  out.Winner,
	}).Info("portfolio run complete")

	switch out.Status {
	case engine.Sat:
		fmt.Println("s SATISFIABLE")
		fmt.Println(modelLine(out.Model))
	case engine.Unsat:
		fmt.Println("s UNSATISFIABLE")
	default:
		fmt.Println("s UNKNOWN")
	}
	return nil
}

func modelLine(model []int) string {
	var b strings.Builder
	b.WriteString("v")
	for _, m := range model {
		b.WriteString(" ")
		b.WriteString(strconv.Itoa(m))
	}
	b.WriteString(" 0")
	return b.String()
}
