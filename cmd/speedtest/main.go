package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sysbro/internal/config"
	"sysbro/internal/domain"
	"sysbro/internal/logger"
	"sysbro/internal/probe"
	"sysbro/pkg/units"
)

func main() {
	cfg := config.Load()

	index := flag.Int("server", cfg.ProbeServerIndex, "index of the download target")
	list := flag.Bool("list", false, "print the download targets and exit")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	appLog := logger.New(cfg)

	var targets []probe.Target
	if len(cfg.ProbeTargets) > 0 {
		targets = probe.TargetsFromURLs(cfg.ProbeTargets)
	}
	prober := probe.New(probe.NewHTTPClient(), targets,
		probe.WithLogger(appLog),
		probe.WithMaxDuration(cfg.ProbeMaxDuration),
	)

	if *list {
		for i, t := range prober.Targets() {
			fmt.Printf("%d  %s\n   %s\n", i, t.Name, t.URL)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := prober.Start(ctx, *index)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSelection) {
			fmt.Fprintf(os.Stderr, "invalid server %d, use -list to see the targets\n", *index)
			os.Exit(2)
		}
		log.Fatal(err)
	}

	fmt.Printf("Testing %s\n", session.Target.Name)

	for sample := range session.Samples() {
		fmt.Printf("%6.1fs  %s\n", float64(sample.TimestampMs)/1000, units.FormatRate(sample.BytesPerSecond))
	}

	result, err := session.Result()
	if err != nil {
		fmt.Fprintf(os.Stderr, "speed test failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Peak: %s (%s in %d samples)\n",
		result.Formatted,
		units.FormatBytes(result.BytesReceived, ""),
		result.Samples,
	)
}
