package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	securebox "github.com/hnodriturbo/Project-5-Security-Box"
	"github.com/hnodriturbo/Project-5-Security-Box/internal/adapters/sim"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("secbox-edge %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to box configuration file")
	simulate := fs.String("sim", "", "Comma-separated credential script to replay on a simulated reader")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := securebox.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var opts []securebox.Option
	if *simulate != "" {
		script := strings.Split(*simulate, ",")
		opts = append(opts, securebox.WithReader(sim.NewReader(script, true)))
	}

	box, err := securebox.New(cfg, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return box.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := securebox.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets := map[string]float64{
		"secbox_access_allowed_total":  0,
		"secbox_access_denied_total":   0,
		"secbox_unlocks_total":         0,
		"secbox_link_connected":        0,
		"secbox_outbound_queue_length": 0,
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] allowed=%.0f denied=%.0f unlocks=%.0f link=%.0f queue=%.0f\n",
		time.Now().Format(time.RFC3339),
		targets["secbox_access_allowed_total"],
		targets["secbox_access_denied_total"],
		targets["secbox_unlocks_total"],
		targets["secbox_link_connected"],
		targets["secbox_outbound_queue_length"],
	)
	return nil
}

func printUsage() {
	fmt.Printf(`Security Box CLI

Usage:
  secbox-edge <command> [flags]

Commands:
  run        Start the box runtime using the provided config (default)
  validate   Load and validate a config file without starting the runtime
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  secbox-edge run -config ./data/config.yaml
  secbox-edge run -config ./data/config.yaml -sim ,,AABBCC,AABBCC,,
  secbox-edge validate -config ./data/config.yaml
  secbox-edge stats -url http://localhost:9100/metrics -interval 1s
`)
}
