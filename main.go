package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"grimm.is/firewatch/cmd"
	"grimm.is/firewatch/internal/brand"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "start":
		startFlags := flag.NewFlagSet("start", flag.ExitOnError)
		configFile := startFlags.String("config", "", "Configuration file (environment takes precedence)")
		startFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		startFlags.Parse(os.Args[2:])

		if err := cmd.RunStart(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Start failed: %v\n", err)
			os.Exit(1)
		}

	case "generate":
		genFlags := flag.NewFlagSet("generate", flag.ExitOnError)
		path := genFlags.String("path", "app.log", "Log file to append to")
		genFlags.StringVar(path, "p", "app.log", "Log file (short)")

		count := genFlags.Int("count", 0, "Number of lines to emit (0 = run until interrupted)")
		genFlags.IntVar(count, "n", 0, "Number of lines (short)")

		minDelay := genFlags.Duration("min-delay", time.Second, "Minimum pause between lines")
		maxDelay := genFlags.Duration("max-delay", 5*time.Second, "Maximum pause between lines")
		seed := genFlags.Int64("seed", 0, "Random seed (0 = time-based)")
		genFlags.Parse(os.Args[2:])

		if err := cmd.RunGenerate(cmd.GenerateOptions{
			Path:     *path,
			Count:    *count,
			MinDelay: *minDelay,
			MaxDelay: *maxDelay,
			Seed:     *seed,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Generate failed: %v\n", err)
			os.Exit(1)
		}

	case "version":
		fmt.Printf("%s version %s\n", brand.Name, brand.Version)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - %s

Usage:
  %s <command> [options]

Commands:
  start     Tail the log file and serve alerts over websocket
            Options: --config (-c) <file>
  generate  Append synthetic traffic lines to the log file
            Options: --path (-p) <file>, --count (-n), --min-delay, --max-delay, --seed
  version   Print version information
  help      Show this help

Configuration comes from the environment (LOG_PATH, WEBSOCKET_HOST,
WEBSOCKET_PORT, CONCURRENCY, QUEUE_MAXSIZE, POLL_INTERVAL,
USE_LOCAL_MODEL, MODEL_API_URL, MODEL_API_KEY, MAX_RETRIES,
INITIAL_BACKOFF, LOG_LEVEL). A config file supplies defaults below the
environment.

Examples:
  %s start
  LOG_PATH=/var/log/fw.log %s start
  %s generate -n 500 --min-delay 0 --max-delay 0
`, brand.Name, brand.Description, brand.BinaryName, brand.BinaryName, brand.BinaryName, brand.BinaryName)
}
