package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[1] {
	case "publish":
		if len(args) < 3 {
			_, _ = fmt.Fprintln(stderr, "Usage: publisher publish <chat|object|repo-file|repo-issue> [flags]")
			return 2
		}
		return runPublishCmd(ctx, args[2], args[3:], stdout, stderr)
	case "sync-all":
		return runSyncAllCmd(ctx, args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprint(w, `Usage:
  publisher publish chat       --body FILE [--tag T]... --channel ID
  publisher publish object     --body FILE [--tag T]... --bucket B --key K
  publisher publish repo-file  --body FILE [--tag T]... --repo OWNER/NAME --path P
  publisher publish repo-issue --body FILE [--tag T]... --repo OWNER/NAME --issue N
  publisher sync-all           --body FILE [--tag T]... --channel ID --bucket B --key K
                               --repo OWNER/NAME --path P [--issue N]

Every command accepts --config FILE (default $PUBLISHER_CONFIG).
Each outcome record is printed to stdout as one JSON line.
`)
}
