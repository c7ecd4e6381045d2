// Command quinttest plays matches between UCI chess engines and reports the
// score, Elo difference and likelihood of superiority.
//
// Usage:
//
//	quinttest test [flags] <testEngine>... <baseEngine>
//	quinttest match [-f file.yaml]
//	quinttest clop <id> <seed> [name value]...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// errUsage marks errors caused by bad command-line input.
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "test":
		err = runTest(ctx, args[1:], stdout, stderr)
	case "match":
		err = runMatchFile(ctx, args[1:], stdout, stderr)
	case "clop":
		err = runClop(ctx, args[1:], stdout, stderr)
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		return 2
	default:
		fmt.Fprintln(stderr, "quinttest:", err)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  quinttest test [-g games] [-t time] [-c concurrency] [-o output] <testEngine>... <baseEngine>")
	fmt.Fprintln(w, "  quinttest match [-f file.yaml]")
	fmt.Fprintln(w, "  quinttest clop <id> <seed> [name value]...")
}

// parseInterspersed parses flags that may appear before, between or after
// positional arguments, and returns the positional ones.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}
