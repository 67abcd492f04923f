// Command kahnrun runs one pipeline from a config file and prints the run
// result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gyaneshwarpardhi/kahnflow/internal/catalog"
	"github.com/gyaneshwarpardhi/kahnflow/internal/config"
	"github.com/gyaneshwarpardhi/kahnflow/internal/ctxlog"
	"github.com/gyaneshwarpardhi/kahnflow/internal/engine"
	"github.com/gyaneshwarpardhi/kahnflow/internal/run"
	"github.com/gyaneshwarpardhi/kahnflow/internal/task"
	"github.com/gyaneshwarpardhi/kahnflow/internal/task/builtin"
)

func main() {
	os.Exit(runMain(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// runMain returns the process exit code: 0 on success, 1 when the run failed
// (or, with -strict, when any node failed or was skipped) and 2 on usage errors.
func runMain(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kahnrun", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "configs/pipelines.yaml", "Path to pipelines config (.yaml or .hcl)")
	pipeline := fs.String("pipeline", "", "Pipeline ID to run; empty lists the pipelines")
	payloadPath := fs.String("payload", "", `JSON payload file ("-" reads stdin)`)
	strict := fs.Bool("strict", false, "Exit 1 when any node failed or was skipped")
	logLevel := fs.String("log-level", "warn", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := ctxlog.New(*logLevel, "text", stderr)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		return 1
	}
	reg := task.NewRegistry()
	builtin.Register(reg)
	cat, err := catalog.Compile(cfg, reg)
	if err != nil {
		logger.Error("failed to build pipelines", "err", err)
		return 1
	}

	if *pipeline == "" {
		for _, id := range cat.IDs() {
			fmt.Fprintln(stdout, id)
		}
		return 0
	}

	payload, err := readPayload(*payloadPath, stdin)
	if err != nil {
		logger.Error("failed to read payload", "err", err)
		return 2
	}

	ctx := ctxlog.WithLogger(context.Background(), logger)
	eng := engine.New(ctx, cat, cfg.Engine)
	defer eng.Shutdown()

	res, err := eng.ProcessSync(ctx, &run.Request{Pipeline: *pipeline, Payload: payload})
	if err != nil {
		logger.Error("run failed", "pipeline", *pipeline, "err", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Error("failed to write result", "err", err)
		return 1
	}

	switch {
	case res.Error != "":
		return 1
	case *strict && (len(res.Failed) > 0 || len(res.Skipped) > 0):
		logger.Warn("run incomplete", "failed", res.Failed, "skipped", len(res.Skipped))
		return 1
	}
	return 0
}

func readPayload(path string, stdin io.Reader) (map[string]interface{}, error) {
	var r io.Reader
	switch path {
	case "":
		return nil, nil
	case "-":
		r = stdin
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var payload map[string]interface{}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}
