package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"charmcli/internal/app"
	"charmcli/internal/config"
	"charmcli/internal/operations"
	"charmcli/internal/validation"
	"charmcli/pkg/contracts"
)

type options struct {
	configFile   string
	step         string
	participants []string
	workers      int
	continueOn   bool
	listSteps    bool
	check        bool
	version      bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	var participants string

	fs := flag.NewFlagSet("charm", flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "YAML configuration file (defaults to charm.yaml or config/charm.yaml)")
	fs.StringVar(&opts.step, "step", operations.StepAll, "step to run, or \"all\"")
	fs.StringVar(&participants, "participants", "", "comma separated participant IDs (default: every folder)")
	fs.IntVar(&opts.workers, "workers", 0, "participants processed in parallel (default from config)")
	fs.BoolVar(&opts.continueOn, "continue", false, "keep running independent steps after a failure")
	fs.BoolVar(&opts.listSteps, "list", false, "list the analysis steps and exit")
	fs.BoolVar(&opts.check, "check", false, "check the raw data of the participants and exit")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	for _, id := range strings.Split(participants, ",") {
		if id = strings.TrimSpace(id); id != "" {
			opts.participants = append(opts.participants, id)
		}
	}
	if opts.workers < 0 {
		return opts, fmt.Errorf("-workers must not be negative")
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(contracts.GetVersionString())
		return
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if opts.continueOn {
		cfg.Pipeline.ContinueOnFail = true
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		slog.Error("failed to initialize", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if opts.listSteps {
		printSteps(os.Stdout, application.Manager.GetRegistry().Info())
		application.Close()
		return
	}

	if opts.check {
		os.Exit(check(application, opts))
	}
	os.Exit(run(application, opts))
}

func check(application *app.Application, opts options) int {
	defer application.Close()

	report, err := validation.NewStudyValidator(application.Env.Paths, application.Logger).Check(opts.participants)
	if err != nil {
		application.Logger.Error("input check failed", slog.String("error", err.Error()))
		return 1
	}
	printReport(os.Stdout, report)
	if !report.OK() {
		return 1
	}
	return 0
}

func run(application *app.Application, opts options) int {
	defer func() {
		if err := application.Close(); err != nil {
			application.Logger.Error("shutdown error", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := application.Execute(ctx, operations.RunRequest{
		Step:         opts.step,
		Participants: opts.participants,
		Workers:      opts.workers,
	})
	if resp != nil {
		printRun(os.Stdout, resp, stepOrder(application.Manager.GetRegistry()))
	}
	if err != nil {
		application.Logger.Error("run failed", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

func stepOrder(r *operations.Registry) []string {
	steps, err := r.GetDependencyOrder()
	if err != nil {
		return r.ListIDs()
	}
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}
	return ids
}

func printReport(w io.Writer, report validation.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPERIOD\tACTIGRAPH\tCORE\tACC HOURS\tHR HOURS\tBATTERY HOURS")
	for _, c := range report.Participants {
		fmt.Fprintf(tw, "%s\t%t\t%t\t%t\t%d\t%d\t%d\n", c.ID, c.StudyPeriod, c.Actigraph, c.Core,
			c.WatchAccHours, c.HeartRateHours, c.BatteryHours)
	}
	tw.Flush()
	for _, p := range report.Problems {
		fmt.Fprintln(w, "problem:", p)
	}
}

func printSteps(w io.Writer, steps []operations.StepInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tNAME\tDEPENDS ON")
	for _, s := range steps {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Name, strings.Join(s.Dependencies, ", "))
	}
	tw.Flush()
}

func printRun(w io.Writer, resp *operations.RunResponse, order []string) {
	fmt.Fprintf(w, "run %s: %s in %s\n", resp.ID, resp.Status, resp.Duration.Round(time.Millisecond))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tSTATUS\tPARTICIPANTS\tSKIPPED\tERROR")
	for _, id := range order {
		s, ok := resp.Steps[id]
		if !ok {
			continue
		}
		errText := ""
		if s.Error != nil {
			errText = s.Error.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", id, s.GetStatus(), s.Participants,
			strings.Join(s.Skipped, ","), errText)
	}
	tw.Flush()
}
