// Command plan finds the skill allocation and hazard approach that maximize a
// squad's guaranteed success margin.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/freeeve/squadplan/internal/client"
	"github.com/freeeve/squadplan/internal/logger"
	"github.com/freeeve/squadplan/pkg/milp"
	"github.com/freeeve/squadplan/pkg/squad"
)

type options struct {
	file      string
	roles     string
	req       squad.Request
	rank      bool
	scorecard bool
	parallel  bool
	debug     bool
	asJSON    bool
	timeout   time.Duration
	maxNodes  int
	server    string
	client    string
	token     string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o := &options{}
	fs.StringVar(&o.file, "file", "", "YAML request file; flags set explicitly override it")
	fs.StringVar(&o.roles, "roles", "Soldier,Natural Scientist,Social Scientist", "comma-separated roles of the three slots; slot 0 leads")
	fs.IntVar(&o.req.LeaderLevel, "leader", 50, "leader level")
	fs.IntVar(&o.req.SoldierLevel, "soldier", 0, "dedicated soldier level (slot 0 must be a soldier); 0 pools soldiers with the others")
	fs.IntVar(&o.req.OthersLevel, "others", 50, "level of the remaining members")
	fs.IntVar(&o.req.ShootingPct, "shooting", 0, "shooting level bonus, percent")
	fs.IntVar(&o.req.ObstaclePct, "obstacle", 0, "obstacle level bonus, percent")
	fs.IntVar(&o.req.LibraryPct, "library", 0, "library level bonus, percent")
	fs.StringVar(&o.req.SuccessTier, "tier", "100%", "success tier: 100%, 90%, 80%, 70%, 60% or 50%")
	fs.BoolVar(&o.req.FloorMargins, "floor", false, "report every margin rounded down")
	fs.BoolVar(&o.rank, "rank", false, "rank every role combination instead of planning one team")
	fs.BoolVar(&o.scorecard, "scorecard", false, "tally the best role combination over a grid of level bonuses")
	fs.BoolVar(&o.parallel, "parallel", false, "solve hazard approaches concurrently")
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&o.asJSON, "json", false, "print JSON instead of tables")
	fs.DurationVar(&o.timeout, "timeout", 2*time.Minute, "give up after this long")
	fs.IntVar(&o.maxNodes, "max-nodes", 0, "branch-and-bound node limit per hazard (0 = default)")
	fs.StringVar(&o.server, "server", "", "plan on a running server at this URL instead of locally")
	fs.StringVar(&o.client, "client", "plan-cli", "client name for the server's dev token endpoint")
	fs.StringVar(&o.token, "token", os.Getenv("SQUADPLAN_TOKEN"), "access token for -server; empty logs in via the dev endpoint")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.req.Roles = splitRoles(o.roles)

	if o.file != "" {
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		fromFile, err := loadRequest(o.file)
		if err != nil {
			return nil, err
		}
		o.req = mergeRequest(fromFile, o.req, set)
	}
	return o, nil
}

func splitRoles(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func loadRequest(path string) (squad.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return squad.Request{}, fmt.Errorf("read request file: %w", err)
	}
	return decodeRequest(data)
}

func decodeRequest(data []byte) (squad.Request, error) {
	var req squad.Request
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return squad.Request{}, fmt.Errorf("parse request file: %w", err)
	}
	return req, nil
}

// mergeRequest starts from the file and applies every flag the user set.
func mergeRequest(file, flags squad.Request, set map[string]bool) squad.Request {
	out := file
	if set["roles"] {
		out.Roles = flags.Roles
	}
	apply := map[string]func(){
		"leader":   func() { out.LeaderLevel = flags.LeaderLevel },
		"soldier":  func() { out.SoldierLevel = flags.SoldierLevel },
		"others":   func() { out.OthersLevel = flags.OthersLevel },
		"shooting": func() { out.ShootingPct = flags.ShootingPct },
		"obstacle": func() { out.ObstaclePct = flags.ObstaclePct },
		"library":  func() { out.LibraryPct = flags.LibraryPct },
		"tier":     func() { out.SuccessTier = flags.SuccessTier },
		"floor":    func() { out.FloorMargins = flags.FloorMargins },
	}
	for name, fn := range apply {
		if set[name] {
			fn()
		}
	}
	return out
}

func run(ctx context.Context, o *options, stdout io.Writer) error {
	if o.server != "" {
		return runRemote(ctx, o, stdout)
	}
	solver := milp.NewBranchAndBound()
	if o.maxNodes > 0 {
		solver.MaxNodes = o.maxNodes
	}
	opts := squad.Options{Solver: solver, Parallel: o.parallel}
	if o.debug {
		opts.Observer = func(out squad.Outcome) {
			ev := log.Debug().Str("hazard", string(out.Hazard)).Dur("took", out.Duration)
			if out.Err != nil {
				ev = ev.Err(out.Err)
			} else {
				ev = ev.Float64("worst", out.Result.Worst).Int("nodes", out.Result.Nodes)
			}
			ev.Msg("Hazard finished")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	switch {
	case o.scorecard:
		tallies, err := squad.Scorecard(ctx, o.req, nil, opts)
		if err != nil {
			return err
		}
		return emit(stdout, o.asJSON, tallies, func() string { return renderScorecard(tallies) })
	case o.rank:
		ranked, err := squad.RankRoles(ctx, o.req, opts)
		if err != nil {
			return err
		}
		return emit(stdout, o.asJSON, ranked, func() string { return renderRanking(ranked) })
	default:
		cfg, err := o.req.Config()
		if err != nil {
			return err
		}
		res, err := squad.Search(ctx, cfg, opts)
		if err != nil {
			return err
		}
		return emit(stdout, o.asJSON, res, func() string { return renderResult(o.req, res) })
	}
}

func runRemote(ctx context.Context, o *options, stdout io.Writer) error {
	if o.scorecard {
		return errors.New("-scorecard is only available locally")
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	c := client.New(o.client, o.server, o.timeout)
	if o.token != "" {
		c.SetToken(o.token)
	} else if err := c.Login(ctx); err != nil {
		return err
	}

	if o.rank {
		ranked, err := c.RankRoles(ctx, o.req)
		if err != nil {
			return err
		}
		return emit(stdout, o.asJSON, ranked, func() string { return renderRanking(ranked) })
	}

	if o.debug {
		if err := c.ConnectWS(ctx); err != nil {
			log.Warn().Err(err).Msg("Progress events unavailable")
		} else {
			defer c.CloseWS()
			go func() {
				for ev := range c.Events() {
					log.Debug().Str("event", ev.Type).Interface("data", ev.Data).Msg("Server event")
				}
			}()
		}
	}

	plan, err := c.CreatePlan(ctx, o.req)
	if err != nil {
		return err
	}
	log.Debug().Str("planId", plan.ID).Bool("cached", plan.Cached).Msg("Plan received")
	return emit(stdout, o.asJSON, plan, func() string { return renderResult(plan.Request, &plan.Result) })
}

func emit(w io.Writer, asJSON bool, v any, text func() string) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text())
	return err
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger.InitCLI(o.debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := run(ctx, o, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Planning failed")
		switch {
		case errors.Is(err, squad.ErrInvalidConfiguration), isStatus(err, http.StatusBadRequest):
			os.Exit(2)
		case errors.Is(err, squad.ErrInfeasible), isStatus(err, http.StatusUnprocessableEntity):
			os.Exit(3)
		default:
			os.Exit(1)
		}
	}
	log.Debug().Dur("elapsed", time.Since(start)).Msg("Done")
}

func isStatus(err error, status int) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
