package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/logging"
	"github.com/goliatone/go-formflow/schedule"
)

type SchemaCmd struct {
	ID string `arg:"" help:"Form identifier."`
}

func (c *SchemaCmd) Run(g *Globals, out io.Writer) error {
	s, err := g.open(out)
	if err != nil {
		return err
	}
	form, err := s.load(context.Background(), c.ID)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(form.Schema); err != nil {
		return err
	}
	return enc.Close()
}

type FillCmd struct {
	ID     string   `arg:"" help:"Form identifier."`
	Set    []string `help:"Field values as field=value." short:"s"`
	Create []string `help:"New options to create as field=value." short:"c"`
}

func (c *FillCmd) Run(g *Globals, out io.Writer) error {
	s, err := g.open(out)
	if err != nil {
		return err
	}
	if err := c.fill(context.Background(), s); err != nil {
		return err
	}
	if err := s.dispatch(context.Background(), formflow.ValidateForm{}); err != nil {
		return err
	}
	return s.print(s.engine.Snapshot())
}

func (c *FillCmd) fill(ctx context.Context, s *session) error {
	form, err := s.load(ctx, c.ID)
	if err != nil {
		return err
	}
	created, err := inputs(form, c.Create, true)
	if err != nil {
		return err
	}
	values, err := inputs(form, c.Set, false)
	if err != nil {
		return err
	}
	// Values first, so a created option is not reset by the field it requires.
	return s.dispatch(ctx, append(values, created...)...)
}

type LoadCmd struct {
	ID  string   `arg:"" help:"Form identifier."`
	Set []string `help:"Index field values as field=value." short:"s"`
}

func (c *LoadCmd) Run(g *Globals, out io.Writer) error {
	s, err := g.open(out)
	if err != nil {
		return err
	}
	ctx := context.Background()
	fill := FillCmd{ID: c.ID, Set: c.Set}
	if err := fill.fill(ctx, s); err != nil {
		return err
	}
	if err := s.dispatch(ctx, formflow.RequestLoadIndex{}); err != nil {
		return err
	}
	if s.failed() {
		return errRejected.Clone().WithMetadata(map[string]any{"form_id": c.ID, "command": "load"})
	}
	return s.print(s.engine.Snapshot())
}

type SubmitCmd struct {
	ID     string   `arg:"" help:"Form identifier."`
	Set    []string `help:"Field values as field=value." short:"s"`
	Create []string `help:"New options to create as field=value." short:"c"`
}

func (c *SubmitCmd) Run(g *Globals, out io.Writer) error {
	s, err := g.open(out)
	if err != nil {
		return err
	}
	ctx := context.Background()
	fill := FillCmd{ID: c.ID, Set: c.Set, Create: c.Create}
	if err := fill.fill(ctx, s); err != nil {
		return err
	}
	if err := s.dispatch(ctx, formflow.Submit{}); err != nil {
		return err
	}
	if s.failed() {
		form := s.engine.Snapshot()
		if err := s.print(form); err != nil {
			return err
		}
		return errRejected.Clone().WithMetadata(map[string]any{"form_id": c.ID, "command": "submit"})
	}
	return nil
}

type WatchCmd struct {
	ID      string `arg:"" help:"Form identifier."`
	Every   string `help:"Cron expression, or a descriptor such as @every 30s." default:"@every 1m"`
	Seconds bool   `help:"Parse the expression with a leading seconds field."`
}

func (c *WatchCmd) Run(g *Globals, out io.Writer) error {
	s, err := g.open(out)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []schedule.Option{
		schedule.WithLocation(s.cfg.Location()),
		schedule.WithLogger(s.logger),
	}
	if c.Seconds {
		opts = append(opts, schedule.WithParser(schedule.SecondsParser))
	}
	sched := schedule.New(s.engine, opts...)
	if _, err := sched.Every(c.Every, formflow.RequestSchema{ID: c.ID}); err != nil {
		return err
	}

	s.engine.Subscribe(func(a formflow.Action) {
		fetched := a.(formflow.SchemaFetched)
		fmt.Fprintf(out, "schema %s reloaded: %d fields\n", c.ID, len(fetched.Schema.Columns))
	}, formflow.KindSchemaFetched)

	if err := s.dispatch(ctx, formflow.RequestSchema{ID: c.ID}); err != nil {
		return err
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	logging.WithFields(s.logger, map[string]any{"form_id": c.ID, "expr": c.Every}).Info("watching schema")
	<-ctx.Done()

	if err := sched.Stop(context.Background()); err != nil {
		return err
	}
	return s.settle(context.Background())
}
