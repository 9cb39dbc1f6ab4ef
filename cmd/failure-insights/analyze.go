package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/miradorstack/failure-insights/internal/cache"
	"github.com/miradorstack/failure-insights/internal/models"
)

type analyzeFlags struct {
	records  string
	graph    string
	selector string
	window   int64
	query    models.BugQuery
}

func cmdAnalyze(a *app) *cli.Command {
	var f analyzeFlags
	return &cli.Command{
		Name:  "analyze",
		Usage: "Analyse failure records from JSON files, or fetch them for a bug, and print the details",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "records", Usage: "JSON file holding an array of failure records", Destination: &f.records},
			&cli.StringFlag{Name: "graph", Usage: "JSON file holding an array of failure count points", Destination: &f.graph},
			&cli.StringFlag{Name: "selector", Usage: "Signature id to keep, or all", Value: "all", Destination: &f.selector},
			&cli.Int64Flag{Name: "window", Usage: "Trailing window of the secondary series, in points", Destination: &f.window},
			&cli.Int64Flag{Name: "bug", Usage: "Bug id to fetch when --records is not given", Destination: &f.query.Bug},
			&cli.StringFlag{Name: "tree", Usage: "Tree filter for fetched failures", Destination: &f.query.Tree},
			&cli.StringFlag{Name: "startday", Usage: "First day (YYYY-MM-DD) of fetched failures", Destination: &f.query.StartDay},
			&cli.StringFlag{Name: "endday", Usage: "Last day (YYYY-MM-DD) of fetched failures", Destination: &f.query.EndDay},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			out := c.Root().Writer
			if out == nil {
				out = os.Stdout
			}
			return a.analyze(ctx, f, out)
		},
	}
}

func (a *app) analyze(ctx context.Context, f analyzeFlags, out io.Writer) error {
	if f.window > 0 {
		a.cfg.Analysis.Window = int(f.window)
	}

	req := models.AnalysisRequest{Query: f.query, Selector: f.selector}
	if f.records != "" {
		req.Inline = true
		if err := readJSONFile(f.records, &req.Records); err != nil {
			return err
		}
		if f.graph != "" {
			if err := readJSONFile(f.graph, &req.Points); err != nil {
				return err
			}
		}
	}

	cacheProvider := cache.NewMemoryProvider()
	defer cacheProvider.Close()

	pipeline, err := a.pipeline(cacheProvider)
	if err != nil {
		return err
	}
	details, err := pipeline.Analyze(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(details)
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
