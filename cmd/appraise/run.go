package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dealflow/server/config"
	"dealflow/server/internal/appraisal"
	"dealflow/server/internal/assumptions"
	"dealflow/server/internal/models"
	"dealflow/server/internal/report"

	"golang.org/x/sync/errgroup"
)

type runOptions struct {
	AssumptionsPath string
	OutDir          string
	Concurrency     int
	Defaults        appraisal.Defaults
}

func defaultRunOptions() runOptions {
	return runOptions{
		Concurrency: 4,
		Defaults: appraisal.Defaults{
			TimelineMonths:        24,
			OwnFundsInvested:      1500,
			RentalPerUnitPerMonth: 3000,
		},
	}
}

// inputFile is either a bare classification or a classification with
// per-deal overrides.
type inputFile struct {
	Classification        *models.Classification `json:"classification"`
	TimelineMonths        *int                   `json:"timeline_months"`
	OwnFundsInvested      *float64               `json:"own_funds_invested"`
	TotalUnits            *int                   `json:"total_units"`
	RentalPerUnitPerMonth *float64               `json:"rental_per_unit_per_month"`
	Travel                *models.Travel         `json:"travel"`
}

type result struct {
	File      string               `json:"file"`
	DealType  string               `json:"deal_type"`
	Report    string               `json:"report,omitempty"`
	Appraisal *appraisal.Appraisal `json:"appraisal,omitempty"`
}

func readInput(path string) (appraisal.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return appraisal.Input{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file inputFile
	if err := json.Unmarshal(data, &file); err != nil {
		return appraisal.Input{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if file.Classification == nil {
		var classification models.Classification
		if err := json.Unmarshal(data, &classification); err != nil {
			return appraisal.Input{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		file.Classification = &classification
	}
	if dt := config.GetDealTypeByName(file.Classification.DealType); dt != nil {
		file.Classification.DealType = dt.Name
	}

	return appraisal.Input{
		Classification:        file.Classification,
		TimelineMonths:        file.TimelineMonths,
		OwnFundsInvested:      file.OwnFundsInvested,
		TotalUnits:            file.TotalUnits,
		RentalPerUnitPerMonth: file.RentalPerUnitPerMonth,
		Travel:                file.Travel,
	}, nil
}

// runAppraisals appraises every file in parallel. Results keep the order
// of files; the first failure cancels the rest.
func runAppraisals(ctx context.Context, w io.Writer, files []string, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var table *assumptions.Table
	if opts.AssumptionsPath != "" {
		var err error
		if table, err = assumptions.Load(opts.AssumptionsPath); err != nil {
			return err
		}
	}

	results := make([]result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := appraiseFile(file, table, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func appraiseFile(file string, table *assumptions.Table, opts runOptions) (result, error) {
	in, err := readInput(file)
	if err != nil {
		return result{}, err
	}
	in = appraisal.Prepare(in, opts.Defaults)

	dealType := in.Classification.DealType
	a, err := appraisal.Run(in, table.RateSheetOrDefault(dealType))
	if err != nil {
		return result{}, fmt.Errorf("failed to appraise %s: %w", file, err)
	}

	res := result{File: file, DealType: dealType}
	if opts.OutDir == "" {
		res.Appraisal = a
		return res, nil
	}

	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	res.Report = filepath.Join(opts.OutDir, name+".xlsx")
	deal := &models.Deal{
		DealType:       dealType,
		Confidence:     in.Classification.Confidence,
		Classification: in.Classification,
	}
	if err := report.Write(res.Report, deal, a); err != nil {
		return result{}, fmt.Errorf("failed to write report for %s: %w", file, err)
	}
	return res, nil
}

func listDealTypes(w io.Writer, assumptionsPath string) error {
	names := config.GetDealTypeNames()
	if assumptionsPath != "" {
		table, err := assumptions.Load(assumptionsPath)
		if err != nil {
			return err
		}
		names = table.DealTypes()
	}

	for _, name := range names {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}
