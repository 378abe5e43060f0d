package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/geoportal-waw/waw-events/internal/event"
	"github.com/geoportal-waw/waw-events/internal/filter"
	"github.com/geoportal-waw/waw-events/internal/pipeline"
)

var (
	flagDate        string
	flagTo          string
	flagRecommended bool
	flagNoGeocode   bool
	flagNoAddress   bool
	flagFormat      string
	flagSort        string
	flagOutput      string
	flagDistricts   []string
	flagCategories  []string
	flagTitles      []string
	flagWeekends    bool
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the events of a day, a date range or the home page",
		Example: `  waw-events events --date 2026-01-29
  waw-events events --date 2026-01-29 --to 2026-02-02 --format json
  waw-events events --format geojson --output events.geojson
  waw-events events --recommended --no-geocode`,
		Args: cobra.NoArgs,
		RunE: runEvents,
	}

	addSourceFlags(cmd)
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text, json, geojson or ics")
	cmd.Flags().StringVar(&flagSort, "sort", "date", "Sort order: date, district or title")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write output to a file instead of stdout")
	cmd.Flags().StringSliceVar(&flagDistricts, "district", nil, "Keep events in these districts (repeatable)")
	cmd.Flags().StringSliceVar(&flagCategories, "category", nil, "Keep events with one of these categories (repeatable)")
	cmd.Flags().StringSliceVar(&flagTitles, "title", nil, "Keep records whose title contains one of these words (repeatable)")
	cmd.Flags().BoolVar(&flagWeekends, "weekends", false, "Keep events on or spanning a weekend")

	return cmd
}

// addSourceFlags registers the flags choosing which listing pages to scrape.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagDate, "date", "", "Day to scrape, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&flagTo, "to", "", "Last day of a range starting at --date, inclusive")
	cmd.Flags().BoolVar(&flagRecommended, "recommended", false, "Scrape the events featured on the home page")
	cmd.Flags().BoolVar(&flagNoGeocode, "no-geocode", false, "Resolve addresses but skip geocoding")
	cmd.Flags().BoolVar(&flagNoAddress, "no-address", false, "Skip address resolution and geocoding")
	cmd.MarkFlagsMutuallyExclusive("recommended", "date")
	cmd.MarkFlagsMutuallyExclusive("recommended", "to")
}

// source is the resolved page selection of a run.
type source struct {
	from, to    time.Time
	recommended bool
}

func sourceFromFlags() (source, error) {
	if flagRecommended {
		return source{recommended: true}, nil
	}

	from := today()
	if flagDate != "" {
		d, err := parseDay(flagDate)
		if err != nil {
			return source{}, err
		}
		from = d
	}

	to := from
	if flagTo != "" {
		d, err := parseDay(flagTo)
		if err != nil {
			return source{}, err
		}
		if d.Before(from) {
			return source{}, fmt.Errorf("--to %s is before --date %s", d.Format("2006-01-02"), from.Format("2006-01-02"))
		}
		to = d
	}

	return source{from: from, to: to}, nil
}

func (s source) collect(ctx context.Context, drv *pipeline.Driver) ([]event.Record, error) {
	switch {
	case s.recommended:
		return drv.Recommended(ctx)
	case s.from.Equal(s.to):
		records, err := drv.EventsFor(ctx, s.from)
		if errors.Is(err, pipeline.ErrPageNotFound) {
			return nil, fmt.Errorf("no calendar page for %s: %w", s.from.Format("2006-01-02"), err)
		}
		return records, err
	default:
		return drv.EventsForRange(ctx, s.from, s.to)
	}
}

func filterFromFlags() *filter.Filter {
	f := filter.NewFilter()
	f.Districts = append(f.Districts, flagDistricts...)
	f.Categories = append(f.Categories, flagCategories...)
	f.Titles = append(f.Titles, flagTitles...)
	f.WeekendsOnly = flagWeekends
	return f
}

func runEvents(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if !format.valid() {
		return fmt.Errorf("invalid format: %s (must be 'text', 'json', 'geojson' or 'ics')", flagFormat)
	}
	order := SortOrder(strings.ToLower(flagSort))
	if !order.valid() {
		return fmt.Errorf("invalid sort order: %s (must be 'date', 'district' or 'title')", flagSort)
	}

	src, err := sourceFromFlags()
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	drv, cleanup, err := a.lateDriver(modeFor(flagNoAddress, flagNoGeocode))
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	records, err := src.collect(ctx, drv)
	if err != nil {
		return fmt.Errorf("fetching events: %w", err)
	}

	f := filterFromFlags()
	records = f.Apply(records)
	if flagVerbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Filters: %s\n", f)
		fmt.Fprintf(cmd.ErrOrStderr(), "Locating %d events\n", len(event.Events(records)))
	}

	drv.Enrich(ctx, records)
	sortRecords(records, order)

	result := newOutputResult(records, src, order)
	result.City = a.vocab.City

	if flagOutput == "" {
		if err := WriteOutput(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	}

	if err := writeFile(flagOutput, result, format, flagVerbose); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s output to %s\n", format, flagOutput)
	return nil
}

// writeFile writes the result to path. A failed close is reported since
// buffered output may not have reached the disk.
func writeFile(path string, result *OutputResult, format OutputFormat, verbose bool) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := WriteOutput(file, result, format, verbose); err != nil {
		file.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}
