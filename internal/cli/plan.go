package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/noah-isme/faculty-timetable-api/internal/models"
	"github.com/noah-isme/faculty-timetable-api/internal/scheduler"
)

type planOptions struct {
	fixture  string
	seed     int64
	rounding string
	maxLabs  int
}

func newPlanCmd() *cobra.Command {
	opts := planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Allocate a fixture and print the weekly grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := LoadFixture(opts.fixture)
			if err != nil {
				return err
			}
			seed := opts.seed
			if !cmd.Flags().Changed("seed") {
				seed = scheduler.EntropySeed()
			}
			outcome, catalog, err := Plan(fixture, seed, opts.rounding, opts.maxLabs)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "faculty %s, seed %d\n", fixture.FacultyID, seed)
			RenderGrid(out, catalog, outcome)
			RenderAllocations(out, outcome)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.fixture, "fixture", "f", "", "YAML fixture path")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Shuffle seed (random when omitted)")
	cmd.Flags().StringVar(&opts.rounding, "rounding", string(scheduler.LabRoundingTruncate), "Lab block rounding: truncate or ceil")
	cmd.Flags().IntVar(&opts.maxLabs, "max-labs", scheduler.DefaultMaxLabsPerDay, "Distinct lab courses per batch per day")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}

// Plan runs one allocation over the fixture.
func Plan(f *Fixture, seed int64, rounding string, maxLabs int) (scheduler.Outcome, *scheduler.Catalog, error) {
	labRounding, err := scheduler.ParseLabRounding(rounding)
	if err != nil {
		return scheduler.Outcome{}, nil, err
	}
	catalog, err := f.Catalog()
	if err != nil {
		return scheduler.Outcome{}, nil, err
	}
	occupancy, err := f.Occupancy()
	if err != nil {
		return scheduler.Outcome{}, nil, err
	}
	allocator := scheduler.NewAllocator(scheduler.Options{
		MaxLabsPerDay: maxLabs,
		LabRounding:   labRounding,
		Shuffler:      scheduler.NewShuffler(seed),
		Logger:        logger,
	})
	outcome := allocator.Allocate(scheduler.Request{
		FacultyID:    f.FacultyID,
		AcademicYear: f.AcademicYear,
		Semester:     f.Semester,
		Assignments:  f.Models(),
		Catalog:      catalog,
		Persisted:    occupancy,
	})
	return outcome, catalog, nil
}

// RenderGrid prints one row per teaching day and one column per period.
func RenderGrid(w io.Writer, catalog *scheduler.Catalog, outcome scheduler.Outcome) {
	periods := 0
	for _, slot := range catalog.Slots() {
		if slot.PeriodNumber > periods {
			periods = slot.PeriodNumber
		}
	}
	cells := make(map[string][]string, len(outcome.Placements))
	for _, p := range outcome.Placements {
		key := gridKey(p.Slot.Day, p.Slot.PeriodNumber)
		cells[key] = append(cells[key], p.CourseID+"/"+p.BatchID)
	}

	header := []string{"Day"}
	for period := 1; period <= periods; period++ {
		header = append(header, fmt.Sprintf("P%d", period))
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	for _, day := range catalog.Weekdays() {
		row := []string{day.String()}
		for period := 1; period <= periods; period++ {
			if _, ok := catalog.Lookup(day, period); !ok {
				row = append(row, "x")
				continue
			}
			row = append(row, strings.Join(cells[gridKey(day, period)], " "))
		}
		table.Append(row)
	}
	table.Render()
}

// RenderAllocations prints requested against placed periods per assignment.
func RenderAllocations(w io.Writer, outcome scheduler.Outcome) {
	short := color.New(color.FgRed).SprintFunc()
	ok := color.New(color.FgGreen).SprintFunc()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Assignment", "Course", "Batch", "Type", "Required", "Placed", "Short"})
	for _, a := range outcome.Allocations {
		shortfall := fmt.Sprintf("%d", a.Shortfall())
		if a.Shortfall() > 0 {
			shortfall = short(shortfall)
		}
		table.Append([]string{
			a.AssignmentID,
			a.CourseID,
			a.BatchID,
			string(a.CourseType),
			fmt.Sprintf("%d", a.Required),
			fmt.Sprintf("%d", a.Placed),
			shortfall,
		})
	}
	table.Render()

	if outcome.Complete() {
		fmt.Fprintln(w, ok("complete"))
		return
	}
	fmt.Fprintln(w, short(fmt.Sprintf("partial: %d periods short", outcome.TotalShortfall())))
}

func gridKey(day models.DayOfWeek, period int) string {
	return fmt.Sprintf("%d-%d", day, period)
}
