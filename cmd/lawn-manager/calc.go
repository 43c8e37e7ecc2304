package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/i474232898/lawn-manager/internal/rate"
	"github.com/i474232898/lawn-manager/internal/season"
)

var title = cases.Title(language.English)

func rateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Calculate product and water for one application",
		Example: `  lawn-manager rate --chemical "T-Nex" --type sprayer --capacity 1 --unit gallons --area 5000
  lawn-manager rate --chemical Fertilizer --type spreader --capacity 50 --unit pounds --area 5000 --json`,
		RunE: runRate,
	}
	cmd.Flags().StringP("chemical", "c", "", "Chemical name")
	cmd.Flags().StringP("type", "t", string(rate.Sprayer), "Equipment type (sprayer, spreader)")
	cmd.Flags().Float64("capacity", 0, "Tank or hopper capacity")
	cmd.Flags().StringP("unit", "u", string(rate.Gallons), "Capacity unit (gallons, liters, pounds, kilograms)")
	cmd.Flags().IntP("area", "a", 0, "Zone area in sq ft")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("chemical")
	_ = cmd.MarkFlagRequired("capacity")
	_ = cmd.MarkFlagRequired("area")
	return cmd
}

func runRate(cmd *cobra.Command, _ []string) error {
	tables, err := loadTables(cmd)
	if err != nil {
		return err
	}
	chemical, _ := cmd.Flags().GetString("chemical")
	eqType, _ := cmd.Flags().GetString("type")
	capacity, _ := cmd.Flags().GetFloat64("capacity")
	unit, _ := cmd.Flags().GetString("unit")
	area, _ := cmd.Flags().GetInt("area")
	asJSON, _ := cmd.Flags().GetBool("json")

	eq := rate.Equipment{
		Type:     rate.EquipmentType(strings.ToLower(eqType)),
		Capacity: capacity,
		Unit:     rate.CapacityUnit(strings.ToLower(unit)),
	}
	res, err := rate.NewCalculator(tables).Calculate(chemical, eq, area)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, res)
	}
	printRate(out, res)
	if !res.OK() {
		return fmt.Errorf("%s", res.Failure.Reason)
	}
	return nil
}

func printRate(w io.Writer, res rate.Result) {
	if !res.OK() {
		fmt.Fprintf(w, "Cannot calculate %s: %s\n", res.Chemical, res.Failure.Message)
		return
	}
	fmt.Fprintf(w, "%s for %d sq ft with a %s %s %s (%s)\n",
		res.Chemical, res.AreaSqFt, trim(res.Capacity), res.CapacityUnit, res.EquipmentType, res.ApplicationType)
	for _, line := range res.Instructions {
		fmt.Fprintf(w, "  - %s\n", line)
	}
}

func trim(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func seasonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "season",
		Short: "Seasonal guidance for a grass type",
		Example: `  lawn-manager season --grass Bermuda
  lawn-manager season --grass "Tall Fescue" --date 2025-09-15 --temp 72 --applied "Fertilizer=2025-09-01"`,
		RunE: runSeason,
	}
	cmd.Flags().StringP("grass", "g", "", "Grass type, or Custom:<description>")
	cmd.Flags().StringP("date", "d", "", "Date (YYYY-MM-DD); today when empty")
	cmd.Flags().String("location", "", "Location label for the report")
	cmd.Flags().Float64("temp", 0, "Air temperature in °F")
	cmd.Flags().Float64("humidity", 0, "Relative humidity %")
	cmd.Flags().Float64("wind", 0, "Wind speed in mph")
	cmd.Flags().StringToString("applied", nil, "Last application dates, chemical=YYYY-MM-DD")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("grass")
	return cmd
}

func runSeason(cmd *cobra.Command, _ []string) error {
	tables, err := loadTables(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	grass, _ := flags.GetString("grass")
	date, _ := flags.GetString("date")
	location, _ := flags.GetString("location")
	applied, _ := flags.GetStringToString("applied")
	asJSON, _ := flags.GetBool("json")

	in := season.Input{GrassType: grass, Location: location}
	if date != "" {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return fmt.Errorf("invalid --date %q: use YYYY-MM-DD", date)
		}
		in.AsOf = d
	}
	if flags.Changed("temp") {
		temp, _ := flags.GetFloat64("temp")
		in.Weather = &season.Conditions{TemperatureF: temp}
		if flags.Changed("humidity") {
			h, _ := flags.GetFloat64("humidity")
			in.Weather.HumidityPct = &h
		}
		if flags.Changed("wind") {
			w, _ := flags.GetFloat64("wind")
			in.Weather.WindMph = &w
		}
	}
	if len(applied) > 0 {
		in.History = make(map[string]season.LastApplied, len(applied))
		for chem, d := range applied {
			in.History[chem] = season.LastApplied{Date: d}
		}
	}

	report := season.NewAdvisor(tables, nil).Summarize(in)
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, report)
	}
	printSeason(out, report)
	return nil
}

func printSeason(w io.Writer, r season.Report) {
	fmt.Fprintf(w, "%s (%s-season) on %s: %s\n", r.GrassType, r.SeasonType, r.AsOf, title.String(string(r.Season)))
	if r.SoilTemperature != nil {
		fmt.Fprintf(w, "Soil: ~%.0f°F (%s)\n", r.SoilTemperature.TemperatureF, r.SoilTemperature.Method)
	}
	fmt.Fprintf(w, "Mow every %d days: %s\n", r.MowFrequency.FrequencyDays, r.MowFrequency.Reason)

	stage := title.String(strings.ReplaceAll(string(r.PreEmergent.Stage), "_", " "))
	fmt.Fprintf(w, "Pre-emergent: %s", stage)
	if r.PreEmergent.Reason != "" {
		fmt.Fprintf(w, " - %s", r.PreEmergent.Reason)
	}
	fmt.Fprintln(w)

	for _, warn := range r.TemperatureWarnings {
		fmt.Fprintf(w, "Warning: %s\n", warn)
	}
	if len(r.ChemicalRecommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for _, rec := range r.ChemicalRecommendations {
			fmt.Fprintf(w, "  [%s] %s: %s (%s)\n", rec.Priority, rec.Chemical, rec.Reason, rec.Timing)
		}
	}
	if len(r.TaskReminders) > 0 {
		fmt.Fprintln(w, "Tasks:")
		for _, t := range r.TaskReminders {
			fmt.Fprintf(w, "  [%s] %s: %s (by %s)\n", t.Priority, t.Task, t.Reason, t.Deadline)
		}
	}
	for _, issue := range r.HistoryIssues {
		fmt.Fprintf(w, "Ignored history: %s\n", issue.Message)
	}
}

func chemicalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chemicals",
		Short: "List the chemical table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := loadTables(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range tables.Chemicals() {
				var rates []string
				if c.Liquid != nil {
					rates = append(rates, fmt.Sprintf("liquid %s %s", trim(c.Liquid.Amount), c.Liquid.Unit))
				}
				if c.Granular != nil {
					rates = append(rates, fmt.Sprintf("granular %s %s", trim(c.Granular.Amount), c.Granular.Unit))
				}
				fmt.Fprintf(out, "%-18s every %3d days  %s per 1,000 sq ft\n", c.Name, c.IntervalDays, strings.Join(rates, ", "))
			}
			return nil
		},
	}
}

func grassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grasses",
		Short: "List the grass table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := loadTables(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, g := range tables.Grasses() {
				fmt.Fprintf(out, "%-20s %s-season\n", g.Name, title.String(string(g.Season)))
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
