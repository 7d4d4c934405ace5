package commands

import (
	"fmt"
	"log/slog"

	"boxdharvest/lib/export"
	"boxdharvest/lib/listgen"
	"boxdharvest/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	genYearMin    *int
	genYearMax    *int
	genRuntimeMin *int
	genRuntimeMax *int
	genMinRating  *float64
	genGenres     *[]string
	genCountries  *[]string
	genPrimary    *string
	genLanguages  *[]string
	genTitle      *string
	genSortBy     *string
	genDescending *bool
	genLimit      *int
	genOut        *string
	genCsvOut     *string
)

func init() {
	flags := listgenCmd.Flags()
	genYearMin = flags.Int("year-min", 0, "Earliest release year to keep.")
	genYearMax = flags.Int("year-max", 0, "Latest release year to keep.")
	genRuntimeMin = flags.Int("runtime-min", 0, "Minimum runtime in minutes.")
	genRuntimeMax = flags.Int("runtime-max", 0, "Maximum runtime in minutes.")
	genMinRating = flags.Float64("min-rating", 0, "Minimum weighted average rating.")
	genGenres = flags.StringSlice("genre", nil, "Keep films with any of these genres.")
	genCountries = flags.StringSlice("country", nil, "Keep films from any of these countries.")
	genPrimary = flags.String("primary-language", "", "Keep films with this primary language.")
	genLanguages = flags.StringSlice("language", nil, "Keep films speaking any of these languages.")
	genTitle = flags.String("title", "", "Keep films whose title matches, fuzzily.")
	genSortBy = flags.String("sort", "position", "Sort by: position, title, year, runtime, rating or watches.")
	genDescending = flags.Bool("desc", false, "Sort descending.")
	genLimit = flags.Int("limit", 0, "Cap the generated list, 0 keeps everything.")
	genOut = flags.String("out", "generated.json", "The json file to write the generated list to.")
	genCsvOut = flags.String("csv", "", "Also write the generated list to this csv file.")

	rootCmd.AddCommand(listgenCmd)
}

var listgenCmd = &cobra.Command{
	Use:   "listgen <harvest.json> [more.json...]",
	Short: "Generates a curated list from previously harvested films.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		films, err := listgen.LoadFilms(args...)
		if err != nil {
			serviceutil.Fatal("failed to load harvested films", err)
		}
		slog.Info("loaded harvested films", "count", len(films))

		sortBy := listgen.SortBy(*genSortBy)
		switch sortBy {
		case listgen.SortByPosition, listgen.SortByTitle, listgen.SortByYear,
			listgen.SortByRuntime, listgen.SortByRating, listgen.SortByWatches:
		default:
			serviceutil.Fatal("unknown sort", fmt.Errorf("%q is not a sort key", *genSortBy))
		}

		generated := listgen.Generate(films, listgen.Options{
			Filter: listgen.Filter{
				YearMin:         *genYearMin,
				YearMax:         *genYearMax,
				RuntimeMin:      *genRuntimeMin,
				RuntimeMax:      *genRuntimeMax,
				MinRating:       *genMinRating,
				Genres:          *genGenres,
				Countries:       *genCountries,
				PrimaryLanguage: *genPrimary,
				Languages:       *genLanguages,
				Title:           *genTitle,
			},
			SortBy:     sortBy,
			Descending: *genDescending,
			Limit:      *genLimit,
		})
		slog.Info("generated list", "kept", len(generated), "from", len(films))

		if err := export.WriteJSON(*genOut, generated); err != nil {
			serviceutil.Fatal("failed to write json output", err)
		}
		if *genCsvOut != "" {
			if err := export.WriteCSV(*genCsvOut, generated); err != nil {
				serviceutil.Fatal("failed to write csv output", err)
			}
		}

		printFilms(generated, 25)
	},
}
