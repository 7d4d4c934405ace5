package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"boxdharvest/lib/export"
	"boxdharvest/lib/restyutil"
	"boxdharvest/lib/scrapers/letterboxd/core"
	"boxdharvest/lib/scrapers/letterboxd/harvest"
	"boxdharvest/lib/scrapers/letterboxd/pagecache"
	"boxdharvest/lib/scrapers/letterboxd/selectors"
	"boxdharvest/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeMode      *string
	scrapeParallel  *bool
	scrapeWorkers   *int
	scrapePageSize  *int
	scrapeDelay     *time.Duration
	scrapeCache     *string
	scrapeSelectors *string
	scrapeOut       *string
	scrapeCsv       *string
)

func init() {
	flags := scrapeCmd.PersistentFlags()
	scrapeMode = flags.String("mode", "detailed", "Harvest depth: basic, detailed or ratings-stats.")
	scrapeParallel = flags.Bool("parallel", true, "Fetch catalog pages concurrently.")
	scrapeWorkers = flags.Int("workers", 4, "Concurrent workers per phase, each with its own client.")
	scrapePageSize = flags.Int("page-size", 100, "Films per catalog page, used for parallel position assignment.")
	scrapeDelay = flags.Duration("delay", time.Millisecond*200, "Per-client pause after each successful request.")
	scrapeCache = flags.String("cache", "", "Directory for the page cache, disabled when empty.")
	scrapeSelectors = flags.String("selectors", "selectors.json5", "Path to a selector config overriding the compiled-in set.")
	scrapeOut = flags.String("out", "films.json", "The json file to write harvested films to.")
	scrapeCsv = flags.String("csv", "", "Also write the films to this csv file.")

	scrapeCmd.AddCommand(scrapeListCmd)
	scrapeCmd.AddCommand(scrapeFilmCmd)
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrapes letterboxd lists or films and writes the results to disk.",
}

func parseMode(s string) harvest.Mode {
	switch s {
	case "basic":
		return harvest.ModeBasic
	case "detailed":
		return harvest.ModeDetailed
	case "ratings-stats":
		return harvest.ModeRatingsStats
	}
	serviceutil.Fatal("unknown mode", fmt.Errorf("%q is not basic, detailed or ratings-stats", s))
	return harvest.ModeBasic
}

// resolveList accepts either a predefined list name or an owner/slug pair.
func resolveList(arg string) harvest.ListRef {
	if ref, ok := harvest.PredefinedLists[arg]; ok {
		return ref
	}
	owner, slug, found := strings.Cut(arg, "/")
	if !found || owner == "" || slug == "" {
		serviceutil.Fatal("unknown list", fmt.Errorf(
			"%q is neither a predefined list nor an owner/slug pair", arg))
	}
	return harvest.ListRef{Owner: owner, Slug: slug}
}

func newClientFactory() func() (*core.Client, error) {
	var cache *pagecache.Cache
	if *scrapeCache != "" {
		var err error
		cache, err = pagecache.Open(*scrapeCache, core.DefaultBaseUrl)
		if err != nil {
			serviceutil.Fatal("failed to open page cache", err)
		}
	}
	return func() (*core.Client, error) {
		client, err := core.NewClient(core.ClientOptions{
			Delay: *scrapeDelay,
			Cache: cache,
		})
		if err != nil {
			return nil, err
		}
		if *verbose {
			client.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/boxd-cli"))
		}
		return client, nil
	}
}

func progress(label string) harvest.Progress {
	return func(completed, total int, message string) {
		fmt.Fprintf(os.Stderr, "\r%s %d/%d %-48s", label, completed, total, message)
		if completed == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

var scrapeListCmd = &cobra.Command{
	Use:   "list <owner/slug | predefined>",
	Short: "Harvests a letterboxd list. Predefined names: my_top_100, all_the_films, letterboxd_250, letterboxd_250_docs.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		h := harvest.New(harvest.Options{
			List:      resolveList(args[0]),
			Mode:      parseMode(*scrapeMode),
			Workers:   *scrapeWorkers,
			Parallel:  *scrapeParallel,
			PageSize:  *scrapePageSize,
			Selectors: selectors.Load(*scrapeSelectors),
			OnPage:    progress("pages"),
			OnFilm:    progress("films"),
		}, newClientFactory())

		t1 := time.Now()
		result, err := h.Run(cmd.Context())
		if err != nil {
			serviceutil.Fatal("harvest failed", err)
		}
		slog.Info("harvest time", "seconds", time.Since(t1).Seconds())

		if err := export.WriteJSON(*scrapeOut, result.Films); err != nil {
			serviceutil.Fatal("failed to write json output", err)
		}
		if *scrapeCsv != "" {
			if err := export.WriteCSV(*scrapeCsv, result.Films); err != nil {
				serviceutil.Fatal("failed to write csv output", err)
			}
		}

		printSummary(result)
	},
}

var scrapeFilmCmd = &cobra.Command{
	Use:   "film <slug>",
	Short: "Harvests a single film by its url slug.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		h := harvest.New(harvest.Options{
			Mode:      parseMode(*scrapeMode),
			Selectors: selectors.Load(*scrapeSelectors),
		}, newClientFactory())

		f, err := h.HarvestFilm(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("harvest failed", err)
		}

		if err := export.WriteJSON(*scrapeOut, []harvest.Film{f}); err != nil {
			serviceutil.Fatal("failed to write json output", err)
		}
		printFilms([]harvest.Film{f}, 1)
	},
}

func printSummary(result harvest.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendRows([]table.Row{
		{"films", len(result.Films)},
		{"pages", result.TotalPages},
		{"estimated films", result.EstimatedFilms},
		{"failed pages", len(result.FailedPages)},
		{"failed films", len(result.FailedFilms)},
	})
	t.Render()

	printFilms(result.Films, 10)
}

func printFilms(films []harvest.Film, limit int) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "slug", "name", "year", "rating", "watches"})
	for i, f := range films {
		if i >= limit {
			break
		}
		t.AppendRow(table.Row{
			f.ListPosition, f.Slug, f.Name, f.Year, f.AverageRating, f.Watches.Value(),
		})
	}
	t.Render()
}
