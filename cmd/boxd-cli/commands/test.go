package commands

import (
	"bytes"
	"fmt"
	"os"

	"boxdharvest/lib/scrapers/letterboxd/core"
	"boxdharvest/lib/scrapers/letterboxd/film"
	"boxdharvest/lib/scrapers/letterboxd/harvest"
	"boxdharvest/lib/scrapers/letterboxd/list"
	"boxdharvest/lib/scrapers/letterboxd/selectors"
	"boxdharvest/lib/serviceutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(testCmd)
}

// testCmd validates connectivity and selector health against the live site:
// one catalog page and one film page, reporting what each selector resolved.
// when the markup drifts, this is the fastest way to see which selectors
// went stale.
var testCmd = &cobra.Command{
	Use:   "test [owner/slug | predefined]",
	Short: "Validates connectivity and the selector set against a live list.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ref := harvest.PredefinedLists["letterboxd_250"]
		if len(args) == 1 {
			ref = resolveList(args[0])
		}
		sel := selectors.Load(*scrapeSelectors)

		client, err := core.NewClient(core.ClientOptions{})
		if err != nil {
			serviceutil.Fatal("failed to initialize client", err)
		}

		ctx := cmd.Context()
		contents, err := client.Get(ctx, list.PageUrl(ref.Owner, ref.Slug, 1))
		if err != nil {
			serviceutil.Fatal("failed to fetch first catalog page", err)
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(contents))
		if err != nil {
			serviceutil.Fatal("failed to parse first catalog page", err)
		}

		films := list.ExtractFilms(doc, sel, 1)
		pages := list.ResolvePagination(doc, sel)
		posters := list.CountPosters(doc, sel)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRows([]table.Row{
			{"list", ref.Owner + "/" + ref.Slug},
			{"films on page 1", len(films)},
			{"poster containers", posters},
			{"total pages", pages},
		})
		t.Render()

		if len(films) == 0 {
			serviceutil.Fatal("selector check failed", fmt.Errorf(
				"no film containers matched on page 1 of %s/%s", ref.Owner, ref.Slug))
		}

		slug := films[0].Slug
		filmContents, err := client.Get(ctx, film.PageUrl(slug))
		if err != nil {
			serviceutil.Fatal("failed to fetch film page", err)
		}
		filmDoc, err := goquery.NewDocumentFromReader(bytes.NewReader(filmContents))
		if err != nil {
			serviceutil.Fatal("failed to parse film page", err)
		}
		details := film.ExtractDetails(filmDoc, sel)

		t = table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"field", "resolved"})
		t.AppendRows([]table.Row{
			{"title", details.Title != ""},
			{"year", details.Year != 0},
			{"directors", len(details.Directors) > 0},
			{"genres", len(details.Genres) > 0},
			{"countries", len(details.Countries) > 0},
			{"primary language", details.PrimaryLanguage != ""},
			{"cast", len(details.Cast) > 0},
			{"runtime", details.Runtime != 0},
		})
		t.Render()
	},
}
