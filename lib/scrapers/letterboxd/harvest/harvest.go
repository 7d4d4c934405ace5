// Package harvest coordinates the two-phase pipeline that turns a letterboxd
// list into structured film records: phase one fans out over catalog pages,
// phase two fans out over the films those pages yielded. the phases never
// overlap, every page is settled before the first detail fetch goes out.
package harvest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"boxdharvest/lib/scrapers/letterboxd/core"
	"boxdharvest/lib/scrapers/letterboxd/film"
	"boxdharvest/lib/scrapers/letterboxd/list"
	"boxdharvest/lib/scrapers/letterboxd/selectors"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/letterboxd/harvest")

// Mode selects how much of each film is harvested.
type Mode int

const (
	// ModeBasic stops after phase one, list entries only.
	ModeBasic Mode = iota
	// ModeDetailed visits each film's page plus its rating and stat
	// fragments.
	ModeDetailed
	// ModeRatingsStats skips the film page and fetches only the two csi
	// fragments.
	ModeRatingsStats
)

// ListRef names a letterboxd list by its owner and url slug.
type ListRef struct {
	Owner string `json:"owner"`
	Slug  string `json:"slug"`
}

// PredefinedLists are the community catalogs worth harvesting by shorthand.
var PredefinedLists = map[string]ListRef{
	"my_top_100":          {Owner: "el_duderinno", Slug: "my-top-100"},
	"all_the_films":       {Owner: "hershwin", Slug: "all-the-movies"},
	"letterboxd_250":      {Owner: "dave", Slug: "official-top-250-narrative-feature-films"},
	"letterboxd_250_docs": {Owner: "dave", Slug: "official-top-250-documentary-films"},
}

// Progress reports completed work units out of a total, with a short label
// for the unit that just settled. callbacks fire from the coordinator
// goroutine, never concurrently, and sit on the merge path so they should
// not block.
type Progress func(completed, total int, message string)

type Options struct {
	List ListRef
	Mode Mode
	// Workers is the fan-out width of both phases, each worker gets its own
	// client. defaults to 4, capped by available parallelism.
	Workers int
	// Parallel fetches catalog pages concurrently with positions derived
	// from PageSize; sequential fetching walks pages in order with a
	// running counter instead.
	Parallel bool
	// PageSize is the assumed films-per-page for parallel position
	// assignment. defaults to 100, letterboxd's list page size.
	PageSize int

	Selectors selectors.Config

	OnPage Progress
	OnFilm Progress
}

// Film is one fully harvested record: the list entry plus whatever detail
// phase two produced.
type Film struct {
	list.BasicFilm
	film.Details
}

type Result struct {
	Films []Film `json:"films"`
	// TotalPages and EstimatedFilms are known after the first page resolves
	TotalPages     int `json:"total_pages"`
	EstimatedFilms int `json:"estimated_films"`
	// pages and films that exhausted their retries. phase one keeps going
	// when a page beyond the first fails, phase two always keeps going.
	FailedPages []int    `json:"failed_pages,omitempty"`
	FailedFilms []string `json:"failed_films,omitempty"`
}

// entries with no position sort after every positioned entry
const positionSentinel = 1 << 31

type Harvester struct {
	opts      Options
	newClient func() (*core.Client, error)
}

// New builds a harvester. newClient is invoked once per worker so clients
// are never shared across goroutines; nil gets a default factory against
// letterboxd.com.
func New(opts Options, newClient func() (*core.Client, error)) *Harvester {
	if opts.Workers <= 0 {
		opts.Workers = min(4, runtime.GOMAXPROCS(0))
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if len(opts.Selectors.FilmList.ItemStrategies) == 0 {
		opts.Selectors = selectors.Default()
	}
	if newClient == nil {
		newClient = func() (*core.Client, error) {
			return core.NewClient(core.ClientOptions{})
		}
	}
	return &Harvester{opts: opts, newClient: newClient}
}

// Run executes the full harvest. the only fatal fetch error is the first
// catalog page, everything after that degrades into the result's failure
// lists.
func (h *Harvester) Run(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "harvester:Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("owner", h.opts.List.Owner),
		attribute.String("slug", h.opts.List.Slug),
		attribute.Int("mode", int(h.opts.Mode)),
	)

	result, err := h.harvestPages(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to harvest catalog pages")
		return Result{}, err
	}

	if h.opts.Mode != ModeBasic {
		h.harvestDetails(ctx, &result)
	}

	sortFilms(result.Films)
	sort.Ints(result.FailedPages)
	sort.Strings(result.FailedFilms)
	return result, nil
}

func (h *Harvester) fetchDocument(ctx context.Context, client *core.Client, endpoint string) (*goquery.Document, error) {
	contents, err := client.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(contents))
}

// harvestPages is phase one. the first page resolves pagination and the size
// estimate, the remaining pages fan out (or stream in order when sequential).
func (h *Harvester) harvestPages(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "harvester:harvestPages")
	defer span.End()

	client, err := h.newClient()
	if err != nil {
		return Result{}, err
	}

	ref := h.opts.List
	doc, err := h.fetchDocument(ctx, client, list.PageUrl(ref.Owner, ref.Slug, 1))
	if err != nil {
		return Result{}, fmt.Errorf("fetching first page of %s/%s: %w", ref.Owner, ref.Slug, err)
	}

	result := Result{TotalPages: list.ResolvePagination(doc, h.opts.Selectors)}
	result.EstimatedFilms = list.CountPosters(doc, h.opts.Selectors) * result.TotalPages
	span.SetAttributes(attribute.Int("total_pages", result.TotalPages))

	sourceList := ref.Owner + "/" + ref.Slug
	appendPage := func(page int, films []list.BasicFilm) {
		for i := range films {
			films[i].SourcePage = page
			films[i].SourceList = sourceList
		}
		result.Films = append(result.Films, wrapBasic(films)...)
	}

	appendPage(1, list.ExtractFilms(doc, h.opts.Selectors, 1))
	h.reportPage(1, result.TotalPages, "page 1")

	if result.TotalPages <= 1 {
		return result, nil
	}

	if h.opts.Parallel {
		h.fetchPagesParallel(ctx, &result, appendPage)
	} else {
		h.fetchPagesSequential(ctx, client, &result, appendPage)
	}
	return result, nil
}

// sequential paging walks pages in order on the phase-one client. positions
// form a running counter, so they stay contiguous even when entries are
// dropped along the way.
func (h *Harvester) fetchPagesSequential(ctx context.Context, client *core.Client, result *Result, appendPage func(int, []list.BasicFilm)) {
	ref := h.opts.List
	nextPosition := len(result.Films) + 1
	for page := 2; page <= result.TotalPages; page++ {
		doc, err := h.fetchDocument(ctx, client, list.PageUrl(ref.Owner, ref.Slug, page))
		if err != nil {
			slog.WarnContext(ctx, "catalog page failed", "page", page, "error", err)
			result.FailedPages = append(result.FailedPages, page)
			h.reportPage(page, result.TotalPages, fmt.Sprintf("page %d failed", page))
			continue
		}
		films := list.ExtractFilms(doc, h.opts.Selectors, nextPosition)
		nextPosition += len(films)
		appendPage(page, films)
		h.reportPage(page, result.TotalPages, fmt.Sprintf("page %d", page))
	}
}

type pageResult struct {
	page  int
	films []list.BasicFilm
	err   error
}

// parallel paging fans pages 2..N across the worker pool. each page's
// positions are derived from the configured page size, so page k starts at
// (k-1)*PageSize+1 regardless of completion order.
func (h *Harvester) fetchPagesParallel(ctx context.Context, result *Result, appendPage func(int, []list.BasicFilm)) {
	ref := h.opts.List
	jobs := make(chan int)
	results := make(chan pageResult)

	var wg sync.WaitGroup
	for w := 0; w < h.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client, err := h.newClient()
			if err != nil {
				for page := range jobs {
					results <- pageResult{page: page, err: err}
				}
				return
			}
			for page := range jobs {
				doc, err := h.fetchDocument(ctx, client, list.PageUrl(ref.Owner, ref.Slug, page))
				if err != nil {
					results <- pageResult{page: page, err: err}
					continue
				}
				start := (page-1)*h.opts.PageSize + 1
				results <- pageResult{
					page:  page,
					films: list.ExtractFilms(doc, h.opts.Selectors, start),
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for page := 2; page <= result.TotalPages; page++ {
			select {
			case jobs <- page:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	done := 1
	for res := range results {
		done++
		message := fmt.Sprintf("page %d", res.page)
		if res.err != nil {
			slog.WarnContext(ctx, "catalog page failed", "page", res.page, "error", res.err)
			result.FailedPages = append(result.FailedPages, res.page)
			message = fmt.Sprintf("page %d failed", res.page)
		} else {
			appendPage(res.page, res.films)
		}
		h.reportPage(done, result.TotalPages, message)
	}
}

type detailResult struct {
	slug    string
	details film.Details
	err     error
}

// harvestDetails is phase two. each distinct slug is fetched once and the
// resulting details merge into every list entry carrying that slug. failures
// land in FailedFilms and the entry keeps its phase-one fields.
func (h *Harvester) harvestDetails(ctx context.Context, result *Result) {
	ctx, span := tracer.Start(ctx, "harvester:harvestDetails")
	defer span.End()

	slugs := make([]string, 0, len(result.Films))
	seen := map[string]bool{}
	for _, f := range result.Films {
		if f.Slug == "" || seen[f.Slug] {
			continue
		}
		seen[f.Slug] = true
		slugs = append(slugs, f.Slug)
	}
	span.SetAttributes(attribute.Int("films", len(slugs)))

	jobs := make(chan string)
	results := make(chan detailResult)

	var wg sync.WaitGroup
	for w := 0; w < h.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client, err := h.newClient()
			if err != nil {
				for slug := range jobs {
					results <- detailResult{slug: slug, err: err}
				}
				return
			}
			for slug := range jobs {
				details, err := h.harvestFilm(ctx, client, slug)
				results <- detailResult{slug: slug, details: details, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, slug := range slugs {
			select {
			case jobs <- slug:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	details := make(map[string]film.Details, len(slugs))
	done := 0
	for res := range results {
		done++
		message := res.slug
		if res.err != nil {
			slog.WarnContext(ctx, "film failed", "slug", res.slug, "error", res.err)
			result.FailedFilms = append(result.FailedFilms, res.slug)
			message = res.slug + " failed"
		}
		// partial details are still worth merging on failure
		details[res.slug] = res.details
		h.reportFilm(done, len(slugs), message)
	}

	for i := range result.Films {
		result.Films[i].Details = details[result.Films[i].Slug]
	}
}

// harvestFilm fetches one film's resources per the configured mode. an error
// from any resource marks the film failed but whatever extracted before the
// failure is returned anyway.
func (h *Harvester) harvestFilm(ctx context.Context, client *core.Client, slug string) (film.Details, error) {
	var details film.Details

	if h.opts.Mode == ModeDetailed {
		doc, err := h.fetchDocument(ctx, client, film.PageUrl(slug))
		if err != nil {
			return details, err
		}
		details = film.ExtractDetails(doc, h.opts.Selectors)
	}

	ratingsDoc, err := h.fetchDocument(ctx, client, film.RatingsUrl(slug))
	if err != nil {
		return details, err
	}
	details.Ratings = film.ExtractRatings(ratingsDoc, h.opts.Selectors)

	statsDoc, err := h.fetchDocument(ctx, client, film.StatsUrl(slug))
	if err != nil {
		return details, err
	}
	details.Stats = film.ExtractStats(statsDoc, h.opts.Selectors)

	return details, nil
}

// HarvestFilm harvests a single film outside any list context.
func (h *Harvester) HarvestFilm(ctx context.Context, slug string) (Film, error) {
	ctx, span := tracer.Start(ctx, "harvester:HarvestFilm")
	defer span.End()
	span.SetAttributes(attribute.String("slug", slug))

	client, err := h.newClient()
	if err != nil {
		return Film{}, err
	}
	details, err := h.harvestFilm(ctx, client, slug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to harvest film")
		return Film{}, err
	}

	f := Film{Details: details}
	f.Slug = slug
	f.Name = details.Title
	return f, nil
}

func (h *Harvester) reportPage(completed, total int, message string) {
	if h.opts.OnPage != nil {
		h.opts.OnPage(completed, total, message)
	}
}

func (h *Harvester) reportFilm(completed, total int, message string) {
	if h.opts.OnFilm != nil {
		h.opts.OnFilm(completed, total, message)
	}
}

func wrapBasic(films []list.BasicFilm) []Film {
	out := make([]Film, len(films))
	for i, f := range films {
		out[i] = Film{BasicFilm: f}
	}
	return out
}

// sortFilms puts the result into its terminal order: by list position, then
// source page, then slug. unpositioned entries sink to the end.
func sortFilms(films []Film) {
	sort.SliceStable(films, func(i, j int) bool {
		pi, pj := sortPosition(films[i]), sortPosition(films[j])
		if pi != pj {
			return pi < pj
		}
		if films[i].SourcePage != films[j].SourcePage {
			return films[i].SourcePage < films[j].SourcePage
		}
		return films[i].Slug < films[j].Slug
	})
}

func sortPosition(f Film) int {
	if f.ListPosition <= 0 {
		return positionSentinel
	}
	return f.ListPosition
}
