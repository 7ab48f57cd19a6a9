package assignment

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/openstax/staxing/internal/browser"
)

// ChapterPrefix marks a section key that names a whole chapter ("ch3").
const ChapterPrefix = "ch"

// Selection is one clause of the problem-selection grammar, resolved
// against the exercises available for a section.
type Selection interface {
	pick(available []string, rnd *rand.Rand) ([]string, error)
}

// SelectAll selects every available exercise exactly once.
type SelectAll struct{}

func (SelectAll) pick(available []string, _ *rand.Rand) ([]string, error) {
	out := make([]string, len(available))
	copy(out, available)
	return out, nil
}

// SelectFirst selects the first N available exercises.
type SelectFirst int

func (n SelectFirst) pick(available []string, _ *rand.Rand) ([]string, error) {
	if int(n) < 0 {
		return nil, fmt.Errorf("selection count cannot be negative: %d", n)
	}
	if int(n) > len(available) {
		return nil, fmt.Errorf("requested %d exercises but only %d available", n, len(available))
	}
	out := make([]string, int(n))
	copy(out, available[:n])
	return out, nil
}

// SelectRange selects a random count of exercises within [Low, High],
// inclusive, without duplicates.
type SelectRange struct {
	Low  int
	High int
}

func (r SelectRange) pick(available []string, rnd *rand.Rand) ([]string, error) {
	if r.Low < 0 || r.High < r.Low {
		return nil, fmt.Errorf("invalid selection range [%d, %d]", r.Low, r.High)
	}
	if r.Low > len(available) {
		return nil, fmt.Errorf("range minimum %d exceeds the %d available exercises", r.Low, len(available))
	}
	total := r.Low + rnd.Intn(r.High-r.Low+1)
	if total > len(available) {
		total = len(available)
	}
	pool := make([]string, len(available))
	copy(pool, available)
	out := make([]string, 0, total)
	for i := 0; i < total; i++ {
		j := rnd.Intn(len(pool))
		out = append(out, pool[j])
		pool = append(pool[:j], pool[j+1:]...)
	}
	return out, nil
}

// SelectIDs selects exactly the listed exercise IDs that exist in the
// catalog; unknown IDs are skipped.
type SelectIDs []string

func (ids SelectIDs) pick(available []string, _ *rand.Rand) ([]string, error) {
	known := make(map[string]bool, len(available))
	for _, id := range available {
		known[id] = true
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if known[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// ProblemSet is the per-assignment selection specification: a clause per
// section (or chapter) key plus an optional tutor-selection target for the
// adaptive widget.
type ProblemSet struct {
	Sections map[string]Selection
	// Tutor sets the adaptive-selection count when positive; zero leaves
	// the widget at its default.
	Tutor int
}

// SectionKeys returns the section/chapter keys in deterministic order.
func (p *ProblemSet) SectionKeys() []string {
	keys := make([]string, 0, len(p.Sections))
	for key := range p.Sections {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Catalog maps chapter.section keys to the exercise IDs scraped from the
// exercise picker.
type Catalog map[string][]string

// SectionExercises returns the exercises available under key: either one
// section's list or, for a "chN" key, every section of that chapter.
func (c Catalog) SectionExercises(key string) ([]string, error) {
	if !strings.HasPrefix(key, ChapterPrefix) {
		ids, ok := c[key]
		if !ok {
			return nil, fmt.Errorf("section %q not present in the exercise catalog", key)
		}
		return ids, nil
	}
	chapter, err := strconv.Atoi(key[len(ChapterPrefix):])
	if err != nil {
		return nil, fmt.Errorf("invalid chapter key %q: %w", key, err)
	}
	sections := make([]string, 0, len(c))
	for section := range c {
		if n, err := strconv.Atoi(strings.SplitN(section, ".", 2)[0]); err == nil && n == chapter {
			sections = append(sections, section)
		}
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("chapter %d not present in the exercise catalog", chapter)
	}
	sort.Strings(sections)
	var ids []string
	for _, section := range sections {
		ids = append(ids, c[section]...)
	}
	return ids, nil
}

// allExercises flattens the catalog for explicit-ID lookups, which may
// reference any section.
func (c Catalog) allExercises() []string {
	sections := make([]string, 0, len(c))
	for section := range c {
		sections = append(sections, section)
	}
	sort.Strings(sections)
	var ids []string
	for _, section := range sections {
		ids = append(ids, c[section]...)
	}
	return ids
}

// Resolve evaluates the selection grammar against a scraped catalog and
// returns the de-duplicated exercise IDs to add, in selection order.
func (p *ProblemSet) Resolve(catalog Catalog, rnd *rand.Rand) ([]string, error) {
	var using []string
	for _, key := range p.SectionKeys() {
		sel := p.Sections[key]
		if sel == nil {
			continue
		}
		available, err := p.availableFor(catalog, key, sel)
		if err != nil {
			return nil, err
		}
		picked, err := sel.pick(available, rnd)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", key, err)
		}
		using = append(using, picked...)
	}

	seen := make(map[string]bool, len(using))
	out := make([]string, 0, len(using))
	for _, id := range using {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

func (p *ProblemSet) availableFor(catalog Catalog, key string, sel Selection) ([]string, error) {
	// Explicit IDs may live in any section, so they resolve against the
	// whole catalog.
	if _, ok := sel.(SelectIDs); ok {
		return catalog.allExercises(), nil
	}
	return catalog.SectionExercises(key)
}

// parseCatalog extracts the exercise catalog from the picker's markup:
// one div.exercise-sections block per section, with the section number in
// label span.chapter-section and an "ID: <ex>" span per exercise.
func parseCatalog(markup string) (Catalog, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse exercise catalog: %w", err)
	}
	catalog := Catalog{}
	doc.Find("div.exercise-sections").Each(func(_ int, row *goquery.Selection) {
		section := strings.TrimSpace(row.Find("label span.chapter-section").First().Text())
		if section == "" {
			return
		}
		ids := []string{}
		row.Find("div.exercises span").Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if !strings.Contains(text, "ID:") {
				return
			}
			fields := strings.Fields(text)
			if len(fields) >= 2 {
				ids = append(ids, fields[1])
			}
		})
		catalog[section] = ids
	})
	return catalog, nil
}

const (
	problemsSelect  = "#problems-select"
	exerciseTopics  = "div.homework-plan-exercise-select-topics"
	showProblemsBtn = `//button[contains(@class,"-show-problems")]`
	loadingSpinner  = `//span[text()="Loading..."]`
	tutorPicksCount = `//div[@class="tutor-selections"]//h2`
	tutorPicksMore  = `//div[@class="tutor-selections"]//button[contains(@class,"-move-exercise-down")]`
	tutorPicksFewer = `//div[@class="tutor-selections"]//button[contains(@class,"-move-exercise-up")]`
)

// scrapeCatalog reads the available exercises once the picker has settled.
func (b *Builder) scrapeCatalog(sess *browser.Session) (Catalog, error) {
	// A transient "Loading..." badge appears while exercises stream in.
	sess.RunBestEffort(
		chromedp.WaitVisible(loadingSpinner, chromedp.BySearch),
		chromedp.WaitNotPresent(loadingSpinner, chromedp.BySearch),
	)
	markup, err := sess.PageSource()
	if err != nil {
		return nil, fmt.Errorf("read exercise catalog: %w", err)
	}
	return parseCatalog(markup)
}

// setTutorSelections walks the adaptive widget's counter to the requested
// value. The widget's down arrow raises the count and the up arrow lowers
// it, matching its drag-reorder heritage.
func (b *Builder) setTutorSelections(sess *browser.Session, want int) error {
	text, err := sess.Text(tutorPicksCount, chromedp.BySearch)
	if err != nil {
		return fmt.Errorf("read tutor selection count: %w", err)
	}
	current, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("unexpected tutor selection count %q: %w", text, err)
	}
	change := want - current
	arrow := tutorPicksMore
	if change < 0 {
		arrow = tutorPicksFewer
		change = -change
	}
	for i := 0; i < change; i++ {
		if err := sess.Click(arrow, chromedp.BySearch); err != nil {
			return fmt.Errorf("adjust tutor selections: %w", err)
		}
	}
	return nil
}

// addHomeworkProblems opens the exercise picker, selects the requested
// sections, resolves the problem grammar against the scraped catalog, and
// clicks each resolved exercise into the assignment.
func (b *Builder) addHomeworkProblems(sess *browser.Session, problems *ProblemSet, rnd *rand.Rand) error {
	if err := sess.Click(problemsSelect); err != nil {
		return fmt.Errorf("open exercise picker: %w", err)
	}
	if err := sess.WaitVisible(exerciseTopics); err != nil {
		return fmt.Errorf("exercise topics panel: %w", err)
	}
	if err := b.selectSections(sess, problems.SectionKeys()); err != nil {
		return err
	}
	if err := sess.Eval(`window.scrollTo(0, document.body.scrollHeight);`, nil); err != nil {
		return err
	}
	if err := sess.Click(showProblemsBtn, chromedp.BySearch); err != nil {
		return fmt.Errorf("show problems: %w", err)
	}

	catalog, err := b.scrapeCatalog(sess)
	if err != nil {
		return err
	}
	b.logger.Debugw("exercise catalog scraped", "sections", len(catalog))

	if problems.Tutor > 0 {
		b.logger.Infow("setting tutor selections", "count", problems.Tutor)
		if err := b.setTutorSelections(sess, problems.Tutor); err != nil {
			return err
		}
	}

	using, err := problems.Resolve(catalog, rnd)
	if err != nil {
		return err
	}
	b.logger.Infow("adding exercises", "count", len(using))
	for _, exercise := range using {
		overlay := fmt.Sprintf(
			`//span[contains(text(),"%s")]/../../div[@class="controls-overlay"]`, exercise)
		if err := sess.ScrollTo(overlay, chromedp.BySearch); err != nil {
			return fmt.Errorf("exercise %s: %w", exercise, err)
		}
		if err := sess.Click(overlay, chromedp.BySearch); err != nil {
			return fmt.Errorf("add exercise %s: %w", exercise, err)
		}
	}

	if err := sess.Click(`//*[text()="Next"]`, chromedp.BySearch); err != nil {
		return fmt.Errorf("leave exercise picker: %w", err)
	}
	return nil
}
