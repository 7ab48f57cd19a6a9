package assignment

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/openstax/staxing/internal/browser"
)

// AllPeriods is the sentinel period name for the collective date/time panel.
const AllPeriods = "all"

// DateSpec is an open or close side of an assignment window: a bare
// MM/DD/YYYY date, optionally with a time like "8:00 pm".
type DateSpec struct {
	Date string
	Time string
}

// On builds a date-only DateSpec.
func On(date string) DateSpec { return DateSpec{Date: date} }

// At builds a DateSpec with both date and time.
func At(date, t string) DateSpec { return DateSpec{Date: date, Time: t} }

// PeriodWindow is the open/close pair assigned to one period.
type PeriodWindow struct {
	Opens  DateSpec
	Closes DateSpec
}

// PeriodSet maps period names, or the AllPeriods sentinel, to their windows.
type PeriodSet map[string]PeriodWindow

// normalizeTime rewrites a human time string into the keystrokes the react
// time widget expects: "8:00 pm" becomes "800p".
func normalizeTime(t string) string {
	r := strings.NewReplacer(":", "", " ", "", "m", "")
	return r.Replace(t)
}

const (
	collectiveRadio = "#hide-periods-radio"
	individualRadio = "#show-periods-radio"
	periodToggles   = `//input[contains(@id,"period-toggle-period")]`
)

// assignPeriods fills the open/close schedule panel. A set containing the
// AllPeriods key uses the collective panel; otherwise each named period row
// is enabled and filled, and every unnamed row is disabled.
func (b *Builder) assignPeriods(sess *browser.Session, periods PeriodSet) error {
	if len(periods) == 0 {
		return ErrMissingPeriods
	}

	if window, ok := periods[AllPeriods]; ok {
		if err := sess.Click(collectiveRadio); err != nil {
			return fmt.Errorf("collective period panel: %w", err)
		}
		if err := b.assignDate(sess, "", "open", window.Opens.Date); err != nil {
			return err
		}
		if err := b.assignDate(sess, "", "due", window.Closes.Date); err != nil {
			return err
		}
		if window.Opens.Time != "" {
			if err := b.assignTime(sess, "", "open", window.Opens.Time); err != nil {
				return err
			}
		}
		if window.Closes.Time != "" {
			if err := b.assignTime(sess, "", "due", window.Closes.Time); err != nil {
				return err
			}
		}
		return nil
	}

	if err := sess.Click(individualRadio); err != nil {
		return fmt.Errorf("individual period panel: %w", err)
	}

	rows, err := b.periodRows(sess)
	if err != nil {
		return err
	}

	matched := false
	for _, row := range rows {
		window, wanted := periods[row.name]
		b.logger.Debugw("period row", "period", row.name, "wanted", wanted)
		if !wanted {
			if err := b.setRowEnabled(sess, row, false); err != nil {
				return err
			}
			continue
		}
		matched = true
		if err := b.setRowEnabled(sess, row, true); err != nil {
			return err
		}
		// Close before open, matching the widget's validation order.
		if err := b.assignDate(sess, row.anchor(), "due", window.Closes.Date); err != nil {
			return err
		}
		if err := b.assignDate(sess, row.anchor(), "open", window.Opens.Date); err != nil {
			return err
		}
		if window.Closes.Time != "" {
			if err := b.assignTime(sess, row.anchor(), "due", window.Closes.Time); err != nil {
				return err
			}
		}
		if window.Opens.Time != "" {
			if err := b.assignTime(sess, row.anchor(), "open", window.Opens.Time); err != nil {
				return err
			}
		}
	}
	if !matched {
		return fmt.Errorf("%w: %s", ErrNoPeriodMatch, strings.Join(periodNames(periods), ", "))
	}
	return nil
}

type periodRow struct {
	id   string
	name string
}

// anchor returns the XPath prefix that scopes date/time lookups to this row.
func (r periodRow) anchor() string {
	return fmt.Sprintf(`//input[@id=%q]/../..`, r.id)
}

func (r periodRow) toggleXPath() string {
	return fmt.Sprintf(`//input[@id=%q]`, r.id)
}

// periodRows enumerates the per-period toggle checkboxes and their labels.
func (b *Builder) periodRows(sess *browser.Session) ([]periodRow, error) {
	var ids []string
	err := sess.Eval(
		`Array.from(document.querySelectorAll('input[id*="period-toggle-period"]')).map(e => e.id)`,
		&ids,
	)
	if err != nil {
		return nil, fmt.Errorf("list period toggles: %w", err)
	}
	rows := make([]periodRow, 0, len(ids))
	for _, id := range ids {
		name, err := sess.Text(fmt.Sprintf(`//label[@for=%q]`, id), chromedp.BySearch)
		if err != nil {
			return nil, fmt.Errorf("period label for %s: %w", id, err)
		}
		rows = append(rows, periodRow{id: id, name: strings.TrimSpace(name)})
	}
	return rows, nil
}

func (b *Builder) setRowEnabled(sess *browser.Session, row periodRow, enabled bool) error {
	var checked bool
	err := sess.Eval(
		fmt.Sprintf(`document.getElementById(%q).checked`, row.id),
		&checked,
	)
	if err != nil {
		return fmt.Errorf("period %q state: %w", row.name, err)
	}
	if checked == enabled {
		return nil
	}
	if err := sess.ScrollTo(row.toggleXPath(), chromedp.BySearch); err != nil {
		return err
	}
	if err := sess.Click(row.toggleXPath(), chromedp.BySearch); err != nil {
		return fmt.Errorf("toggle period %q: %w", row.name, err)
	}
	return nil
}

// assignDate opens the row's date picker and selects the target day.
// anchor is the row's XPath prefix, or empty for the collective panel.
func (b *Builder) assignDate(sess *browser.Session, anchor, target, date string) error {
	input := anchor +
		fmt.Sprintf(`//div[contains(@class,"-%s-date")]`, target) +
		`//div[contains(@class,"react-datepicker__input")]//input`
	return b.pickDate(sess, input, date)
}

// assignTime types a normalized time into the row's time input.
func (b *Builder) assignTime(sess *browser.Session, anchor, target, timeOfDay string) error {
	input := anchor + fmt.Sprintf(`//div[contains(@class,"-%s-time")]//input`, target)
	if err := sess.ClearAndType(input, normalizeTime(timeOfDay), chromedp.BySearch); err != nil {
		return fmt.Errorf("set %s time: %w", target, err)
	}
	return nil
}

func periodNames(periods PeriodSet) []string {
	names := make([]string, 0, len(periods))
	for name := range periods {
		names = append(names, name)
	}
	return names
}

// FirstCloseDate returns any period's close date; the calendar month of an
// assignment is derived from it when locating the assignment for edit or
// delete.
func (p PeriodSet) FirstCloseDate() (string, bool) {
	for _, window := range p {
		if window.Closes.Date != "" {
			return window.Closes.Date, true
		}
	}
	return "", false
}
