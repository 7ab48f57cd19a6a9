package assignment

import (
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/openstax/staxing/internal/browser"
)

const (
	pickerMonthLabel = ".react-datepicker__current-month"
	pickerNext       = ".react-datepicker__navigation--next"
	pickerPrevious   = ".react-datepicker__navigation--previous"
)

// The widget repaints after each month turn; give it a beat before the
// label is read back.
const pickerSettle = 250 * time.Millisecond

// parseAssignmentDate parses the MM/DD/YYYY form used throughout the
// assignment API.
func parseAssignmentDate(date string) (time.Time, error) {
	t, err := time.Parse("1/2/2006", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid assignment date %q (want MM/DD/YYYY): %w", date, err)
	}
	return t, nil
}

// MonthDelta returns the signed number of month turns from the currently
// displayed month to the target month. Positive means forward.
func MonthDelta(currentYear int, currentMonth time.Month, targetYear int, targetMonth time.Month) int {
	return (targetYear-currentYear)*12 + int(targetMonth) - int(currentMonth)
}

func ParseMonthLabel(label string) (time.Month, int, error) {
	t, err := time.Parse("January 2006", strings.TrimSpace(label))
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected date picker heading %q: %w", label, err)
	}
	return t.Month(), t.Year(), nil
}

// pickDate opens the date picker behind input and selects the target day,
// turning the calendar one month at a time until the heading shows the
// target month and year. The turn count is exactly the absolute month
// delta, forward or backward.
func (b *Builder) pickDate(sess *browser.Session, inputXPath, date string) error {
	target, err := parseAssignmentDate(date)
	if err != nil {
		return err
	}

	if err := sess.Click(inputXPath, chromedp.BySearch); err != nil {
		return fmt.Errorf("open date picker: %w", err)
	}

	label, err := sess.Text(pickerMonthLabel)
	if err != nil {
		return fmt.Errorf("read date picker heading: %w", err)
	}
	month, year, err := ParseMonthLabel(label)
	if err != nil {
		return err
	}

	delta := MonthDelta(year, month, target.Year(), target.Month())
	arrow := pickerNext
	if delta < 0 {
		arrow = pickerPrevious
		delta = -delta
	}
	for i := 0; i < delta; i++ {
		if err := sess.Click(arrow); err != nil {
			return fmt.Errorf("turn calendar month: %w", err)
		}
		sess.Sleep(pickerSettle)
	}

	// The heading must now show the target month; anything else means the
	// widget skipped or swallowed a click.
	label, err = sess.Text(pickerMonthLabel)
	if err != nil {
		return fmt.Errorf("read date picker heading: %w", err)
	}
	month, year, err = ParseMonthLabel(label)
	if err != nil {
		return err
	}
	if month != target.Month() || year != target.Year() {
		return fmt.Errorf("date picker shows %s %d, wanted %s %d",
			month, year, target.Month(), target.Year())
	}

	day := fmt.Sprintf(
		`//div[contains(@class,"react-datepicker__day")`+
			` and not(contains(@class,"disabled"))`+
			` and not(contains(@class,"outside-month"))`+
			` and text()="%d"]`, target.Day())
	if err := sess.Click(day, chromedp.BySearch); err != nil {
		return fmt.Errorf("select day %d: %w", target.Day(), err)
	}
	return nil
}
