package roles

import (
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/openstax/staxing/internal/assignment"
	"github.com/openstax/staxing/internal/browser"
	"github.com/openstax/staxing/internal/config"
)

// Teacher adds calendar, roster, and assignment management on top of User.
type Teacher struct {
	*User

	assign *assignment.Builder
}

// NewTeacher wraps a session with teacher credentials and an assignment
// builder.
func NewTeacher(sess *browser.Session, creds config.Credentials, site string, logger *zap.SugaredLogger) (*Teacher, error) {
	user, err := NewUser(sess, creds, site, logger)
	if err != nil {
		return nil, err
	}
	return &Teacher{
		User:   user,
		assign: assignment.NewBuilder(logger),
	}, nil
}

// AddAssignment creates an assignment on the teacher's current course.
func (t *Teacher) AddAssignment(spec assignment.Spec, opts ...assignment.Option) error {
	return t.assign.Add(t.Session, spec, opts...)
}

// ChangeAssignment edits an existing assignment located by title.
func (t *Teacher) ChangeAssignment(spec assignment.Spec, opts ...assignment.Option) error {
	return t.assign.Change(t.Session, spec, opts...)
}

// DeleteAssignment removes an existing assignment located by title.
func (t *Teacher) DeleteAssignment(spec assignment.Spec) error {
	return t.assign.Delete(t.Session, spec)
}

// GotoCalendar returns to the calendar dashboard via the navbar brand. Two
// navbar layouts exist across deployments.
func (t *Teacher) GotoCalendar() error {
	primary := "ul.navbar-nav a.navbar-brand"
	if present, err := t.Session.IsPresent(primary); err == nil && present {
		return t.Session.Click(primary)
	}
	return t.Session.Click("div.navbar-header a.navbar-brand")
}

// GotoPerformanceForecast opens the forecast page and waits for the guide
// to render. The forecast backend is slow; the wait retries in short slices.
func (t *Teacher) GotoPerformanceForecast() error {
	if err := t.GotoMenuItem("Performance Forecast"); err != nil {
		return err
	}
	var lastErr error
	for i := 0; i < 10; i++ {
		if lastErr = t.Session.WaitVisible(".guide-container"); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("performance forecast did not load: %w", lastErr)
}

// GotoStudentScores opens the scores page from the user menu.
func (t *Teacher) GotoStudentScores() error {
	return t.GotoMenuItem("Student Scores")
}

// GotoCourseRoster opens the combined settings and roster page.
func (t *Teacher) GotoCourseRoster() error {
	return t.GotoMenuItem("Course Settings and Roster")
}

// GotoCourseSettings is the roster page under its other name.
func (t *Teacher) GotoCourseSettings() error {
	return t.GotoCourseRoster()
}

// AddCourseSection creates a named section on the course roster.
func (t *Teacher) AddCourseSection(name string) error {
	current, err := t.Session.CurrentURL()
	if err != nil {
		return err
	}
	if !strings.Contains(current, "settings") {
		if err := t.GotoCourseRoster(); err != nil {
			return err
		}
	}
	if err := t.Session.Click(`//button[i[contains(@class,"fa-plus")]]`, chromedp.BySearch); err != nil {
		return fmt.Errorf("add section button: %w", err)
	}
	input := `//div[contains(@class,"teacher-edit-period-form")]//input[@type="text"]`
	if err := t.Session.SendKeys(input, name, chromedp.BySearch); err != nil {
		return fmt.Errorf("section name: %w", err)
	}
	confirm := `//button[contains(@class,"-edit-period-confirm")]`
	if err := t.Session.Click(confirm, chromedp.BySearch); err != nil {
		return fmt.Errorf("confirm section: %w", err)
	}
	return nil
}

// EnrollmentCode reveals and returns a section's enrollment code.
func (t *Teacher) EnrollmentCode(sectionName string) (string, error) {
	current, err := t.Session.CurrentURL()
	if err != nil {
		return "", err
	}
	if !strings.Contains(current, "settings") {
		if err := t.GotoCourseRoster(); err != nil {
			return "", err
		}
	}
	tab := fmt.Sprintf(`//a[text()=%q]`, sectionName)
	if err := t.Session.Click(tab, chromedp.BySearch); err != nil {
		return "", fmt.Errorf("section %q: %w", sectionName, err)
	}
	if err := t.Session.Click(".show-enrollment-code"); err != nil {
		return "", fmt.Errorf("reveal enrollment code: %w", err)
	}
	t.Session.Sleep(time.Second)
	code, err := t.Session.Text(".code")
	if err != nil {
		return "", fmt.Errorf("read enrollment code: %w", err)
	}
	return strings.TrimSpace(code), nil
}

// BookSections lists every section number in the course book by walking the
// reading form's section picker, then returns to the calendar.
func (t *Teacher) BookSections() ([]string, error) {
	if err := t.GotoCalendar(); err != nil {
		return nil, err
	}
	if err := t.assign.OpenMenu(t.Session); err != nil {
		return nil, err
	}
	if err := t.Session.Click(`//a[text()="Add Reading"]`, chromedp.BySearch); err != nil {
		return nil, fmt.Errorf("open reading form: %w", err)
	}
	if err := t.Session.ScrollTo("#reading-select"); err != nil {
		return nil, err
	}
	t.Session.Sleep(time.Second)
	if err := t.Session.Click("#reading-select"); err != nil {
		return nil, fmt.Errorf("open section picker: %w", err)
	}

	// Chapters render collapsed; expand each before collecting sections.
	var collapsed []int
	err := t.Session.Eval(
		`Array.from(document.querySelectorAll('div.chapter-heading > a'))
			.map((e, i) => e.getAttribute('aria-expanded') !== 'true' ? i : -1)
			.filter(i => i >= 0)`,
		&collapsed,
	)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	for _, idx := range collapsed {
		script := fmt.Sprintf(
			`document.querySelectorAll('div.chapter-heading > a')[%d].click()`, idx)
		if err := t.Session.Eval(script, nil); err != nil {
			return nil, fmt.Errorf("expand chapter %d: %w", idx, err)
		}
		t.Session.Sleep(250 * time.Millisecond)
	}

	sections, err := t.Session.Texts("div.section span.chapter-section")
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	for i, s := range sections {
		sections[i] = strings.TrimSpace(s)
	}
	if err := t.GotoCalendar(); err != nil {
		return nil, err
	}
	return sections, nil
}

const calendarHeading = "div.calendar-header-label"

// calendarSettle matches the repaint pause between calendar arrow clicks.
const calendarSettle = 200 * time.Millisecond

// CalendarMonth reads the month and year the teacher calendar displays.
func (t *Teacher) CalendarMonth() (time.Month, int, error) {
	if err := t.Session.ScrollTo(calendarHeading); err != nil {
		return 0, 0, fmt.Errorf("calendar heading: %w", err)
	}
	label, err := t.Session.Text(calendarHeading)
	if err != nil {
		return 0, 0, fmt.Errorf("read calendar heading: %w", err)
	}
	return assignment.ParseMonthLabel(label)
}

// RotateCalendar turns the teacher calendar to the month of the target
// MM/DD/YYYY date, one arrow click per month of difference.
func (t *Teacher) RotateCalendar(target string) error {
	date, err := time.Parse("1/2/2006", target)
	if err != nil {
		return fmt.Errorf("invalid calendar target %q: %w", target, err)
	}
	month, year, err := t.CalendarMonth()
	if err != nil {
		return err
	}
	delta := assignment.MonthDelta(year, month, date.Year(), date.Month())
	arrow := ".fa-caret-right"
	if delta < 0 {
		arrow = ".fa-caret-left"
		delta = -delta
	}
	for i := 0; i < delta; i++ {
		if err := t.Session.Click(arrow); err != nil {
			return fmt.Errorf("turn calendar: %w", err)
		}
		t.Session.Sleep(calendarSettle)
	}
	month, year, err = t.CalendarMonth()
	if err != nil {
		return err
	}
	if month != date.Month() || year != date.Year() {
		return fmt.Errorf("calendar shows %s %d, wanted %s %d",
			month, year, date.Month(), date.Year())
	}
	return nil
}
