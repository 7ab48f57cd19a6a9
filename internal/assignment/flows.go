package assignment

import (
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/openstax/staxing/internal/browser"
	"github.com/openstax/staxing/internal/dom"
)

const (
	sidebarToggle  = "button.sidebar-toggle"
	titleInput     = "#reading-title"
	descriptionBox = `//div[contains(@class,"assignment-description")]//textarea[contains(@class,"form-control")]`
	externalURLBox = "#external-url"
	feedbackSelect = "#feedback-select"
	readingSelect  = "#reading-select"
	publishButton  = `//button[contains(@class,"-publish")]`
	footerBar      = `//div[contains(@class,"footer")]`
	confirmOK      = `//button[contains(@class,"ok")]`
)

// The menu toggle turns gray once the sidebar is open.
const sidebarOpenColor = "153, 153, 153"

// openAssignmentMenu opens the Add Assignment sidebar when it is closed.
func (b *Builder) OpenMenu(sess *browser.Session) error {
	if err := sess.ScrollTo(sidebarToggle); err != nil {
		return fmt.Errorf("assignment menu toggle: %w", err)
	}
	var color string
	err := sess.Eval(
		`getComputedStyle(document.querySelector('button.sidebar-toggle')).backgroundColor`,
		&color,
	)
	if err != nil {
		return fmt.Errorf("assignment menu state: %w", err)
	}
	if strings.Contains(color, sidebarOpenColor) {
		b.logger.Debug("assignment menu already open")
		return nil
	}
	return sess.Click(sidebarToggle)
}

func addLink(label string) string {
	return fmt.Sprintf(`//a[text()=%q]`, label)
}

// openChapterList expands a chapter's section list when collapsed.
func (b *Builder) openChapterList(sess *browser.Session, chapter string) error {
	link := fmt.Sprintf(`//div[@data-chapter-section=%q]/a`, chapter)
	expanded, ok, err := sess.Attribute(link, "aria-expanded", chromedp.BySearch)
	if err != nil {
		return fmt.Errorf("chapter %s heading: %w", chapter, err)
	}
	if ok && expanded == "true" {
		return nil
	}
	return sess.Click(link, chromedp.BySearch)
}

// selectSections marks chapters ("chN") and individual sections ("N.M") in
// the section picker.
func (b *Builder) selectSections(sess *browser.Session, keys []string) error {
	for _, key := range keys {
		if strings.HasPrefix(key, ChapterPrefix) {
			b.logger.Infow("adding chapter", "chapter", key)
			marker := fmt.Sprintf(
				`//div[@data-chapter-section=%q]//i[contains(@class,"tutor-icon")]`,
				key[len(ChapterPrefix):])
			sess.Sleep(500 * time.Millisecond)
			if err := sess.Click(marker, chromedp.BySearch); err != nil {
				return fmt.Errorf("select chapter %s: %w", key, err)
			}
			continue
		}

		b.logger.Infow("adding section", "section", key)
		chapter := strings.SplitN(key, ".", 2)[0]
		if err := b.openChapterList(sess, chapter); err != nil {
			return err
		}
		sess.Sleep(500 * time.Millisecond)
		box := fmt.Sprintf(
			`//span[contains(@data-chapter-section,%q) and text()=%q]`+
				`/preceding-sibling::span/input`, key, key)
		if err := sess.WaitVisible(box, chromedp.BySearch); err != nil {
			return fmt.Errorf("section %s checkbox: %w", key, err)
		}
		_, checked, err := sess.Attribute(box, "checked", chromedp.BySearch)
		if err != nil {
			return fmt.Errorf("section %s state: %w", key, err)
		}
		if !checked {
			if err := sess.Click(box, chromedp.BySearch); err != nil {
				return fmt.Errorf("select section %s: %w", key, err)
			}
		}
	}
	return nil
}

// selectStatus applies the terminal footer action.
func (b *Builder) selectStatus(sess *browser.Session, status Status) error {
	if err := sess.ScrollTo(footerBar, chromedp.BySearch); err != nil {
		return fmt.Errorf("assignment footer: %w", err)
	}
	// The footer buttons enable once form validation settles.
	sess.Sleep(time.Second)

	switch status {
	case Publish:
		b.logger.Info("publishing assignment")
		return sess.Click(publishButton, chromedp.BySearch)
	case Draft:
		b.logger.Info("saving assignment draft")
		return sess.Click(`//button[contains(@class," -save")]`, chromedp.BySearch)
	case Cancel:
		b.logger.Info("canceling assignment")
		if err := sess.Click(`//button[contains(text(),"Cancel") and @type="button"]`, chromedp.BySearch); err != nil {
			return err
		}
		// The unsaved-changes dialog only appears when fields were touched.
		sess.ClickIfPresent(confirmOK, chromedp.BySearch)
		return nil
	case Delete:
		b.logger.Info("deleting assignment")
		if err := sess.Click(`//button[contains(text(),"Delete")]`, chromedp.BySearch); err != nil {
			return err
		}
		return sess.Click(confirmOK, chromedp.BySearch)
	}
	return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
}

// fillCommonFields types the title and description, honoring breakpoints.
// It reports true when the flow should stop.
func (b *Builder) fillCommonFields(sess *browser.Session, spec Spec, o *flowOptions) (bool, error) {
	if o.stopAt(BeforeTitle) {
		return true, nil
	}
	if err := sess.SendKeys(titleInput, spec.Title); err != nil {
		return false, fmt.Errorf("assignment title: %w", err)
	}
	if o.stopAt(BeforeDescription) {
		return true, nil
	}
	if err := sess.SendKeys(descriptionBox, spec.Description, chromedp.BySearch); err != nil {
		return false, fmt.Errorf("assignment description: %w", err)
	}
	if o.stopAt(BeforePeriod) {
		return true, nil
	}
	if err := b.assignPeriods(sess, spec.Periods); err != nil {
		return false, err
	}
	return false, nil
}

func (b *Builder) addReading(sess *browser.Session, spec Spec, o *flowOptions) error {
	b.logger.Infow("creating reading assignment", "title", spec.Title)
	if err := b.OpenMenu(sess); err != nil {
		return err
	}
	if err := sess.Click(addLink("Add Reading"), chromedp.BySearch); err != nil {
		return fmt.Errorf("open reading form: %w", err)
	}
	// The form takes noticeably longer than a single element wait on slow
	// deployments.
	if err := sess.RunWithin(sess.WaitTimeout()*3, dom.WaitVisibleAction(titleInput)); err != nil {
		return fmt.Errorf("reading form: %w", err)
	}

	if stop, err := b.fillCommonFields(sess, spec, o); err != nil || stop {
		return err
	}

	b.logger.Info("setting reading section list")
	if err := sess.Click(readingSelect); err != nil {
		return fmt.Errorf("open section picker: %w", err)
	}
	if err := sess.WaitVisible(`//div[contains(@class,"reading-plan")]`, chromedp.BySearch); err != nil {
		return fmt.Errorf("section picker: %w", err)
	}
	if o.stopAt(BeforeSectionSelect) {
		return nil
	}
	if err := b.selectSections(sess, spec.Readings); err != nil {
		return err
	}
	if o.stopAt(BeforeReadingSelect) {
		return nil
	}
	if err := sess.Click(`//button[text()="Add Readings"]`, chromedp.BySearch); err != nil {
		return fmt.Errorf("add readings: %w", err)
	}
	if err := sess.WaitVisible(publishButton, chromedp.BySearch); err != nil {
		return err
	}
	if o.stopAt(BeforeStatusSelect) {
		return nil
	}
	return b.selectStatus(sess, spec.Status)
}

func (b *Builder) addHomework(sess *browser.Session, spec Spec, o *flowOptions) error {
	b.logger.Infow("creating homework assignment", "title", spec.Title)
	if err := b.OpenMenu(sess); err != nil {
		return err
	}
	if err := sess.Click(addLink("Add Homework"), chromedp.BySearch); err != nil {
		return fmt.Errorf("open homework form: %w", err)
	}
	if err := sess.WaitVisible(`//div[contains(@class,"homework-plan")]`, chromedp.BySearch); err != nil {
		return fmt.Errorf("homework form: %w", err)
	}

	if stop, err := b.fillCommonFields(sess, spec, o); err != nil || stop {
		return err
	}
	if o.stopAt(BeforeExercise) {
		return nil
	}
	if err := b.addHomeworkProblems(sess, spec.Problems, o.rnd); err != nil {
		return err
	}

	if err := sess.ScrollTo(feedbackSelect); err != nil {
		return fmt.Errorf("feedback selector: %w", err)
	}
	if err := sess.Click(feedbackSelect); err != nil {
		return err
	}
	feedback := spec.Feedback
	if feedback == "" {
		feedback = FeedbackImmediate
	}
	option := fmt.Sprintf(`//option[@value=%q]`, string(feedback))
	if err := sess.Click(option, chromedp.BySearch); err != nil {
		return fmt.Errorf("feedback option %q: %w", feedback, err)
	}

	if o.stopAt(BeforeStatusSelect) {
		return nil
	}
	return b.selectStatus(sess, spec.Status)
}

func (b *Builder) addExternal(sess *browser.Session, spec Spec, o *flowOptions) error {
	b.logger.Infow("creating external assignment", "title", spec.Title)
	if err := b.OpenMenu(sess); err != nil {
		return err
	}
	if err := sess.Click(addLink("Add External Assignment"), chromedp.BySearch); err != nil {
		return fmt.Errorf("open external form: %w", err)
	}
	if err := sess.RunWithin(sess.WaitTimeout()*3, dom.WaitVisibleAction(titleInput)); err != nil {
		return fmt.Errorf("external form: %w", err)
	}

	if stop, err := b.fillCommonFields(sess, spec, o); err != nil || stop {
		return err
	}
	if o.stopAt(BeforeURL) {
		return nil
	}
	if err := sess.SendKeys(externalURLBox, spec.URL); err != nil {
		return fmt.Errorf("assignment URL: %w", err)
	}
	if err := sess.WaitVisible(publishButton, chromedp.BySearch); err != nil {
		return err
	}
	if o.stopAt(BeforeStatusSelect) {
		return nil
	}
	return b.selectStatus(sess, spec.Status)
}

func (b *Builder) addEvent(sess *browser.Session, spec Spec, o *flowOptions) error {
	b.logger.Infow("creating event", "title", spec.Title)
	if err := b.OpenMenu(sess); err != nil {
		return err
	}
	if err := sess.Click(addLink("Add Event"), chromedp.BySearch); err != nil {
		return fmt.Errorf("open event form: %w", err)
	}
	if err := sess.RunWithin(sess.WaitTimeout()*3, dom.WaitVisibleAction(titleInput)); err != nil {
		return fmt.Errorf("event form: %w", err)
	}

	if stop, err := b.fillCommonFields(sess, spec, o); err != nil || stop {
		return err
	}
	if err := sess.WaitVisible(publishButton, chromedp.BySearch); err != nil {
		return err
	}
	if o.stopAt(BeforeStatusSelect) {
		return nil
	}
	return b.selectStatus(sess, spec.Status)
}

// openFromCalendar locates an existing assignment: it returns to the
// calendar, jumps to the month of the assignment's close date, and opens
// the assignment by title.
func (b *Builder) openFromCalendar(sess *browser.Session, title string, periods PeriodSet) error {
	if err := sess.RunWithin(sess.WaitTimeout()*4,
		dom.ClickAction(`//ul/a[contains(@class,"navbar-brand")]`, chromedp.BySearch),
	); err != nil {
		return fmt.Errorf("return to calendar: %w", err)
	}

	closeDate, ok := periods.FirstCloseDate()
	if !ok {
		return fmt.Errorf("cannot locate assignment %q: no close date in any period", title)
	}
	when, err := parseAssignmentDate(closeDate)
	if err != nil {
		return err
	}
	current, err := sess.CurrentURL()
	if err != nil {
		return err
	}
	monthURL := strings.TrimRight(current, "/") + "/month/" + when.Format("2006-01-02")
	b.logger.Debugw("jumping to calendar month", "url", monthURL)
	if err := sess.Get(monthURL); err != nil {
		return err
	}

	label := fmt.Sprintf(`//a[label[text()=%q]]`, title)
	if err := sess.RunWithin(sess.WaitTimeout()*4, dom.ClickAction(label, chromedp.BySearch)); err != nil {
		return fmt.Errorf("open assignment %q: %w", title, err)
	}
	sess.Sleep(300 * time.Millisecond)
	// Published assignments open a summary popover with an edit button;
	// drafts go straight to the form.
	sess.ClickIfPresent(".-edit-assignment")
	return nil
}

// changeAssignment re-applies the scalar fields of spec to an existing
// assignment, then applies the requested status. Section and problem
// selections are left as-is; re-resolving them against an open form would
// double-add exercises.
func (b *Builder) changeAssignment(sess *browser.Session, spec Spec, o *flowOptions) error {
	b.logger.Infow("editing assignment", "kind", spec.Kind, "title", spec.Title)
	if err := b.openFromCalendar(sess, spec.Title, spec.Periods); err != nil {
		return err
	}
	if err := sess.RunWithin(sess.WaitTimeout()*3, dom.WaitVisibleAction(titleInput)); err != nil {
		return fmt.Errorf("assignment form: %w", err)
	}

	if o.stopAt(BeforeTitle) {
		return nil
	}
	if err := sess.ClearAndType(titleInput, spec.Title); err != nil {
		return fmt.Errorf("assignment title: %w", err)
	}
	if o.stopAt(BeforeDescription) {
		return nil
	}
	if spec.Description != "" {
		if err := sess.ClearAndType(descriptionBox, spec.Description, chromedp.BySearch); err != nil {
			return fmt.Errorf("assignment description: %w", err)
		}
	}
	if o.stopAt(BeforePeriod) {
		return nil
	}
	if err := b.assignPeriods(sess, spec.Periods); err != nil {
		return err
	}
	if spec.Kind == External && spec.URL != "" {
		if o.stopAt(BeforeURL) {
			return nil
		}
		if err := sess.ClearAndType(externalURLBox, spec.URL); err != nil {
			return fmt.Errorf("assignment URL: %w", err)
		}
	}
	if o.stopAt(BeforeStatusSelect) {
		return nil
	}
	return b.selectStatus(sess, spec.Status)
}

// deleteAssignment removes an assignment through its form's delete link.
func (b *Builder) deleteAssignment(sess *browser.Session, spec Spec) error {
	b.logger.Infow("deleting assignment", "kind", spec.Kind, "title", spec.Title)
	if err := b.openFromCalendar(sess, spec.Title, spec.Periods); err != nil {
		return err
	}
	if err := sess.RunWithin(sess.WaitTimeout()*4, dom.ClickAction(".delete-link")); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if err := sess.Click(`//div[@class="controls"]/button[text()="Yes"]`, chromedp.BySearch); err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	return nil
}
