package roles

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/openstax/staxing/internal/browser"
	"github.com/openstax/staxing/internal/config"
)

// PracticeSet selects which topic a practice session covers.
type PracticeSet string

const (
	// PracticeWeakest drills the student's weakest topic.
	PracticeWeakest PracticeSet = "weakest"
	// PracticeRandom drills a randomly chosen section.
	PracticeRandom PracticeSet = "random"
)

// Student adds dashboard navigation and assessment answering on top of User.
type Student struct {
	*User

	rnd *rand.Rand
}

// NewStudent wraps a session with student credentials.
func NewStudent(sess *browser.Session, creds config.Credentials, site string, logger *zap.SugaredLogger) (*Student, error) {
	user, err := NewUser(sess, creds, site, logger)
	if err != nil {
		return nil, err
	}
	return &Student{
		User: user,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// GotoDashboard opens the student's current-work dashboard.
func (s *Student) GotoDashboard() error {
	return s.GotoMenuItem("Dashboard")
}

// GotoPastWork opens the previous weeks' work from the dashboard.
func (s *Student) GotoPastWork() error {
	if err := s.GotoDashboard(); err != nil {
		return err
	}
	return s.Session.Click(`//a[text()="All Past Work"]`, chromedp.BySearch)
}

// GotoPerformanceForecast opens the student's forecast page.
func (s *Student) GotoPerformanceForecast() error {
	return s.GotoMenuItem("Performance Forecast")
}

// Practice runs a practice session from the dashboard and answers every
// assessment in it.
func (s *Student) Practice(set PracticeSet) error {
	if err := s.GotoDashboard(); err != nil {
		return err
	}
	// The performance meters stream in behind a loading badge.
	s.Session.RunBestEffort(chromedp.WaitNotPresent(".is-loading"))
	s.Session.Sleep(2 * time.Second)

	if err := s.Session.WaitVisible(".practice"); err != nil {
		return fmt.Errorf("practice button: %w", err)
	}

	switch set {
	case PracticeRandom:
		if err := s.clickRandomSection(); err != nil {
			return err
		}
	default:
		if err := s.Session.Click(".practice"); err != nil {
			return fmt.Errorf("start practice: %w", err)
		}
	}

	count, err := s.assessmentCount()
	if err != nil {
		return err
	}
	s.logger.Infow("working practice set", "assessments", count)
	for i := 0; i < count; i++ {
		if err := s.AnswerAssessment(); err != nil {
			return fmt.Errorf("assessment %d: %w", i+1, err)
		}
	}

	done := `//a[contains(text(),"Dashboard") and contains(@class,"btn")]`
	if err := s.Session.Click(done, chromedp.BySearch); err != nil {
		return fmt.Errorf("finish practice: %w", err)
	}
	return nil
}

// clickRandomSection picks a random section's practice button, falling back
// to the weakest-topic button when no section bars rendered.
func (s *Student) clickRandomSection() error {
	var count int
	err := s.Session.Eval(
		`document.querySelectorAll('button[aria-describedby*="progress-bar-tooltip-"]').length`,
		&count,
	)
	if err != nil || count == 0 {
		return s.Session.Click(".practice")
	}
	idx := s.rnd.Intn(count)
	script := fmt.Sprintf(
		`document.querySelectorAll('button[aria-describedby*="progress-bar-tooltip-"]')[%d].click()`, idx)
	return s.Session.Eval(script, nil)
}

// assessmentCount reads the task breadcrumb trail; the final crumb is the
// completion marker, not an assessment.
func (s *Student) assessmentCount() (int, error) {
	if err := s.Session.WaitVisible(".task-breadcrumbs"); err != nil {
		return 0, fmt.Errorf("task breadcrumbs: %w", err)
	}
	var crumbs int
	err := s.Session.Eval(
		`document.querySelectorAll('.task-breadcrumbs span').length`,
		&crumbs,
	)
	if err != nil {
		return 0, fmt.Errorf("count assessments: %w", err)
	}
	if crumbs < 1 {
		return 0, nil
	}
	return crumbs - 1, nil
}

// freeResponseFiller is typed into free-response boxes before the
// multiple-choice step unlocks.
const freeResponseFiller = "An automated response covering the question prompt in enough " +
	"words to satisfy the length check."

// AnswerAssessment works one assessment: free response when present, then a
// random multiple-choice answer, submit, and continue.
func (s *Student) AnswerAssessment() error {
	if err := s.Session.WaitVisible(".openstax-question"); err != nil {
		return fmt.Errorf("assessment body: %w", err)
	}

	// Only some assessments carry a free-response step.
	if present, err := s.Session.IsPresent("textarea"); err == nil && present {
		s.logger.Debug("entering free response")
		if err := s.Session.SendKeys("textarea", freeResponseFiller); err != nil {
			return err
		}
		if err := s.Session.Click(".continue"); err != nil {
			return fmt.Errorf("submit free response: %w", err)
		}
	}

	var answers int
	if err := s.Session.Eval(
		`document.querySelectorAll('.answer-letter').length`, &answers,
	); err != nil {
		return fmt.Errorf("count answers: %w", err)
	}
	if answers == 0 {
		return fmt.Errorf("no multiple-choice answers rendered")
	}
	s.Session.Sleep(800 * time.Millisecond)
	pick := s.rnd.Intn(answers)
	s.logger.Debugw("selecting answer", "choice", string(rune('a'+pick)))
	if err := s.Session.ScrollTo(".answer-letter"); err != nil {
		return err
	}
	script := fmt.Sprintf(`document.querySelectorAll('.answer-letter')[%d].click()`, pick)
	if err := s.Session.Eval(script, nil); err != nil {
		return fmt.Errorf("select answer: %w", err)
	}
	s.Session.Sleep(time.Second)

	if err := s.Session.Click(`//button[span[text()="Submit"]]`, chromedp.BySearch); err != nil {
		return fmt.Errorf("submit answer: %w", err)
	}
	if err := s.Session.Click(".continue"); err != nil {
		return fmt.Errorf("advance to next assessment: %w", err)
	}
	return nil
}
