package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/openstax/staxing/internal/dom"
)

// ErrWaitTimeout marks a bounded element wait that expired. Callers can
// distinguish these from validation failures with errors.Is.
var ErrWaitTimeout = errors.New("wait timed out")

// DefaultWaitTimeout mirrors the historical 15 second element wait.
const DefaultWaitTimeout = 15 * time.Second

// bestEffortTimeout bounds interactions with UI that only sometimes exists,
// like an already-open menu or an absent confirmation dialog.
const bestEffortTimeout = 3 * time.Second

// Session wraps a single browser tab with bounded waits. It is not safe for
// concurrent use; workflows drive one session sequentially.
type Session struct {
	ctx         context.Context
	release     func()
	waitTimeout time.Duration
	logger      *zap.SugaredLogger
}

// NewSession adapts an existing chromedp context into a Session. Tests and
// one-off binaries use this instead of going through a Manager.
func NewSession(ctx context.Context, waitTimeout time.Duration, logger *zap.SugaredLogger) *Session {
	if waitTimeout <= 0 {
		waitTimeout = DefaultWaitTimeout
	}
	return &Session{ctx: ctx, waitTimeout: waitTimeout, logger: logger}
}

// Close releases the tab and its browser slot.
func (s *Session) Close() {
	if s.release != nil {
		s.release()
	}
}

// Context exposes the underlying chromedp context for raw driver calls.
func (s *Session) Context() context.Context { return s.ctx }

func (s *Session) Logger() *zap.SugaredLogger { return s.logger }

// WaitTimeout returns the bounded wait applied to element lookups.
func (s *Session) WaitTimeout() time.Duration { return s.waitTimeout }

// SetWaitTimeout changes the bounded wait for subsequent operations.
func (s *Session) SetWaitTimeout(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("wait timeout must be positive, got %s", d)
	}
	s.waitTimeout = d
	return nil
}

// Run executes actions with the session's wait timeout applied. A deadline
// expiry is reported as ErrWaitTimeout.
func (s *Session) Run(actions ...chromedp.Action) error {
	return s.RunWithin(s.waitTimeout, actions...)
}

// RunWithin executes actions under an explicit deadline.
func (s *Session) RunWithin(d time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, d)
	defer cancel()
	err := chromedp.Run(ctx, actions...)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && s.ctx.Err() == nil {
		return fmt.Errorf("%w after %s: %v", ErrWaitTimeout, d, err)
	}
	return err
}

// RunBestEffort executes actions and swallows any failure. Reserved for
// optional UI interactions where absence is normal.
func (s *Session) RunBestEffort(actions ...chromedp.Action) {
	if err := s.RunWithin(bestEffortTimeout, actions...); err != nil {
		s.logger.Debugw("best-effort interaction skipped", "error", err)
	}
}

// Get navigates to url and waits for the document body.
func (s *Session) Get(url string) error {
	return s.RunWithin(s.waitTimeout*2,
		dom.NavigateAction(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *Session) CurrentURL() (string, error) {
	var url string
	err := s.Run(chromedp.Location(&url))
	return url, err
}

func (s *Session) Title() (string, error) {
	var title string
	err := s.Run(chromedp.Title(&title))
	return title, err
}

// PageSource returns the full serialized document.
func (s *Session) PageSource() (string, error) {
	var src string
	err := s.Run(dom.FullHTMLAction(&src))
	return src, err
}

// Snapshot returns a simplified rendering of the current page for
// failure diagnostics.
func (s *Session) Snapshot() (string, error) {
	src, err := s.PageSource()
	if err != nil {
		return "", err
	}
	return dom.Snapshot(src)
}

func (s *Session) Click(sel string, opts ...chromedp.QueryOption) error {
	return s.Run(dom.ClickAction(sel, opts...))
}

// ClickIfPresent clicks sel when it exists; missing elements are not errors.
func (s *Session) ClickIfPresent(sel string, opts ...chromedp.QueryOption) {
	s.RunBestEffort(dom.ClickIfPresentAction(sel, opts...))
}

func (s *Session) SendKeys(sel, text string, opts ...chromedp.QueryOption) error {
	return s.Run(
		chromedp.WaitVisible(sel, opts...),
		dom.TypeAction(sel, text, opts...),
	)
}

func (s *Session) ClearAndType(sel, text string, opts ...chromedp.QueryOption) error {
	return s.Run(dom.ClearAndTypeAction(sel, text, opts...))
}

func (s *Session) WaitVisible(sel string, opts ...chromedp.QueryOption) error {
	return s.Run(dom.WaitVisibleAction(sel, opts...))
}

func (s *Session) Text(sel string, opts ...chromedp.QueryOption) (string, error) {
	var text string
	err := s.Run(dom.TextAction(sel, &text, opts...))
	return text, err
}

func (s *Session) Texts(sel string, opts ...chromedp.QueryOption) ([]string, error) {
	var texts []string
	err := s.Run(dom.TextsAction(sel, &texts, opts...))
	return texts, err
}

func (s *Session) Attribute(sel, name string, opts ...chromedp.QueryOption) (string, bool, error) {
	var value string
	var ok bool
	err := s.Run(dom.AttributeAction(sel, name, &value, &ok, opts...))
	return value, ok, err
}

func (s *Session) IsPresent(sel string, opts ...chromedp.QueryOption) (bool, error) {
	var present bool
	err := s.Run(dom.IsElementPresentAction(sel, &present, opts...))
	return present, err
}

func (s *Session) OuterHTML(sel string, opts ...chromedp.QueryOption) (string, error) {
	var html string
	err := s.Run(dom.OuterHTMLAction(sel, &html, opts...))
	return html, err
}

func (s *Session) Eval(script string, res interface{}) error {
	return s.Run(dom.RunScriptAction(script, res))
}

func (s *Session) ScrollTo(sel string, opts ...chromedp.QueryOption) error {
	return s.Run(dom.ScrollToAction(sel, opts...))
}

// Sleep pauses the workflow. The UI has timing races that the original
// scripts paper over with fixed sleeps; these are kept where the markup
// gives nothing better to wait on.
func (s *Session) Sleep(d time.Duration) {
	_ = chromedp.Run(s.ctx, chromedp.Sleep(d))
}
