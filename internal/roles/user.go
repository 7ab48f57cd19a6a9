package roles

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/openstax/staxing/internal/auth"
	"github.com/openstax/staxing/internal/browser"
	"github.com/openstax/staxing/internal/config"
)

var (
	// ErrNotOpenStax reports a login attempt against a page that is not an
	// OpenStax property.
	ErrNotOpenStax = errors.New("not an OpenStax page")

	// ErrNoCourseSelector reports a course lookup without a title or
	// appearance to match on.
	ErrNoCourseSelector = errors.New("course selection requires a title or appearance")
)

// User binds a browser session to one account on a Tutor deployment. Role
// types embed it and add their own navigation.
type User struct {
	Session *browser.Session

	creds   config.Credentials
	baseURL string
	logger  *zap.SugaredLogger
}

// NewUser normalizes site into an https URL and wraps the session.
func NewUser(sess *browser.Session, creds config.Credentials, site string, logger *zap.SugaredLogger) (*User, error) {
	base, err := NormalizeSiteURL(site)
	if err != nil {
		return nil, err
	}
	return &User{
		Session: sess,
		creds:   creds,
		baseURL: base,
		logger:  logger,
	}, nil
}

// NormalizeSiteURL upgrades a bare host or http URL to https.
func NormalizeSiteURL(site string) (string, error) {
	if site == "" {
		return "", fmt.Errorf("site URL cannot be empty")
	}
	if !strings.Contains(site, "//") {
		site = "//" + site
	}
	u, err := url.Parse(site)
	if err != nil {
		return "", fmt.Errorf("invalid site URL %q: %w", site, err)
	}
	u.Scheme = "https"
	return strings.TrimRight(u.String(), "/"), nil
}

// BaseURL returns the normalized deployment URL.
func (u *User) BaseURL() string { return u.baseURL }

// Username returns the account name the user logs in with.
func (u *User) Username() string { return u.creds.Username }

// DateString formats today plus dayDelta days in the MM/DD/YYYY form the
// assignment forms expect.
func DateString(dayDelta int) string {
	return time.Now().AddDate(0, 0, dayDelta).Format("01/02/2006")
}

// Login signs the user in through the Accounts form: site landing page,
// username, password, then any password-reset or contract interstitials.
func (u *User) Login() error {
	u.logger.Infow("logging in", "user", u.creds.Username, "site", u.baseURL)
	if err := u.Session.Get(u.baseURL); err != nil {
		return fmt.Errorf("open %s: %w", u.baseURL, err)
	}

	if strings.Contains(u.baseURL, "tutor") {
		if err := u.Session.Click(`//a[text()="Log in"]`, chromedp.BySearch); err != nil {
			return fmt.Errorf("open login form: %w", err)
		}
	} else if strings.Contains(u.baseURL, "exercises") {
		if err := u.Session.Click(`//a[text()="Sign in"]`, chromedp.BySearch); err != nil {
			return fmt.Errorf("open login form: %w", err)
		}
	}

	src, err := u.Session.PageSource()
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(src), "openstax") {
		current, _ := u.Session.CurrentURL()
		return fmt.Errorf("%w: %s", ErrNotOpenStax, current)
	}

	if err := u.Session.SendKeys("#login_username_or_email", u.creds.Username); err != nil {
		return fmt.Errorf("username field: %w", err)
	}
	if err := u.Session.Click(`//input[@value="Next"]`, chromedp.BySearch); err != nil {
		return fmt.Errorf("advance past username: %w", err)
	}
	if err := u.Session.SendKeys("#login_password", u.creds.Password); err != nil {
		return fmt.Errorf("password field: %w", err)
	}
	if err := u.Session.Click(`//input[@value="Login"]`, chromedp.BySearch); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}

	if err := u.verifyIfPrompted(); err != nil {
		return err
	}
	if err := u.resetPasswordIfPrompted(); err != nil {
		return err
	}
	return u.acceptContracts()
}

// verifyIfPrompted answers a verification-code challenge when the account
// has one configured and the form appears.
func (u *User) verifyIfPrompted() error {
	if u.creds.TOTPSecret == "" {
		return nil
	}
	present, err := u.Session.IsPresent("#login_verify_code")
	if err != nil || !present {
		return err
	}
	code, err := auth.VerificationCode(u.creds.TOTPSecret)
	if err != nil {
		return fmt.Errorf("verification code: %w", err)
	}
	u.logger.Info("answering verification challenge")
	if err := u.Session.SendKeys("#login_verify_code", code); err != nil {
		return err
	}
	return u.Session.Click(`//input[@type="submit"]`, chromedp.BySearch)
}

// resetPasswordIfPrompted completes a forced password reset by re-entering
// the existing password.
func (u *User) resetPasswordIfPrompted() error {
	src, err := u.Session.PageSource()
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(src), "reset your password") {
		return nil
	}
	u.logger.Info("completing forced password reset")
	if err := u.Session.SendKeys("#reset_password_password", u.creds.Password); err != nil {
		return err
	}
	if err := u.Session.SendKeys("#reset_password_password_confirmation", u.creds.Password); err != nil {
		return err
	}
	if err := u.Session.Click(`//input[@value="Reset Password"]`, chromedp.BySearch); err != nil {
		return err
	}
	u.Session.Sleep(time.Second)
	return u.Session.Click(`//input[@value="Continue"]`, chromedp.BySearch)
}

// contractAcceptLimit bounds the terms/privacy loop; each pass dismisses one
// contract and a deployment carries at most a handful.
const contractAcceptLimit = 5

// acceptContracts agrees to any terms-of-use and privacy-policy
// interstitials standing between login and the application.
func (u *User) acceptContracts() error {
	for i := 0; i < contractAcceptLimit; i++ {
		src, err := u.Session.PageSource()
		if err != nil {
			return err
		}
		lower := strings.ToLower(src)
		if !strings.Contains(lower, "terms of use") && !strings.Contains(lower, "privacy policy") {
			return nil
		}
		u.logger.Info("accepting contract")
		if err := u.AcceptContract(); err != nil {
			return err
		}
	}
	return fmt.Errorf("contract prompts did not clear after %d attempts", contractAcceptLimit)
}

// AcceptContract agrees to a single terms or privacy contract form. The
// checkbox id differs between Accounts and Tutor.
func (u *User) AcceptContract() error {
	checkbox := "#i_agree"
	if current, err := u.Session.CurrentURL(); err == nil && strings.Contains(current, "accounts") {
		checkbox = "#agreement_i_agree"
	}
	if err := u.Session.ScrollTo(checkbox); err != nil {
		return fmt.Errorf("contract checkbox: %w", err)
	}
	if err := u.Session.Click(checkbox); err != nil {
		return fmt.Errorf("agree to contract: %w", err)
	}
	if err := u.Session.ScrollTo("#agreement_submit"); err != nil {
		return fmt.Errorf("contract submit: %w", err)
	}
	return u.Session.Click("#agreement_submit")
}

// Logout signs out through whichever property the browser currently shows.
func (u *User) Logout() error {
	current, err := u.Session.CurrentURL()
	if err != nil {
		return err
	}
	switch {
	case strings.Contains(current, "tutor"):
		return u.tutorLogout()
	case strings.Contains(current, "accounts"):
		return u.accountsLogout()
	case strings.Contains(current, "exercises"):
		return u.exercisesLogout()
	}
	return fmt.Errorf("%w: %s", ErrNotOpenStax, current)
}

func (u *User) tutorLogout() error {
	if err := u.OpenUserMenu(); err != nil {
		return err
	}
	return u.Session.Click(`//input[@aria-label="Log Out"]`, chromedp.BySearch)
}

func (u *User) accountsLogout() error {
	return u.Session.Click(`//a[text()="Log out"]`, chromedp.BySearch)
}

func (u *User) exercisesLogout() error {
	if present, err := u.Session.IsPresent("#navbar-dropdown"); err == nil && present {
		if err := u.Session.Click("#navbar-dropdown"); err != nil {
			return err
		}
		return u.Session.Click(`//input[@aria-label="Log Out"]`, chromedp.BySearch)
	}
	// Some pages reuse the Accounts logout link instead of the dropdown.
	return u.accountsLogout()
}

// OpenUserMenu expands the account dropdown in the navbar.
func (u *User) OpenUserMenu() error {
	if err := u.Session.WaitVisible(".dropdown-toggle"); err != nil {
		return fmt.Errorf("user menu toggle: %w", err)
	}
	return u.Session.Click(".dropdown-toggle")
}

// GotoMenuItem opens the user menu and follows the named entry. Outside a
// course, the menu entry does not exist and the call is a no-op.
func (u *User) GotoMenuItem(item string) error {
	current, err := u.Session.CurrentURL()
	if err != nil {
		return err
	}
	if !strings.Contains(current, "courses") {
		u.logger.Debugw("not inside a course, skipping menu item", "item", item)
		return nil
	}
	if err := u.OpenUserMenu(); err != nil {
		return err
	}
	link := fmt.Sprintf(`//a[text()=%q]`, item)
	if err := u.Session.Click(link, chromedp.BySearch); err != nil {
		return fmt.Errorf("menu item %q: %w", item, err)
	}
	return nil
}

// GotoCourseList returns to the course picker dashboard.
func (u *User) GotoCourseList() error {
	if err := u.Session.WaitVisible("#ox-react-root-container"); err != nil {
		return fmt.Errorf("application root: %w", err)
	}
	current, err := u.Session.CurrentURL()
	if err != nil {
		return err
	}
	if !strings.Contains(current, "tutor") {
		return fmt.Errorf("%w: %s", ErrNotOpenStax, current)
	}
	return u.Session.Click(`//a[contains(@href,"dashboard")]`, chromedp.BySearch)
}

// CourseList returns the data-title of each current course on the picker.
func (u *User) CourseList() ([]string, error) {
	var titles []string
	err := u.Session.Eval(
		`Array.from(document.querySelectorAll(
			'div.course-listing-current-section div.course-listing-item'
		)).map(e => e.getAttribute('data-title'))`,
		&titles,
	)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return titles, nil
}

// SelectCourse opens a course from the picker by title, or by appearance
// (book theme) when the title is empty. An account already inside its only
// course needs no selection.
func (u *User) SelectCourse(title, appearance string) error {
	current, err := u.Session.CurrentURL()
	if err != nil {
		return err
	}
	if !strings.Contains(current, "dashboard") {
		if err := u.GotoCourseList(); err != nil {
			return err
		}
		current, err = u.Session.CurrentURL()
		if err != nil {
			return err
		}
	}
	if !strings.Contains(current, "dashboard") {
		u.logger.Debug("single course account, selection not needed")
		return nil
	}

	attr, value := "data-title", title
	if value == "" {
		attr, value = "data-appearance", appearance
	}
	if value == "" {
		return ErrNoCourseSelector
	}
	u.logger.Infow("selecting course", attr, value)
	link := fmt.Sprintf(`//div[@%s=%q]//a`, attr, value)
	if err := u.Session.Click(link, chromedp.BySearch); err != nil {
		return fmt.Errorf("course %q: %w", value, err)
	}
	return nil
}

// ViewReferenceBook opens the course's reference book, trying the dashboard
// shortcut before the user menu entry.
func (u *User) ViewReferenceBook() error {
	shortcut := `//div/a[contains(@class,"view-reference-guide")]`
	if present, err := u.Session.IsPresent(shortcut, chromedp.BySearch); err == nil && present {
		return u.Session.Click(shortcut, chromedp.BySearch)
	}
	if err := u.OpenUserMenu(); err != nil {
		return err
	}
	return u.Session.Click(`//li/a[contains(@class,"view-reference-guide")]`, chromedp.BySearch)
}
