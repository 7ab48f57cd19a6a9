package roles

import (
	"go.uber.org/zap"

	"github.com/openstax/staxing/internal/browser"
	"github.com/openstax/staxing/internal/config"
)

// Admin adds navigation to the administrator console, which lives under
// /admin and is plain server-rendered pages reached by URL.
type Admin struct {
	*User

	base string
}

// NewAdmin wraps a session with administrator credentials.
func NewAdmin(sess *browser.Session, creds config.Credentials, site string, logger *zap.SugaredLogger) (*Admin, error) {
	user, err := NewUser(sess, creds, site, logger)
	if err != nil {
		return nil, err
	}
	return &Admin{
		User: user,
		base: user.BaseURL() + "/admin",
	}, nil
}

// GotoAdminControl opens the console landing page.
func (a *Admin) GotoAdminControl() error { return a.Session.Get(a.base) }

// GotoCatalogOfferings opens the catalog offering list.
func (a *Admin) GotoCatalogOfferings() error { return a.Session.Get(a.base + "/catalog_offerings") }

// GotoCourseList opens the course administration list.
func (a *Admin) GotoCourseList() error { return a.Session.Get(a.base + "/courses") }

// GotoSchoolList opens the school list.
func (a *Admin) GotoSchoolList() error { return a.Session.Get(a.base + "/school") }

// GotoDistrictList opens the district list.
func (a *Admin) GotoDistrictList() error { return a.Session.Get(a.base + "/districts") }

// GotoTagList opens the content tag list.
func (a *Admin) GotoTagList() error { return a.Session.Get(a.base + "/tags") }

// GotoEcosystems opens the book ecosystem list.
func (a *Admin) GotoEcosystems() error { return a.Session.Get(a.base + "/ecosystems") }

// GotoTermsAndContracts opens the fine print page, which lives outside
// the console prefix.
func (a *Admin) GotoTermsAndContracts() error { return a.Session.Get(a.BaseURL() + "/fine_print") }

// GotoTargetedContracts opens the targeted contract list.
func (a *Admin) GotoTargetedContracts() error { return a.Session.Get(a.base + "/targeted_contracts") }

// GotoCourseStats opens the course statistics page.
func (a *Admin) GotoCourseStats() error { return a.Session.Get(a.base + "/stats/courses") }

// GotoConceptCoachStats opens the Concept Coach statistics page.
func (a *Admin) GotoConceptCoachStats() error { return a.Session.Get(a.base + "/stats/concept_coach") }

// GotoUserList opens the user administration list.
func (a *Admin) GotoUserList() error { return a.Session.Get(a.base + "/users") }

// GotoJobs opens the background job list.
func (a *Admin) GotoJobs() error { return a.Session.Get(a.base + "/jobs") }

// GotoResearchData opens the researcher data export page.
func (a *Admin) GotoResearchData() error { return a.Session.Get(a.base + "/research_data") }

// GotoSalesforceControl opens the Salesforce integration controls.
func (a *Admin) GotoSalesforceControl() error { return a.Session.Get(a.base + "/salesforce") }

// GotoSystemSettings opens the system settings page.
func (a *Admin) GotoSystemSettings() error { return a.Session.Get(a.base + "/settings") }

// GotoSystemNotifications opens the system notification editor.
func (a *Admin) GotoSystemNotifications() error { return a.Session.Get(a.base + "/notifications") }
