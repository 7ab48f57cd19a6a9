package roles

import (
	"go.uber.org/zap"

	"github.com/openstax/staxing/internal/browser"
	"github.com/openstax/staxing/internal/config"
)

// ContentQA is a content analyst account. It carries no navigation beyond
// the shared User behavior; analysts mostly read content through the
// reference book.
type ContentQA struct {
	*User
}

// NewContentQA wraps a session with content analyst credentials.
func NewContentQA(sess *browser.Session, creds config.Credentials, site string, logger *zap.SugaredLogger) (*ContentQA, error) {
	user, err := NewUser(sess, creds, site, logger)
	if err != nil {
		return nil, err
	}
	return &ContentQA{User: user}, nil
}
