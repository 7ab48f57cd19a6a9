package dom

import (
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
)

// These tests check that the action constructors build runnable chromedp
// actions; the flows exercise them against a live browser.

func TestNavigateAction(t *testing.T) {
	action := NavigateAction("https://example.com")
	assert.NotNil(t, action)
}

func TestClickAction(t *testing.T) {
	action := ClickAction("button.submit")
	assert.NotNil(t, action)

	action = ClickAction(`//button[text()="Publish"]`, chromedp.BySearch)
	assert.NotNil(t, action)
}

func TestTypeActions(t *testing.T) {
	assert.NotNil(t, TypeAction("#login_password", "secret"))
	assert.NotNil(t, ClearAndTypeAction("#reading-title", "Chapter 1"))
}

func TestWaitActions(t *testing.T) {
	assert.NotNil(t, WaitVisibleAction("#content"))
	assert.NotNil(t, WaitHiddenAction(".spinner"))
}

func TestReadActions(t *testing.T) {
	var text string
	assert.NotNil(t, TextAction(".code", &text))

	var texts []string
	assert.NotNil(t, TextsAction("span.chapter-section", &texts))

	var value string
	var ok bool
	assert.NotNil(t, AttributeAction("a.chapter", "aria-expanded", &value, &ok))

	var present bool
	assert.NotNil(t, IsElementPresentAction("textarea", &present))

	var page string
	assert.NotNil(t, FullHTMLAction(&page))
}

func TestScrollToAction(t *testing.T) {
	assert.NotNil(t, ScrollToAction("button.sidebar-toggle"))
}
