package dom

import (
	"context"
	"strconv"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// Tutor renders a fixed navbar, so a plain scrollIntoView leaves the target
// hidden underneath it. Back off by the navbar height after scrolling.
const navbarOffset = -80

func NavigateAction(url string) chromedp.Action {
	return chromedp.Navigate(url)
}

func ClickAction(sel string, opts ...chromedp.QueryOption) chromedp.Action {
	return chromedp.Tasks{
		chromedp.WaitVisible(sel, opts...),
		chromedp.Click(sel, opts...),
	}
}

// ClickIfPresentAction clicks sel when it exists and is a no-op otherwise.
// Used for optional UI like confirmation dialogs that only sometimes appear.
func ClickIfPresentAction(sel string, opts ...chromedp.QueryOption) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var present bool
		if err := IsElementPresentAction(sel, &present, opts...).Do(ctx); err != nil {
			return err
		}
		if !present {
			return nil
		}
		return chromedp.Click(sel, opts...).Do(ctx)
	})
}

func ScrollToAction(sel string, opts ...chromedp.QueryOption) chromedp.Action {
	return chromedp.Tasks{
		chromedp.ScrollIntoView(sel, opts...),
		chromedp.Evaluate(`window.scrollBy(0, `+strconv.Itoa(navbarOffset)+`);`, nil),
	}
}

func TypeAction(sel, text string, opts ...chromedp.QueryOption) chromedp.Action {
	return chromedp.SendKeys(sel, text, opts...)
}

// ClearAndTypeAction scrolls to a field, clears it, then types the new value.
func ClearAndTypeAction(sel, text string, opts ...chromedp.QueryOption) chromedp.Action {
	return chromedp.Tasks{
		ScrollToAction(sel, opts...),
		chromedp.Clear(sel, opts...),
		chromedp.SendKeys(sel, text, opts...),
	}
}

func WaitVisibleAction(sel string, opts ...chromedp.QueryOption) chromedp.Action {
	return chromedp.WaitVisible(sel, opts...)
}

func WaitHiddenAction(sel string, opts ...chromedp.QueryOption) chromedp.Action {
	return chromedp.WaitNotVisible(sel, opts...)
}

func TextAction(sel string, res *string, opts ...chromedp.QueryOption) chromedp.Action {
	return chromedp.Text(sel, res, opts...)
}

// TextsAction collects the trimmed text of every element matching sel.
func TextsAction(sel string, res *[]string, opts ...chromedp.QueryOption) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(sel, &nodes, opts...).Do(ctx); err != nil {
			return err
		}
		out := make([]string, 0, len(nodes))
		for _, n := range nodes {
			var text string
			if err := chromedp.Text([]cdp.NodeID{n.NodeID}, &text, chromedp.ByNodeID).Do(ctx); err != nil {
				return err
			}
			out = append(out, text)
		}
		*res = out
		return nil
	})
}

func AttributeAction(sel, name string, res *string, ok *bool, opts ...chromedp.QueryOption) chromedp.Action {
	return chromedp.AttributeValue(sel, name, res, ok, opts...)
}

func OuterHTMLAction(sel string, res *string, opts ...chromedp.QueryOption) chromedp.Action {
	return chromedp.OuterHTML(sel, res, opts...)
}

func FullHTMLAction(res *string) chromedp.Action {
	return chromedp.Evaluate(`document.documentElement.outerHTML`, res)
}

func PageTextAction(res *string) chromedp.Action {
	return chromedp.Evaluate(`document.body.innerText`, res)
}

func RunScriptAction(script string, res interface{}) chromedp.Action {
	return chromedp.Evaluate(script, res)
}

func ScreenshotAction(quality int, res *[]byte) chromedp.Action {
	return chromedp.FullScreenshot(res, quality)
}

// IsElementPresentAction checks existence without waiting for visibility.
func IsElementPresentAction(sel string, isPresent *bool, opts ...chromedp.QueryOption) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if len(opts) == 0 {
			opts = []chromedp.QueryOption{chromedp.ByQueryAll}
		}
		opts = append(opts, chromedp.AtLeast(0))
		var nodes []*cdp.Node
		if err := chromedp.Nodes(sel, &nodes, opts...).Do(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			*isPresent = false
			return nil
		}
		*isPresent = len(nodes) > 0
		return nil
	})
}

// NodeIDsAction returns the node IDs matching sel, tolerating zero matches.
func NodeIDsAction(sel string, ids *[]cdp.NodeID, opts ...chromedp.QueryOption) chromedp.Action {
	opts = append(opts, chromedp.AtLeast(0))
	return chromedp.NodeIDs(sel, ids, opts...)
}
