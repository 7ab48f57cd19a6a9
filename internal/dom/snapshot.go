package dom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Snapshot reduces a page's HTML to the structural elements that matter when
// diagnosing a failed workflow run: headings, form controls, links, and their
// identifying attributes. Scripts, styles, and presentation-only markup are
// dropped so the result stays small enough to attach to a run result.
func Snapshot(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := writeSnapshotNode(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var snapshotSkipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "meta": true, "link": true,
}

var snapshotKeepTags = map[string]bool{
	"html": true, "head": true, "body": true, "title": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "div": true, "span": true, "br": true, "hr": true,
	"ul": true, "ol": true, "li": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "th": true, "td": true,
	"a": true, "button": true, "input": true, "textarea": true,
	"select": true, "option": true, "label": true, "form": true,
	"i": true, "strong": true, "em": true,
}

var snapshotVoidTags = map[string]bool{
	"br": true, "hr": true, "input": true, "img": true,
}

var snapshotKeepAttrs = map[string]bool{
	"href": true, "id": true, "class": true, "name": true,
	"type": true, "value": true, "placeholder": true,
	"checked": true, "selected": true, "disabled": true,
	"aria-label": true, "aria-expanded": true, "role": true,
	"data-title": true, "data-appearance": true, "data-chapter-section": true,
}

// Attributes whose empty value is still meaningful (boolean form state).
var snapshotBoolAttrs = map[string]bool{
	"value": true, "checked": true, "selected": true, "disabled": true,
}

func writeSnapshotNode(w io.Writer, n *html.Node) error {
	switch n.Type {
	case html.ErrorNode, html.CommentNode, html.DoctypeNode:
		return nil
	case html.TextNode:
		trimmed := strings.TrimSpace(n.Data)
		if trimmed != "" {
			if _, err := io.WriteString(w, html.EscapeString(trimmed)+" "); err != nil {
				return err
			}
		}
		return nil
	case html.ElementNode:
		if snapshotSkipTags[n.Data] {
			return nil
		}
		if !snapshotKeepTags[n.Data] {
			// Unknown wrapper: flatten it and keep walking.
			return writeSnapshotChildren(w, n)
		}
		if err := writeSnapshotTag(w, n); err != nil {
			return err
		}
		if err := writeSnapshotChildren(w, n); err != nil {
			return err
		}
		if !snapshotVoidTags[n.Data] {
			if _, err := io.WriteString(w, "</"+n.Data+">"); err != nil {
				return err
			}
		}
		return nil
	}
	return writeSnapshotChildren(w, n)
}

func writeSnapshotTag(w io.Writer, n *html.Node) error {
	if _, err := io.WriteString(w, "<"+n.Data); err != nil {
		return err
	}
	for _, a := range n.Attr {
		if !snapshotKeepAttrs[a.Key] {
			continue
		}
		val := strings.TrimSpace(a.Val)
		if val == "" && !snapshotBoolAttrs[a.Key] {
			continue
		}
		if _, err := io.WriteString(w, " "+a.Key+"=\""+html.EscapeString(val)+"\""); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, ">")
	return err
}

func writeSnapshotChildren(w io.Writer, n *html.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := writeSnapshotNode(w, c); err != nil {
			return err
		}
	}
	return nil
}
