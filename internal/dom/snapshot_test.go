package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotDropsScriptsAndStyles(t *testing.T) {
	page := `<html><head>
		<script>alert("x")</script>
		<style>.a{color:red}</style>
		<title>Calendar</title>
	</head><body><p>hello</p></body></html>`

	out, err := Snapshot(page)
	require.NoError(t, err)

	assert.NotContains(t, out, "alert")
	assert.NotContains(t, out, "color:red")
	assert.Contains(t, out, "<title>Calendar </title>")
	assert.Contains(t, out, "hello")
}

func TestSnapshotKeepsFormState(t *testing.T) {
	page := `<body><form>
		<input id="login_username_or_email" type="text" value="" style="width:10px">
		<input type="checkbox" checked="">
		<button class="btn -publish" onclick="doThing()">Publish</button>
	</form></body>`

	out, err := Snapshot(page)
	require.NoError(t, err)

	assert.Contains(t, out, `id="login_username_or_email"`)
	// Empty value and bare checked still describe form state.
	assert.Contains(t, out, `value=""`)
	assert.Contains(t, out, `checked=""`)
	assert.Contains(t, out, `class="btn -publish"`)
	// Event handlers are presentation noise.
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "style=")
}

func TestSnapshotFlattensUnknownWrappers(t *testing.T) {
	page := `<body><article><section><p>inner text</p></section></article></body>`

	out, err := Snapshot(page)
	require.NoError(t, err)

	assert.NotContains(t, out, "<article")
	assert.NotContains(t, out, "<section")
	assert.Contains(t, out, "<p>inner text </p>")
}

func TestSnapshotKeepsCourseAttributes(t *testing.T) {
	page := `<body>
		<div data-title="AP Physics" data-appearance="physics" data-extra="drop">
			<a href="/courses/1">AP Physics</a>
		</div>
	</body>`

	out, err := Snapshot(page)
	require.NoError(t, err)

	assert.Contains(t, out, `data-title="AP Physics"`)
	assert.Contains(t, out, `data-appearance="physics"`)
	assert.NotContains(t, out, "data-extra")
	assert.Contains(t, out, `href="/courses/1"`)
}
