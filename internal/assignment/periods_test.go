package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTime(t *testing.T) {
	cases := map[string]string{
		"8:00 pm":  "800p",
		"12:30 am": "1230a",
		"6:45am":   "645a",
		"800p":     "800p",
	}
	for input, want := range cases {
		assert.Equal(t, want, normalizeTime(input), "input %q", input)
	}
}

func TestDateSpecConstructors(t *testing.T) {
	d := On("09/01/2026")
	assert.Equal(t, "09/01/2026", d.Date)
	assert.Empty(t, d.Time)

	d = At("09/01/2026", "8:00 pm")
	assert.Equal(t, "09/01/2026", d.Date)
	assert.Equal(t, "8:00 pm", d.Time)
}

func TestFirstCloseDate(t *testing.T) {
	periods := PeriodSet{
		"First": {Opens: On("08/24/2026"), Closes: On("08/31/2026")},
	}
	date, ok := periods.FirstCloseDate()
	assert.True(t, ok)
	assert.Equal(t, "08/31/2026", date)

	_, ok = PeriodSet{}.FirstCloseDate()
	assert.False(t, ok)

	_, ok = PeriodSet{"First": {Opens: On("08/24/2026")}}.FirstCloseDate()
	assert.False(t, ok, "open date alone does not locate the assignment")
}

func TestAssignPeriodsRequiresPeriods(t *testing.T) {
	b := testBuilder()
	err := b.assignPeriods(nil, PeriodSet{})
	assert.ErrorIs(t, err, ErrMissingPeriods)
}

func TestPeriodRowSelectors(t *testing.T) {
	row := periodRow{id: "period-toggle-period-1", name: "First"}
	assert.Equal(t, `//input[@id="period-toggle-period-1"]`, row.toggleXPath())
	assert.Contains(t, row.anchor(), "period-toggle-period-1")
}
