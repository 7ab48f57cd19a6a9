package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testBuilder() *Builder {
	return NewBuilder(zap.NewNop().Sugar())
}

func validReadingSpec() Spec {
	return Spec{
		Kind:  Reading,
		Title: "Chapter 1 reading",
		Periods: PeriodSet{
			"First": {Opens: On("08/24/2026"), Closes: On("08/31/2026")},
		},
		Readings: []string{"1.1", "1.2"},
		Status:   Publish,
	}
}

func TestSpecValidate(t *testing.T) {
	assert.NoError(t, validReadingSpec().validate())

	spec := validReadingSpec()
	spec.Kind = "quiz"
	assert.ErrorIs(t, spec.validate(), ErrUnknownKind)

	spec = validReadingSpec()
	spec.Title = ""
	assert.Error(t, spec.validate())

	spec = validReadingSpec()
	spec.Periods = nil
	assert.ErrorIs(t, spec.validate(), ErrMissingPeriods)

	spec = validReadingSpec()
	spec.Kind = Homework
	spec.Problems = nil
	assert.Error(t, spec.validate(), "homework without a problem set")

	spec = validReadingSpec()
	spec.Kind = External
	spec.URL = ""
	assert.Error(t, spec.validate(), "external without a URL")
}

func TestAddRejectsInvalidSpec(t *testing.T) {
	b := testBuilder()

	// Validation runs before any browser interaction, so a nil session is
	// never touched.
	err := b.Add(nil, Spec{Kind: "bogus", Title: "x", Periods: PeriodSet{"all": {}}})
	assert.ErrorIs(t, err, ErrUnknownKind)

	err = b.Add(nil, Spec{Kind: Reading, Title: "", Periods: PeriodSet{"all": {}}})
	assert.Error(t, err)
}

func TestChangeRejectsInvalidSpec(t *testing.T) {
	b := testBuilder()

	err := b.Change(nil, Spec{Kind: "bogus", Title: "x", Periods: PeriodSet{"all": {}}})
	assert.ErrorIs(t, err, ErrUnknownKind)

	err = b.Change(nil, Spec{Kind: Reading, Title: "x"})
	assert.ErrorIs(t, err, ErrMissingPeriods)

	// An edit does not require the original problem set, unlike Add; the
	// full-spec validator would reject this homework spec.
	spec := Spec{Kind: Homework, Title: "hw", Periods: PeriodSet{"all": {}}}
	assert.Error(t, spec.validate(), "Add-time validation wants a problem set")
}

func TestDeleteRequiresTitleAndPeriods(t *testing.T) {
	b := testBuilder()

	err := b.Delete(nil, Spec{Kind: Reading, Periods: PeriodSet{"all": {}}})
	assert.Error(t, err)

	err = b.Delete(nil, Spec{Kind: Reading, Title: "x"})
	assert.ErrorIs(t, err, ErrMissingPeriods)
}

func TestBreakpointOption(t *testing.T) {
	o := newFlowOptions([]Option{WithBreakpoint(BeforePeriod)})
	assert.True(t, o.stopAt(BeforePeriod))
	assert.False(t, o.stopAt(BeforeTitle))
	assert.False(t, o.stopAt(BeforeStatusSelect))

	// No breakpoint set means no step halts.
	o = newFlowOptions(nil)
	assert.False(t, o.stopAt(BeforeTitle))
	assert.NotNil(t, o.rnd)
}
