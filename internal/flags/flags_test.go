package flags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Printf(format string, v ...interface{}) {}

type recorder struct {
	applied []map[string]bool
}

func (r *recorder) ApplyRenderFlags(active map[string]bool) {
	r.applied = append(r.applied, active)
}

var testTable = Table{
	"refreshAll": {Alias: true, Propagate: []string{"initialize"}},
	"initialize": {Propagate: []string{"refresh"}},
	"refresh":    {Propagate: []string{"redraw"}},
	"redraw":     {},
	"clear":      {Reset: []string{"redraw"}},
}

func TestSetPropagatesTransitively(t *testing.T) {
	s := NewScheduler(nopLogger{})
	o := s.Register(&recorder{}, testTable, PriorityPerception)

	require.NoError(t, o.Set(map[string]bool{"initialize": true}))

	assert.True(t, o.Has("initialize"))
	assert.True(t, o.Has("refresh"))
	assert.True(t, o.Has("redraw"))
	assert.True(t, o.Pending())
}

func TestAliasNeverStored(t *testing.T) {
	s := NewScheduler(nopLogger{})
	o := s.Register(&recorder{}, testTable, PriorityPerception)

	require.NoError(t, o.Set(map[string]bool{"refreshAll": true}))

	assert.False(t, o.Has("refreshAll"))
	assert.True(t, o.Has("initialize"))
	assert.True(t, o.Has("redraw"))
}

func TestResetClearsDependentFlag(t *testing.T) {
	s := NewScheduler(nopLogger{})
	o := s.Register(&recorder{}, testTable, PriorityPerception)

	require.NoError(t, o.Set(map[string]bool{"redraw": true}))
	require.NoError(t, o.Set(map[string]bool{"clear": true}))

	assert.False(t, o.Has("redraw"))
	assert.True(t, o.Has("clear"))
}

func TestInvalidFlagRejectsWholeCall(t *testing.T) {
	s := NewScheduler(nopLogger{})
	o := s.Register(&recorder{}, testTable, PriorityPerception)

	err := o.Set(map[string]bool{"refresh": true, "bogus": true})

	require.ErrorIs(t, err, ErrInvalidFlag)
	assert.False(t, o.Has("refresh"))
	assert.False(t, o.Pending())
}

func TestFalseValueClears(t *testing.T) {
	s := NewScheduler(nopLogger{})
	o := s.Register(&recorder{}, testTable, PriorityPerception)

	require.NoError(t, o.Set(map[string]bool{"redraw": true}))
	require.NoError(t, o.Set(map[string]bool{"redraw": false}))

	assert.False(t, o.Has("redraw"))
}

func TestTickDrainsSnapshotAndClears(t *testing.T) {
	s := NewScheduler(nopLogger{})
	rec := &recorder{}
	o := s.Register(rec, testTable, PriorityPerception)
	require.NoError(t, o.Set(map[string]bool{"refresh": true}))

	s.Tick()

	require.Len(t, rec.applied, 1)
	assert.True(t, rec.applied[0]["refresh"])
	assert.True(t, rec.applied[0]["redraw"])
	assert.False(t, o.Has("refresh"))
	assert.False(t, o.Pending())
	assert.False(t, s.HasPending())

	// A second tick with nothing set is a no-op.
	s.Tick()
	assert.Len(t, rec.applied, 1)
}

func TestTickDrainsPrioritiesInOrder(t *testing.T) {
	s := NewScheduler(nopLogger{})
	var order []string
	mk := func(name string) Target {
		return targetFunc(func(map[string]bool) { order = append(order, name) })
	}
	presentation := s.Register(mk("presentation"), testTable, PriorityPresentation)
	objects := s.Register(mk("objects"), testTable, PriorityObjects)
	perception := s.Register(mk("perception"), testTable, PriorityPerception)

	require.NoError(t, presentation.Set(map[string]bool{"redraw": true}))
	require.NoError(t, objects.Set(map[string]bool{"redraw": true}))
	require.NoError(t, perception.Set(map[string]bool{"redraw": true}))
	s.Tick()

	assert.Equal(t, []string{"objects", "perception", "presentation"}, order)
}

func TestCrossPriorityPropagationSameTick(t *testing.T) {
	s := NewScheduler(nopLogger{})
	var drained []string
	var perception *Object
	objects := s.Register(targetFunc(func(map[string]bool) {
		drained = append(drained, "objects")
		_ = perception.Set(map[string]bool{"refresh": true})
	}), testTable, PriorityObjects)
	perception = s.Register(targetFunc(func(map[string]bool) {
		drained = append(drained, "perception")
	}), testTable, PriorityPerception)

	require.NoError(t, objects.Set(map[string]bool{"redraw": true}))
	s.Tick()

	assert.Equal(t, []string{"objects", "perception"}, drained)
}

func TestApplyPanicIsContained(t *testing.T) {
	s := NewScheduler(nopLogger{})
	bad := s.Register(targetFunc(func(map[string]bool) { panic("boom") }), testTable, PriorityObjects)
	var survived bool
	good := s.Register(targetFunc(func(map[string]bool) { survived = true }), testTable, PriorityPerception)

	require.NoError(t, bad.Set(map[string]bool{"redraw": true}))
	require.NoError(t, good.Set(map[string]bool{"redraw": true}))

	assert.NotPanics(t, func() { s.Tick() })
	assert.True(t, survived)
}

type targetFunc func(active map[string]bool)

func (f targetFunc) ApplyRenderFlags(active map[string]bool) { f(active) }
