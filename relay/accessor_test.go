package relay

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*Dictionary
	flushes int
}

func (s *countingStore) Flush() error {
	s.flushes++
	return s.Dictionary.Flush()
}

func TestTryGetAbsentKeepsDefault(t *testing.T) {
	d, _ := newDict(nil)
	desc := "Sunny with a chance of meatballs."
	present := true
	Read(d).TryGet("Description", &desc, &present)
	assert.False(t, present)
	assert.Equal(t, "Sunny with a chance of meatballs.", desc)
}

func TestTryGetValues(t *testing.T) {
	id := uuid.New()
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d, _ := newDict(map[string]any{
		"Description": "Rain",
		"SelectedDay": 2,
		"Count":       5,
		"Ratio":       0.5,
		"When":        when,
		"ID":          id.String(),
		"Tags":        []any{"a", "b"},
	})

	var (
		desc   string
		day    time.Weekday
		count  int32
		ratio  float32
		at     time.Time
		got    uuid.UUID
		tags   []string
		anyVal any
		ok     bool
	)
	a := Read(d).
		TryGet("Description", &desc, &ok).
		TryGet("SelectedDay", &day, nil).
		TryGet("Count", &count, nil).
		TryGet("Ratio", &ratio, nil).
		TryGet("When", &at, nil).
		TryGet("ID", &got, nil).
		TryGet("Tags", &tags, nil).
		TryGet("Description", &anyVal, nil)
	require.NoError(t, a.Err())
	assert.True(t, ok)
	assert.Equal(t, "Rain", desc)
	assert.Equal(t, time.Tuesday, day)
	assert.Equal(t, int32(5), count)
	assert.Equal(t, float32(0.5), ratio)
	assert.True(t, when.Equal(at))
	assert.Equal(t, id, got)
	assert.Equal(t, []string{"a", "b"}, tags)
	assert.Equal(t, "Rain", anyVal)
}

func TestTryGetIdempotentBeforeFlush(t *testing.T) {
	d, _ := newDict(map[string]any{"SelectedDay": 4})
	var d1, d2 time.Weekday
	var p1, p2 bool
	a := Read(d).TryGet("SelectedDay", &d1, &p1).TryGet("SelectedDay", &d2, &p2)
	assert.Equal(t, d1, d2)
	assert.Equal(t, p1, p2)
	assert.Equal(t, time.Thursday, d1)

	require.NoError(t, a.Flush())
	var d3 time.Weekday
	var p3 bool
	Read(d).TryGet("SelectedDay", &d3, &p3)
	assert.False(t, p3)
}

func TestTryGetEnumOrdinals(t *testing.T) {
	d, _ := newDict(map[string]any{"c": 2, "l": 1, "neg": -1})
	var c color
	var l level
	var neg level = 2
	Read(d).TryGet("c", &c, nil).TryGet("l", &l, nil).TryGet("neg", &neg, nil)
	assert.Equal(t, blue, c)
	assert.Equal(t, level(1), l)
	assert.Equal(t, level(2), neg)
}

// Invalid ordinals keep the default and still report the key as present.
func TestTryGetInvalidEnumOrdinalIsStrict(t *testing.T) {
	d, _ := newDict(map[string]any{"SelectedDay": 99, "c": 7})
	day := time.Monday
	c := green
	var dayOK, cOK bool
	Read(d).TryGet("SelectedDay", &day, &dayOK).TryGet("c", &c, &cOK)
	assert.True(t, dayOK)
	assert.Equal(t, time.Monday, day)
	assert.True(t, cOK)
	assert.Equal(t, green, c)
}

func TestTryGetTypeMismatchIsPresent(t *testing.T) {
	d, _ := newDict(map[string]any{"Description": 5, "n": "five", "id": "not-a-uuid"})
	desc := "default"
	n := 3
	id := uuid.Nil
	var p1, p2, p3 bool
	Read(d).TryGet("Description", &desc, &p1).TryGet("n", &n, &p2).TryGet("id", &id, &p3)
	assert.True(t, p1 && p2 && p3)
	assert.Equal(t, "default", desc)
	assert.Equal(t, 3, n)
	assert.Equal(t, uuid.Nil, id)
}

func TestTryGetOptionalEnum(t *testing.T) {
	d, _ := newDict(map[string]any{"day": 3, "none": nil, "bad": 12})
	var day, none *time.Weekday
	bad := new(time.Weekday)
	*bad = time.Friday
	Read(d).TryGet("day", &day, nil).TryGet("none", &none, nil).TryGet("bad", &bad, nil)
	require.NotNil(t, day)
	assert.Equal(t, time.Wednesday, *day)
	assert.Nil(t, none)
	assert.Equal(t, time.Friday, *bad)
}

func TestTryGetNilRaw(t *testing.T) {
	d, _ := newDict(map[string]any{"s": nil, "tags": nil})
	s := "default"
	tags := []string{"x"}
	var ok bool
	Read(d).TryGet("s", &s, &ok).TryGet("tags", &tags, nil)
	assert.True(t, ok)
	assert.Equal(t, "default", s)
	assert.Nil(t, tags)
}

func TestTryGetInvalidDestination(t *testing.T) {
	d, _ := newDict(map[string]any{"a": "1"})
	var s string
	var ok bool
	a := Read(d).TryGet("a", s, &ok).TryGet("a", nil, nil)
	assert.False(t, ok)
	assert.True(t, errors.Is(a.Err(), ErrInvalidDestination))
}

func TestLookup(t *testing.T) {
	d, _ := newDict(map[string]any{"SelectedDay": 2})
	a := Read(d)
	day, ok := Lookup(a, "SelectedDay", time.Monday)
	assert.True(t, ok)
	assert.Equal(t, time.Tuesday, day)

	desc, ok := Lookup(a, "Description", "fallback")
	assert.False(t, ok)
	assert.Equal(t, "fallback", desc)
}

func TestAccessorFlushOnce(t *testing.T) {
	d, p := newDict(map[string]any{"a": "1"})
	s := &countingStore{Dictionary: d}
	a := Read(s)
	assert.False(t, a.HasAnyData())
	var v string
	a.TryGet("a", &v, nil)
	require.NoError(t, a.Flush())
	require.NoError(t, a.Flush())
	assert.Equal(t, 1, s.flushes)
	assert.Empty(t, p.data)
	assert.True(t, a.HasAnyData())
}

func TestHasAnyDataTracksBatchReads(t *testing.T) {
	d, _ := newDict(map[string]any{"StatusMessage": "Saved!"})
	a := Read(d)
	var desc string
	a.TryGet("Description", &desc, nil)
	assert.False(t, a.HasAnyData())

	var msg string
	a.TryGet("StatusMessage", &msg, nil)
	a.TryGet("Missing", &desc, nil)
	assert.True(t, a.HasAnyData())
}

func TestNilStore(t *testing.T) {
	a := Read(nil)
	v := "default"
	ok := true
	a.TryGet("a", &v, &ok)
	assert.False(t, ok)
	assert.Equal(t, "default", v)
	assert.False(t, a.HasAnyData())
	assert.NoError(t, a.Flush())
	assert.NoError(t, a.Err())
}
