package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizing_OutlineCount(t *testing.T) {
	s := DefaultSizing()

	tests := []struct {
		kind Kind
		size int
		want int
	}{
		{KindSlides, 10, 10},
		{KindSlides, 20, 20},
		{KindDocument, 5, 4},
		{KindDocument, 15, 6},
		{KindDocument, 20, 8},
		{KindDocument, 25, 10},
		{KindDocument, 30, 12},
		{KindDocument, 12, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.OutlineCount(tt.kind, tt.size), "%s/%d", tt.kind, tt.size)
	}
}

func TestSizing_Percent(t *testing.T) {
	s := DefaultSizing()

	assert.Equal(t, 10, s.Percent(KindSlides, 0, 10))
	assert.Equal(t, 19, s.Percent(KindSlides, 1, 10))
	assert.Equal(t, 100, s.Percent(KindSlides, 10, 10))
	assert.Equal(t, 5, s.Percent(KindDocument, 0, 4))
	assert.Equal(t, 72, s.Percent(KindDocument, 3, 4))
	assert.Equal(t, 5, s.Percent(KindDocument, 0, 0))

	prev := 0
	for i := 0; i <= 12; i++ {
		p := s.Percent(KindDocument, i, 12)
		require.GreaterOrEqual(t, p, prev)
		require.LessOrEqual(t, p, 100)
		prev = p
	}
}

func TestSizing_KindSpecific(t *testing.T) {
	s := DefaultSizing()

	assert.Equal(t, 3, s.MinTitleLen(KindSlides))
	assert.Equal(t, 5, s.MinTitleLen(KindDocument))
	assert.Equal(t, 200, s.Words(KindSlides))
	assert.Equal(t, 1000, s.Words(KindDocument))
	assert.Equal(t, 10, s.StartPercent(KindSlides))
	assert.Equal(t, 5, s.StartPercent(KindDocument))
}

func TestSizing_FallbackIsCopy(t *testing.T) {
	s := DefaultSizing()

	f := s.fallback()
	f[0] = "changed"
	assert.Equal(t, "Kirish", s.FallbackOutline[0])
}

func TestRequest_Validate(t *testing.T) {
	assert.NoError(t, Request{Topic: "AI", Size: 10, Kind: KindSlides}.Validate())
	assert.Error(t, Request{Topic: "", Size: 10, Kind: KindSlides}.Validate())
	assert.Error(t, Request{Topic: "AI", Size: 0, Kind: KindSlides}.Validate())
	assert.Error(t, Request{Topic: "AI", Size: 10, Kind: "poster"}.Validate())
}

func TestRequest_HasOverride(t *testing.T) {
	assert.False(t, Request{}.HasOverride())
	assert.False(t, Request{Outline: " - "}.HasOverride())
	assert.True(t, Request{Outline: "Kirish"}.HasOverride())
}

func TestProgressSink_ClampsAndRecovers(t *testing.T) {
	var got []int
	sink := ProgressSink(func(p int, _ string) error {
		got = append(got, p)
		return nil
	})
	sink.report(-5, "")
	sink.report(150, "")
	assert.Equal(t, []int{0, 100}, got)

	var nilSink ProgressSink
	assert.NotPanics(t, func() { nilSink.report(50, "x") })

	panicky := ProgressSink(func(int, string) error { panic("x") })
	assert.NotPanics(t, func() { panicky.report(50, "x") })
}
