package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	assert.Equal(t, Hash("本文"), Hash("本文"))
	assert.NotEqual(t, Hash("本文"), Hash("本文 "))
	assert.Len(t, Hash(""), 64)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "あいう", Truncate("あいう", 3))
	assert.Equal(t, "あい...", Truncate("あいう", 2))
}

func TestFilenameTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "strips illegal", in: `第1話: "出會い" <上>/下|?*\`, max: 0, want: "第1話 出會い 上下"},
		{name: "trims", in: "  序章  ", max: 15, want: "序章"},
		{name: "truncates runes", in: "一二三四五六七八九十甲乙丙丁戊己", max: 15, want: "一二三四五六七八九十甲乙丙丁戊"},
		{name: "no trailing space after cut", in: "ab cd", max: 3, want: "ab"},
		{name: "only illegal", in: `<>:"`, max: 15, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilenameTitle(tt.in, tt.max))
		})
	}
}
