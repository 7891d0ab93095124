package strutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSpaces(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "앞뒤_공백_제거",
			input:    "  hello world  ",
			expected: "hello world",
		},
		{
			name:     "연속_공백_축약",
			input:    "hello    world",
			expected: "hello world",
		},
		{
			name:     "탭과_개행_정규화",
			input:    "hello\t\n world",
			expected: "hello world",
		},
		{
			name:     "빈_문자열",
			input:    "",
			expected: "",
		},
		{
			name:     "공백만_있는_문자열",
			input:    "   \t\n  ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSpaces(tt.input))
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sep      string
		expected []string
	}{
		{
			name:     "기본_분리",
			input:    "a,b,c",
			sep:      ",",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "공백_및_빈_항목_제거",
			input:    "a, , b,c",
			sep:      ",",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "빈_문자열",
			input:    "",
			sep:      ",",
			expected: nil,
		},
		{
			name:     "구분자만_있는_문자열",
			input:    ",,,",
			sep:      ",",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitAndTrim(tt.input, tt.sep))
		})
	}
}

func TestAnyContent(t *testing.T) {
	assert.True(t, AnyContent("a"))
	assert.True(t, AnyContent("", "  ", "b"))
	assert.False(t, AnyContent("", "  ", "\t"))
	assert.False(t, AnyContent())
}

func TestMaskSensitiveData(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "빈_문자열",
			input:    "",
			expected: "",
		},
		{
			name:     "짧은_문자열_전체_마스킹",
			input:    "abc",
			expected: "***",
		},
		{
			name:     "중간_길이_앞자리만_표시",
			input:    "abcdefgh",
			expected: "abcd***",
		},
		{
			name:     "긴_토큰_앞뒤_표시",
			input:    "1234567890abcdefgh",
			expected: "1234***efgh",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskSensitiveData(tt.input))
		})
	}
}
