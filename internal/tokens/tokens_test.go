package tokens

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedEncoder struct {
	n   int
	err error
}

func (f fixedEncoder) Count(string) (int, error) { return f.n, f.err }

func TestWordCounter(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"one two\tthree\nfour", 4},
	}
	for _, tt := range tests {
		n, err := WordCounter{}.Count(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.want, n, "text %q", tt.text)
	}
}

func TestMeasure(t *testing.T) {
	n, err := Measure(fixedEncoder{n: 7}, "x")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = Measure(fixedEncoder{err: errors.New("boom")}, "x")
	assert.ErrorIs(t, err, ErrEncodingFailure)

	_, err = Measure(fixedEncoder{n: -1}, "x")
	assert.ErrorIs(t, err, ErrEncodingFailure)

	_, err = Measure(nil, "x")
	assert.ErrorIs(t, err, ErrEncodingFailure)
}

func TestCountTokensGPT4(t *testing.T) {
	// The BPE ranks are downloaded on first use.
	enc, err := NewTiktoken("gpt-4")
	if err != nil {
		t.Skipf("tokenizer unavailable: %v", err)
	}
	assert.Equal(t, "gpt-4", enc.Model())

	n, err := enc.Count("hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = enc.Count("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNewTiktokenEncodingName(t *testing.T) {
	enc, err := NewTiktoken("cl100k_base")
	if err != nil {
		t.Skipf("tokenizer unavailable: %v", err)
	}
	assert.Equal(t, "cl100k_base", enc.Model())

	n, err := enc.Count("hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewTiktokenUnknownModel(t *testing.T) {
	_, err := NewTiktoken("not-a-real-model")
	assert.ErrorIs(t, err, ErrEncodingFailure)
}

func TestCountTokensUnknownModel(t *testing.T) {
	_, err := CountTokens("some text", "not-a-real-model")
	assert.ErrorIs(t, err, ErrEncodingFailure)
}
