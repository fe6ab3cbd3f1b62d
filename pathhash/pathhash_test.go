package pathhash

import (
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Canonicalization(t *testing.T) {
	assert.Equal(t, New("stage/Battlefield/NORMAL"), New("stage/battlefield/normal"))
	assert.NotEqual(t, New("stage/battlefield"), New("stage/battlefield_s"))
	assert.Equal(t, Empty, New(""))
	assert.Equal(t, uint32(len("normal")), New("normal").Len())
	assert.Equal(t, crc32.ChecksumIEEE([]byte("normal")), New("normal").CRC())
}

func TestNew_OnlyASCIIFolds(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"invalid utf8", "stage/\xff.bin", "stage/\xfe.bin"},
		{"kelvin sign", "k", "\u212a"},
		{"non-ascii case", "stage/\u00e9t\u00e9", "stage/\u00c9T\u00c9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, New(tt.a), New(tt.b))
		})
	}

	assert.Equal(t, New("stage/\u00e9t\u00e9"), New("STAGE/\u00e9T\u00e9"))
	assert.Equal(t, uint32(len("stage/\xff.bin")), New("stage/\xff.bin").Len())
	assert.Equal(t, New("stage/\xff.bin"), New("stage").JoinPath("\xFF.BIN"))
}

func TestLower(t *testing.T) {
	assert.Equal(t, "stage/battlefield", Lower("Stage/BattleField"))
	assert.Equal(t, "\xff\xfe\u00c9", Lower("\xff\xfe\u00c9"))
	assert.Equal(t, "already", Lower("already"))
}

func TestConcat_MatchesWholeString(t *testing.T) {
	tests := []struct {
		prefix string
		suffix string
	}{
		{"", "stage"},
		{"stage", "/battlefield"},
		{"stage_2_", "battlefields.bntx"},
		{"effect/stage/fox", "_s01"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix+"+"+tt.suffix, func(t *testing.T) {
			assert.Equal(t, New(tt.prefix+tt.suffix), New(tt.prefix).Concat(tt.suffix))
			assert.Equal(t, New(tt.prefix+tt.suffix), New(tt.prefix).ConcatHash(New(tt.suffix)))
		})
	}
}

func TestConcatHash_LongSuffix(t *testing.T) {
	long := "ui/replace_patch/stage/stage_4/stage_4_" + string(make([]byte, 300))
	assert.Equal(t, New("prefix"+long), New("prefix").ConcatHash(New(long)))
}

func TestJoin(t *testing.T) {
	base := New("stage/battlefield/normal")

	assert.Equal(t, New("stage/battlefield/normal/model"), base.JoinPath("model"))
	assert.Equal(t, New("stage/battlefield/normal/model"), base.Join(New("model")))
	assert.Equal(t, New("model"), Empty.JoinPath("model"))
	assert.Equal(t, New("model/plate"), Empty.Join(New("model")).JoinPath("plate"))

	rel := New("model").JoinPath("plate")
	assert.Equal(t, New("stage/battlefield/normal/model/plate"), base.Join(rel))
}

func TestParse_RoundTrip(t *testing.T) {
	h := New("stage/fox/normal")
	parsed, err := Parse(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = Parse("not-hex")
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	l := NewLabels()
	h := l.Add("Stage/Fox")

	got, ok := l.Lookup(h)
	require.True(t, ok)
	assert.Equal(t, "stage/fox", got)
	assert.Equal(t, New("nothing").String(), l.Format(New("nothing")))
	assert.Equal(t, 1, l.Len())

	var nilLabels *Labels
	_, ok = nilLabels.Lookup(h)
	assert.False(t, ok)
}
