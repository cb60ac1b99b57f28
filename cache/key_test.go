package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		encoded string
	}{
		{"collection", Key{Provider: "uoa", Type: Programme}, "uoa.programme"},
		{"resource", Key{Provider: "uoa", Type: Course, ID: "c-42"}, "uoa.course.c-42"},
		{"filtered collection", Key{Provider: "uoa", FilterType: OUnit, FilterID: "ou1", Type: Programme}, "uoa.ounit.ou1.programme"},
		{"filtered resource", Key{Provider: "uoa", FilterType: Programme, FilterID: "p1", Type: Course, ID: "c1"}, "uoa.programme.p1.course.c1"},
		{"institution", Key{Provider: "uoa", Type: HEI, ID: "uoa.gr"}, "uoa.hei.uoa.gr"},
		{"institution collection", Key{Provider: "uoa", Type: HEI}, "uoa.hei"},
		{"index", Key{Provider: "uoa", Type: Index}, "uoa.index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Encode(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.encoded, s)
			assert.Equal(t, tt.key, Decode(s))
		})
	}
}

func TestDecodeInstitutionKeepsDelimitedID(t *testing.T) {
	k := Decode("provider.hei.some.institution.eu")

	assert.Equal(t, "provider", k.Provider)
	assert.Equal(t, HEI, k.Type)
	assert.Equal(t, "some.institution.eu", k.ID)
	assert.Empty(t, k.FilterType)
	assert.Empty(t, k.FilterID)
}

func TestDecodeShortKeys(t *testing.T) {
	assert.Equal(t, Key{Provider: "index"}, Decode("index"))
	assert.Equal(t, Key{}, Decode(""))
	assert.Equal(t, Key{Provider: "p", Type: Course}, Decode("p.course"))
}

func TestEncodeRejectsPartialFilter(t *testing.T) {
	_, err := Encode(Key{Provider: "p", FilterType: OUnit, Type: Programme})
	assert.ErrorIs(t, err, ErrInvalidKeyShape)

	_, err = Encode(Key{Provider: "p", FilterID: "ou1", Type: Programme})
	assert.ErrorIs(t, err, ErrInvalidKeyShape)
}

func TestEncodeRejectsAmbiguousDelimiters(t *testing.T) {
	_, err := Encode(Key{Provider: "p", Type: Course, ID: "a.b"})
	assert.ErrorIs(t, err, ErrInvalidKeyShape)

	_, err = Encode(Key{Provider: "p", FilterType: OUnit, FilterID: "ou", Type: HEI, ID: "a.b"})
	assert.ErrorIs(t, err, ErrInvalidKeyShape)

	_, err = Encode(Key{Provider: "p.q", Type: Course})
	assert.ErrorIs(t, err, ErrInvalidKeyShape)
}

func TestEncodeRejectsReservedFilterTypes(t *testing.T) {
	for _, ft := range []ResourceType{HEI, Index} {
		_, err := Encode(Key{Provider: "p", FilterType: ft, FilterID: "x", Type: Course})
		assert.ErrorIs(t, err, ErrInvalidKeyShape, ft)
	}

	s, err := Encode(Key{Provider: "p", FilterType: OUnit, FilterID: "x", Type: Course})
	assert.NoError(t, err)
	assert.Equal(t, Key{Provider: "p", FilterType: OUnit, FilterID: "x", Type: Course}, Decode(s))
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "p.course.1", Key{Provider: "p", Type: Course, ID: "1"}.String())
	assert.Empty(t, Key{Provider: "p", FilterType: OUnit, Type: Course}.String())
}

func TestIndexKey(t *testing.T) {
	assert.Equal(t, "uoa.index", IndexKey("uoa"))
	assert.True(t, IsIndexKey("uoa.index"))
	assert.True(t, IsIndexKey("index"))
	assert.False(t, IsIndexKey("uoa.programme"))
	assert.False(t, IsIndexKey("uoa.index.1"))
	assert.False(t, IsIndexKey("uoa.hei.index"))
}
