package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		single  bool
		wantErr string
	}{
		{"valid collection", Key{Provider: "p", Type: Programme}, false, ""},
		{"valid resource", Key{Provider: "p", Type: Course, ID: "1"}, true, ""},
		{"valid filtered", Key{Provider: "p", FilterType: OUnit, FilterID: "o", Type: Programme}, false, ""},
		{"missing provider", Key{Type: Programme}, false, "empty parameter: provider"},
		{"missing type", Key{Provider: "p"}, false, "empty parameter: resource type"},
		{"single without id", Key{Provider: "p", Type: Course}, true, "missing resource ID"},
		{"collection with id", Key{Provider: "p", Type: Course, ID: "1"}, false, "unexpected resource ID"},
		{"filter type only", Key{Provider: "p", FilterType: OUnit, Type: Programme}, false, "missing filter ID"},
		{"filter id only", Key{Provider: "p", FilterID: "o", Type: Programme}, false, "missing filter type"},
		{"provider checked first", Key{FilterType: OUnit}, true, "empty parameter: provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.key, tt.single)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidKeyShape)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateResourceType(t *testing.T) {
	assert.NoError(t, ValidateResourceType(Course, CollectionTypes))

	err := ValidateResourceType(HEI, CollectionTypes)
	assert.ErrorIs(t, err, ErrUnsupportedResourceType)
	assert.Contains(t, err.Error(), "programme, course")
	assert.Contains(t, err.Error(), `"hei"`)

	err = ValidateFilterType(Course, FilterTypes)
	assert.ErrorIs(t, err, ErrUnsupportedFilterType)
	assert.Contains(t, err.Error(), "ounit, programme")
}

func TestValidateCollectionKey(t *testing.T) {
	assert.NoError(t, ValidateCollectionKey("p.programme", Programme, ""))
	assert.NoError(t, ValidateCollectionKey("p.ounit.o1.programme", Programme, OUnit))
	assert.NoError(t, ValidateCollectionKey("p.programme.p1.course", "", ""))

	err := ValidateCollectionKey("p.programme.1", Programme, "")
	assert.ErrorIs(t, err, ErrInvalidKeyShape)

	err = ValidateCollectionKey("p.course", Programme, "")
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Contains(t, err.Error(), "course instead of programme")

	err = ValidateCollectionKey("p.hei", HEI, "")
	assert.ErrorIs(t, err, ErrUnsupportedResourceType)

	err = ValidateCollectionKey("p.ounit.o1.course", Course, Programme)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	err = ValidateCollectionKey("p.course", Course, Course)
	assert.ErrorIs(t, err, ErrUnsupportedFilterType)
}

func TestValidateResourceKey(t *testing.T) {
	assert.NoError(t, ValidateResourceKey("p.course.c1", Course))

	err := ValidateResourceKey("p.course", Course)
	assert.ErrorIs(t, err, ErrInvalidKeyShape)

	err = ValidateResourceKey("p.programme.x", Course)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestValidateKeysRejectTrailingSegments(t *testing.T) {
	err := ValidateResourceKey("p.ounit.x.course.1.2", Course)
	assert.ErrorIs(t, err, ErrInvalidKeyShape)

	err = ValidateCollectionKey("p.index.x.course", Course, "")
	assert.ErrorIs(t, err, ErrInvalidKeyShape)

	assert.NoError(t, ValidateResourceKey("p.ounit.x.course.1", Course))
	assert.NoError(t, ValidateResourceKey("p.hei.uoa.gr", ""))
}
