package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ranked struct {
	Name   string
	Count  int32
	Size   uint16
	Weight float32
	hidden int
}

func TestValidateField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field   Field
		wantErr bool
	}{
		{"Count", false},
		{"Size", false},
		{"Weight", false},
		{"Name", true},
		{"hidden", true},
		{"Missing", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			t.Parallel()

			err := ValidateField[ranked](tt.field)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownField)
			} else {
				assert.NoError(t, err)
			}
			// pointer records resolve to the same struct
			assert.Equal(t, err == nil, ValidateField[*ranked](tt.field) == nil)
		})
	}

	assert.ErrorIs(t, ValidateField[int]("Count"), ErrUnknownField)
}

func TestNumericValue(t *testing.T) {
	t.Parallel()

	r := ranked{Name: "x", Count: -3, Size: 7, Weight: 1.5}

	v, err := NumericValue(r, "Count")
	require.NoError(t, err)
	assert.Equal(t, -3.0, v)

	v, err = NumericValue(&r, "Size")
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	v, err = NumericValue(r, "Weight")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	_, err = NumericValue(r, "Name")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = NumericValue((*ranked)(nil), "Count")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = NumericValue(42, "Count")
	assert.ErrorIs(t, err, ErrUnknownField)
}

// TestNumericValue_IntegerRange は float64 で正確に表せない整数が拒否されることを検証します。
func TestNumericValue_IntegerRange(t *testing.T) {
	t.Parallel()

	type wide struct {
		Signed   int64
		Unsigned uint64
	}

	tests := []struct {
		name    string
		record  wide
		field   Field
		want    float64
		wantErr bool
	}{
		{"上限ちょうど", wide{Signed: MaxExactScore}, "Signed", MaxExactScore, false},
		{"下限ちょうど", wide{Signed: -MaxExactScore}, "Signed", -MaxExactScore, false},
		{"上限超過", wide{Signed: MaxExactScore + 1}, "Signed", 0, true},
		{"下限未満", wide{Signed: -MaxExactScore - 1}, "Signed", 0, true},
		{"符号なし上限ちょうど", wide{Unsigned: MaxExactScore}, "Unsigned", MaxExactScore, false},
		{"符号なし上限超過", wide{Unsigned: MaxExactScore + 1}, "Unsigned", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := NumericValue(tt.record, tt.field)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrScoreOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}
