package storage

import (
	"fmt"
	"reflect"
)

// MaxExactScore は float64 で誤差なく表せる整数スコアの絶対値の上限（2^53）です。
// メモリ・Redisバックエンドはスコアを float64 で比較するため、これを超える整数値は扱えません。
const MaxExactScore = 1 << 53

// ValidateField はレコード型Tがfieldという名前の数値フィールドを持つことを確認します。
func ValidateField[T any](field Field) error {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s on %s", ErrUnknownField, field, t.Kind())
	}
	sf, ok := t.FieldByName(string(field))
	if !ok || !sf.IsExported() {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if !isNumeric(sf.Type.Kind()) {
		return fmt.Errorf("%w: %s is %s, not numeric", ErrUnknownField, field, sf.Type.Kind())
	}
	return nil
}

// NumericValue はrecordのfieldを数値として読み出します。
// recordは構造体またはそのポインタで、fieldは整数・浮動小数点型のエクスポートされたフィールドである必要があります。
// 絶対値が MaxExactScore を超える整数は ErrScoreOutOfRange になります。
func NumericValue(record any, field Field) (float64, error) {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return 0, fmt.Errorf("%w: nil record", ErrUnknownField)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return 0, fmt.Errorf("%w: %s on %s", ErrUnknownField, field, v.Kind())
	}

	sf, ok := v.Type().FieldByName(string(field))
	if !ok || !sf.IsExported() {
		return 0, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	fv := v.FieldByIndex(sf.Index)
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := fv.Int()
		if n > MaxExactScore || n < -MaxExactScore {
			return 0, fmt.Errorf("%w: %s=%d", ErrScoreOutOfRange, field, n)
		}
		return float64(n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := fv.Uint()
		if n > MaxExactScore {
			return 0, fmt.Errorf("%w: %s=%d", ErrScoreOutOfRange, field, n)
		}
		return float64(n), nil
	case reflect.Float32, reflect.Float64:
		return fv.Float(), nil
	default:
		return 0, fmt.Errorf("%w: %s is %s, not numeric", ErrUnknownField, field, fv.Kind())
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
