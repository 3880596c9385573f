// Package client provides result mapping utilities.
package client

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/satishbabariya/pgquery/runtime/types"
)

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// FetchAllAs runs query and decodes every row into T
func FetchAllAs[T any](ctx context.Context, c *Client, query string, args ...any) ([]T, error) {
	rows, err := c.FetchAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return DecodeAll[T](rows)
}

// FetchOneAs runs query and decodes its first row into T.
// It returns nil when the result is empty.
func FetchOneAs[T any](ctx context.Context, c *Client, query string, args ...any) (*T, error) {
	row, err := c.FetchOne(ctx, query, args...)
	if err != nil || row == nil {
		return nil, err
	}
	result, err := Decode[T](*row)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DecodeAll decodes a result set into a slice of T
func DecodeAll[T any](rows []types.Row) ([]T, error) {
	results := make([]T, 0, len(rows))
	for _, row := range rows {
		result, err := Decode[T](row)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Decode copies a row into a struct of type T.
// Columns are matched by db tag, field name, then case-insensitive field
// name; unmatched columns are ignored.
func Decode[T any](row types.Row) (T, error) {
	var result T
	val := reflect.ValueOf(&result).Elem()
	typ := val.Type()
	if typ.Kind() != reflect.Struct {
		return result, fmt.Errorf("decode target must be a struct, got %s", typ)
	}

	values := row.Values()
	for i, colName := range row.Columns() {
		field, ok := findFieldByName(typ, colName)
		if !ok {
			continue
		}
		if err := assign(val.FieldByIndex(field.Index), values[i]); err != nil {
			return result, fmt.Errorf("failed to decode column %s into field %s: %w", colName, field.Name, err)
		}
	}

	return result, nil
}

// assign stores src into dst, converting between compatible kinds
func assign(dst reflect.Value, src any) error {
	if !dst.CanSet() {
		return nil
	}

	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(src)
	}

	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	sv := reflect.ValueOf(src)
	switch {
	case sv.Type().AssignableTo(dst.Type()):
		dst.Set(sv)
	case dst.Kind() == reflect.String:
		switch s := src.(type) {
		case string:
			dst.SetString(s)
		case []byte:
			dst.SetString(string(s))
		default:
			dst.SetString(fmt.Sprint(src))
		}
	case isNumeric(sv.Kind()) && isNumeric(dst.Kind()):
		return convertNumber(dst, sv)
	case dst.Kind() == reflect.Bool && sv.Kind() == reflect.Bool:
		dst.SetBool(sv.Bool())
	case sv.Kind() == reflect.String && (isNumeric(dst.Kind()) || dst.Kind() == reflect.Bool):
		// drivers return some numeric and domain types as text
		return parseInto(dst, sv.String())
	default:
		return fmt.Errorf("cannot assign %T to %s", src, dst.Type())
	}
	return nil
}

// convertNumber assigns a numeric value, rejecting values the destination
// cannot represent instead of letting them wrap.
func convertNumber(dst, src reflect.Value) error {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		switch {
		case src.CanInt():
			n = src.Int()
		case src.CanUint():
			if src.Uint() > math.MaxInt64 {
				return fmt.Errorf("value %d overflows %s", src.Uint(), dst.Type())
			}
			n = int64(src.Uint())
		default:
			f := src.Float()
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return fmt.Errorf("value %v cannot be represented as %s", f, dst.Type())
			}
			n = int64(f)
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var n uint64
		switch {
		case src.CanUint():
			n = src.Uint()
		case src.CanInt():
			if src.Int() < 0 {
				return fmt.Errorf("negative value %d cannot be assigned to %s", src.Int(), dst.Type())
			}
			n = uint64(src.Int())
		default:
			f := src.Float()
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
				return fmt.Errorf("value %v cannot be represented as %s", f, dst.Type())
			}
			n = uint64(f)
		}
		if dst.OverflowUint(n) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetUint(n)
	default:
		f := src.Convert(reflect.TypeOf(float64(0))).Float()
		if dst.OverflowFloat(f) {
			return fmt.Errorf("value %v overflows %s", f, dst.Type())
		}
		dst.SetFloat(f)
	}
	return nil
}

func parseInto(dst reflect.Value, s string) error {
	switch dst.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	}
	return nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// findFieldByName finds a struct field by database column name (db tag or field name)
func findFieldByName(typ reflect.Type, colName string) (reflect.StructField, bool) {
	var fallback reflect.StructField
	found := false

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		dbTag := field.Tag.Get("db")
		if dbTag == "-" {
			continue
		}
		if dbTag != "" {
			// Handle tags like "db:\"column_name,omitempty\""
			if name, _, _ := strings.Cut(dbTag, ","); name == colName {
				return field, true
			}
		}
		if field.Name == colName {
			return field, true
		}
		// Case-insensitive match
		if !found && strings.EqualFold(field.Name, colName) {
			fallback = field
			found = true
		}
	}

	return fallback, found
}
