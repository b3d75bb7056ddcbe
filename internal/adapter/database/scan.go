package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"
	"unicode"
)

// timeLayouts are tried in order when a driver hands back a timestamp as
// text. The sqlite driver writes the first one.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Scanner maps result rows onto structs by matching column names against
// field names and `db` tags.
type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

// ScanRowToStruct advances rows once and fills dest. It returns
// sql.ErrNoRows when the result set is empty.
func (s *Scanner) ScanRowToStruct(rows *sql.Rows, dest interface{}) error {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}

	return s.scanCurrentRow(rows, dest)
}

// ScanRowsToSlice appends one element per remaining row to the slice
// pointed to by dest.
func (s *Scanner) ScanRowsToSlice(rows *sql.Rows, dest interface{}) error {
	destValue := reflect.ValueOf(dest)

	if destValue.Kind() != reflect.Ptr || destValue.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("dest must be a pointer to slice")
	}

	sliceValue := destValue.Elem()
	sliceElemType := sliceValue.Type().Elem()
	elemType := sliceElemType

	if elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}

	if elemType.Kind() != reflect.Struct {
		return fmt.Errorf("slice elements must be structs or pointers to structs")
	}

	for rows.Next() {
		elemValue := reflect.New(elemType)

		if err := s.scanCurrentRow(rows, elemValue.Interface()); err != nil {
			return err
		}

		if sliceElemType.Kind() == reflect.Ptr {
			sliceValue.Set(reflect.Append(sliceValue, elemValue))
		} else {
			sliceValue.Set(reflect.Append(sliceValue, elemValue.Elem()))
		}
	}

	return rows.Err()
}

func (s *Scanner) scanCurrentRow(rows *sql.Rows, dest interface{}) error {
	destValue := reflect.ValueOf(dest)

	if destValue.Kind() != reflect.Ptr || destValue.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dest must be a pointer to struct")
	}

	destElem := destValue.Elem()
	destType := destElem.Type()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	scanArgs := make([]interface{}, len(columns))
	for i := range scanArgs {
		scanArgs[i] = new(interface{})
	}

	if err := rows.Scan(scanArgs...); err != nil {
		return err
	}

	for i, colName := range columns {
		val := *(scanArgs[i].(*interface{}))

		field, ok := s.findStructField(destType, colName)
		if !ok {
			continue
		}

		if err := s.setFieldValue(destElem.FieldByIndex(field.Index), val, field); err != nil {
			slog.Warn("Failed to set field", "field", field.Name, "column", colName, "error", err)
		}
	}

	return nil
}

func (s *Scanner) findStructField(structType reflect.Type, colName string) (reflect.StructField, bool) {
	colNameLower := strings.ToLower(colName)

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if tag := field.Tag.Get("db"); tag != "" && strings.ToLower(tag) == colNameLower {
			return field, true
		}
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if strings.ToLower(field.Name) == colNameLower {
			return field, true
		}
	}

	if field, found := structType.FieldByName(snakeToCamel(colName)); found {
		return field, true
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if camelToSnake(field.Name) == colNameLower {
			return field, true
		}
	}

	return reflect.StructField{}, false
}

func snakeToCamel(snake string) string {
	parts := strings.Split(snake, "_")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + strings.ToLower(parts[i][1:])
		}
	}
	return strings.Join(parts, "")
}

func camelToSnake(camel string) string {
	var result []rune
	for i, r := range camel {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '_')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

func (s *Scanner) setFieldValue(field reflect.Value, val interface{}, structField reflect.StructField) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	if val == nil || structField.Tag.Get("scan") == "skip" {
		return nil
	}

	fieldType := field.Type()
	valValue := reflect.ValueOf(val)

	if valValue.Type().AssignableTo(fieldType) {
		field.Set(valValue)
		return nil
	}

	if fieldType == reflect.TypeOf(time.Time{}) {
		return s.setTime(field, val)
	}

	switch fieldType.Kind() {
	case reflect.String:
		switch v := val.(type) {
		case string:
			field.SetString(v)
		case []byte:
			field.SetString(string(v))
		default:
			field.SetString(fmt.Sprintf("%v", v))
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch v := val.(type) {
		case int64:
			field.SetInt(v)
		case int32:
			field.SetInt(int64(v))
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("cannot convert %T to %s", val, fieldType)
		}
	case reflect.Bool:
		switch v := val.(type) {
		case bool:
			field.SetBool(v)
		case int64:
			field.SetBool(v != 0)
		case []byte:
			field.SetBool(string(v) == "1" || strings.EqualFold(string(v), "true"))
		case string:
			field.SetBool(v == "1" || strings.EqualFold(v, "true"))
		default:
			return fmt.Errorf("cannot convert %T to bool", val)
		}
	case reflect.Float32, reflect.Float64:
		switch v := val.(type) {
		case float64:
			field.SetFloat(v)
		case float32:
			field.SetFloat(float64(v))
		default:
			return fmt.Errorf("cannot convert %T to %s", val, fieldType)
		}
	default:
		return fmt.Errorf("unsupported field type %s", fieldType)
	}

	return nil
}

func (s *Scanner) setTime(field reflect.Value, val interface{}) error {
	var text string

	switch v := val.(type) {
	case time.Time:
		field.Set(reflect.ValueOf(v))
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("cannot convert %T to time.Time", val)
	}

	text = strings.TrimSuffix(text, "Z")

	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			field.Set(reflect.ValueOf(parsed))
			return nil
		}
	}

	return fmt.Errorf("failed to parse time %q", text)
}
