package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// DateTimeLayout is how meal times are rendered in JSON.
	DateTimeLayout = "2006-01-02T15:04:05"
	// DateLayout is how created_date columns are rendered in JSON.
	DateLayout = "2006-01-02"

	sqlDateTimeLayout = "2006-01-02 15:04:05"
)

// inputLayouts lists every timestamp shape accepted from clients, most specific first.
var inputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	sqlDateTimeLayout,
	"2006-01-02 15:04",
	DateLayout,
}

// ParseDateTime parses a client supplied timestamp in any of the accepted layouts.
// Inputs with an offset are converted to UTC; inputs without one are taken as UTC.
func ParseDateTime(s string) (DateTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTime{Time: t.UTC()}, nil
		}
	}
	return DateTime{}, fmt.Errorf("invalid timestamp %q", s)
}

// DateTime is a timestamp without time zone, stored in "when" columns.
type DateTime struct {
	time.Time
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(DateTimeLayout))
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = DateTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseDateTime(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value sends the UTC wall time as an untyped literal so Postgres infers the column type.
func (d DateTime) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.UTC().Format(sqlDateTimeLayout), nil
}

func (d *DateTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = DateTime{}
	case time.Time:
		*d = DateTime{Time: v}
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("DateTime.Scan: unsupported type %T", src)
	}
	return nil
}

func (d *DateTime) scanString(s string) error {
	parsed, err := ParseDateTime(s)
	if err != nil {
		return fmt.Errorf("DateTime.Scan: %w", err)
	}
	*d = parsed
	return nil
}

// Date is a calendar day, stored in created_date columns.
type Date struct {
	time.Time
}

// ParseDate accepts the same inputs as ParseDateTime and keeps only the day.
func ParseDate(s string) (Date, error) {
	dt, err := ParseDateTime(s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(dt.Time), nil
}

// DateOf truncates t to midnight of its calendar day.
func DateOf(t time.Time) Date {
	y, m, day := t.Date()
	return Date{Time: time.Date(y, m, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now())
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format(DateLayout), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = DateOf(v)
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("Date.Scan: unsupported type %T", src)
	}
	return nil
}

func (d *Date) scanString(s string) error {
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("Date.Scan: %w", err)
	}
	*d = parsed
	return nil
}
