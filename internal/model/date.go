// internal/model/date.go
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout は永続化・API で使う日付フォーマット
const DateLayout = "2006-01-02"

// Date は時刻を持たない暦日を表します。ゼロ値は「未設定」。
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate は "YYYY-MM-DD" 形式の文字列を Date に変換します。
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: malformed date %q", ErrInvalidInput, s)
	}
	return DateOf(t), nil
}

// DateOf は時刻 t の(t 自身のロケーションでの)暦日を返します。
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Time は UTC 0時の time.Time を返します。
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// Valid は正規化済みの実在する日付かどうかを返します (2024-02-30 などは false)。
func (d Date) Valid() bool {
	if d.IsZero() || d.Year < 1 || d.Year > 9999 {
		return false
	}
	return DateOf(d.Time()) == d
}

// Seed は日替わり問題の乱数シード (year*10000 + month*100 + day)。
func (d Date) Seed() int64 {
	return int64(d.Year*10000 + int(d.Month)*100 + d.Day)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: date must be a string", ErrInvalidInput)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
