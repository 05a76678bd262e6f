package access

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ExpiryStatus は購読終了日と現在時刻の比較結果。
type ExpiryStatus int

const (
	// ExpiryActive は終了日が現在時刻より後であることを示す。
	ExpiryActive ExpiryStatus = iota
	// ExpiryExpired は終了日が現在時刻以前であることを示す。
	ExpiryExpired
)

// String はログ出力用の文字列表現を返す。
func (s ExpiryStatus) String() string {
	if s == ExpiryActive {
		return "active"
	}
	return "expired"
}

// frenchMonths はバックエンドが使用する月名（小文字）と月の対応表。
var frenchMonths = map[string]time.Month{
	"janvier":   time.January,
	"février":   time.February,
	"mars":      time.March,
	"avril":     time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"août":      time.August,
	"septembre": time.September,
	"octobre":   time.October,
	"novembre":  time.November,
	"décembre":  time.December,
}

// DateParseError は終了日文字列が "<日> <月名> <年>" 形式に一致しないことを表す。
type DateParseError struct {
	Input  string
	Reason string
}

// Error はerrorインターフェースを実装する。
func (e *DateParseError) Error() string {
	return fmt.Sprintf("invalid localized date %q: %s", e.Input, e.Reason)
}

// ParseLocalizedDate は "15 septembre 2025" 形式の日付を、locにおけるその日の0時として返す。
// 日は1〜2桁、月はフランス語の月名（大文字小文字を区別しない）、年は4桁の10進数。
// 存在しない日付（31 avril など）はエラーとする。
func ParseLocalizedDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	fields := strings.Fields(s)
	if len(fields) != 3 {
		return time.Time{}, &DateParseError{Input: s, Reason: fmt.Sprintf("expected 3 fields, got %d", len(fields))}
	}
	dayToken, monthToken, yearToken := fields[0], fields[1], fields[2]

	if len(dayToken) < 1 || len(dayToken) > 2 || !isDigits(dayToken) {
		return time.Time{}, &DateParseError{Input: s, Reason: "day must be 1-2 digits"}
	}
	if len(yearToken) != 4 || !isDigits(yearToken) {
		return time.Time{}, &DateParseError{Input: s, Reason: "year must be 4 digits"}
	}

	month, ok := frenchMonths[strings.ToLower(monthToken)]
	if !ok {
		return time.Time{}, &DateParseError{Input: s, Reason: fmt.Sprintf("unknown month %q", monthToken)}
	}

	day, _ := strconv.Atoi(dayToken)
	year, _ := strconv.Atoi(yearToken)

	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, &DateParseError{Input: s, Reason: "day out of range for month"}
	}
	return t, nil
}

// EvaluateExpiry は終了日文字列をパースし、nowと比較する。
// 終了日がnowより厳密に後の場合のみActive。同時刻はExpiredとする。
func EvaluateExpiry(endDate string, now time.Time, loc *time.Location) (ExpiryStatus, error) {
	end, err := ParseLocalizedDate(endDate, loc)
	if err != nil {
		return ExpiryExpired, err
	}
	if end.After(now) {
		return ExpiryActive, nil
	}
	return ExpiryExpired, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
