package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	fullDateRe     = regexp.MustCompile(`(\d{4})\.\s*(\d{1,2})\.\s*(\d{1,2})`)
	relativeDateRe = regexp.MustCompile(`(\d+)\s*(일|주|개월|시간|분)\s*전`)
	shortDateRe    = regexp.MustCompile(`(?:^|[^\d])(\d{2})\.\s*(\d{1,2})\.\s*(\d{1,2})`)
)

// maxRelativeAge bounds relative labels; larger offsets are treated as
// unparseable.
const maxRelativeAge = 100 * 365 * 24 * time.Hour

// ParsePublishedDate turns a review date label into a calendar date in now's
// location. Supported forms, tried in order:
//
//	2024.03.15        absolute date
//	3일 전 / 2주 전 / 1개월 전 / 5시간 전 / 10분 전
//	오늘 / 어제
//	24.3.15           two-digit year
//
// Text that matches none of them, or names an impossible date, yields nil.
func ParsePublishedDate(text string, now time.Time) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if m := fullDateRe.FindStringSubmatch(text); m != nil {
		return calendarDate(m[1], m[2], m[3], now.Location())
	}

	if m := relativeDateRe.FindStringSubmatch(text); m != nil {
		return relativeDate(m[1], m[2], now)
	}

	switch {
	case strings.Contains(text, "오늘"):
		return dateOnly(now)
	case strings.Contains(text, "어제"):
		return dateOnly(now.AddDate(0, 0, -1))
	}

	if m := shortDateRe.FindStringSubmatch(text); m != nil {
		return calendarDate("20"+m[1], m[2], m[3], now.Location())
	}
	return nil
}

// relativeDate resolves "N unit 전". Counts beyond maxRelativeAge yield nil.
func relativeDate(count, unit string, now time.Time) *time.Time {
	n, err := strconv.Atoi(count)
	if err != nil {
		return nil
	}

	var approx time.Duration
	switch unit {
	case "일":
		approx = 24 * time.Hour
	case "주":
		approx = 7 * 24 * time.Hour
	case "개월":
		approx = 30 * 24 * time.Hour
	case "시간":
		approx = time.Hour
	case "분":
		approx = time.Minute
	default:
		return nil
	}
	if n > int(maxRelativeAge/approx) {
		return nil
	}

	var t time.Time
	switch unit {
	case "일":
		t = now.AddDate(0, 0, -n)
	case "주":
		t = now.AddDate(0, 0, -7*n)
	case "개월":
		t = now.AddDate(0, -n, 0)
	default:
		t = now.Add(-time.Duration(n) * approx)
	}
	return dateOnly(t)
}

// calendarDate builds a date from matched digit groups. Impossible dates
// such as 2024.13.40 yield nil rather than a normalised time.
func calendarDate(y, m, d string, loc *time.Location) *time.Time {
	year, errY := strconv.Atoi(y)
	month, errM := strconv.Atoi(m)
	day, errD := strconv.Atoi(d)
	if errY != nil || errM != nil || errD != nil {
		return nil
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return nil
	}
	return &t
}

func dateOnly(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return &d
}
