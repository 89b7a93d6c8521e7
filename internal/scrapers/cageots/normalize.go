package cageots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var (
	errDateLength = errors.New("expected 8 to 14 digits")
	errDateDigits = errors.New("expected only digits")
	errDateRange  = errors.New("date component out of range")
	errAmountNaN  = errors.New("not a decimal number")
)

// dateComponent parses raw[start:end], clamped to the length of raw. A
// component entirely past the end of raw is 0.
func dateComponent(raw string, start, end int) int {
	if start >= len(raw) {
		return 0
	}
	if end > len(raw) {
		end = len(raw)
	}
	// raw has already been checked to only contain digits.
	n, _ := strconv.Atoi(raw[start:end])
	return n
}

// NormalizeDate parses the positional YYYYMMDD[HH[MM[SS]]] timestamps of the
// order table. Missing time components default to midnight. The value is
// built on the wall clock of loc, no conversion happens.
func NormalizeDate(raw string, loc *time.Location) (time.Time, error) {
	fail := func(err error) (time.Time, error) {
		return time.Time{}, &FieldError{Field: "date", Value: raw, Err: err}
	}

	if len(raw) < 8 || len(raw) > 14 {
		return fail(errDateLength)
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return fail(errDateDigits)
		}
	}

	year := dateComponent(raw, 0, 4)
	month := dateComponent(raw, 4, 6)
	day := dateComponent(raw, 6, 8)
	hour := dateComponent(raw, 8, 10)
	minute := dateComponent(raw, 10, 12)
	second := dateComponent(raw, 12, 14)

	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || second > 59 {
		return fail(errDateRange)
	}

	date := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)
	// time.Date silently rolls Feb 30 over into March.
	if date.Day() != day || int(date.Month()) != month {
		return fail(errDateRange)
	}
	return date, nil
}

// NormalizeAmount parses a bare decimal amount like "86.15". A comma is
// accepted as the decimal separator when there is no dot.
func NormalizeAmount(raw string) (float64, error) {
	text := strings.TrimSpace(raw)
	if !strings.Contains(text, ".") {
		text = strings.Replace(text, ",", ".", 1)
	}

	value, err := decimal.NewFromString(text)
	if err != nil {
		return 0, &FieldError{
			Field: "amount",
			Value: raw,
			Err:   fmt.Errorf("%w: %w", errAmountNaN, err),
		}
	}
	return value.InexactFloat64(), nil
}

// FormatAmount renders amount with exactly 2 decimals.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// FormatDate renders the calendar date of t, ignoring the time of day.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// FormatFilename gives the name the invoice pdf is stored under, for example
// 2021-10-21_les_ptits_cageots_facture_86.15EUR_DDVMDIJTQ.pdf
func FormatFilename(date time.Time, amount float64, vendorRef string) string {
	return fmt.Sprintf(
		"%s_les_ptits_cageots_facture_%s%s_%s.pdf",
		FormatDate(date),
		FormatAmount(amount),
		CURRENCY,
		vendorRef,
	)
}

func NewMetadata(date time.Time) Metadata {
	issueDate := FormatDate(date)
	return Metadata{
		CarbonCopy: true,
		Classification: Classification{
			Label:          "food_invoice",
			Purpose:        "invoice",
			SourceCategory: "shopping",
		},
		Datetime:      issueDate,
		DatetimeLabel: "issueDate",
		ContentAuthor: VENDOR,
		IssueDate:     issueDate,
	}
}
