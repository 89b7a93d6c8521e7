package cageots

import (
	"cageots-konnector/internal/chrono"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	paris := chrono.Paris()

	testCases := []struct {
		raw      string
		expected time.Time
	}{
		{
			raw:      "20211021231457",
			expected: time.Date(2021, time.October, 21, 23, 14, 57, 0, paris),
		},
		{
			raw:      "20211021",
			expected: time.Date(2021, time.October, 21, 0, 0, 0, 0, paris),
		},
		{
			raw:      "2021102109",
			expected: time.Date(2021, time.October, 21, 9, 0, 0, 0, paris),
		},
		{
			raw:      "202101010130",
			expected: time.Date(2021, time.January, 1, 1, 30, 0, 0, paris),
		},
		{
			raw:      "20240229120000",
			expected: time.Date(2024, time.February, 29, 12, 0, 0, 0, paris),
		},
	}

	for _, test := range testCases {
		t.Run(test.raw, func(t *testing.T) {
			date, err := NormalizeDate(test.raw, paris)
			require.NoError(t, err)
			require.True(t, test.expected.Equal(date), "expected %v, got %v", test.expected, date)
			require.Equal(t, paris, date.Location())
		})
	}
}

func TestNormalizeDateWallClock(t *testing.T) {
	// the digits are kept as is whatever the location, nothing is converted.
	date, err := NormalizeDate("20211021231457", time.UTC)
	require.NoError(t, err)
	require.Equal(t, 23, date.Hour())
	require.Equal(t, time.October, date.Month())
	require.Equal(t, 21, date.Day())
}

func TestNormalizeDateInvalid(t *testing.T) {
	invalid := []string{
		"",
		"2021102",
		"202110212314570",
		"2021-10-21",
		"2021102a",
		"20211321",
		"20211000",
		"20210230",
		"20211021251457",
		"20211021236057",
		"20211021231460",
	}

	for _, raw := range invalid {
		t.Run(raw, func(t *testing.T) {
			_, err := NormalizeDate(raw, chrono.Paris())
			require.Error(t, err)

			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr))
			require.Equal(t, "date", fieldErr.Field)
			require.Equal(t, raw, fieldErr.Value)
		})
	}
}

func TestNormalizeAmount(t *testing.T) {
	testCases := []struct {
		raw      string
		expected float64
	}{
		{raw: "86.15", expected: 86.15},
		{raw: " 86.15 ", expected: 86.15},
		{raw: "86,15", expected: 86.15},
		{raw: "42", expected: 42},
		{raw: "0.5", expected: 0.5},
		{raw: "1234.567", expected: 1234.567},
	}

	for _, test := range testCases {
		amount, err := NormalizeAmount(test.raw)
		require.NoError(t, err, test.raw)
		require.Equal(t, test.expected, amount, test.raw)
	}

	for _, raw := range []string{"", "abc", "86.15 €", "1,234.50"} {
		_, err := NormalizeAmount(raw)
		var fieldErr *FieldError
		require.True(t, errors.As(err, &fieldErr), raw)
		require.Equal(t, "amount", fieldErr.Field)
	}
}

func TestFormatAmountIdempotent(t *testing.T) {
	for _, raw := range []string{"86.15", "42", "12.5", "0.10", "999.99"} {
		amount, err := NormalizeAmount(raw)
		require.NoError(t, err)

		formatted := FormatAmount(amount)
		reparsed, err := NormalizeAmount(formatted)
		require.NoError(t, err)
		require.Equal(t, formatted, FormatAmount(reparsed))
	}

	require.Equal(t, "86.15", FormatAmount(86.15))
	require.Equal(t, "42.00", FormatAmount(42))
	require.Equal(t, "12.50", FormatAmount(12.5))
}

func TestFormatFilename(t *testing.T) {
	date := time.Date(2021, time.October, 21, 23, 14, 57, 0, chrono.Paris())

	filename := FormatFilename(date, 86.15, "DDVMDIJTQ")
	require.Equal(t, "2021-10-21_les_ptits_cageots_facture_86.15EUR_DDVMDIJTQ.pdf", filename)
	require.Equal(t, filename, FormatFilename(date, 86.15, "DDVMDIJTQ"))

	// any differing component gives a differing filename.
	others := []string{
		FormatFilename(date.AddDate(0, 0, 1), 86.15, "DDVMDIJTQ"),
		FormatFilename(date, 86.16, "DDVMDIJTQ"),
		FormatFilename(date, 86.15, "DDVMDIJTR"),
	}
	for _, other := range others {
		require.NotEqual(t, filename, other)
	}
}

func TestNewMetadata(t *testing.T) {
	metadata := NewMetadata(time.Date(2021, time.October, 21, 23, 14, 57, 0, chrono.Paris()))
	require.Equal(t, Metadata{
		CarbonCopy: true,
		Classification: Classification{
			Label:          "food_invoice",
			Purpose:        "invoice",
			SourceCategory: "shopping",
		},
		Datetime:      "2021-10-21",
		DatetimeLabel: "issueDate",
		ContentAuthor: VENDOR,
		IssueDate:     "2021-10-21",
	}, metadata)
}
