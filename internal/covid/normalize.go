package covid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mrusso19/covid-data-aggregation/internal/logging"
)

// NormalizeProvince validates one raw province row and converts it into the
// canonical record shape.
func NormalizeProvince(raw RawProvinceRecord) (ProvinceRecord, error) {
	dateStr, err := stringField(raw, FieldDate)
	if err != nil {
		return ProvinceRecord{}, err
	}
	submissionDate, err := parseSubmissionDate(dateStr)
	if err != nil {
		return ProvinceRecord{}, err
	}

	code, err := stringField(raw, FieldRegionCode)
	if err != nil {
		return ProvinceRecord{}, err
	}

	name, err := stringField(raw, FieldRegionName)
	if err != nil {
		return ProvinceRecord{}, err
	}

	cases, err := caseCount(raw[FieldTotalCases])
	if err != nil {
		return ProvinceRecord{}, fmt.Errorf("field %q: %w", FieldTotalCases, err)
	}

	return ProvinceRecord{
		SubmissionDate: submissionDate,
		RegionCode:     code,
		RegionName:     name,
		CaseCount:      cases,
	}, nil
}

// NormalizeBatch runs NormalizeProvince over every raw record, partitioning
// the batch into normalized records and a skipped count. A failed record is
// logged and dropped; it never aborts the batch.
func NormalizeBatch(raws []RawProvinceRecord) ([]ProvinceRecord, int) {
	records := make([]ProvinceRecord, 0, len(raws))
	skipped := 0
	for i, raw := range raws {
		rec, err := NormalizeProvince(raw)
		if err != nil {
			skipped++
			logging.Warn("skipping province record",
				zap.Int("index", i),
				zap.Any("province", raw[FieldProvinceName]),
				zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

// parseSubmissionDate takes the date portion of an ISO-8601 date-time
// string, discarding time of day.
func parseSubmissionDate(s string) (time.Time, error) {
	datePart, _, _ := strings.Cut(s, "T")
	t, err := time.Parse(DateLayout, datePart)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// stringField returns the trimmed string form of a required field. Numeric
// JSON values are stringified; codes stay opaque strings either way, never
// renormalized to a numeric width.
func stringField(raw RawProvinceRecord, field string) (string, error) {
	v, ok := raw[field]
	if !ok || v == nil {
		return "", fmt.Errorf("missing field %q", field)
	}

	var s string
	switch val := v.(type) {
	case string:
		s = strings.TrimSpace(val)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		s = strconv.Itoa(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	default:
		s = strings.TrimSpace(fmt.Sprint(val))
	}
	if s == "" {
		return "", fmt.Errorf("empty field %q", field)
	}
	return s, nil
}

// caseCount converts a totale_casi value. The upstream omits the field for
// true zeros, so a nil or blank value normalizes to 0, while anything else
// must parse as a non-negative integer: garbage there means real upstream
// corruption worth surfacing.
func caseCount(v any) (int, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid case count %q", val)
		}
		return nonNegative(n)
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("non-integer case count %v", val)
		}
		return nonNegative(int(val))
	case int:
		return nonNegative(val)
	case int64:
		return nonNegative(int(val))
	default:
		return 0, fmt.Errorf("unsupported case count type %T", v)
	}
}

func nonNegative(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("negative case count %d", n)
	}
	return n, nil
}
