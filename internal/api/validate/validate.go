package validate

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/skylog-app/skylog/internal/model"
)

// UserID must be letters, digits, underscore or hyphen, 1-64 chars.
var userIdRx = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("userId is required")
	}
	if !userIdRx.MatchString(v) {
		return fmt.Errorf("userId must match %s", userIdRx.String())
	}
	return nil
}

// Date parses a required "2006-01-02" query or path value.
func Date(field, v string) (model.Date, error) {
	if v == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	d, err := model.ParseDate(v)
	if err != nil {
		return "", fmt.Errorf("%s must be a YYYY-MM-DD date", field)
	}
	return d, nil
}

// OptionalDate parses an optional date value; empty yields nil.
func OptionalDate(field, v string) (*model.Date, error) {
	if v == "" {
		return nil, nil
	}
	d, err := Date(field, v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// YearMonth parses calendar path parameters.
func YearMonth(yearStr, monthStr string) (int, int, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1970 || year > 9999 {
		return 0, 0, fmt.Errorf("year must be a four-digit year")
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month must be in [1,12]")
	}
	return year, month, nil
}

// Pagination parses limit/offset query values with bounds.
func Pagination(limitStr, offsetStr string, maxLimit int) (limit, offset int, err error) {
	limit = maxLimit
	if limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > maxLimit {
			return 0, 0, fmt.Errorf("limit must be in [1,%d]", maxLimit)
		}
	}
	if offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("offset must be >= 0")
		}
	}
	return limit, offset, nil
}

// Coordinates validates a lat/lon query pair.
func Coordinates(latStr, lonStr string) (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("lat must be in [-90,90]")
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("lon must be in [-180,180]")
	}
	return lat, lon, nil
}
