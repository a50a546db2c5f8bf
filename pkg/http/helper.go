package http

import (
	"net/http"
	"strconv"
	"time"

	"cospace/pkg/config"
	apperrors "cospace/pkg/errors"
	"cospace/pkg/model"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = int64(v)
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractWindow parses the required RFC3339 `from` and `to` query
// parameters into a half-open interval.
func ExtractWindow(r *http.Request) (model.Interval, error) {
	query := r.URL.Query()

	fromStr := query.Get("from")
	toStr := query.Get("to")
	if fromStr == "" || toStr == "" {
		return model.Interval{}, apperrors.InvalidInput("both 'from' and 'to' query parameters are required")
	}

	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return model.Interval{}, apperrors.InvalidInput("invalid from format, must be RFC3339")
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		return model.Interval{}, apperrors.InvalidInput("invalid to format, must be RFC3339")
	}

	window := model.NewInterval(from, to)
	if !window.IsValid() {
		return model.Interval{}, apperrors.InvalidInput("'to' must be after 'from'")
	}

	return window, nil
}
