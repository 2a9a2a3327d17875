package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"dtindex/internal/analytics"
	apierrors "dtindex/internal/errors"
	api "dtindex/pkg/contracts/api/v1"
)

// queryList reads a list parameter given repeated, comma separated, or both.
// Blank items are dropped and duplicates keep their first position.
func queryList(q url.Values, key string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, raw := range q[key] {
		for _, item := range strings.Split(raw, ",") {
			item = strings.TrimSpace(item)
			if item == "" || seen[item] {
				continue
			}
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

func queryInts(q url.Values, key string) ([]int, error) {
	items := queryList(q, key)
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, apierrors.InvalidParameter(key, fmt.Errorf("%q is not an integer", item))
		}
		out = append(out, n)
	}
	return out, nil
}

// queryInt returns 0 for a missing parameter
func queryInt(q url.Values, key string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierrors.InvalidParameter(key, fmt.Errorf("%q is not an integer", raw))
	}
	return n, nil
}

func queryBool(q url.Values, key string) (bool, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apierrors.InvalidParameter(key, fmt.Errorf("%q is not a boolean", raw))
	}
	return b, nil
}

func bindFilter(q url.Values) (api.ExplorerFilter, error) {
	years, err := queryInts(q, "years")
	if err != nil {
		return api.ExplorerFilter{}, err
	}
	return api.ExplorerFilter{
		Stocks:     queryList(q, "stocks"),
		Years:      years,
		Industries: queryList(q, "industries"),
	}, nil
}

func toFilter(f api.ExplorerFilter) analytics.Filter {
	return analytics.Filter{
		Stocks:     f.Stocks,
		Years:      f.Years,
		Industries: f.Industries,
	}
}

func bindRecords(q url.Values) (api.RecordsRequest, error) {
	var req api.RecordsRequest
	var err error
	if req.ExplorerFilter, err = bindFilter(q); err != nil {
		return req, err
	}
	if req.Page, err = queryInt(q, "page"); err != nil {
		return req, err
	}
	if req.PageSize, err = queryInt(q, "page_size"); err != nil {
		return req, err
	}
	req.AllColumns, err = queryBool(q, "all_columns")
	return req, err
}

func bindExport(q url.Values) (api.ExportRequest, error) {
	var req api.ExportRequest
	var err error
	if req.ExplorerFilter, err = bindFilter(q); err != nil {
		return req, err
	}
	req.Format = strings.ToLower(strings.TrimSpace(q.Get("format")))
	req.AllColumns, err = queryBool(q, "all_columns")
	return req, err
}
