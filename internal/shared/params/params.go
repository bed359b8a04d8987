// Package params reads the optional query parameters shared by the list
// endpoints. An empty value is treated as absent.
package params

import (
	"strconv"

	"backend-breathstats/internal/shared/apperr"
	"backend-breathstats/internal/shared/envelope"
	"backend-breathstats/internal/store"
)

const (
	Sort  = "sort"
	Limit = "limit"
	Skip  = "skip"
)

func invalid() error {
	return apperr.InvalidRequest(envelope.MsgInvalidRequest)
}

// Count parses a non-negative integer.
func Count(v string) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, invalid()
	}
	return n, nil
}

// SortOrder accepts "asc" and "desc".
func SortOrder(v string) (store.SortOrder, error) {
	switch v {
	case "":
		return store.SortNatural, nil
	case "asc":
		return store.SortAscending, nil
	case "desc":
		return store.SortDescending, nil
	default:
		return store.SortNatural, invalid()
	}
}

// Page reads skip and limit from q.
func Page(q map[string]string) (store.Page, error) {
	var p store.Page
	if v := q[Skip]; v != "" {
		n, err := Count(v)
		if err != nil {
			return store.Page{}, err
		}
		p.Skip = n
	}
	if v := q[Limit]; v != "" {
		n, err := Count(v)
		if err != nil {
			return store.Page{}, err
		}
		p.Limit = n
	}
	return p, nil
}

// OptionalID returns q[key] when it is absent or shaped like a document id.
func OptionalID(q map[string]string, key string) (string, error) {
	v := q[key]
	if v != "" && !store.IsObjectID(v) {
		return "", invalid()
	}
	return v, nil
}

// OptionalInt parses q[key] as an integer when present.
func OptionalInt(q map[string]string, key string) (*int, error) {
	v := q[key]
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, invalid()
	}
	return &n, nil
}
