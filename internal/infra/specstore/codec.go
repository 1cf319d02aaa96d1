package specstore

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yanqian/flowdash/internal/domain/dashboard"
)

func encodeSpec(spec dashboard.Specification) ([]byte, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("encode specification: %w", err)
	}
	return data, nil
}

func decodeSpec(data []byte) (dashboard.Specification, error) {
	var spec dashboard.Specification
	if err := json.Unmarshal(data, &spec); err != nil {
		return dashboard.Specification{}, fmt.Errorf("decode specification: %w", err)
	}
	return spec, nil
}

// sortNewestFirst orders entries by CreatedAt descending, then by id.
func sortNewestFirst(entries []dashboard.StoredSpec) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Specification.CreatedAt, entries[j].Specification.CreatedAt
		if a != b {
			return a > b
		}
		return entries[i].ID < entries[j].ID
	})
}
