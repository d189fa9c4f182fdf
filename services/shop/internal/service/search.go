package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mkravets/shop-system/services/shop/internal/models"
)

// SearchProducts runs a fuzzy multi_match over the product index.
func (svc *ProductService) SearchProducts(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	if svc.ES == nil {
		return 0, nil, fmt.Errorf("search is not configured")
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := svc.ES.Search(
		svc.ES.Search.WithContext(ctx),
		svc.ES.Search.WithIndex(svc.Index),
		svc.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search error: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search error: %s", res.Status())
	}

	type hit struct {
		Source models.Product `json:"_source"`
	}
	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []hit                 `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return r.Hits.Total.Value, prods, nil
}
