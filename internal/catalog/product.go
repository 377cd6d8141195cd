// Package catalog resolves sellable product metadata. Product
// identifiers are configured in a local JSON file; metadata comes from
// the storefront service.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// Product is one sellable item.
type Product struct {
	ID       string `json:"productIdentifier"`
	Title    string `json:"title,omitempty"`
	Price    string `json:"price,omitempty"`
	Currency string `json:"currency,omitempty"`
}

type localProduct struct {
	ProductIdentifier string `json:"productIdentifier"`
}

// LoadIdentifiers reads the locally known product identifiers from the
// JSON file at path.
func LoadIdentifiers(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read product identifiers %s: %w", path, err)
	}

	var locals []localProduct
	if err := json.Unmarshal(data, &locals); err != nil {
		return nil, fmt.Errorf("decode product identifiers %s: %w", path, err)
	}

	ids := make([]string, 0, len(locals))
	for _, p := range locals {
		ids = append(ids, p.ProductIdentifier)
	}

	log.Debug().Strs("product_ids", ids).Msg("Loaded product identifiers")

	return ids, nil
}
