// Package catalog loads the OPDB machine export and maintains the product
// reference data used for identification: the relational copy queried by the
// pipeline and the vector index queried by the matcher.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"pincrawl/pkg/models"
)

// opdbMachine mirrors one entry of the OPDB export file.
type opdbMachine struct {
	OpdbID       string `json:"opdb_id"`
	IpdbID       *int   `json:"ipdb_id"`
	Name         string `json:"name"`
	Shortname    string `json:"shortname"`
	Type         string `json:"type"`
	Manufacturer *struct {
		Name string `json:"name"`
	} `json:"manufacturer"`
	ManufactureDate string `json:"manufacture_date"`
}

// LoadFile reads an OPDB export and converts it into catalog products.
// Entries without an OPDB ID or a name are skipped.
func LoadFile(path string) ([]models.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return parseExport(data)
}

func parseExport(data []byte) ([]models.Product, error) {
	var machines []opdbMachine
	if err := json.Unmarshal(data, &machines); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	products := make([]models.Product, 0, len(machines))
	for _, m := range machines {
		if m.OpdbID == "" || m.Name == "" {
			continue
		}

		product := models.Product{
			OpdbID: m.OpdbID,
			IpdbID: m.IpdbID,
			Name:   m.Name,
		}
		if m.Shortname != "" {
			product.Shortname = strPtr(m.Shortname)
		}
		if m.Type != "" {
			product.Type = strPtr(m.Type)
		}
		if m.Manufacturer != nil {
			product.Manufacturer = m.Manufacturer.Name
		}
		// manufacture_date is an ISO date, only the year is useful here.
		if len(m.ManufactureDate) >= 4 {
			product.Year = strPtr(m.ManufactureDate[:4])
		}

		products = append(products, product)
	}

	return products, nil
}

func strPtr(s string) *string {
	return &s
}
