package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"EstoqueApp/app/models"
)

// Export methods. Reports are ';'-delimited with a header row. Fields
// containing the delimiter, quotes or line breaks are quoted.

// GenerateInventoryCSV exports inventory totals; a blank sector exports all
func (s *InventoryService) GenerateInventoryCSV(sector string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := [][]string{{"Codigo", "Descricao", "Setor", "Total"}}
	for _, it := range s.inventory {
		if !sectorMatches(it.Sector, sector) {
			continue
		}
		rows = append(rows, []string{it.Code, it.Description, it.Sector, formatQuantity(it.Total)})
	}
	return writeCSV(rows)
}

// GenerateProductsCSV exports the product catalogue
func (s *InventoryService) GenerateProductsCSV(sector string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := [][]string{{"Codigo", "Descricao", "Setor"}}
	for _, p := range s.products {
		if !sectorMatches(p.Sector, sector) {
			continue
		}
		rows = append(rows, []string{p.Code, p.Description, p.Sector})
	}
	return writeCSV(rows)
}

// GenerateHistoryCSV exports the movement history in insertion order
func (s *InventoryService) GenerateHistoryCSV(sector string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := [][]string{{"Codigo", "Descricao", "Setor", "Quantidade", "Tipo", "Total", "Data"}}
	for _, m := range s.history {
		if !sectorMatches(m.Sector, sector) {
			continue
		}
		rows = append(rows, []string{
			m.Code,
			m.Description,
			m.Sector,
			formatQuantity(m.Quantity),
			m.Type,
			formatQuantity(m.Total),
			m.Timestamp.Format("02/01/2006 15:04:05"),
		})
	}
	return writeCSV(rows)
}

func sectorMatches(value, filter string) bool {
	filter = strings.TrimSpace(filter)
	return filter == "" || strings.EqualFold(value, filter)
}

func formatQuantity(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func writeCSV(rows [][]string) string {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.Comma = ';'
	// Writing to a bytes.Buffer cannot fail
	_ = writer.WriteAll(rows)
	return buf.String()
}

// InventorySummary holds aggregated inventory statistics
type InventorySummary struct {
	TotalProducts   int                    `json:"total_products"`
	TrackedProducts int                    `json:"tracked_products"` // Products with an inventory item
	OrphanedItems   int                    `json:"orphaned_items"`   // Items without a product
	Movements       int                    `json:"movements"`
	Sectors         int                    `json:"sectors"`
	PendingImported int                    `json:"pending_imported"`
	LowStock        []models.InventoryItem `json:"low_stock"`
}

// GetInventorySummary aggregates the collections. Items whose total is at
// or below the configured threshold are reported as low stock.
func (s *InventoryService) GetInventorySummary() InventorySummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := InventorySummary{
		TotalProducts:   len(s.products),
		Movements:       len(s.history),
		Sectors:         len(s.sectors),
		PendingImported: len(s.pending),
	}

	for _, it := range s.inventory {
		if s.indexProduct(it.Code) >= 0 {
			summary.TrackedProducts++
		} else {
			summary.OrphanedItems++
		}
		if it.Total <= s.opts.LowStockThreshold {
			summary.LowStock = append(summary.LowStock, it)
		}
	}

	return summary
}
