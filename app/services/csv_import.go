package services

import (
	"fmt"
	"strings"

	"EstoqueApp/app/models"
)

// ImportResult counts what happened to the lines of an import
type ImportResult struct {
	Imported int `json:"imported"` // Products created or updated
	Pending  int `json:"pending"`  // Of those, imported without a sector
	Skipped  int `json:"skipped"`  // Malformed lines
}

// ImportProductsFromCSV reads "code;description[;sector]" lines. Fields may
// be separated by ';' or ','. A first line starting with "codigo" is a header.
// Lines with fewer than two fields are skipped. Products without a sector
// go to the pending list for later assignment.
func (s *InventoryService) ImportProductsFromCSV(content string) (ImportResult, error) {
	var result ImportResult

	s.mu.Lock()
	defer s.mu.Unlock()

	first := true
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := splitCSVLine(line)
		if first {
			first = false
			if isHeaderField(fields[0]) {
				continue
			}
		}
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			result.Skipped++
			continue
		}

		code, description := fields[0], fields[1]
		sector := ""
		if len(fields) > 2 {
			sector = fields[2]
		}

		s.upsertProductLocked(code, description, sector)
		result.Imported++
		if sector == "" {
			s.addPending(models.Product{Code: code, Description: description})
			result.Pending++
		} else {
			s.removePending(code)
		}
	}

	s.logger.LogInfo("Products imported from CSV",
		fmt.Sprintf("imported=%d pending=%d skipped=%d", result.Imported, result.Pending, result.Skipped))
	return result, s.persistLocked()
}

// splitCSVLine splits on ';' or ',' and strips quotes and whitespace
func splitCSVLine(line string) []string {
	var parts []string
	start := 0
	for i, r := range line {
		if r == ';' || r == ',' {
			parts = append(parts, line[start:i])
			start = i + 1
		}
	}
	parts = append(parts, line[start:])

	for i, p := range parts {
		parts[i] = strings.TrimSpace(strings.Trim(strings.TrimSpace(p), `"`))
	}
	return parts
}

func isHeaderField(field string) bool {
	return strings.EqualFold(field, "codigo") || strings.EqualFold(field, "código")
}

// addPending appends or refreshes a pending product. Callers hold s.mu.
func (s *InventoryService) addPending(p models.Product) {
	for i := range s.pending {
		if s.pending[i].Code == p.Code {
			s.pending[i] = p
			return
		}
	}
	s.pending = append(s.pending, p)
}

// AssignSectorToPending moves every pending product into sector and
// clears the pending list
func (s *InventoryService) AssignSectorToPending(sector string) error {
	sector = strings.TrimSpace(sector)
	if sector == "" {
		return ErrBlankField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	codes := make([]string, 0, len(s.pending))
	for _, p := range s.pending {
		codes = append(codes, p.Code)
	}
	s.assignSectorLocked(codes, sector)
	s.pending = nil
	return s.persistLocked()
}

// AssignSectorToProducts sets sector on the products with the given codes.
// Unknown codes are ignored.
func (s *InventoryService) AssignSectorToProducts(codes []string, sector string) error {
	sector = strings.TrimSpace(sector)
	if sector == "" {
		return ErrBlankField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignSectorLocked(codes, sector)
	for _, code := range codes {
		s.removePending(strings.TrimSpace(code))
	}
	return s.persistLocked()
}

func (s *InventoryService) assignSectorLocked(codes []string, sector string) {
	sector = s.ensureSector(sector)
	for _, code := range codes {
		if i := s.indexProduct(strings.TrimSpace(code)); i >= 0 {
			s.products[i].Sector = sector
		}
	}
	s.logger.LogInfo("Sector assigned", fmt.Sprintf("sector=%s products=%d", sector, len(codes)))
}
