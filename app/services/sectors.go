package services

import (
	"fmt"
	"strings"

	"EstoqueApp/app/models"
)

// Sectors returns the sector list in order
func (s *InventoryService) Sectors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sectors...)
}

// AddSector registers a sector. Blank or duplicate names are refused.
func (s *InventoryService) AddSector(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBlankField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexSector(name) >= 0 {
		return fmt.Errorf("sector %q %w", name, ErrDuplicate)
	}
	s.sectors = append(s.sectors, name)
	s.logger.LogInfo("Sector added", name)
	return s.persistLocked()
}

// EditSector renames a sector and every product, item and movement
// tagged with it
func (s *InventoryService) EditSector(oldName, newName string) error {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrBlankField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexSector(oldName)
	if i < 0 {
		return fmt.Errorf("sector %q %w", oldName, ErrNotFound)
	}
	if j := s.indexSector(newName); j >= 0 && j != i {
		return fmt.Errorf("sector %q %w", newName, ErrDuplicate)
	}

	current := s.sectors[i]
	s.sectors[i] = newName

	for k := range s.products {
		if strings.EqualFold(s.products[k].Sector, current) {
			s.products[k].Sector = newName
		}
	}
	for k := range s.inventory {
		if strings.EqualFold(s.inventory[k].Sector, current) {
			s.inventory[k].Sector = newName
		}
	}
	for k := range s.history {
		if strings.EqualFold(s.history[k].Sector, current) {
			s.history[k].Sector = newName
		}
	}

	s.logger.LogInfo("Sector renamed", fmt.Sprintf("%s -> %s", current, newName))
	return s.persistLocked()
}

// DeleteSector removes a sector together with every product, item and
// movement tagged with it
func (s *InventoryService) DeleteSector(name string) error {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexSector(name)
	if i < 0 {
		return fmt.Errorf("sector %q %w", name, ErrNotFound)
	}
	current := s.sectors[i]
	s.sectors = append(s.sectors[:i], s.sectors[i+1:]...)

	inSector := func(sector string) bool { return strings.EqualFold(sector, current) }

	s.products = filterOut(s.products, func(p models.Product) bool { return inSector(p.Sector) })
	s.inventory = filterOut(s.inventory, func(it models.InventoryItem) bool { return inSector(it.Sector) })
	s.history = filterOut(s.history, func(m models.InventoryMovement) bool { return inSector(m.Sector) })

	s.logger.LogInfo("Sector deleted", current)
	return s.persistLocked()
}

// ensureSector registers name when unseen and returns the stored spelling.
// Callers hold s.mu.
func (s *InventoryService) ensureSector(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if i := s.indexSector(name); i >= 0 {
		return s.sectors[i]
	}
	s.sectors = append(s.sectors, name)
	return name
}

func (s *InventoryService) indexSector(name string) int {
	for i, sector := range s.sectors {
		if strings.EqualFold(sector, name) {
			return i
		}
	}
	return -1
}

// filterOut returns items without those matching drop, reusing the backing array
func filterOut[T any](items []T, drop func(T) bool) []T {
	kept := items[:0]
	for _, it := range items {
		if !drop(it) {
			kept = append(kept, it)
		}
	}
	return kept
}
