package services

import (
	"EstoqueApp/app/database"
	"EstoqueApp/app/models"
	"EstoqueApp/app/security"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Errors returned by InventoryService. A refused operation leaves state untouched.
var (
	ErrBlankField         = errors.New("required field is blank")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("already exists")
	ErrAdminProtected     = errors.New("admin user cannot be changed")
	ErrSectorMismatch     = errors.New("product belongs to another sector")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPersist            = errors.New("failed to persist inventory")
)

// MaxQuantity bounds a single change and any item total
const MaxQuantity = 1e12

// Persistence keys
const (
	KeyProducts        = "products"
	KeyInventory       = "inventory"
	KeyHistory         = "history"
	KeySectors         = "sectors"
	KeyUsers           = "users"
	KeyPendingImported = "pending_imported"
)

// InventoryOptions configures seeding and rules
type InventoryOptions struct {
	DefaultSectors    []string
	AdminPassword     string
	BcryptCost        int
	LowStockThreshold float64
	Now               func() time.Time
}

// InventoryService owns the products, stock totals, movement history,
// sectors and users. Every mutation rewrites the full snapshot to the
// key/value store.
type InventoryService struct {
	mu     sync.Mutex
	kv     database.KVStore
	logger *LoggerService
	opts   InventoryOptions
	now    func() time.Time

	products  []models.Product
	inventory []models.InventoryItem
	history   []models.InventoryMovement
	sectors   []string
	users     []models.User
	pending   []models.Product
}

// NewInventoryService loads the snapshot from kv, seeding default sectors
// and the admin user when missing
func NewInventoryService(kv database.KVStore, logger *LoggerService, opts InventoryOptions) (*InventoryService, error) {
	if kv == nil {
		return nil, fmt.Errorf("key/value store is required")
	}
	if logger == nil {
		logger = NewNopLoggerService()
	}
	if opts.DefaultSectors == nil {
		opts.DefaultSectors = models.DefaultSectors
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = models.AdminUsername
	}

	s := &InventoryService{
		kv:     kv,
		logger: logger,
		opts:   opts,
		now:    opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	seeded, err := s.load()
	if err != nil {
		return nil, err
	}
	if seeded {
		if err := s.persistLocked(); err != nil {
			return nil, err
		}
	}

	logger.LogInfo("Inventory loaded", fmt.Sprintf("products=%d inventory=%d history=%d sectors=%d users=%d",
		len(s.products), len(s.inventory), len(s.history), len(s.sectors), len(s.users)))
	return s, nil
}

// load reads every collection. Corrupt values decode as empty collections.
// It reports whether seed data was added.
func (s *InventoryService) load() (bool, error) {
	var err error
	var found bool

	if s.products, _, err = decodeKey[models.Product](s, KeyProducts); err != nil {
		return false, err
	}
	if s.inventory, _, err = decodeKey[models.InventoryItem](s, KeyInventory); err != nil {
		return false, err
	}
	if s.history, _, err = decodeKey[models.InventoryMovement](s, KeyHistory); err != nil {
		return false, err
	}
	if s.pending, _, err = decodeKey[models.Product](s, KeyPendingImported); err != nil {
		return false, err
	}
	if s.users, _, err = decodeKey[models.User](s, KeyUsers); err != nil {
		return false, err
	}

	var sectors []string
	if sectors, found, err = decodeKey[string](s, KeySectors); err != nil {
		return false, err
	}
	seeded := !found
	if seeded {
		sectors = s.opts.DefaultSectors
	}
	for _, sector := range sectors {
		s.ensureSector(sector)
	}

	changed, err := s.normalizeUsers()
	if err != nil {
		return false, err
	}

	return seeded || changed, nil
}

// decodeKey reads a JSON array stored under key. A missing key reports
// found=false; a malformed value is logged and decodes as empty.
func decodeKey[T any](s *InventoryService, key string) ([]T, bool, error) {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, false, nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.LogWarning("Ignoring malformed persisted collection", fmt.Sprintf("key=%s error=%v", key, err))
		return nil, true, nil
	}
	return items, true, nil
}

// normalizeUsers guarantees exactly one admin with full permissions and
// hashes any legacy plaintext password
func (s *InventoryService) normalizeUsers() (bool, error) {
	changed := false
	kept := s.users[:0]
	seen := make(map[string]bool)
	adminFound := false

	for _, u := range s.users {
		name := strings.ToLower(strings.TrimSpace(u.Username))
		if name == "" || seen[name] {
			changed = true
			continue
		}
		seen[name] = true

		isAdmin := name == models.AdminUsername
		if u.IsAdmin != isAdmin {
			u.IsAdmin = isAdmin
			changed = true
		}
		if isAdmin {
			adminFound = true
			if u.Permissions != models.AllPermissions() {
				u.Permissions = models.AllPermissions()
				changed = true
			}
		}
		if isAdmin && u.PasswordHash == "" {
			u.PasswordHash = s.opts.AdminPassword
		}
		if u.PasswordHash != "" && !security.IsHash(u.PasswordHash) {
			hashed, err := security.HashPassword(u.PasswordHash, s.opts.BcryptCost)
			if err != nil {
				return false, err
			}
			u.PasswordHash = hashed
			changed = true
		}
		kept = append(kept, u)
	}
	s.users = kept

	if !adminFound {
		hashed, err := security.HashPassword(s.opts.AdminPassword, s.opts.BcryptCost)
		if err != nil {
			return false, err
		}
		s.users = append([]models.User{{
			Username:     models.AdminUsername,
			PasswordHash: hashed,
			Permissions:  models.AllPermissions(),
			IsAdmin:      true,
		}}, s.users...)
		changed = true
		s.logger.LogInfo("Seeded admin user")
	}

	return changed, nil
}

// persistLocked writes the complete snapshot. Callers hold s.mu.
func (s *InventoryService) persistLocked() error {
	collections := map[string]interface{}{
		KeyProducts:        nonNil(s.products),
		KeyInventory:       nonNil(s.inventory),
		KeyHistory:         nonNil(s.history),
		KeySectors:         nonNil(s.sectors),
		KeyUsers:           nonNil(s.users),
		KeyPendingImported: nonNil(s.pending),
	}

	values := make(map[string]string, len(collections))
	for key, v := range collections {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %v", ErrPersist, key, err)
		}
		values[key] = string(data)
	}

	if err := s.kv.SetMany(values); err != nil {
		s.logger.LogError("Failed to persist inventory snapshot", err)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

// nonNil makes empty collections encode as [] instead of null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Products

// UpsertProduct creates a product or replaces the description and sector of
// an existing one. Unknown sectors are registered.
func (s *InventoryService) UpsertProduct(code, description, sector string) error {
	code = strings.TrimSpace(code)
	description = strings.TrimSpace(description)
	sector = strings.TrimSpace(sector)
	if code == "" || description == "" || sector == "" {
		return ErrBlankField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertProductLocked(code, description, sector)
	s.removePending(code)
	s.logger.LogDebug("Product upserted", zap.String("code", code), zap.String("sector", sector))
	return s.persistLocked()
}

// upsertProductLocked stores the product; a blank sector is allowed here
// for CSV imports awaiting assignment
func (s *InventoryService) upsertProductLocked(code, description, sector string) {
	if sector != "" {
		sector = s.ensureSector(sector)
	}
	if i := s.indexProduct(code); i >= 0 {
		s.products[i].Description = description
		s.products[i].Sector = sector
		return
	}
	s.products = append(s.products, models.Product{
		Code:        code,
		Description: description,
		Sector:      sector,
	})
}

// DeleteProduct removes a product and its inventory item.
// Deleting an unknown code succeeds without changes.
func (s *InventoryService) DeleteProduct(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrBlankField
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if i := s.indexProduct(code); i >= 0 {
		s.products = append(s.products[:i], s.products[i+1:]...)
		changed = true
	}
	if i := s.indexItem(code); i >= 0 {
		s.inventory = append(s.inventory[:i], s.inventory[i+1:]...)
		changed = true
	}
	if s.removePending(code) {
		changed = true
	}
	if !changed {
		return nil
	}

	s.logger.LogDebug("Product deleted", zap.String("code", code))
	return s.persistLocked()
}

// ClearProducts empties products, inventory, history and the pending list
func (s *InventoryService) ClearProducts() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = nil
	s.inventory = nil
	s.history = nil
	s.pending = nil
	s.logger.LogInfo("Products cleared")
	return s.persistLocked()
}

// Inventory

// UpdateInventory adds delta to the item total, creating the item when
// needed. Totals stay on a 0.1 grid. Blank description or sector keep the
// stored values. A movement is recorded for every non-zero delta. Deltas
// beyond MaxQuantity, or totals that would exceed it, are refused.
func (s *InventoryService) UpdateInventory(code, description, sector string, delta float64) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrBlankField
	}
	if err := validateDelta(delta); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.updateInventoryLocked(code, strings.TrimSpace(description), strings.TrimSpace(sector), delta); err != nil {
		return err
	}
	return s.persistLocked()
}

// UpdateInventoryAs is UpdateInventory for an authenticated session. The
// user needs inventory permission and, when the session has an active
// sector, the product must belong to it.
func (s *InventoryService) UpdateInventoryAs(sess *models.Session, code, description, sector string, delta float64) error {
	code = strings.TrimSpace(code)
	description = strings.TrimSpace(description)
	sector = strings.TrimSpace(sector)
	if code == "" {
		return ErrBlankField
	}
	if err := validateDelta(delta); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeLocked(sess, PermEditInventory); err != nil {
		return err
	}

	resolved := sector
	if i := s.indexProduct(code); i >= 0 && s.products[i].Sector != "" {
		resolved = s.products[i].Sector
	} else if i := s.indexItem(code); i >= 0 && s.inventory[i].Sector != "" {
		resolved = s.inventory[i].Sector
	}

	if sess.ActiveSector != "" {
		if resolved == "" {
			resolved = sess.ActiveSector
		} else if !strings.EqualFold(resolved, sess.ActiveSector) {
			return fmt.Errorf("%w: %s is in %s", ErrSectorMismatch, code, resolved)
		}
		if sector == "" {
			sector = resolved
		}
	}

	if err := s.updateInventoryLocked(code, description, sector, delta); err != nil {
		return err
	}
	return s.persistLocked()
}

// validateDelta rejects quantities that are not finite or exceed MaxQuantity
func validateDelta(delta float64) error {
	if math.IsNaN(delta) || math.IsInf(delta, 0) || math.Abs(delta) > MaxQuantity {
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, delta)
	}
	return nil
}

// updateInventoryLocked applies delta. Every non-zero delta is recorded as a
// movement, even when it rounds to no change of the total.
func (s *InventoryService) updateInventoryLocked(code, description, sector string, delta float64) error {
	step := toTenths(delta)
	idx := s.indexItem(code)

	total := step
	if idx >= 0 {
		total += toTenths(s.inventory[idx].Total)
	}
	if total > toTenths(MaxQuantity) || total < -toTenths(MaxQuantity) {
		return fmt.Errorf("%w: total for %s would exceed %v", ErrInvalidQuantity, code, MaxQuantity)
	}

	if sector != "" {
		sector = s.ensureSector(sector)
	}

	var item *models.InventoryItem
	if idx >= 0 {
		item = &s.inventory[idx]
		item.Total = fromTenths(total)
		if description != "" {
			item.Description = description
		}
		if sector != "" {
			item.Sector = sector
		}
	} else {
		// Fill blanks from the catalogue
		if p := s.indexProduct(code); p >= 0 {
			if description == "" {
				description = s.products[p].Description
			}
			if sector == "" {
				sector = s.products[p].Sector
			}
		}
		s.inventory = append(s.inventory, models.InventoryItem{
			Code:        code,
			Description: description,
			Sector:      sector,
			Total:       fromTenths(step),
		})
		item = &s.inventory[len(s.inventory)-1]
	}

	if delta == 0 {
		return nil
	}

	movementType := models.MovementTypeIn
	if delta < 0 {
		movementType = models.MovementTypeOut
	}
	s.history = append(s.history, models.InventoryMovement{
		Code:        item.Code,
		Description: item.Description,
		Sector:      item.Sector,
		Quantity:    fromTenths(step),
		Type:        movementType,
		Total:       item.Total,
		Timestamp:   s.now(),
	})
	s.logger.LogDebug("Inventory updated",
		zap.String("code", code),
		zap.Float64("delta", fromTenths(step)),
		zap.Float64("total", item.Total))
	return nil
}

// ClearInventory empties inventory items and history; products stay
func (s *InventoryService) ClearInventory() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inventory = nil
	s.history = nil
	s.logger.LogInfo("Inventory cleared")
	return s.persistLocked()
}

// toTenths converts a quantity to integer tenths
func toTenths(v float64) int64 {
	return int64(math.Round(v * 10))
}

func fromTenths(t int64) float64 {
	return float64(t) / 10
}

// Read accessors return copies

// Products returns all products in insertion order
func (s *InventoryService) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Product(nil), s.products...)
}

// Product looks up a product by code
func (s *InventoryService) Product(code string) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexProduct(strings.TrimSpace(code)); i >= 0 {
		return s.products[i], true
	}
	return models.Product{}, false
}

// Inventory returns all inventory items
func (s *InventoryService) Inventory() []models.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.InventoryItem(nil), s.inventory...)
}

// Item looks up an inventory item by code
func (s *InventoryService) Item(code string) (models.InventoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexItem(strings.TrimSpace(code)); i >= 0 {
		return s.inventory[i], true
	}
	return models.InventoryItem{}, false
}

// History returns movements in insertion order
func (s *InventoryService) History() []models.InventoryMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.InventoryMovement(nil), s.history...)
}

// PendingImported returns products imported without a sector
func (s *InventoryService) PendingImported() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Product(nil), s.pending...)
}

// Lookup helpers. Callers hold s.mu.

func (s *InventoryService) indexProduct(code string) int {
	for i := range s.products {
		if s.products[i].Code == code {
			return i
		}
	}
	return -1
}

func (s *InventoryService) indexItem(code string) int {
	for i := range s.inventory {
		if s.inventory[i].Code == code {
			return i
		}
	}
	return -1
}

func (s *InventoryService) removePending(code string) bool {
	for i := range s.pending {
		if s.pending[i].Code == code {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}
