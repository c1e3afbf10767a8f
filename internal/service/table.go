package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/permission"
	"github.com/mesa-pos/api/internal/store"
)

var (
	ErrTableHasActiveOrder = errors.New("table has an active order")
	ErrTableNameRequired   = errors.New("table name is required")
)

// TableService owns Table.status. Order activity drives it (occupied on
// create, free on close or cancel); staff may set it manually only while no
// open order references the table. A manually CLOSED table reverts to FREE
// after reopenDelay unless something touches it first.
type TableService struct {
	store       store.Store
	reopenDelay time.Duration

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
}

// NewTableService creates a TableService. reopenDelay <= 0 disables the
// automatic CLOSED to FREE revert.
func NewTableService(st store.Store, reopenDelay time.Duration) *TableService {
	return &TableService{
		store:       st,
		reopenDelay: reopenDelay,
		timers:      make(map[uuid.UUID]*time.Timer),
	}
}

// CreateTable registers a new table, starting FREE.
func (s *TableService) CreateTable(ctx context.Context, tenantID uuid.UUID, name, note string) (*store.Table, error) {
	if name == "" {
		return nil, ErrTableNameRequired
	}
	now := time.Now()
	table := &store.Table{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		Status:    enum.TableStatusFree,
		Note:      note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTable(ctx, table); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	return table, nil
}

// GetTable returns one table.
func (s *TableService) GetTable(ctx context.Context, tenantID, tableID uuid.UUID) (*store.Table, error) {
	t, err := s.store.GetTable(ctx, tenantID, tableID)
	if err != nil {
		return nil, mapStoreErr(err, ErrTableNotFound)
	}
	return t, nil
}

// ListTables returns every table for the tenant.
func (s *TableService) ListTables(ctx context.Context, tenantID uuid.UUID) ([]*store.Table, error) {
	return s.store.ListTables(ctx, tenantID)
}

// DeleteTable removes a table. Rejected while an open order references it.
func (s *TableService) DeleteTable(ctx context.Context, tenantID, tableID uuid.UUID) error {
	if err := s.requireNoOpenOrder(ctx, tenantID, tableID); err != nil {
		return err
	}
	s.cancelTimer(tableID)
	if err := s.store.DeleteTable(ctx, tenantID, tableID); err != nil {
		return mapStoreErr(err, ErrTableNotFound)
	}
	return nil
}

// SetStatus is the manual path for staff: opening a table for a walk-in,
// closing a section, renaming the party. Order-driven state wins, so it is
// rejected while an open order references the table.
func (s *TableService) SetStatus(ctx context.Context, actor Actor, tenantID, tableID uuid.UUID, status, customerName, note string) (*store.Table, error) {
	tenant, err := s.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, mapStoreErr(err, ErrTenantNotFound)
	}
	if !permission.HasPermission(tenant, actor.Role, permission.KeyTableActions) {
		return nil, ErrPermissionDenied
	}
	switch status {
	case enum.TableStatusFree, enum.TableStatusOccupied, enum.TableStatusClosed:
	default:
		return nil, ErrInvalidStatus
	}

	if err := s.requireNoOpenOrder(ctx, tenantID, tableID); err != nil {
		return nil, err
	}

	s.cancelTimer(tableID)
	updated, err := s.store.UpdateTable(ctx, tenantID, tableID, func(t *store.Table) error {
		t.Status = status
		t.CustomerName = customerName
		t.Note = note
		if status == enum.TableStatusFree {
			t.CustomerName = ""
		}
		t.Generation++
		t.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err, ErrTableNotFound)
	}

	if status == enum.TableStatusClosed {
		s.scheduleReopen(tenantID, tableID, updated.Generation)
	}
	return updated, nil
}

// markOccupied flips the table to OCCUPIED when an order is opened against
// it. Idempotent; called by the order service only after the order write
// succeeded.
func (s *TableService) markOccupied(ctx context.Context, tenantID, tableID uuid.UUID) error {
	s.cancelTimer(tableID)
	_, err := s.store.UpdateTable(ctx, tenantID, tableID, func(t *store.Table) error {
		t.Status = enum.TableStatusOccupied
		t.Generation++
		t.UpdatedAt = time.Now()
		return nil
	})
	return mapStoreErr(err, ErrTableNotFound)
}

// release returns the table to FREE once its order closed or was canceled.
func (s *TableService) release(ctx context.Context, tenantID, tableID uuid.UUID) error {
	s.cancelTimer(tableID)
	_, err := s.store.UpdateTable(ctx, tenantID, tableID, func(t *store.Table) error {
		t.Status = enum.TableStatusFree
		t.CustomerName = ""
		t.Generation++
		t.UpdatedAt = time.Now()
		return nil
	})
	return mapStoreErr(err, ErrTableNotFound)
}

// scheduleReopen arms the deferred CLOSED to FREE revert. The timer carries
// the generation it was scheduled against; any later mutation bumps the
// generation, so a stale timer firing after the table was reused is a no-op.
func (s *TableService) scheduleReopen(tenantID, tableID uuid.UUID, generation int64) {
	if s.reopenDelay <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.timers[tableID]; ok {
		prev.Stop()
	}
	s.timers[tableID] = time.AfterFunc(s.reopenDelay, func() {
		s.mu.Lock()
		delete(s.timers, tableID)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := s.store.UpdateTable(ctx, tenantID, tableID, func(t *store.Table) error {
			if t.Generation != generation || t.Status != enum.TableStatusClosed {
				return errStaleTimer
			}
			t.Status = enum.TableStatusFree
			t.CustomerName = ""
			t.Generation++
			t.UpdatedAt = time.Now()
			return nil
		})
		if err != nil && !errors.Is(err, errStaleTimer) && !errors.Is(err, store.ErrNotFound) {
			log.Printf("ERROR: reopen table %s: %v", tableID, err)
		}
	})
}

var errStaleTimer = errors.New("stale reopen timer")

func (s *TableService) cancelTimer(tableID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[tableID]; ok {
		t.Stop()
		delete(s.timers, tableID)
	}
}

// Shutdown stops every pending reopen timer. Fired timers that already
// started running are left to finish.
func (s *TableService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *TableService) requireNoOpenOrder(ctx context.Context, tenantID, tableID uuid.UUID) error {
	_, err := s.store.GetOpenOrderByTable(ctx, tenantID, tableID)
	if err == nil {
		return ErrTableHasActiveOrder
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("get open order: %w", err)
	}
	return nil
}
