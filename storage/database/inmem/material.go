package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/maintenance/core/material"
)

type materialRepository struct {
	db *materialTable
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *DB) *materialRepository {
	return &materialRepository{db: db.material}
}

func (repo *materialRepository) CreateRequest(_ context.Context, r material.Request) (material.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r.ID = uuid.New().String()
	r.Materials = append([]material.Item(nil), r.Materials...)
	repo.db.table[r.ID] = &r
	return r, nil
}

func (repo *materialRepository) QueryRequests(_ context.Context, filter material.QueryFilter) ([]material.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	reqs := make([]material.Request, 0, len(repo.db.table))
	for _, r := range repo.db.table {
		if filter.TechnicianID != "" && r.TechnicianID != filter.TechnicianID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		reqs = append(reqs, *r)
	}
	sort.SliceStable(reqs, func(i, j int) bool {
		if !reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
		}
		return reqs[i].ID < reqs[j].ID
	})
	return reqs, nil
}

func (repo *materialRepository) GetRequest(_ context.Context, id string) (material.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return *r, nil
	}
	return material.Request{}, material.ErrNotFound
}

func (repo *materialRepository) UpdateRequest(_ context.Context, r material.Request) (material.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[r.ID]; !ok {
		return material.Request{}, material.ErrNotFound
	}
	repo.db.table[r.ID] = &r
	return r, nil
}

func (repo *materialRepository) DeleteRequestsByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
