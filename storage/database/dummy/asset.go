package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tmalache/chuo/core/asset"
)

type assetRepository struct {
	resources *table[asset.Resource]
	inventory *table[asset.InventoryItem]
}

var _ asset.Repository = (*assetRepository)(nil) // interface compliance check

func NewAssetRepository(db *DB) asset.Repository {
	return &assetRepository{resources: db.resources, inventory: db.inventory}
}

// Resources

func (repo *assetRepository) CreateResource(ctx context.Context, res asset.Resource) (asset.Resource, error) {
	repo.resources.Lock()
	defer repo.resources.Unlock()
	res.ID = uuid.NewString()
	repo.resources.rows[res.ID] = &res
	return res, nil
}

func (repo *assetRepository) GetResourceByID(ctx context.Context, id string) (asset.Resource, error) {
	repo.resources.RLock()
	defer repo.resources.RUnlock()
	if res, ok := repo.resources.rows[id]; ok {
		return *res, nil
	}
	return asset.Resource{}, asset.ErrResourceNotFound
}

func (repo *assetRepository) QueryResources(ctx context.Context, filter *asset.ResourceQueryFilter) ([]asset.Resource, error) {
	repo.resources.RLock()
	defer repo.resources.RUnlock()
	resources := make([]asset.Resource, 0, len(repo.resources.rows))
	for _, res := range repo.resources.rows {
		if filter != nil {
			if filter.Search != "" && !containsFold(res.Title, filter.Search) && !containsFold(res.Description, filter.Search) {
				continue
			}
			if filter.Category != "" && res.Category != filter.Category {
				continue
			}
		}
		resources = append(resources, *res)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].CreatedAt.After(resources[j].CreatedAt) })
	return resources, nil
}

func (repo *assetRepository) UpdateResource(ctx context.Context, res asset.Resource) (asset.Resource, error) {
	repo.resources.Lock()
	defer repo.resources.Unlock()
	if _, ok := repo.resources.rows[res.ID]; !ok {
		return asset.Resource{}, asset.ErrResourceNotFound
	}
	repo.resources.rows[res.ID] = &res
	return res, nil
}

func (repo *assetRepository) DeleteResource(ctx context.Context, id string) error {
	repo.resources.Lock()
	defer repo.resources.Unlock()
	if _, ok := repo.resources.rows[id]; !ok {
		return asset.ErrResourceNotFound
	}
	delete(repo.resources.rows, id)
	return nil
}

// Inventory

func (repo *assetRepository) CreateInventoryItem(ctx context.Context, item asset.InventoryItem) (asset.InventoryItem, error) {
	repo.inventory.Lock()
	defer repo.inventory.Unlock()
	item.ID = uuid.NewString()
	repo.inventory.rows[item.ID] = &item
	return item, nil
}

func (repo *assetRepository) GetInventoryItemByID(ctx context.Context, id string) (asset.InventoryItem, error) {
	repo.inventory.RLock()
	defer repo.inventory.RUnlock()
	if item, ok := repo.inventory.rows[id]; ok {
		return *item, nil
	}
	return asset.InventoryItem{}, asset.ErrItemNotFound
}

func (repo *assetRepository) QueryInventory(ctx context.Context, filter *asset.InventoryQueryFilter) ([]asset.InventoryItem, error) {
	repo.inventory.RLock()
	defer repo.inventory.RUnlock()
	items := make([]asset.InventoryItem, 0, len(repo.inventory.rows))
	for _, item := range repo.inventory.rows {
		if filter != nil {
			if filter.Search != "" && !containsFold(item.Name, filter.Search) {
				continue
			}
			if filter.Category != "" && item.Category != filter.Category {
				continue
			}
			if filter.Location != "" && item.Location != filter.Location {
				continue
			}
			if filter.Condition != "" && item.Condition != filter.Condition {
				continue
			}
		}
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (repo *assetRepository) UpdateInventoryItem(ctx context.Context, item asset.InventoryItem) (asset.InventoryItem, error) {
	repo.inventory.Lock()
	defer repo.inventory.Unlock()
	if _, ok := repo.inventory.rows[item.ID]; !ok {
		return asset.InventoryItem{}, asset.ErrItemNotFound
	}
	repo.inventory.rows[item.ID] = &item
	return item, nil
}

func (repo *assetRepository) DeleteInventoryItem(ctx context.Context, id string) error {
	repo.inventory.Lock()
	defer repo.inventory.Unlock()
	if _, ok := repo.inventory.rows[id]; !ok {
		return asset.ErrItemNotFound
	}
	delete(repo.inventory.rows, id)
	return nil
}
