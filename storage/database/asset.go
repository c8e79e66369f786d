package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core/asset"
)

type assetRepository struct {
	db *sqlx.DB
}

var _ asset.Repository = (*assetRepository)(nil) // interface compliance check

func NewAssetRepository(db *sqlx.DB) asset.Repository {
	return &assetRepository{db: db}
}

// Resources

func (repo *assetRepository) CreateResource(ctx context.Context, res asset.Resource) (asset.Resource, error) {
	q := `
	INSERT INTO resource (title, description, category, file_url, uploaded_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q,
		res.Title, res.Description, res.Category, res.FileURL, res.UploadedBy, res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID)
	if err != nil {
		return asset.Resource{}, errors.Wrap(err, "creating resource")
	}
	return res, nil
}

func (repo *assetRepository) GetResourceByID(ctx context.Context, id string) (asset.Resource, error) {
	var res asset.Resource
	q := `SELECT id, title, description, category, file_url, uploaded_by, created_at, updated_at FROM resource WHERE id = $1`
	if err := repo.db.QueryRowxContext(ctx, q, id).
		Scan(&res.ID, &res.Title, &res.Description, &res.Category, &res.FileURL, &res.UploadedBy, &res.CreatedAt, &res.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return asset.Resource{}, asset.ErrResourceNotFound
		}
		return asset.Resource{}, errors.Wrap(err, "getting resource")
	}
	return res, nil
}

func (repo *assetRepository) QueryResources(ctx context.Context, filter *asset.ResourceQueryFilter) ([]asset.Resource, error) {
	q := `SELECT id, title, description, category, file_url, uploaded_by, created_at, updated_at FROM resource WHERE 1=1`
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			q += ` AND (title ILIKE $` + argN(len(args)) + ` OR description ILIKE $` + argN(len(args)) + `)`
		}
		if filter.Category != "" {
			args = append(args, filter.Category)
			q += ` AND category = $` + argN(len(args))
		}
	}
	q += ` ORDER BY created_at DESC`

	resources := make([]asset.Resource, 0)
	rows, err := repo.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying resources")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var res asset.Resource
		if err = rows.Scan(&res.ID, &res.Title, &res.Description, &res.Category, &res.FileURL, &res.UploadedBy, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning resource")
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func (repo *assetRepository) UpdateResource(ctx context.Context, res asset.Resource) (asset.Resource, error) {
	q := `UPDATE resource SET title = $2, description = $3, category = $4, file_url = $5, updated_at = $6 WHERE id = $1`
	r, err := repo.db.ExecContext(ctx, q, res.ID, res.Title, res.Description, res.Category, res.FileURL, res.UpdatedAt)
	if err != nil {
		return asset.Resource{}, errors.Wrap(err, "updating resource")
	}
	if n, _ := r.RowsAffected(); n == 0 {
		return asset.Resource{}, asset.ErrResourceNotFound
	}
	return res, nil
}

func (repo *assetRepository) DeleteResource(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM resource WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting resource")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return asset.ErrResourceNotFound
	}
	return nil
}

// Inventory

func (repo *assetRepository) CreateInventoryItem(ctx context.Context, item asset.InventoryItem) (asset.InventoryItem, error) {
	q := `
	INSERT INTO inventory_item (name, category, quantity, location, condition, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q,
		item.Name, item.Category, item.Quantity, item.Location, item.Condition, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return asset.InventoryItem{}, errors.Wrap(err, "creating inventory item")
	}
	return item, nil
}

func (repo *assetRepository) GetInventoryItemByID(ctx context.Context, id string) (asset.InventoryItem, error) {
	var item asset.InventoryItem
	q := `SELECT id, name, category, quantity, location, condition, created_at, updated_at FROM inventory_item WHERE id = $1`
	if err := repo.db.QueryRowxContext(ctx, q, id).
		Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Location, &item.Condition, &item.CreatedAt, &item.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return asset.InventoryItem{}, asset.ErrItemNotFound
		}
		return asset.InventoryItem{}, errors.Wrap(err, "getting inventory item")
	}
	return item, nil
}

func (repo *assetRepository) QueryInventory(ctx context.Context, filter *asset.InventoryQueryFilter) ([]asset.InventoryItem, error) {
	q := `SELECT id, name, category, quantity, location, condition, created_at, updated_at FROM inventory_item WHERE 1=1`
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			q += ` AND name ILIKE $` + argN(len(args))
		}
		if filter.Category != "" {
			args = append(args, filter.Category)
			q += ` AND category = $` + argN(len(args))
		}
		if filter.Location != "" {
			args = append(args, filter.Location)
			q += ` AND location = $` + argN(len(args))
		}
		if filter.Condition != "" {
			args = append(args, filter.Condition)
			q += ` AND condition = $` + argN(len(args))
		}
	}
	q += ` ORDER BY name ASC`

	items := make([]asset.InventoryItem, 0)
	rows, err := repo.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying inventory")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var item asset.InventoryItem
		if err = rows.Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Location, &item.Condition, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning inventory item")
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (repo *assetRepository) UpdateInventoryItem(ctx context.Context, item asset.InventoryItem) (asset.InventoryItem, error) {
	q := `UPDATE inventory_item SET name = $2, category = $3, quantity = $4, location = $5, condition = $6, updated_at = $7 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, item.ID, item.Name, item.Category, item.Quantity, item.Location, item.Condition, item.UpdatedAt)
	if err != nil {
		return asset.InventoryItem{}, errors.Wrap(err, "updating inventory item")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return asset.InventoryItem{}, asset.ErrItemNotFound
	}
	return item, nil
}

func (repo *assetRepository) DeleteInventoryItem(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM inventory_item WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting inventory item")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return asset.ErrItemNotFound
	}
	return nil
}
