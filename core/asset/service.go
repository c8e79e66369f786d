package asset

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
)

var (
	// errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrItemNotFound     = errors.New("inventory item not found")
)

type Service struct {
	repo   Repository
	logger core.Logger
}

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Resources

func (svc *Service) CreateResource(ctx context.Context, uploadedBy string, nr NewResource) (Resource, error) {
	now := time.Now().UTC()
	return svc.repo.CreateResource(ctx, Resource{
		Title:       nr.Title,
		Description: nr.Description,
		Category:    nr.Category,
		FileURL:     nr.FileURL,
		UploadedBy:  uploadedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) GetResource(ctx context.Context, id string) (Resource, error) {
	return svc.repo.GetResourceByID(ctx, id)
}

func (svc *Service) QueryResources(ctx context.Context, filter *ResourceQueryFilter) ([]Resource, error) {
	return svc.repo.QueryResources(ctx, filter)
}

func (svc *Service) UpdateResource(ctx context.Context, id string, nr NewResource) (Resource, error) {
	res, err := svc.repo.GetResourceByID(ctx, id)
	if err != nil {
		return Resource{}, err
	}
	res.Title = nr.Title
	res.Description = nr.Description
	res.Category = nr.Category
	res.FileURL = nr.FileURL
	res.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateResource(ctx, res)
}

func (svc *Service) DeleteResource(ctx context.Context, id string) error {
	return svc.repo.DeleteResource(ctx, id)
}

// Inventory

func (svc *Service) CreateInventoryItem(ctx context.Context, ni NewInventoryItem) (InventoryItem, error) {
	now := time.Now().UTC()
	return svc.repo.CreateInventoryItem(ctx, InventoryItem{
		Name:      ni.Name,
		Category:  ni.Category,
		Quantity:  ni.Quantity,
		Location:  ni.Location,
		Condition: ni.Condition,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetInventoryItem(ctx context.Context, id string) (InventoryItem, error) {
	return svc.repo.GetInventoryItemByID(ctx, id)
}

func (svc *Service) QueryInventory(ctx context.Context, filter *InventoryQueryFilter) ([]InventoryItem, error) {
	return svc.repo.QueryInventory(ctx, filter)
}

func (svc *Service) UpdateInventoryItem(ctx context.Context, id string, ui UpdateInventoryItem) (InventoryItem, error) {
	item, err := svc.repo.GetInventoryItemByID(ctx, id)
	if err != nil {
		return InventoryItem{}, err
	}
	if ui.Name != "" {
		item.Name = ui.Name
	}
	if ui.Category != "" {
		item.Category = ui.Category
	}
	if ui.Quantity != 0 {
		item.Quantity = ui.Quantity
	}
	if ui.Location != "" {
		item.Location = ui.Location
	}
	if ui.Condition != "" {
		item.Condition = ui.Condition
	}
	item.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateInventoryItem(ctx, item)
}

func (svc *Service) DeleteInventoryItem(ctx context.Context, id string) error {
	return svc.repo.DeleteInventoryItem(ctx, id)
}
