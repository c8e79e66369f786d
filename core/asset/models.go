package asset

import (
	"context"
	"time"

	"github.com/tmalache/chuo/core"
)

// Resource is a shared learning resource (library links, papers, guides)
// visible to every authenticated principal.
type Resource struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	FileURL     string    `json:"file_url"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// Inventory item conditions.
const (
	ConditionNew      = "New"
	ConditionGood     = "Good"
	ConditionDamaged  = "Damaged"
	ConditionDisposed = "Disposed"
)

// InventoryItem is a tracked physical asset. Admin only.
type InventoryItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Quantity  int       `json:"quantity"`
	Location  string    `json:"location"`
	Condition string    `json:"condition"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Repository interface {
	CreateResource(ctx context.Context, res Resource) (Resource, error)
	GetResourceByID(ctx context.Context, id string) (Resource, error)
	// QueryResources applies AND on available filter fields.
	QueryResources(ctx context.Context, filter *ResourceQueryFilter) ([]Resource, error)
	UpdateResource(ctx context.Context, res Resource) (Resource, error)
	DeleteResource(ctx context.Context, id string) error

	CreateInventoryItem(ctx context.Context, item InventoryItem) (InventoryItem, error)
	GetInventoryItemByID(ctx context.Context, id string) (InventoryItem, error)
	QueryInventory(ctx context.Context, filter *InventoryQueryFilter) ([]InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, item InventoryItem) (InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, id string) error
}

// NewResource contains information needed to share a Resource.
type NewResource struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	FileURL     string `json:"file_url" validate:"required,url"`
}

func (nr *NewResource) Validate() error {
	nr.Title = core.CleanString(nr.Title)
	nr.Description = core.CleanString(nr.Description)
	nr.Category = core.CleanString(nr.Category)
	return core.Validate.Struct(nr)
}

// NewInventoryItem contains information needed to track an InventoryItem.
type NewInventoryItem struct {
	Name      string `json:"name" validate:"required"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Location  string `json:"location"`
	Condition string `json:"condition"`
}

func (ni *NewInventoryItem) Validate() error {
	ni.Name = core.CleanString(ni.Name)
	ni.Category = core.CleanString(ni.Category)
	ni.Location = core.CleanString(ni.Location)
	ni.Condition = core.CleanString(ni.Condition)
	if ni.Condition == "" {
		ni.Condition = ConditionGood
	}
	return core.Validate.Struct(ni)
}

// UpdateInventoryItem defines what may change on an existing item.
type UpdateInventoryItem struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=0"`
	Location  string `json:"location"`
	Condition string `json:"condition"`
}

func (ui *UpdateInventoryItem) Validate() error {
	ui.Name = core.CleanString(ui.Name)
	ui.Category = core.CleanString(ui.Category)
	ui.Location = core.CleanString(ui.Location)
	ui.Condition = core.CleanString(ui.Condition)
	return core.Validate.Struct(ui)
}

// ResourceQueryFilter is an exact-match conjunction; absent fields are
// not constrained.
type ResourceQueryFilter struct {
	Search   string `query:"search"`
	Category string `query:"category"`
}

func (qf *ResourceQueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category)
}

type InventoryQueryFilter struct {
	Search    string `query:"search"`
	Category  string `query:"category"`
	Location  string `query:"location"`
	Condition string `query:"condition"`
}

func (qf *InventoryQueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category)
	qf.Location = core.CleanString(qf.Location)
	qf.Condition = core.CleanString(qf.Condition)
}
