package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core/asset"
	"github.com/tmalache/chuo/core/user"
)

type assetApi struct {
	svc *asset.Service
}

func registerAssetAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *asset.Service) {
	api := assetApi{svc: svc}
	admin := tierMiddleware(user.TierAdmin)
	faculty := tierMiddleware(user.TierFaculty)

	rg := g.Group("/resources", jwt)
	rg.POST("", api.createResource, faculty)
	rg.GET("", api.queryResources)
	rg.GET("/:id", api.retrieveResource)
	rg.PUT("/:id", api.updateResource, faculty)
	rg.DELETE("/:id", api.destroyResource, faculty)

	ig := g.Group("/inventory", jwt, admin)
	ig.POST("", api.createItem)
	ig.GET("", api.queryInventory)
	ig.GET("/:id", api.retrieveItem)
	ig.PUT("/:id", api.updateItem)
	ig.DELETE("/:id", api.destroyItem)
}

// Resources

func (api *assetApi) createResource(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data asset.NewResource
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResource")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	res, err := api.svc.CreateResource(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating resource")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *assetApi) queryResources(ctx echo.Context) error {
	filter := new(asset.ResourceQueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []asset.Resource{})
	}
	filter.Clean()

	resources, err := api.svc.QueryResources(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying resources")
	}
	if resources == nil {
		resources = []asset.Resource{}
	}
	return ctx.JSON(http.StatusOK, resources)
}

func (api *assetApi) retrieveResource(ctx echo.Context) error {
	res, err := api.svc.GetResource(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *assetApi) updateResource(ctx echo.Context) error {
	var data asset.NewResource
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResource")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	res, err := api.svc.UpdateResource(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *assetApi) destroyResource(ctx echo.Context) error {
	if err := api.svc.DeleteResource(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Inventory

func (api *assetApi) createItem(ctx echo.Context) error {
	var data asset.NewInventoryItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInventoryItem")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	item, err := api.svc.CreateInventoryItem(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating inventory item")
	}
	return ctx.JSON(http.StatusCreated, item)
}

func (api *assetApi) queryInventory(ctx echo.Context) error {
	filter := new(asset.InventoryQueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []asset.InventoryItem{})
	}
	filter.Clean()

	items, err := api.svc.QueryInventory(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying inventory")
	}
	if items == nil {
		items = []asset.InventoryItem{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *assetApi) retrieveItem(ctx echo.Context) error {
	item, err := api.svc.GetInventoryItem(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, item)
}

func (api *assetApi) updateItem(ctx echo.Context) error {
	var data asset.UpdateInventoryItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInventoryItem")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	item, err := api.svc.UpdateInventoryItem(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, item)
}

func (api *assetApi) destroyItem(ctx echo.Context) error {
	if err := api.svc.DeleteInventoryItem(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
