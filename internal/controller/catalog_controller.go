package controller

import (
	"wellbeing_dashboard/internal/service"
	"wellbeing_dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

type CatalogController struct {
	Catalog *service.CatalogService
}

func NewCatalogController(catalog *service.CatalogService) *CatalogController {
	return &CatalogController{Catalog: catalog}
}

func (c *CatalogController) ListTests(ctx *gin.Context) {
	catalog, err := c.Catalog.Tests(requestContext(ctx))
	if err != nil {
		writeFetchError(ctx, err)
		return
	}
	util.Success(ctx, catalog)
}

func (c *CatalogController) GetTest(ctx *gin.Context) {
	detail, err := c.Catalog.TestDetail(requestContext(ctx), ctx.Param("testId"))
	if err != nil {
		writeFetchError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}
