package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/cuaderno/core/i18n"
)

type CatalogResponse struct {
	Lang     string            `json:"lang"`
	Messages map[string]string `json:"messages"`
}

type i18nApi struct {
	catalog *i18n.Catalog
}

func registerI18nAPI(g *echo.Group, catalog *i18n.Catalog) {
	api := i18nApi{catalog: catalog}

	g.GET("/i18n", api.languages)
	g.GET("/i18n/:lang", api.messages)
}

func (api *i18nApi) languages(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"languages": api.catalog.Languages(),
		"current":   contextLanguage(ctx),
	})
}

// messages serves the whole catalog of a language; unsupported languages get the fallback one.
func (api *i18nApi) messages(ctx echo.Context) error {
	lang, msgs := api.catalog.Messages(ctx.Param("lang"))
	return ctx.JSON(http.StatusOK, CatalogResponse{Lang: lang, Messages: msgs})
}
