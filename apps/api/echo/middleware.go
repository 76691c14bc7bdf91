package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/cuaderno/core/i18n"
)

const contextLangKey = "lang"

// languageMiddleware stores the language negotiated from Accept-Language (or ?lang=) in the context.
func languageMiddleware(catalog *i18n.Catalog) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			lang := catalog.MatchAcceptLanguage(ctx.Request().Header.Get("Accept-Language"))
			if q := ctx.QueryParam("lang"); q != "" {
				lang = catalog.Resolve(q)
			}
			ctx.Set(contextLangKey, lang)
			return next(ctx)
		}
	}
}

func contextLanguage(ctx echo.Context) string {
	lang, _ := ctx.Get(contextLangKey).(string)
	return lang
}
