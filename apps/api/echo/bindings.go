package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/cuaderno/core"
	"github.com/trezcool/cuaderno/core/planner"
)

var (
	orderingParam = "ordering"
	dateParam     = "date"

	errRemoteUnreachable = echo.NewHTTPError(http.StatusServiceUnavailable, "remote backend unreachable")
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// queryDate reads the ?date= query param, defaulting to today.
func queryDate(ctx echo.Context) (time.Time, error) {
	val := strings.TrimSpace(ctx.QueryParam(dateParam))
	if val == "" {
		return planner.Today(), nil
	}
	date, err := planner.ParseDate(val)
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.NewFieldError(dateParam, core.ISODateText))
	}
	return date, nil
}

// SuccessResponse is returned by operations that have nothing else to say.
type SuccessResponse struct {
	Success string `json:"success"`
}
