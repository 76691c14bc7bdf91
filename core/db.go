package core

import (
	"context"
	"database/sql"
	"sort"
	"strings"
)

type (
	DBExecutor interface {
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DB interface {
		DBExecutor

		PingContext(ctx context.Context) error
		BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
		Close() error
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// SortBy sorts items in place by the given orderings, applied in order.
// key returns the comparable (case-insensitive) value of a field for the item at index i;
// unknown fields should return "".
func SortBy(n int, swap func(i, j int), key func(i int, field string) string, orderings ...DBOrdering) {
	if len(orderings) == 0 {
		return
	}
	sort.Stable(multiSorter{n: n, swap: swap, less: func(i, j int) bool {
		for _, ord := range orderings {
			ki, kj := strings.ToLower(key(i, ord.Field)), strings.ToLower(key(j, ord.Field))
			if ki == kj {
				continue
			}
			if ord.Ascending {
				return ki < kj
			}
			return ki > kj
		}
		return false
	}})
}

type multiSorter struct {
	n    int
	swap func(i, j int)
	less func(i, j int) bool
}

func (ms multiSorter) Len() int           { return ms.n }
func (ms multiSorter) Swap(i, j int)      { ms.swap(i, j) }
func (ms multiSorter) Less(i, j int) bool { return ms.less(i, j) }
