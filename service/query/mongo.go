package query

/*
	Description:
		Package `query` provides interface for querying mongo db
		This pachage is basicly nothing but wrap https://github.com/mongodb/mongo-go-driver
		so please read document at following link for any detail
		https://godoc.org/go.mongodb.org/mongo-driver/mongo
*/

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/domain"
)

var (
	// ErrNotFound is mongo document not found error
	ErrNotFound = fmt.Errorf("document not found")

	// ErrDuplicateKey is an error when violating unique index
	ErrDuplicateKey = fmt.Errorf("duplicate key")

	// ErrCollScan is error for unindexed query
	ErrCollScan = fmt.Errorf("COLLSCAN is not allowed")
)

// Index describes one index to ensure on a table.
type Index struct {
	Keys   bson.D
	Unique bool
}

// Mongo abstract the mongo layer.
type Mongo interface {
	// EnsureIndexes creates indexes that do not exist yet
	EnsureIndexes(context ctx.Ctx, table domain.Table, indexes ...Index) error

	// Insert inserts a new document to the table.
	// Return ErrDuplicateKey if a unique index is violated
	Insert(context ctx.Ctx, table domain.Table, insert interface{}) error

	// FindOne get data from the table
	FindOne(context ctx.Ctx, table domain.Table, query, result interface{}) error

	// Upsert replaces the entry matching selector, or inserts it.
	Upsert(context ctx.Ctx, table domain.Table, selector, update interface{}) error

	// Search sort order by `sort` argument (ex "timestamp" ascending, or "-timestamp" descending)
	// if `sort` is "", the sort action is skipped, and the MongoDB does not guarantee the order of query results.
	// limit 0 means no limit
	Search(context ctx.Ctx, table domain.Table, offset, limit int, sort string, query, results interface{}) error

	// Patch $set an entry, if the selector not exist, return ErrNotFound.
	Patch(context ctx.Ctx, table domain.Table, selector, update interface{}) error

	// PatchAndFind $set an entry and decodes the updated document into result.
	// Return ErrNotFound if selector does not match any documents
	PatchAndFind(context ctx.Ctx, table domain.Table, selector, update, result interface{}) error

	// CustomPatch patch an entry with customized mongo update operators
	// Return ErrNotFound if selector does not match any documents
	CustomPatch(context ctx.Ctx, table domain.Table, selector, update bson.M) error

	// Ping checks the server is reachable
	Ping(context ctx.Ctx) error
}
