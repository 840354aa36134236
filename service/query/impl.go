package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/database/mongoclient"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
)

const (
	queryMaxTime = 20 * time.Second
	slowQuery    = 500 * time.Millisecond
)

var timeNow = time.Now

type impl struct {
	client     *mongoclient.Client
	checkIndex bool
}

// New wraps client. With checkIndex every filtered read is explained first and
// refused when the planner would scan the whole collection.
func New(client *mongoclient.Client, checkIndex bool) Mongo {
	return &impl{client: client, checkIndex: checkIndex}
}

func (im *impl) coll(table domain.Table) *mongo.Collection {
	return im.client.Database(im.client.DbName).Collection(string(table))
}

// op decorates the logger with the call and returns the func that reports it when slow.
func op(c ctx.Ctx, table domain.Table, action string, fields log.Fields) (ctx.Ctx, func()) {
	fields["table"] = table
	fields["action"] = action
	c = ctx.WithLogFields(c, fields)
	start := timeNow()
	return c, func() {
		if elapsed := timeNow().Sub(start); elapsed >= slowQuery {
			c.WithField("durationMs", elapsed.Milliseconds()).Warn("mongo slowlog")
		}
	}
}

func (im *impl) EnsureIndexes(c ctx.Ctx, table domain.Table, indexes ...Index) error {
	if len(indexes) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, len(indexes))
	for i, idx := range indexes {
		models[i] = mongo.IndexModel{Keys: idx.Keys, Options: options.Index().SetUnique(idx.Unique)}
	}
	if _, err := im.coll(table).Indexes().CreateMany(c, models); err != nil {
		c.WithFields(log.Fields{"err": err, "table": table}).Error("Indexes.CreateMany failed")
		return err
	}
	return nil
}

func (im *impl) Insert(c ctx.Ctx, table domain.Table, insert interface{}) error {
	c, done := op(c, table, "insert", log.Fields{})
	defer done()

	if _, err := im.coll(table).InsertOne(c, insert); mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	} else if err != nil {
		c.WithFields(log.Fields{"err": err, "insert": insert}).Error("InsertOne failed")
		return err
	}
	return nil
}

func (im *impl) FindOne(c ctx.Ctx, table domain.Table, query, result interface{}) error {
	c, done := op(c, table, "findOne", log.Fields{"query": query})
	defer done()

	if err := im.checkQueryIndex(c, table, query, nil); err != nil {
		return err
	}
	err := im.coll(table).FindOne(c, query, options.FindOne().SetMaxTime(queryMaxTime)).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	} else if err != nil {
		c.WithField("err", err).Error("FindOne failed")
		return err
	}
	return nil
}

func (im *impl) Upsert(c ctx.Ctx, table domain.Table, selector, update interface{}) error {
	c, done := op(c, table, "upsert", log.Fields{"selector": selector})
	defer done()

	if _, err := im.coll(table).ReplaceOne(c, selector, update, options.Replace().SetUpsert(true)); err != nil {
		c.WithField("err", err).Error("ReplaceOne failed")
		return err
	}
	return nil
}

// sortKeys turns "-createdAt,intentId" into a bson sort document.
func sortKeys(sort string) bson.D {
	res := bson.D{}
	for _, key := range strings.Split(sort, ",") {
		key = strings.TrimSpace(key)
		switch {
		case key == "" || key == "-":
		case key[0] == '-':
			res = append(res, bson.E{Key: key[1:], Value: -1})
		default:
			res = append(res, bson.E{Key: key, Value: 1})
		}
	}
	return res
}

func (im *impl) Search(c ctx.Ctx, table domain.Table, offset, limit int, sort string, query, results interface{}) error {
	c, done := op(c, table, "search", log.Fields{"query": query, "sort": sort})
	defer done()

	order := sortKeys(sort)
	if err := im.checkQueryIndex(c, table, query, order); err != nil {
		return err
	}
	opts := options.Find().SetMaxTime(queryMaxTime).SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if len(order) > 0 {
		opts.SetSort(order)
	}
	cursor, err := im.coll(table).Find(c, query, opts)
	if err != nil {
		c.WithField("err", err).Error("Find failed")
		return err
	}
	defer cursor.Close(c)

	if err := cursor.All(c, results); err != nil {
		c.WithField("err", err).Error("cursor.All failed")
		return err
	}
	return nil
}

func (im *impl) Patch(c ctx.Ctx, table domain.Table, selector, update interface{}) error {
	return im.update(c, table, "patch", selector, bson.M{"$set": update})
}

func (im *impl) CustomPatch(c ctx.Ctx, table domain.Table, selector, update bson.M) error {
	return im.update(c, table, "customPatch", selector, update)
}

func (im *impl) update(c ctx.Ctx, table domain.Table, action string, selector, update interface{}) error {
	c, done := op(c, table, action, log.Fields{"selector": selector})
	defer done()

	res, err := im.coll(table).UpdateOne(c, selector, update)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "update": update}).Error("UpdateOne failed")
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (im *impl) PatchAndFind(c ctx.Ctx, table domain.Table, selector, update, result interface{}) error {
	c, done := op(c, table, "patchAndFind", log.Fields{"selector": selector})
	defer done()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := im.coll(table).FindOneAndUpdate(c, selector, bson.M{"$set": update}, opts).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	} else if err != nil {
		c.WithFields(log.Fields{"err": err, "update": update}).Error("FindOneAndUpdate failed")
		return err
	}
	return nil
}

func (im *impl) Ping(c ctx.Ctx) error {
	return im.client.Ping(c)
}

// checkQueryIndex refuses filtered reads the planner would answer with a COLLSCAN.
// An empty filter is a deliberate full read and is let through.
func (im *impl) checkQueryIndex(c ctx.Ctx, table domain.Table, query interface{}, sort bson.D) error {
	if !im.checkIndex || isEmptyFilter(query) {
		return nil
	}
	find := bson.D{{Key: "find", Value: string(table)}, {Key: "filter", Value: query}}
	if len(sort) > 0 {
		find = append(find, bson.E{Key: "sort", Value: sort})
	}
	var plan bson.M
	err := im.client.Database(im.client.DbName).RunCommand(c, bson.D{
		{Key: "explain", Value: find},
		{Key: "verbosity", Value: "queryPlanner"},
	}).Decode(&plan)
	if err != nil {
		c.WithField("err", err).Warn("explain failed, running query unchecked")
		return nil
	}
	// explain output differs across server versions, so match on its text
	if strings.Contains(fmt.Sprint(plan), "COLLSCAN") {
		c.Warn("query refused: COLLSCAN")
		return ErrCollScan
	}
	return nil
}

func isEmptyFilter(query interface{}) bool {
	if query == nil {
		return true
	}
	v := reflect.ValueOf(query)
	switch v.Kind() {
	case reflect.Map, reflect.Slice:
		return v.Len() == 0
	}
	return false
}
