package mongoclient

import (
	"errors"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"golang.org/x/xerrors"
)

var ErrNotStruct = errors.New("patch is not a struct")

// MakeBsonM turns a patch struct into a $set document keyed by bson tag. Zero values
// and nil pointers are left out, set pointers are stored dereferenced even when they
// point at a zero value.
func MakeBsonM(patchable interface{}) (bson.M, error) {
	val := reflect.Indirect(reflect.ValueOf(patchable))
	if val.Kind() != reflect.Struct {
		return nil, xerrors.Errorf("%w: %T", ErrNotStruct, patchable)
	}

	doc := bson.M{}
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field, sf := val.Field(i), typ.Field(i)
		if !sf.IsExported() || field.IsZero() {
			continue
		}
		tag, err := bsoncodec.DefaultStructTagParser(sf)
		if err != nil {
			return nil, err
		}
		if tag.Skip {
			continue
		}
		if field.Kind() == reflect.Ptr {
			field = field.Elem()
		}
		doc[tag.Name] = field.Interface()
	}
	return doc, nil
}
