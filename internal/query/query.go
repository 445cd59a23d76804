// Package query turns raw list-endpoint query parameters into a validated
// mongo query: filter, sort, projection and skip/limit pagination. Building is
// lazy; nothing here touches the database.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultPage  = int64(1)
	DefaultLimit = int64(100)
)

// control keys shape the query instead of filtering documents.
var controlKeys = map[string]struct{}{
	"page":   {},
	"sort":   {},
	"limit":  {},
	"fields": {},
}

// comparison operators rewritten into mongo's native syntax.
var operators = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

// Options is a fully-specified collection query, ready to hand to the driver.
type Options struct {
	Filter     bson.M
	Sort       bson.D
	Projection bson.M
	Page       int64
	Skip       int64
	Limit      int64
}

// Build composes the four stages over the raw parameters. hiddenFields are
// excluded from the default projection when the caller selects nothing.
func Build(params url.Values, hiddenFields ...string) Options {
	opts := Options{
		Filter:     buildFilter(params),
		Sort:       buildSort(params.Get("sort")),
		Projection: buildProjection(params.Get("fields"), hiddenFields),
	}

	opts.Page = parsePositive(params.Get("page"), DefaultPage)
	opts.Limit = parsePositive(params.Get("limit"), DefaultLimit)
	opts.Skip = (opts.Page - 1) * opts.Limit

	return opts
}

func buildFilter(params url.Values) bson.M {
	filter := bson.M{}

	for key, values := range params {
		if len(values) == 0 {
			continue
		}

		field, op, hasOp := splitOperator(key)

		if _, ok := controlKeys[field]; ok {
			continue
		}

		value := coerceValue(values[0])

		if !hasOp {
			filter[field] = value
			continue
		}

		mongoOp, ok := operators[op]

		if !ok {
			// Unknown operator suffix: drop the parameter rather than
			// forwarding arbitrary keys to the database.
			continue
		}

		sub, ok := filter[field].(bson.M)

		if !ok {
			sub = bson.M{}
			filter[field] = sub
		}

		sub[mongoOp] = value
	}

	return filter
}

// splitOperator recognises the bracket form "price[gte]".
func splitOperator(key string) (field, op string, ok bool) {
	open := strings.IndexByte(key, '[')

	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, "", false
	}

	return key[:open], key[open+1 : len(key)-1], true
}

// coerceValue maps the lexical form onto a bson-comparable type. The document
// store compares numbers numerically only when they arrive as numbers.
func coerceValue(raw string) interface{} {
	if raw == "true" {
		return true
	}

	if raw == "false" {
		return false
	}

	if num, err := strconv.ParseFloat(raw, 64); err == nil {
		return num
	}

	return raw
}

func buildSort(spec string) bson.D {
	sort := bson.D{}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)

		if part == "" {
			continue
		}

		dir := 1

		if strings.HasPrefix(part, "-") {
			dir = -1
			part = part[1:]
		}

		if part != "" {
			sort = append(sort, bson.E{Key: part, Value: dir})
		}
	}

	if len(sort) == 0 {
		// Deterministic default so pagination is stable.
		sort = bson.D{{Key: "createdAt", Value: -1}}
	}

	// _id tiebreaker keeps page boundaries stable under equal sort keys.
	sort = append(sort, bson.E{Key: "_id", Value: 1})

	return sort
}

func buildProjection(spec string, hiddenFields []string) bson.M {
	include := bson.M{}
	exclude := bson.M{}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)

		if part == "" {
			continue
		}

		if strings.HasPrefix(part, "-") {
			if name := part[1:]; name != "" {
				exclude[name] = 0
			}
			continue
		}

		include[part] = 1
	}

	// Mongo rejects mixed projections; explicit selections win. The _id field
	// rides along with every inclusion projection by default.
	if len(include) > 0 {
		return include
	}

	if len(exclude) > 0 {
		return exclude
	}

	if len(hiddenFields) == 0 {
		return nil
	}

	for _, name := range hiddenFields {
		exclude[name] = 0
	}

	return exclude
}

// parsePositive clamps malformed or non-positive paging input to the default
// instead of letting junk drive the skip/limit arithmetic.
func parsePositive(raw string, fallback int64) int64 {
	if raw == "" {
		return fallback
	}

	n, err := strconv.ParseInt(raw, 10, 64)

	if err != nil || n < 1 {
		return fallback
	}

	return n
}
