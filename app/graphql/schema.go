// Package graphql exposes a read-only GraphQL view of the public catalog:
//
//	{ categories { id name products { id title image } } contact { phone } }
package graphql

import (
	"context"
	"errors"
	"sort"

	"github.com/graphql-go/graphql"
	"github.com/samber/lo"

	"github.com/decorhub/decorhub/app/models"
	"github.com/decorhub/decorhub/app/repositories"
	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/logger"
)

// Catalog is the read side of the store.
type Catalog interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategory(ctx context.Context, id uint) (models.Category, bool, error)
	ListProducts(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error)
	FindProduct(ctx context.Context, id uint) (models.Product, bool, error)
	GetContactSettings(ctx context.Context) (models.ContactSettings, bool, error)
}

// Entry is one key/value pair of socialLinks or workingHours.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NewSchema builds the query schema over catalog.
func NewSchema(catalog Catalog) (graphql.Schema, error) {
	r := resolver{catalog: catalog}

	entryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Entry",
		Fields: graphql.Fields{
			"key":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"value": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	productType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"categoryId":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"image":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	categoryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Category",
		Fields: graphql.Fields{
			"id":                  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"name":                &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"mainImage":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"titleTranslationKey": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"products": &graphql.Field{
				Type:    graphql.NewList(productType),
				Resolve: r.categoryProducts,
			},
		},
	})

	contactType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ContactSettings",
		Fields: graphql.Fields{
			"phone":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"address": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"mapUrl":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"socialLinks": &graphql.Field{
				Type: graphql.NewList(entryType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return entries(p.Source.(models.ContactSettings).SocialLinks), nil
				},
			},
			"workingHours": &graphql.Field{
				Type: graphql.NewList(entryType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return entries(p.Source.(models.ContactSettings).WorkingHours), nil
				},
			},
		},
	})

	idArg := graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)}}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"categories": &graphql.Field{Type: graphql.NewList(categoryType), Resolve: r.categories},
			"category":   &graphql.Field{Type: categoryType, Args: idArg, Resolve: r.category},
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"categoryId": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.products,
			},
			"product": &graphql.Field{Type: productType, Args: idArg, Resolve: r.product},
			"contact": &graphql.Field{Type: contactType, Resolve: r.contact},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query})
}

type resolver struct {
	catalog Catalog
}

func (r resolver) categories(p graphql.ResolveParams) (interface{}, error) {
	list, err := r.catalog.ListCategories(p.Context)
	return list, public(p.Context, err)
}

func (r resolver) category(p graphql.ResolveParams) (interface{}, error) {
	id, ok := positiveID(p.Args["id"])
	if !ok {
		return nil, nil
	}
	c, found, err := r.catalog.FindCategory(p.Context, id)
	if err != nil || !found {
		return nil, public(p.Context, err)
	}
	return c, nil
}

func (r resolver) categoryProducts(p graphql.ResolveParams) (interface{}, error) {
	c := p.Source.(models.Category)
	list, err := r.catalog.ListProducts(p.Context, repositories.ProductFilter{CategoryID: c.ID})
	return list, public(p.Context, err)
}

func (r resolver) products(p graphql.ResolveParams) (interface{}, error) {
	var filter repositories.ProductFilter
	if raw, set := p.Args["categoryId"]; set {
		id, ok := positiveID(raw)
		if !ok {
			return []models.Product{}, nil
		}
		filter.CategoryID = id
	}
	list, err := r.catalog.ListProducts(p.Context, filter)
	return list, public(p.Context, err)
}

func (r resolver) product(p graphql.ResolveParams) (interface{}, error) {
	id, ok := positiveID(p.Args["id"])
	if !ok {
		return nil, nil
	}
	prod, found, err := r.catalog.FindProduct(p.Context, id)
	if err != nil || !found {
		return nil, public(p.Context, err)
	}
	return prod, nil
}

func (r resolver) contact(p graphql.ResolveParams) (interface{}, error) {
	cs, found, err := r.catalog.GetContactSettings(p.Context)
	if err != nil || !found {
		return nil, public(p.Context, err)
	}
	return cs, nil
}

func positiveID(v interface{}) (uint, bool) {
	n, ok := v.(int)
	if !ok || n <= 0 {
		return 0, false
	}
	return uint(n), true
}

// public logs err and replaces it with its client-safe message.
func public(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	logger.WithCtx(ctx).Error("graphql: resolve failed", "error", err)
	return errors.New(apperr.PublicMessage(err))
}

func entries(m map[string]string) []Entry {
	out := lo.MapToSlice(m, func(k, v string) Entry { return Entry{Key: k, Value: v} })
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
