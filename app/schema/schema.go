// Package schema is the public GraphQL read API: order tracking and the
// shop directory. It exposes the same projections as the REST read paths.
package schema

import (
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/app/services"
	"github.com/quickkiraana/kiraana/pkg/apperr"
	kgraphql "github.com/quickkiraana/kiraana/pkg/graphql"
)

var trackingType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Tracking",
	Fields: graphql.Fields{
		"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"status":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"shopName": &graphql.Field{Type: graphql.String},
	},
})

var shopType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Shop",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":      &graphql.Field{Type: graphql.String},
		"shopName":  &graphql.Field{Type: graphql.String},
		"phone":     &graphql.Field{Type: graphql.String},
		"pincode":   &graphql.Field{Type: graphql.String},
		"shopImage": &graphql.Field{Type: graphql.String},
	},
})

func trackingValue(t models.Tracking) map[string]interface{} {
	return map[string]interface{}{
		"id":       t.ID.String(),
		"status":   string(t.Status),
		"shopName": t.ShopName,
	}
}

func shopValue(s *models.Shop) map[string]interface{} {
	return map[string]interface{}{
		"id":        s.ID.String(),
		"name":      s.Name,
		"shopName":  s.ShopName,
		"phone":     s.Phone,
		"pincode":   s.Pincode,
		"shopImage": s.ShopImage,
	}
}

// clientError keeps internals out of the result's errors list.
func clientError(err error) error {
	return errors.New(apperr.Message(err))
}

// New builds the schema over the tracking and shop services.
func New(tracking *services.TrackingService, shops *services.ShopService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"trackOrder": &graphql.Field{
				Type: trackingType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					t, err := tracking.ByIdentifier(p.Context, models.OrderID(id))
					if err != nil {
						return nil, clientError(err)
					}
					return trackingValue(t), nil
				},
			},
			"trackByPhone": &graphql.Field{
				Type: trackingType,
				Args: graphql.FieldConfigArgument{
					"phone": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					phone, _ := p.Args["phone"].(string)
					t, err := tracking.ByPhone(p.Context, phone)
					if err != nil {
						return nil, clientError(err)
					}
					return trackingValue(t), nil
				},
			},
			"shops": &graphql.Field{
				Type: graphql.NewList(shopType),
				Args: graphql.FieldConfigArgument{
					"pincode": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pincode, _ := p.Args["pincode"].(string)
					list, err := shops.GetShops(p.Context, pincode)
					if err != nil {
						return nil, clientError(err)
					}
					out := make([]map[string]interface{}, 0, len(list))
					for i := range list {
						out = append(out, shopValue(&list[i]))
					}
					return out, nil
				},
			},
			"shop": &graphql.Field{
				Type: shopType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					s, err := shops.GetShopByID(p.Context, models.ShopID(id))
					if err != nil {
						return nil, clientError(err)
					}
					return shopValue(s), nil
				},
			},
		},
	})

	return kgraphql.NewSchema(query)
}
