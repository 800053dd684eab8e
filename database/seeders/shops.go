package seeders

import (
	"context"
	"time"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/app/repositories"
	"github.com/quickkiraana/kiraana/pkg/apperr"
)

func init() {
	Register("shops", SeedShops)
}

// DemoPassword is the password of every seeded shop.
const DemoPassword = "kiraana123"

var demoShops = []models.Shop{
	{Name: "Ravi Kumar", Email: "ravi@kiraana.test", Phone: "9000000001", ShopName: "Ravi General Store", Pincode: "474001"},
	{Name: "Meena Sharma", Email: "meena@kiraana.test", Phone: "9000000002", ShopName: "Meena Kirana", Pincode: "474001"},
	{Name: "Arjun Patel", Email: "arjun@kiraana.test", Phone: "9000000003", ShopName: "Patel Provisions", Pincode: "560001"},
}

// SeedShops creates the demo shops, skipping any whose email exists.
func SeedShops(ctx context.Context, stores repositories.Stores) error {
	now := time.Now().UTC()
	for _, d := range demoShops {
		_, err := stores.Shops.FindByEmail(ctx, d.Email)
		if err == nil {
			continue
		}
		if apperr.KindOf(err) != apperr.NotFound {
			return err
		}

		shop := d
		shop.ID = models.NewShopID()
		shop.CreatedAt, shop.UpdatedAt = now, now
		if err := shop.SetPassword(DemoPassword); err != nil {
			return err
		}
		if err := stores.Shops.Create(ctx, &shop); err != nil {
			return err
		}
	}
	return nil
}
