package migrations

import (
	"gorm.io/gorm"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/pkg/migration"
)

func init() {
	migration.Register("20240601000000_create_shops_table", &CreateShopsTable{})
	migration.Register("20240601000001_create_orders_table", &CreateOrdersTable{})
}

type CreateShopsTable struct{}

func (m *CreateShopsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Shop{})
}

func (m *CreateShopsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("shops")
}

type CreateOrdersTable struct{}

func (m *CreateOrdersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Order{})
}

func (m *CreateOrdersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("orders")
}
