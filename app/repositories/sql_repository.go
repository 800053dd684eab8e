package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/metrics"
)

// SQLOrderRepository stores orders through GORM.
type SQLOrderRepository struct {
	db *gorm.DB
}

func NewSQLOrderRepository(db *gorm.DB) *SQLOrderRepository {
	return &SQLOrderRepository{db: db}
}

func (r *SQLOrderRepository) Create(ctx context.Context, o *models.Order) error {
	defer metrics.ObserveStore("sql", "orders.create", time.Now())
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return apperr.Wrap("create order", err)
	}
	return nil
}

func (r *SQLOrderRepository) FindByID(ctx context.Context, id models.OrderID) (*models.Order, error) {
	defer metrics.ObserveStore("sql", "orders.find", time.Now())
	if !id.Valid() {
		return nil, errOrderNotFound
	}
	var o models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&o).Error
	if err != nil {
		return nil, notFound(err, errOrderNotFound, "find order")
	}
	return &o, nil
}

func (r *SQLOrderRepository) ListByShop(ctx context.Context, shopID models.ShopID) ([]models.Order, error) {
	defer metrics.ObserveStore("sql", "orders.list", time.Now())
	orders := make([]models.Order, 0)
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at desc").Order("id desc").
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Wrap("list orders", err)
	}
	return orders, nil
}

func (r *SQLOrderRepository) LatestByPhone(ctx context.Context, phone string) (*models.Order, error) {
	defer metrics.ObserveStore("sql", "orders.latest_by_phone", time.Now())
	var o models.Order
	err := r.db.WithContext(ctx).
		Where("customer_phone = ?", phone).
		Order("created_at desc").Order("id desc").
		Take(&o).Error
	if err != nil {
		return nil, notFound(err, errOrderNotFound, "find order by phone")
	}
	return &o, nil
}

func (r *SQLOrderRepository) UpdateStatus(ctx context.Context, id models.OrderID, status models.Status, at time.Time) error {
	defer metrics.ObserveStore("sql", "orders.update_status", time.Now())
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": at})
	if res.Error != nil {
		return apperr.Wrap("update order status", res.Error)
	}
	if res.RowsAffected == 0 {
		return errOrderNotFound
	}
	return nil
}

// SQLShopRepository stores shops through GORM.
type SQLShopRepository struct {
	db *gorm.DB
}

func NewSQLShopRepository(db *gorm.DB) *SQLShopRepository {
	return &SQLShopRepository{db: db}
}

func (r *SQLShopRepository) Create(ctx context.Context, s *models.Shop) error {
	defer metrics.ObserveStore("sql", "shops.create", time.Now())
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		if isDuplicate(err) {
			return errDuplicateShop
		}
		return apperr.Wrap("create shop", err)
	}
	return nil
}

func (r *SQLShopRepository) FindByID(ctx context.Context, id models.ShopID) (*models.Shop, error) {
	defer metrics.ObserveStore("sql", "shops.find", time.Now())
	if !id.Valid() {
		return nil, errShopNotFound
	}
	var s models.Shop
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&s).Error; err != nil {
		return nil, notFound(err, errShopNotFound, "find shop")
	}
	return &s, nil
}

func (r *SQLShopRepository) FindByEmail(ctx context.Context, email string) (*models.Shop, error) {
	defer metrics.ObserveStore("sql", "shops.find_by_email", time.Now())
	var s models.Shop
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&s).Error; err != nil {
		return nil, notFound(err, errShopNotFound, "find shop by email")
	}
	return &s, nil
}

func (r *SQLShopRepository) List(ctx context.Context, pincode string) ([]models.Shop, error) {
	defer metrics.ObserveStore("sql", "shops.list", time.Now())
	q := r.db.WithContext(ctx).Order("created_at asc").Order("id asc")
	if pincode != "" {
		q = q.Where("pincode = ?", pincode)
	}
	shops := make([]models.Shop, 0)
	if err := q.Find(&shops).Error; err != nil {
		return nil, apperr.Wrap("list shops", err)
	}
	return shops, nil
}

func (r *SQLShopRepository) Update(ctx context.Context, s *models.Shop) error {
	defer metrics.ObserveStore("sql", "shops.update", time.Now())
	res := r.db.WithContext(ctx).Model(&models.Shop{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"name":       s.Name,
		"email":      s.Email,
		"password":   s.PasswordHash,
		"phone":      s.Phone,
		"shop_name":  s.ShopName,
		"pincode":    s.Pincode,
		"shop_image": s.ShopImage,
		"updated_at": s.UpdatedAt,
	})
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return errDuplicateShop
		}
		return apperr.Wrap("update shop", res.Error)
	}
	if res.RowsAffected == 0 {
		return errShopNotFound
	}
	return nil
}

func notFound(err error, nf *apperr.Error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return apperr.Wrap(op, err)
}

// isDuplicate recognizes unique violations. TranslateError covers the
// dialects that implement it; the message check covers the rest.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
