package models

import "time"

// Order is a customer's request to one shop.
type Order struct {
	ID               OrderID   `gorm:"primaryKey;size:26"           bson:"_id"              json:"id"`
	CustomerName     string    `gorm:"size:255;not null"            bson:"customerName"     json:"customerName"`
	CustomerPhone    string    `gorm:"size:32;not null;index"       bson:"customerPhone"    json:"customerPhone"`
	ShopID           ShopID    `gorm:"column:shop_id;size:26;not null;index" bson:"shopkeeper" json:"shopkeeperId"`
	ItemsDescription string    `gorm:"type:text"                    bson:"itemsDescription" json:"itemsDescription"`
	ImageOfList      string    `gorm:"size:1024"                    bson:"imageOfList"      json:"imageOfList,omitempty"`
	OrderType        OrderType `gorm:"size:16;not null"             bson:"orderType"        json:"orderType"`
	Status           Status    `gorm:"size:32;not null;index"       bson:"status"           json:"status"`
	IsUrgent         bool      `gorm:"not null;default:false"       bson:"isUrgent"         json:"isUrgent"`
	PaymentID        string    `gorm:"size:128"                     bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	CreatedAt        time.Time `gorm:"index"                        bson:"createdAt"        json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DisplayItems is what a shopkeeper sees as the order contents. A photo of
// the list wins over the typed description.
func (o *Order) DisplayItems() string {
	if o.ImageOfList != "" {
		return o.ImageOfList
	}
	return o.ItemsDescription
}

// Tracking is the public view of an order. It carries nothing about the
// customer and nothing about the shop beyond its display name.
type Tracking struct {
	ID       OrderID `json:"id"`
	Status   Status  `json:"status"`
	ShopName string  `json:"shopName"`
}

// Track projects o for a customer.
func (o *Order) Track(shopName string) Tracking {
	return Tracking{ID: o.ID, Status: o.Status, ShopName: shopName}
}
