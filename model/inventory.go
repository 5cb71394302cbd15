package model

// UserInventory associates a user with an item and a quantity.
// (UserID, ItemID) is the composite primary key; deleting either side removes
// the association.
type UserInventory struct {
	UserID   int64 `gorm:"primaryKey;autoIncrement:false" json:"userID"`
	ItemID   int64 `gorm:"primaryKey;autoIncrement:false;index:idx_inventory_item" json:"itemID"`
	Quantity int   `gorm:"not null;default:0" json:"quantity"`
}

func (UserInventory) TableName() string { return "UserInventory" }
