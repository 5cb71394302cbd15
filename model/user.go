package model

// User is a player record. UserID is allocated by the storage engine.
type User struct {
	UserID   int64  `gorm:"primaryKey;autoIncrement" json:"userID"`
	Username string `gorm:"size:20;not null" json:"username"`
	Health   int    `gorm:"not null" json:"health"`
	Armour   int    `gorm:"not null" json:"armour"`
	Mana     int    `gorm:"not null" json:"mana"`
	Weight   int    `gorm:"not null" json:"weight"`

	Inventory []UserInventory `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "User" }
