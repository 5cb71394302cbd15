package model

import "gorm.io/gorm"

// allModels lists every model to be auto-migrated. The identity and user
// tables come first so the child and association tables can reference them.
var allModels = []interface{}{
	&ItemIdentity{},
	&User{},
	&Weapon{},
	&Armour{},
	&QuestItem{},
	&Spell{},
	&HealthConsumable{},
	&ManaConsumable{},
	&UserInventory{},
	&AuditLog{},
}

// AutoMigrate creates or updates all tables in the given database.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(allModels...)
}
