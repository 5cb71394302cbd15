package model

// IdentityTable is the parent table mapping a shared item id to its type tag.
const IdentityTable = "ItemType"

// Item is implemented by every child-table record.
type Item interface {
	ID() int64
	TableName() string
}

// ItemIdentity is one row of the identity table. Its auto-increment id is the
// single counter every item variant draws from.
//
// The child tables and UserInventory hold the foreign keys; the associations
// below exist only so AutoMigrate creates them, cascading on delete.
type ItemIdentity struct {
	ItemID   int64  `gorm:"primaryKey;autoIncrement" json:"itemID"`
	ItemType string `gorm:"size:32;not null;index:idx_item_type" json:"itemType"`

	Weapon           *Weapon           `gorm:"foreignKey:ItemID;references:ItemID;constraint:OnDelete:CASCADE" json:"-"`
	Armour           *Armour           `gorm:"foreignKey:ItemID;references:ItemID;constraint:OnDelete:CASCADE" json:"-"`
	QuestItem        *QuestItem        `gorm:"foreignKey:ItemID;references:ItemID;constraint:OnDelete:CASCADE" json:"-"`
	Spell            *Spell            `gorm:"foreignKey:ItemID;references:ItemID;constraint:OnDelete:CASCADE" json:"-"`
	HealthConsumable *HealthConsumable `gorm:"foreignKey:ItemID;references:ItemID;constraint:OnDelete:CASCADE" json:"-"`
	ManaConsumable   *ManaConsumable   `gorm:"foreignKey:ItemID;references:ItemID;constraint:OnDelete:CASCADE" json:"-"`
	Holders          []UserInventory   `gorm:"foreignKey:ItemID;references:ItemID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ItemIdentity) TableName() string { return IdentityTable }

// Weapon is the WEAPON variant.
type Weapon struct {
	ItemID int64   `gorm:"primaryKey;autoIncrement:false" json:"itemID"`
	Name   string  `gorm:"size:30;not null" json:"name"`
	Damage int     `gorm:"not null" json:"damage"`
	Ranged bool    `gorm:"not null" json:"ranged"`
	Weight int     `gorm:"not null" json:"weight"`
	Note   *string `gorm:"size:150" json:"note"`
}

func (w *Weapon) ID() int64 { return w.ItemID }
func (Weapon) TableName() string { return "Weapon" }

// Armour is the ARMOR variant.
type Armour struct {
	ItemID      int64   `gorm:"primaryKey;autoIncrement:false" json:"itemID"`
	Name        string  `gorm:"size:30;not null" json:"name"`
	ArmourValue int     `gorm:"not null" json:"armourValue"`
	Weight      int     `gorm:"not null" json:"weight"`
	Note        *string `gorm:"size:150" json:"note"`
}

func (a *Armour) ID() int64 { return a.ItemID }
func (Armour) TableName() string { return "Armour" }

// QuestItem is the QUEST_ITEM variant.
type QuestItem struct {
	ItemID int64   `gorm:"primaryKey;autoIncrement:false" json:"itemID"`
	Name   string  `gorm:"size:30;not null" json:"name"`
	Weight int     `gorm:"not null" json:"weight"`
	Note   *string `gorm:"size:150" json:"note"`
}

func (q *QuestItem) ID() int64 { return q.ItemID }
func (QuestItem) TableName() string { return "QuestItem" }

// Spell is the SPELL variant.
type Spell struct {
	ItemID   int64   `gorm:"primaryKey;autoIncrement:false" json:"itemID"`
	Name     string  `gorm:"size:30;not null" json:"name"`
	Damage   int     `gorm:"not null" json:"damage"`
	ManaCost int     `gorm:"not null" json:"manaCost"`
	Weight   int     `gorm:"not null" json:"weight"`
	Note     *string `gorm:"size:150" json:"note"`
}

func (s *Spell) ID() int64 { return s.ItemID }
func (Spell) TableName() string { return "Spell" }

// HealthConsumable is the HEALTH_CONSUMABLE variant.
type HealthConsumable struct {
	ItemID        int64   `gorm:"primaryKey;autoIncrement:false" json:"itemID"`
	Name          string  `gorm:"size:30;not null" json:"name"`
	HealthRestore int     `gorm:"not null" json:"healthRestore"`
	Weight        int     `gorm:"not null" json:"weight"`
	Note          *string `gorm:"size:150" json:"note"`
}

func (h *HealthConsumable) ID() int64 { return h.ItemID }
func (HealthConsumable) TableName() string { return "HConsumable" }

// ManaConsumable is the MANA_CONSUMABLE variant.
type ManaConsumable struct {
	ItemID    int64   `gorm:"primaryKey;autoIncrement:false" json:"itemID"`
	Name      string  `gorm:"size:30;not null" json:"name"`
	ManaRegen int     `gorm:"not null" json:"manaRegen"`
	Weight    int     `gorm:"not null" json:"weight"`
	Note      *string `gorm:"size:150" json:"note"`
}

func (m *ManaConsumable) ID() int64 { return m.ItemID }
func (ManaConsumable) TableName() string { return "MConsumable" }
