// Package registry is the compiled-in catalogue of item variants. Each type tag
// maps to exactly one child table, its field mask and typed storage bindings.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kasuganosora/itemvault/model"
	"gorm.io/gorm"
)

// ErrUnknownTypeTag is returned for a tag outside the enumeration.
var ErrUnknownTypeTag = errors.New("unknown type tag")

// Tag names an item variant.
type Tag string

const (
	Weapon           Tag = "WEAPON"
	Armor            Tag = "ARMOR"
	QuestItem        Tag = "QUEST_ITEM"
	Spell            Tag = "SPELL"
	HealthConsumable Tag = "HEALTH_CONSUMABLE"
	ManaConsumable   Tag = "MANA_CONSUMABLE"
)

// Short codes used by older clients.
var aliases = map[string]Tag{
	"WEP": Weapon,
	"ARM": Armor,
	"QUE": QuestItem,
	"SPL": Spell,
	"HLT": HealthConsumable,
	"MAN": ManaConsumable,
}

// Schema binds a tag to its table and record shape.
type Schema struct {
	Tag        Tag
	Table      string
	Collection string // key used when listing every variant
	Fields     FieldSet

	newRecord func() model.Item
	find      func(tx *gorm.DB, id int64) (model.Item, error)
	findAll   func(tx *gorm.DB) (any, error)
	decode    func(data []byte) (model.Item, error)
}

// New returns an empty record of the variant, usable as a gorm model.
func (s *Schema) New() model.Item { return s.newRecord() }

// Find loads one record by id. It returns gorm.ErrRecordNotFound when absent.
func (s *Schema) Find(tx *gorm.DB, id int64) (model.Item, error) { return s.find(tx, id) }

// FindAll returns every record of the variant as a typed slice ordered by id.
func (s *Schema) FindAll(tx *gorm.DB) (any, error) { return s.findAll(tx) }

// Decode rebuilds a record from its JSON form.
func (s *Schema) Decode(data []byte) (model.Item, error) { return s.decode(data) }

func bind[T any, P interface {
	*T
	model.Item
}](tag Tag, collection string, fields ...Field) *Schema {
	return &Schema{
		Tag:        tag,
		Table:      P(new(T)).TableName(),
		Collection: collection,
		Fields:     FieldSet(fields),
		newRecord:  func() model.Item { return P(new(T)) },
		find: func(tx *gorm.DB, id int64) (model.Item, error) {
			var rec T
			if err := tx.Where("item_id = ?", id).Take(&rec).Error; err != nil {
				return nil, err
			}
			return P(&rec), nil
		},
		findAll: func(tx *gorm.DB) (any, error) {
			rows := make([]T, 0)
			if err := tx.Order("item_id").Find(&rows).Error; err != nil {
				return nil, err
			}
			return rows, nil
		},
		decode: func(data []byte) (model.Item, error) {
			var rec T
			if err := json.Unmarshal(data, &rec); err != nil {
				return nil, err
			}
			return P(&rec), nil
		},
	}
}

var (
	nameField   = Field{Name: "name", Column: "name", Kind: KindString, Required: true, MaxLen: 30}
	weightField = Field{Name: "weight", Column: "weight", Kind: KindInt, Required: true}
	noteField   = Field{Name: "note", Column: "note", Kind: KindString, MaxLen: 150}
	rangedField = Field{Name: "ranged", Column: "ranged", Kind: KindBool, Required: true}
)

func intField(jsonName, column string) Field {
	return Field{Name: jsonName, Column: column, Kind: KindInt, Required: true}
}

// order is the declaration order used by Tags and ListAll.
var order = []Tag{Weapon, Armor, QuestItem, Spell, HealthConsumable, ManaConsumable}

var schemas = map[Tag]*Schema{
	Weapon: bind[model.Weapon](Weapon, "weapons",
		nameField, intField("damage", "damage"), rangedField, weightField, noteField),
	Armor: bind[model.Armour](Armor, "armours",
		nameField, intField("armourValue", "armour_value"), weightField, noteField),
	QuestItem: bind[model.QuestItem](QuestItem, "quest_items",
		nameField, weightField, noteField),
	Spell: bind[model.Spell](Spell, "spells",
		nameField, intField("damage", "damage"), intField("manaCost", "mana_cost"), weightField, noteField),
	HealthConsumable: bind[model.HealthConsumable](HealthConsumable, "health_consumables",
		nameField, intField("healthRestore", "health_restore"), weightField, noteField),
	ManaConsumable: bind[model.ManaConsumable](ManaConsumable, "mana_consumables",
		nameField, intField("manaRegen", "mana_regen"), weightField, noteField),
}

// Tags returns the full enumeration in declaration order.
func Tags() []Tag {
	out := make([]Tag, len(order))
	copy(out, order)
	return out
}

// Parse accepts a canonical tag or a short code, case-insensitively.
func Parse(s string) (Tag, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if _, ok := schemas[Tag(key)]; ok {
		return Tag(key), nil
	}
	if tag, ok := aliases[key]; ok {
		return tag, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTypeTag, s)
}

// Lookup resolves a tag to its schema.
func Lookup(tag Tag) (*Schema, error) {
	s, ok := schemas[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTypeTag, string(tag))
	}
	return s, nil
}

// Valid reports whether tag belongs to the enumeration.
func (t Tag) Valid() bool {
	_, ok := schemas[t]
	return ok
}

// Validate checks a create payload against the variant's fields.
func (s *Schema) Validate(payload map[string]any) (map[string]any, error) {
	return s.Fields.Validate(payload)
}

// Mask filters a partial update down to the variant's writable fields.
func (s *Schema) Mask(partial map[string]any) (map[string]any, error) {
	return s.Fields.Mask(partial)
}
