package consumable

import (
	"errors"
	"slices"

	"github.com/hectorgimenez/d2go/pkg/data"
	"github.com/hectorgimenez/d2go/pkg/data/item"
)

var (
	ErrInvalidRegion    = errors.New("invalid image region")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrUnknownKind      = errors.New("unknown consumable kind")
)

// PotionKind is the visual classification of a single belt slot.
type PotionKind int

const (
	Empty PotionKind = iota
	Rejuv
	Health
	Mana
)

// Kind is the canonical key of the need ledger.
type Kind string

const (
	KindRejuv      Kind = "rejuv"
	KindHealth     Kind = "health"
	KindMana       Kind = "mana"
	KindTownPortal Kind = "tp"
	KindIdentify   Kind = "id"
	KindKey        Kind = "key"
)

var (
	kinds          = []Kind{KindRejuv, KindHealth, KindMana, KindTownPortal, KindIdentify, KindKey}
	potionKinds    = []Kind{KindRejuv, KindHealth, KindMana}
	stackableKinds = []Kind{KindTownPortal, KindIdentify, KindKey}
)

// Kinds lists every ledger key in canonical order.
func Kinds() []Kind {
	return slices.Clone(kinds)
}

// PotionKinds is the fixed order used when filling empty belt columns.
func PotionKinds() []Kind {
	return slices.Clone(potionKinds)
}

// StackableKinds are resolved from the inventory instead of the belt.
func StackableKinds() []Kind {
	return slices.Clone(stackableKinds)
}

func (k Kind) Valid() bool {
	switch k {
	case KindRejuv, KindHealth, KindMana, KindTownPortal, KindIdentify, KindKey:
		return true
	}

	return false
}

func (k Kind) IsPotion() bool {
	return k == KindRejuv || k == KindHealth || k == KindMana
}

func (p PotionKind) String() string {
	switch p {
	case Rejuv:
		return "rejuv"
	case Health:
		return "health"
	case Mana:
		return "mana"
	}

	return "empty"
}

// Consumable returns the ledger key for a potion kind, false for Empty.
func (p PotionKind) Consumable() (Kind, bool) {
	switch p {
	case Rejuv:
		return KindRejuv, true
	case Health:
		return KindHealth, true
	case Mana:
		return KindMana, true
	}

	return "", false
}

// PotionKind returns the belt slot classification of a potion key, Empty for anything else.
func (k Kind) PotionKind() PotionKind {
	switch k {
	case KindRejuv:
		return Rejuv
	case KindHealth:
		return Health
	case KindMana:
		return Mana
	}

	return Empty
}

// ParsePotionType reads a potion ledger key ("rejuv", "health" or "mana") as a d2go potion type.
func ParsePotionType(s string) (data.PotionType, bool) {
	switch Kind(s) {
	case KindRejuv:
		return data.RejuvenationPotion, true
	case KindHealth:
		return data.HealingPotion, true
	case KindMana:
		return data.ManaPotion, true
	}

	return "", false
}

// FromPotionType maps a d2go potion type to its ledger key.
func FromPotionType(pt data.PotionType) (Kind, bool) {
	switch pt {
	case data.RejuvenationPotion:
		return KindRejuv, true
	case data.HealingPotion:
		return KindHealth, true
	case data.ManaPotion:
		return KindMana, true
	}

	return "", false
}

// Pickit tokens and d2go item names
var items = map[string]Kind{
	"misc_rejuvenation_potion":      KindRejuv,
	"misc_full_rejuvenation_potion": KindRejuv,
	"misc_super_healing_potion":     KindHealth,
	"misc_greater_healing_potion":   KindHealth,
	"misc_super_mana_potion":        KindMana,
	"misc_greater_mana_potion":      KindMana,
	"misc_scroll_of_town_portal":    KindTownPortal,
	"misc_scroll_of_identify":       KindIdentify,
	"misc_key":                      KindKey,

	"RejuvenationPotion":            KindRejuv,
	"FullRejuvenationPotion":        KindRejuv,
	"SuperHealingPotion":            KindHealth,
	"GreaterHealingPotion":          KindHealth,
	"SuperManaPotion":               KindMana,
	"GreaterManaPotion":             KindMana,
	string(item.ScrollOfTownPortal): KindTownPortal,
	string(item.ScrollOfIdentify):   KindIdentify,
	string(item.Key):                KindKey,
}

// Resolve returns the ledger key for an identifier. Canonical tokens resolve to themselves.
func Resolve(identifier string) (Kind, bool) {
	if k := Kind(identifier); k.Valid() {
		return k, true
	}
	k, found := items[identifier]

	return k, found
}
