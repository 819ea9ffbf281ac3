package permission

import "weeklychef/internal/catalog"

type Strategy int

const (
	// StrategyNone families have no single owner: open read, staff-only writes.
	StrategyNone Strategy = iota
	// StrategyDirect rows carry the owner id themselves.
	StrategyDirect
	// StrategyIndirect rows reference a parent row that carries the owner.
	StrategyIndirect
	// StrategyViaSecondary rows reference a secondary parent (e.g. a cart)
	// rather than the primary catalog entity; resolution walks the same chain.
	StrategyViaSecondary
)

func (s Strategy) String() string {
	switch s {
	case StrategyDirect:
		return "direct"
	case StrategyIndirect:
		return "indirect"
	case StrategyViaSecondary:
		return "via_secondary"
	default:
		return "none"
	}
}

// Policy is the static ownership rule for one family.
type Policy struct {
	Family   catalog.Family
	Strategy Strategy

	// OwnerColumn holds the owner id on direct rows.
	OwnerColumn string
	// PayloadField names the create-time field carrying the owner (direct)
	// or the parent id (indirect).
	PayloadField string
	// ParentColumn and Parent describe the hop for indirect rows.
	ParentColumn string
	Parent       catalog.Family

	// GateReads restricts retrieval by id to the owner.
	GateReads bool
	// StaffOnly verbs require staff even for the owner.
	StaffOnly map[Verb]bool
	// Unsupported verbs are not routed for this family. Staff bypass this.
	Unsupported map[Verb]bool
}

func (p Policy) staffOnly(v Verb) bool { return p.StaffOnly[v] }

// Supports reports whether the family offers the verb to regular users.
func (p Policy) Supports(v Verb) bool { return !p.Unsupported[v] }

// Policies is the family dispatch table.
type Policies map[catalog.Family]Policy

func direct(f catalog.Family, gateReads bool) Policy {
	return Policy{Family: f, Strategy: StrategyDirect, OwnerColumn: "user_id", PayloadField: "user", GateReads: gateReads}
}

func viaParent(f catalog.Family, s Strategy, field, column string, parent catalog.Family, gateReads bool) Policy {
	return Policy{Family: f, Strategy: s, PayloadField: field, ParentColumn: column, Parent: parent, GateReads: gateReads}
}

func open(f catalog.Family) Policy {
	return Policy{Family: f, Strategy: StrategyNone}
}

var noUpdate = map[Verb]bool{VerbUpdate: true}

// DefaultPolicies returns the policy table for every catalog family.
func DefaultPolicies() Policies {
	ps := []Policy{
		direct(catalog.Recipe, false),
		direct(catalog.RecipeRating, false),
		direct(catalog.RecipeFavorite, true),
		direct(catalog.Watchlist, true),
		direct(catalog.RecipeCart, true),
		direct(catalog.PreferredFoodShop, true),

		viaParent(catalog.RecipeIngredient, StrategyIndirect, "recipe", "recipe_id", catalog.Recipe, false),
		viaParent(catalog.RecipeTag, StrategyIndirect, "recipe", "recipe_id", catalog.Recipe, false),
		viaParent(catalog.RecipeImage, StrategyIndirect, "recipe", "recipe_id", catalog.Recipe, false),
		viaParent(catalog.RecipeWatchlist, StrategyIndirect, "watchlist", "watchlist_id", catalog.Watchlist, true),

		viaParent(catalog.RecipeCartIngredient, StrategyViaSecondary, "shopping_cart_recipe", "shopping_cart_recipe_id", catalog.RecipeCart, true),

		open(catalog.Unit),
		open(catalog.Tag),
		open(catalog.Ingredient),
		open(catalog.DayTime),
		open(catalog.FoodShop),
		open(catalog.FoodShopArea),
		open(catalog.FoodShopAreaPart),
		open(catalog.FoodShopAreaPartIngredient),
	}

	out := make(Policies, len(ps))
	for _, p := range ps {
		switch p.Family {
		case catalog.RecipeFavorite, catalog.RecipeIngredient, catalog.DayTime:
			// create/read/delete only
			p.Unsupported = noUpdate
		}
		out[p.Family] = p
	}
	return out
}
