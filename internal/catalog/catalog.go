package catalog

import (
	"fmt"
	"sort"
)

// Family tags a class of persisted rows sharing one ownership rule.
// The value doubles as the route slug.
type Family string

const (
	Recipe                     Family = "recipe"
	RecipeIngredient           Family = "recipe-ingredient"
	RecipeTag                  Family = "recipe-tag"
	RecipeImage                Family = "recipe-image"
	RecipeRating               Family = "recipe-rating"
	RecipeFavorite             Family = "recipe-favorite"
	Watchlist                  Family = "watchlist"
	RecipeWatchlist            Family = "recipe-watchlist"
	RecipeCart                 Family = "recipe-cart"
	RecipeCartIngredient       Family = "recipe-cart-ingredient"
	PreferredFoodShop          Family = "preferred-food-shop"
	Unit                       Family = "unit"
	Tag                        Family = "tag"
	Ingredient                 Family = "ingredient"
	DayTime                    Family = "day-time"
	FoodShop                   Family = "food-shop"
	FoodShopArea               Family = "food-shop-area"
	FoodShopAreaPart           Family = "food-shop-area-part"
	FoodShopAreaPartIngredient Family = "food-shop-area-part-ingredient"
)

func (f Family) Slug() string { return string(f) }

// Table describes where a family lives and which fields a client may write.
// Columns maps JSON field name to SQL column name.
type Table struct {
	Family  Family
	Name    string
	Columns map[string]string
}

// ColumnFor returns the SQL column for a JSON field.
func (t Table) ColumnFor(field string) (string, bool) {
	col, ok := t.Columns[field]
	return col, ok
}

// Fields returns the writable JSON fields in a stable order.
func (t Table) Fields() []string {
	out := make([]string, 0, len(t.Columns))
	for f := range t.Columns {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ColumnValues maps a decoded JSON payload onto writable columns.
// Unknown fields are dropped.
func (t Table) ColumnValues(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for field, v := range payload {
		if col, ok := t.Columns[field]; ok {
			out[col] = v
		}
	}
	return out
}

var tables = map[Family]Table{
	Recipe: {Family: Recipe, Name: "recipe", Columns: map[string]string{
		"recipe_name":          "recipe_name",
		"person_count":         "person_count",
		"prep_description":     "prep_description",
		"cooking_duration_min": "cooking_duration_min",
		"user":                 "user_id",
	}},
	RecipeIngredient: {Family: RecipeIngredient, Name: "recipe_ingredient", Columns: map[string]string{
		"recipe":        "recipe_id",
		"ingredient":    "ingredient_id",
		"unit_quantity": "unit_quantity",
	}},
	RecipeTag: {Family: RecipeTag, Name: "recipe_tag", Columns: map[string]string{
		"recipe": "recipe_id",
		"tag":    "tag_id",
	}},
	RecipeImage: {Family: RecipeImage, Name: "recipe_image", Columns: map[string]string{
		"recipe":     "recipe_id",
		"image_path": "image_path",
	}},
	RecipeRating: {Family: RecipeRating, Name: "recipe_rating", Columns: map[string]string{
		"user":   "user_id",
		"recipe": "recipe_id",
		"rating": "rating",
	}},
	RecipeFavorite: {Family: RecipeFavorite, Name: "recipe_favorite", Columns: map[string]string{
		"user":   "user_id",
		"recipe": "recipe_id",
	}},
	Watchlist: {Family: Watchlist, Name: "watchlist", Columns: map[string]string{
		"watchlist_name": "watchlist_name",
		"user":           "user_id",
	}},
	RecipeWatchlist: {Family: RecipeWatchlist, Name: "recipe_watchlist", Columns: map[string]string{
		"watchlist": "watchlist_id",
		"recipe":    "recipe_id",
	}},
	RecipeCart: {Family: RecipeCart, Name: "recipe_cart", Columns: map[string]string{
		"user":        "user_id",
		"date":        "date",
		"day_time":    "day_time_id",
		"recipe_name": "recipe_name",
		"food_shop":   "food_shop_id",
	}},
	RecipeCartIngredient: {Family: RecipeCartIngredient, Name: "recipe_cart_ingredient", Columns: map[string]string{
		"shopping_cart_recipe": "shopping_cart_recipe_id",
		"ingredient":           "ingredient_id",
		"buy_unit_quantity":    "buy_unit_quantity",
		"is_buyed":             "is_buyed",
	}},
	PreferredFoodShop: {Family: PreferredFoodShop, Name: "preferred_user_food_shop", Columns: map[string]string{
		"user":      "user_id",
		"food_shop": "food_shop_id",
	}},
	Unit: {Family: Unit, Name: "unit", Columns: map[string]string{
		"unit_name": "unit_name",
	}},
	Tag: {Family: Tag, Name: "tag", Columns: map[string]string{
		"tag_name": "tag_name",
	}},
	Ingredient: {Family: Ingredient, Name: "ingredient", Columns: map[string]string{
		"ingredient_name":         "ingredient_name",
		"default_price":           "default_price",
		"ingredient_display_name": "ingredient_display_name",
		"quantity_per_unit":       "quantity_per_unit",
		"unit":                    "unit_id",
		"is_spices":               "is_spices",
		"search_description":      "search_description",
	}},
	DayTime: {Family: DayTime, Name: "day_time", Columns: map[string]string{
		"day_time_name": "day_time_name",
	}},
	FoodShop: {Family: FoodShop, Name: "food_shop", Columns: map[string]string{
		"shop_name":    "shop_name",
		"address":      "address",
		"zip_code":     "zip_code",
		"city":         "city",
		"shop_comment": "shop_comment",
	}},
	FoodShopArea: {Family: FoodShopArea, Name: "food_shop_area", Columns: map[string]string{
		"food_shop":         "food_shop_id",
		"area_name":         "area_name",
		"area_order_number": "area_order_number",
	}},
	FoodShopAreaPart: {Family: FoodShopAreaPart, Name: "food_shop_area_part", Columns: map[string]string{
		"area":                   "area_id",
		"area_part_name":         "area_part_name",
		"area_part_order_number": "area_part_order_number",
	}},
	FoodShopAreaPartIngredient: {Family: FoodShopAreaPartIngredient, Name: "food_shop_area_part_ingredient", Columns: map[string]string{
		"ingredient":       "ingredient_id",
		"area_part":        "area_part_id",
		"ingredient_price": "ingredient_price",
	}},
}

// Lookup returns the table for a family.
func Lookup(f Family) (Table, error) {
	t, ok := tables[f]
	if !ok {
		return Table{}, fmt.Errorf("catalog: unknown family %q", f)
	}
	return t, nil
}

// MustLookup panics on an unknown family; use only with the constants above.
func MustLookup(f Family) Table {
	t, err := Lookup(f)
	if err != nil {
		panic(err)
	}
	return t
}

// Families lists every registered family ordered by slug.
func Families() []Family {
	out := make([]Family, 0, len(tables))
	for f := range tables {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
