package recipe

// MaxSlots is the number of positional ingredient/measure pairs a recipe record carries.
const MaxSlots = 20

// Recipe is a full recipe record as returned by the recipe API.
// Recipes are treated as immutable once fetched.
type Recipe struct {
	// ID is the opaque recipe identifier (idMeal)
	ID string

	// Name is the display name (strMeal)
	Name string

	// Thumbnail is the image URL (strMealThumb)
	Thumbnail string

	// Category is the category label, may be blank (strCategory)
	Category string

	// Area is the cuisine label, may be blank (strArea)
	Area string

	// Instructions is free text, may be blank (strInstructions)
	Instructions string

	// Video is an optional video URL (strYoutube)
	Video string

	// Tags is the raw comma-separated tag string (strTags)
	Tags string

	// Source is an optional link to the original recipe (strSource)
	Source string

	// Slots holds the positional ingredient/measure pairs; Slots[0] is slot 1.
	// Either side may be blank. A blank ingredient means the slot is unused.
	Slots [MaxSlots]Slot
}

// Slot is one positional ingredient/measure pair.
type Slot struct {
	Ingredient string
	Measure    string
}

// Ingredient is a cleaned (name, measure) pair produced by Ingredients.
type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure"`
}

// Summary is the id/name/thumbnail view returned by filter endpoints.
type Summary struct {
	ID        string `json:"idMeal"`
	Name      string `json:"strMeal"`
	Thumbnail string `json:"strMealThumb"`
}

// Category is a recipe grouping exposed by the recipe API.
type Category struct {
	ID          string `json:"idCategory"`
	Name        string `json:"strCategory"`
	Thumbnail   string `json:"strCategoryThumb"`
	Description string `json:"strCategoryDescription"`
}

// WithCategory returns a copy of r with Category set to name when r has none.
func (r Recipe) WithCategory(name string) Recipe {
	if r.Category == "" {
		r.Category = name
	}
	return r
}
