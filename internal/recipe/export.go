package recipe

// ExportRecord is the simplified recipe shape written to JSON exports
// and read back on import. Video, Tags and Source are not carried, so a
// recipe restored by import has them empty.
type ExportRecord struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	Area         string       `json:"area"`
	Instructions string       `json:"instructions"`
	Thumbnail    string       `json:"thumbnail"`
	Ingredients  []Ingredient `json:"ingredients"`
}

// ToExportRecord converts a recipe to its export form, normalizing ingredients.
func ToExportRecord(r *Recipe) ExportRecord {
	ingredients := Ingredients(r)
	if ingredients == nil {
		ingredients = []Ingredient{}
	}
	return ExportRecord{
		ID:           r.ID,
		Name:         r.Name,
		Category:     r.Category,
		Area:         r.Area,
		Instructions: r.Instructions,
		Thumbnail:    r.Thumbnail,
		Ingredients:  ingredients,
	}
}

// ToRecipe rebuilds a recipe from an export record. Ingredients fill slots in
// order; anything beyond MaxSlots is dropped.
func (e *ExportRecord) ToRecipe() Recipe {
	r := Recipe{
		ID:           e.ID,
		Name:         e.Name,
		Category:     e.Category,
		Area:         e.Area,
		Instructions: e.Instructions,
		Thumbnail:    e.Thumbnail,
	}
	for i, ing := range e.Ingredients {
		if i >= MaxSlots {
			break
		}
		r.Slots[i] = Slot{Ingredient: ing.Name, Measure: ing.Measure}
	}
	return r
}
