package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Field names of the recipe API's meal record.
const (
	fieldID           = "idMeal"
	fieldName         = "strMeal"
	fieldThumbnail    = "strMealThumb"
	fieldCategory     = "strCategory"
	fieldArea         = "strArea"
	fieldInstructions = "strInstructions"
	fieldVideo        = "strYoutube"
	fieldTags         = "strTags"
	fieldSource       = "strSource"
)

// MarshalJSON encodes the recipe in the recipe API's own record shape
// (idMeal, strMeal, ..., strIngredient1..20, strMeasure1..20), so persisted
// cookbook entries can be decoded with the same code as API responses.
func (r Recipe) MarshalJSON() ([]byte, error) {
	pairs := []struct{ key, value string }{
		{fieldID, r.ID},
		{fieldName, r.Name},
		{fieldCategory, r.Category},
		{fieldArea, r.Area},
		{fieldInstructions, r.Instructions},
		{fieldThumbnail, r.Thumbnail},
		{fieldTags, r.Tags},
		{fieldVideo, r.Video},
		{fieldSource, r.Source},
	}
	for i, slot := range r.Slots {
		pairs = append(pairs, struct{ key, value string }{ingredientKey(i + 1), slot.Ingredient})
	}
	for i, slot := range r.Slots {
		pairs = append(pairs, struct{ key, value string }{measureKey(i + 1), slot.Measure})
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a meal record. Missing fields, null values and
// non-string values are treated as blank rather than as errors.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode meal record: %w", err)
	}

	get := func(key string) string { return rawString(raw[key]) }

	out := Recipe{
		ID:           get(fieldID),
		Name:         get(fieldName),
		Thumbnail:    get(fieldThumbnail),
		Category:     get(fieldCategory),
		Area:         get(fieldArea),
		Instructions: get(fieldInstructions),
		Video:        get(fieldVideo),
		Tags:         get(fieldTags),
		Source:       get(fieldSource),
	}
	for i := range out.Slots {
		out.Slots[i] = Slot{
			Ingredient: get(ingredientKey(i + 1)),
			Measure:    get(measureKey(i + 1)),
		}
	}

	*r = out
	return nil
}

// rawString returns the string value of a JSON scalar. Strings are unquoted,
// numbers keep their literal text, everything else (null, objects) is blank.
func rawString(msg json.RawMessage) string {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return ""
	}
	switch msg[0] {
	case '"':
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(msg)
	default:
		return ""
	}
}

func ingredientKey(n int) string { return "strIngredient" + strconv.Itoa(n) }

func measureKey(n int) string { return "strMeasure" + strconv.Itoa(n) }
