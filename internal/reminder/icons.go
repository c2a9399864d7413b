package reminder

var categoryIcons = map[Category]string{
	CategoryFeeding:     "🍼",
	CategorySleep:       "😴",
	CategoryDiaper:      "🧷",
	CategoryHealth:      "🏥",
	CategoryMedication:  "💊",
	CategoryAppointment: "📅",
	CategoryVaccination: "💉",
	CategoryGeneral:     "🔔",
}

// IconFor maps a category to its display glyph. Unknown categories get the general bell.
func IconFor(c Category) string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return categoryIcons[CategoryGeneral]
}

// ParseCategory normalizes free-form input; unknown values fall back to CategoryGeneral.
func ParseCategory(s string) Category {
	c := Category(s)
	if _, ok := categoryIcons[c]; ok {
		return c
	}
	return CategoryGeneral
}
