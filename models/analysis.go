package models

import "time"

// AnalysisRecord is the persisted summary of one completed food-image
// analysis. Records are append-only: there is no update path, only full
// removal together with their ingredient rows.
type AnalysisRecord struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	UserID     string  `gorm:"size:450;not null;index" json:"userId"`
	ImagePath  string  `gorm:"size:500;not null" json:"imagePath"`
	FoodName   string  `gorm:"size:200;not null" json:"foodName"`
	Confidence float64 `json:"confidence"`

	// Macro totals for the whole identified dish
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`

	MealType string `gorm:"size:50" json:"mealType"`
	Reason   string `gorm:"size:500" json:"reason,omitempty"`

	// Suitability against the active plan, 0-100, clamped at 100
	Suitability int    `json:"suitability"`
	Suggestions string `gorm:"size:500" json:"suggestions,omitempty"`
	Advice      string `gorm:"size:500" json:"advice,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	Details []IngredientRecord `gorm:"foreignKey:AnalysisRecordID" json:"details,omitempty"`
}

// IngredientRecord is the per-ingredient breakdown of an analysis. Only
// the primary classifier produces these; the fallback provider never
// reports ingredients.
type IngredientRecord struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	AnalysisRecordID uint    `gorm:"index;not null" json:"analysisRecordId"`
	Label            string  `gorm:"size:200" json:"label"`
	Weight           float64 `json:"weight"` // grams
	Calories         float64 `json:"calories"`
	Protein          float64 `json:"protein"`
	Fat              float64 `json:"fat"`
	Carbs            float64 `json:"carbs"`
	Confidence       float64 `json:"confidence"`
}
