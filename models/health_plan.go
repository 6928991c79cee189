package models

import "time"

// HealthPlan is a user's diet plan. Plans are written elsewhere; this
// service only reads the most recently created row per user.
type HealthPlan struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"size:450;index" json:"userId"`

	// Medical condition / health status
	Condition string `gorm:"size:500" json:"condition,omitempty"`

	// Full plan text
	PlanText string `gorm:"size:2000" json:"planText,omitempty"`

	// Semi-structured daily target, e.g. "2180 kcal; 66g P; 72g F; 311g C"
	NutritionTarget string `gorm:"size:500" json:"nutritionTarget,omitempty"`

	// Foods the plan encourages
	RecommendedFoods string `gorm:"size:1000" json:"recommendedFoods,omitempty"`

	Duration  string    `gorm:"size:200" json:"duration,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
