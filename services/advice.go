package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"foodvision-backend/models"
)

// defaultCalorieTarget is used when the plan's nutrition target string
// cannot be parsed.
const defaultCalorieTarget = 2000

// parseCalorieTarget extracts the daily kcal figure from a target string
// of the shape "2180 kcal; 66g P; 72g F; 311g C".
func parseCalorieTarget(target string) int {
	if target == "" {
		return defaultCalorieTarget
	}
	parts := strings.Split(target, ";")
	if len(parts) == 0 {
		return defaultCalorieTarget
	}
	head := strings.TrimSpace(strings.ReplaceAll(parts[0], "kcal", ""))
	parsed, err := strconv.Atoi(head)
	if err != nil || parsed <= 0 {
		// a zero target would divide the score away
		return defaultCalorieTarget
	}
	return parsed
}

// EvaluateSuitability scores the meal against the plan's calorie target
// as round(calories*100/target), clamped at 100. Every over-budget meal
// reports 100; there is no signed overage.
func EvaluateSuitability(calories float64, plan models.HealthPlan) int {
	target := parseCalorieTarget(plan.NutritionTarget)
	score := int(math.Round(calories * 100 / float64(target)))
	if score > 100 {
		return 100
	}
	return score
}

// GenerateAdvice builds the user-facing advice line, branching on whether
// the meal stays within the remaining calorie budget.
func GenerateAdvice(foodName string, calories float64, plan models.HealthPlan) string {
	target := parseCalorieTarget(plan.NutritionTarget)
	remaining := float64(target) - calories

	if remaining >= 0 {
		hint := ""
		if plan.RecommendedFoods != "" {
			hint = "Nên ăn những thức ăn được khuyến khích."
		}
		return fmt.Sprintf("✓ Bữa ăn %s này phù hợp với phác đồ của bạn. Calories: %.0f/%d. Còn lại: %.0f kcal. %s",
			foodName, calories, target, remaining, hint)
	}
	return fmt.Sprintf("⚠ Bữa ăn %s này vượt quá mục tiêu calo của bạn. Calories: %.0f/%d. Bạn sẽ vượt %.0f kcal. Xem xét ăn bữa ăn nhẹ hơn.",
		foodName, calories, target, math.Abs(remaining))
}

// GenerateSuggestions maps a suitability score into one of four fixed
// recommendation tiers, evaluated top-down.
func GenerateSuggestions(suitabilityScore int) string {
	switch {
	case suitabilityScore > 90:
		return "Bữa ăn này rất phù hợp! Hãy tiếp tục duy trì chế độ ăn uống lành mạnh."
	case suitabilityScore > 70:
		return "Bữa ăn này tương đối phù hợp. Bạn có thể tăng thêm rau xanh để cân bằng hơn."
	case suitabilityScore > 50:
		return "Bữa ăn này có chứa nhiều calo. Hãy chia nhỏ phần ăn hoặc luyện tập thêm."
	default:
		return "Bữa ăn này không phù hợp với phác đồ hiện tại. Xem xét chọn các thực phẩm thay thế lành mạnh hơn."
	}
}
