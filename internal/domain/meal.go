package domain

import "time"

// Meal types.
const (
	MealBreakfast = "BREAKFAST"
	MealLunch     = "LUNCH"
	MealDinner    = "DINNER"
	MealSnack     = "SNACK"
)

// MealItem is a single food entry with its nutrition facts.
type MealItem struct {
	ID                 string   `bson:"id" json:"id"`
	MealID             string   `bson:"meal_id" json:"mealId"`
	Name               string   `bson:"name" json:"name"`
	AmountGrams        float64  `bson:"amount_grams" json:"amountGrams"`
	Calories           float64  `bson:"calories" json:"calories"`
	Protein            float64  `bson:"protein" json:"protein"`
	Fat                float64  `bson:"fat" json:"fat"`
	Carbs              float64  `bson:"carbs" json:"carbs"`
	SaturatedFat       float64  `bson:"saturated_fat" json:"saturatedFat"`
	PolyunsaturatedFat float64  `bson:"polyunsaturated_fat" json:"polyunsaturatedFat"`
	MonounsaturatedFat float64  `bson:"monounsaturated_fat" json:"monounsaturatedFat"`
	Cholesterol        float64  `bson:"cholesterol" json:"cholesterol"`
	Sodium             float64  `bson:"sodium" json:"sodium"`
	Potassium          float64  `bson:"potassium" json:"potassium"`
	Fiber              float64  `bson:"fiber" json:"fiber"`
	Sugar              float64  `bson:"sugar" json:"sugar"`
	VitaminA           float64  `bson:"vitamin_a" json:"vitaminA"`
	VitaminC           float64  `bson:"vitamin_c" json:"vitaminC"`
	Calcium            float64  `bson:"calcium" json:"calcium"`
	Iron               float64  `bson:"iron" json:"iron"`
	TransFat           *float64 `bson:"trans_fat,omitempty" json:"transFat"`
	AddedSugars        *float64 `bson:"added_sugars,omitempty" json:"addedSugars"`
	VitaminD           *float64 `bson:"vitamin_d,omitempty" json:"vitaminD"`
}

// Meal groups the items eaten at one time.
type Meal struct {
	ID            string     `bson:"_id" json:"id"`
	UserID        string     `bson:"user_id" json:"userId"`
	Type          string     `bson:"type" json:"type"`
	Timestamp     time.Time  `bson:"timestamp" json:"timestamp"`
	Description   string     `bson:"description" json:"description"`
	TotalCalories float64    `bson:"total_calories" json:"totalCalories"`
	TotalProtein  float64    `bson:"total_protein" json:"totalProtein"`
	TotalFat      float64    `bson:"total_fat" json:"totalFat"`
	TotalCarbs    float64    `bson:"total_carbs" json:"totalCarbs"`
	Items         []MealItem `bson:"items" json:"items"`
	CreatedAt     time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updatedAt"`
}
