package domain

import "time"

// Targets holds the nutrition goals a user has configured.
type Targets struct {
	CalorieTarget *int `bson:"calorie_target,omitempty" json:"calorieTarget,omitempty"`
}

// User is an account created on first Telegram login.
type User struct {
	ID               string    `bson:"_id" json:"id"`
	TelegramID       int64     `bson:"telegram_id" json:"telegramId"`
	Name             string    `bson:"name" json:"name"`
	TelegramUsername string    `bson:"telegram_username" json:"telegramUsername"`
	PhotoURL         string    `bson:"photo_url" json:"photoUrl"`
	LanguageCode     string    `bson:"language_code,omitempty" json:"languageCode,omitempty"`
	Role             string    `bson:"role" json:"role"`
	Targets          *Targets  `bson:"targets,omitempty" json:"targets,omitempty"`
	CreatedAt        time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updatedAt"`
	LastLoginAt      time.Time `bson:"last_login_at" json:"lastLoginAt"`
}

// CalorieTarget returns the configured daily calorie goal, or nil when unset.
func (u User) CalorieTarget() *int {
	if u.Targets == nil {
		return nil
	}
	return u.Targets.CalorieTarget
}
