// Package domain defines shared domain constants, types and MongoDB repositories.
package domain

const (
	// RoleAdmin is granted to the operator configured with ADMIN_TELEGRAM_ID.
	RoleAdmin = "ADMIN"
	// RoleUser is the default role assigned on first login.
	RoleUser = "USER"
)
