package models

import "goflare.io/storefront/models/enum"

// Identity 代表已登入的使用者身分
type Identity struct {
	UID         string                `json:"uid"`
	Email       string                `json:"email"`
	DisplayName string                `json:"displayName,omitempty"`
	Provider    enum.IdentityProvider `json:"provider"`
}
