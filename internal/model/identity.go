// internal/model/identity.go
package model

// Identity は認証済みユーザー、または未認証時の端末IDです。
// エンジンは不透明な文字列として扱います。
type Identity struct {
	UserID   string
	DeviceID string
}

// ScopeID はユーザーごとの永続化名前空間
type ScopeID string

func (s ScopeID) String() string {
	return string(s)
}

type ContextKey string

const (
	IdentityKey ContextKey = "identity"
	ScopeIDKey  ContextKey = "scopeID"
)
