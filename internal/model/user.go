// Package model はドメインモデルを定義する。
package model

import "time"

// User はライブ授業を閲覧するユーザーを表す。
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session はユーザーのログインセッションを表す。
// 発行と更新は外部の認証サブシステムが行い、本アプリは参照のみを行う。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
