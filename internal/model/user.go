// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// ProfileType はバックエンドが宣言するユーザーの役割を表す。
type ProfileType string

const (
	// ProfileStudent は生徒プロファイル。ログイン後にアクセス判定の対象となる。
	ProfileStudent ProfileType = "Student"
	// ProfileTeacher は教員プロファイル。
	ProfileTeacher ProfileType = "Teacher"
	// ProfileAdmin は管理者プロファイル。
	ProfileAdmin ProfileType = "Admin"
	// ProfileUnknown はバックエンドが未知の値を返した場合のプロファイル。
	ProfileUnknown ProfileType = ""
)

// ParseProfileType はバックエンドの "profil" 値をProfileTypeに変換する。
// 大文字小文字を区別せず、フランス語表記も受け付ける。
func ParseProfileType(raw string) ProfileType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "student", "etudiant", "étudiant", "eleve", "élève":
		return ProfileStudent
	case "teacher", "enseignant", "professeur":
		return ProfileTeacher
	case "admin", "administrateur":
		return ProfileAdmin
	default:
		return ProfileUnknown
	}
}

// Session はポータルのログインセッションを表す。
// バックエンドのBearerトークン、プロファイル種別、ユーザーIDを保持する。
// 生成後は値として受け渡し、変更しない。
type Session struct {
	ID          string
	UserID      string
	ProfileType ProfileType
	Token       string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// IsStudent は生徒セッションかどうかを返す。
func (s Session) IsStudent() bool {
	return s.ProfileType == ProfileStudent
}

// UserProfile はバックエンドが保持する生徒プロファイル。
type UserProfile struct {
	UserID    string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	GradeID   string
	RegionID  string
}

// HasGrade は学年が設定済みかどうかを返す。
// 学年はコース閲覧の前提条件となる。
func (p *UserProfile) HasGrade() bool {
	return p != nil && strings.TrimSpace(p.GradeID) != ""
}

// SubscriptionStatus はバックエンドが返す現在の購読情報。
// EndDateは "15 septembre 2025" 形式の文字列のまま保持する。
type SubscriptionStatus struct {
	PlanName  string
	StartDate string
	EndDate   string
}

// IsPresent は購読レコードとして有効な値を持つかどうかを返す。
// プラン名または終了日が欠けている場合は購読なしとして扱う。
func (s *SubscriptionStatus) IsPresent() bool {
	return s != nil && strings.TrimSpace(s.PlanName) != "" && strings.TrimSpace(s.EndDate) != ""
}

// ReferenceItem はドロップダウン用の参照データ（学年、地域）の1件。
type ReferenceItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
