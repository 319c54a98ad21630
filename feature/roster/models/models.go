package models

import "time"

// Member is one community member mirrored in the local roster. Handle is the
// primary identity (unique even across deactivated members); RobloxUsername
// and RobloxID link the member to the remote group.
type Member struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Handle         string    `gorm:"size:100;uniqueIndex;not null" json:"handle"`
	RobloxUsername string    `gorm:"size:100" json:"roblox_username"`
	RobloxID       string    `gorm:"size:50" json:"roblox_id"`
	CurrentRank    string    `gorm:"size:100;not null;default:Aspirant" json:"current_rank"`
	JoinDate       time.Time `gorm:"not null" json:"join_date"`
	LastUpdated    time.Time `gorm:"not null" json:"last_updated"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
}

// ActivityLog records one logged activity for a member.
type ActivityLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MemberID     uint      `gorm:"index;not null" json:"member_id"`
	ActivityType string    `gorm:"size:100;not null" json:"activity_type"`
	Description  string    `gorm:"type:text" json:"description"`
	LoggedBy     string    `gorm:"size:100;not null" json:"logged_by"`
	LogDate      time.Time `gorm:"not null" json:"log_date"`
}

// PromotionLog is an append-only audit entry for a rank change. Entries are
// never mutated or deleted.
type PromotionLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	MemberID      uint      `gorm:"index;not null" json:"member_id"`
	FromRank      string    `gorm:"size:100;not null" json:"from_rank"`
	ToRank        string    `gorm:"size:100;not null" json:"to_rank"`
	Reason        string    `gorm:"type:text" json:"reason"`
	PromotedBy    string    `gorm:"size:100;not null" json:"promoted_by"`
	PromotionDate time.Time `gorm:"not null" json:"promotion_date"`
}

// RankMapping maps a local rank to a Roblox group role. Entries are created
// and edited by operators; the sync engine only reads them.
type RankMapping struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SystemRank     string    `gorm:"size:100;uniqueIndex;not null" json:"system_rank"`
	RobloxRoleID   int64     `gorm:"not null" json:"roblox_role_id"`
	RobloxRoleName string    `gorm:"size:100" json:"roblox_role_name"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedDate    time.Time `json:"created_date"`
	LastUpdated    time.Time `json:"last_updated"`
}

// TableName overrides keep the historical table names.
func (Member) TableName() string       { return "members" }
func (ActivityLog) TableName() string  { return "activity_logs" }
func (PromotionLog) TableName() string { return "promotion_logs" }
func (RankMapping) TableName() string  { return "rank_mappings" }

// All returns the model set for schema migration.
func All() []any {
	return []any{&Member{}, &ActivityLog{}, &PromotionLog{}, &RankMapping{}}
}
