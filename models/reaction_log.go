package models

import "time"

// ReactionLog ist ein Journal-Eintrag für eine an das Modell gestellte Vorhersage.
type ReactionLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	Query   string `json:"query" gorm:"not null"`
	Outcome string `json:"outcome" gorm:"index;not null"`

	Formula     string `json:"formula,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Emoji       string `json:"emoji,omitempty"`

	Model     string `json:"model,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Raw       string `json:"raw,omitempty" gorm:"type:text"`
	Error     string `json:"error,omitempty" gorm:"type:text"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (ReactionLog) TableName() string {
	return "reaction_logs"
}
