package learning

import (
	"time"
)

// LearningProgress mirrors the learning module's completion rows. This
// service only reads it: completed counts feed the compliance score.
type LearningProgress struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	CitizenID          *string    `gorm:"type:varchar(36);index" json:"citizen_id,omitempty"`
	WorkerID           *string    `gorm:"type:varchar(36);index" json:"worker_id,omitempty"`
	LearningMaterialID uint       `gorm:"not null;index" json:"learning_material_id"`
	CompletedAt        *time.Time `gorm:"index" json:"completed_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (LearningProgress) TableName() string {
	return "learning_progress"
}
