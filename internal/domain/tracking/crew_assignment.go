package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ironpoint/steeltrack-backend/internal/domain/project"
)

type CrewStatus string

const (
	CrewScheduled CrewStatus = "scheduled"
	CrewActive    CrewStatus = "active"
	CrewCompleted CrewStatus = "completed"
)

// CrewAssignment associates a set of piece marks with a crew/shift/date
// window. It exists to attribute field activity to a responsible unit; the
// only lifecycle it carries is the scheduled -> active -> completed
// progression.
type CrewAssignment struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_crew_window;index" json:"project_id"`
	Project   *project.Project `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`

	CrewName string    `gorm:"column:crew_name;size:64;not null;uniqueIndex:idx_crew_window" json:"crew_name"`
	Date     time.Time `gorm:"column:date;not null;uniqueIndex:idx_crew_window" json:"date"`
	Shift    string    `gorm:"column:shift;size:16;not null;uniqueIndex:idx_crew_window" json:"shift"`

	CrewSize    int        `gorm:"column:crew_size;not null;default:1" json:"crew_size"`
	Zone        string     `gorm:"column:zone;size:64" json:"zone"`
	LeadActorID uuid.UUID  `gorm:"type:uuid;column:lead_actor_id;not null;index" json:"lead_actor_id"`
	Status      CrewStatus `gorm:"column:status;size:16;not null;default:'scheduled'" json:"status"`

	PieceMarks []PieceMark `gorm:"many2many:crew_assignment_piece_mark" json:"piece_marks,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CrewAssignment) TableName() string { return "crew_assignment" }

func (s CrewStatus) Valid() bool {
	switch s {
	case CrewScheduled, CrewActive, CrewCompleted:
		return true
	default:
		return false
	}
}
