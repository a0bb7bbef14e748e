package repos

import (
	"gorm.io/gorm"

	"github.com/ironpoint/steeltrack-backend/internal/data/repos/projects"
	"github.com/ironpoint/steeltrack-backend/internal/data/repos/tracking"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
)

type ProjectRepo = projects.ProjectRepo

type PieceMarkRepo = tracking.PieceMarkRepo
type PieceMarkQuery = tracking.PieceMarkQuery
type DeliveryRepo = tracking.DeliveryRepo
type DeliveryItemRepo = tracking.DeliveryItemRepo
type CrewAssignmentRepo = tracking.CrewAssignmentRepo
type ActivityLogRepo = tracking.ActivityLogRepo
type ActivityQuery = tracking.ActivityQuery

func NewProjectRepo(db *gorm.DB, log *logger.Logger) ProjectRepo {
	return projects.NewProjectRepo(db, log)
}

func NewPieceMarkRepo(db *gorm.DB, log *logger.Logger) PieceMarkRepo {
	return tracking.NewPieceMarkRepo(db, log)
}

func NewDeliveryRepo(db *gorm.DB, log *logger.Logger) DeliveryRepo {
	return tracking.NewDeliveryRepo(db, log)
}

func NewDeliveryItemRepo(db *gorm.DB, log *logger.Logger) DeliveryItemRepo {
	return tracking.NewDeliveryItemRepo(db, log)
}

func NewCrewAssignmentRepo(db *gorm.DB, log *logger.Logger) CrewAssignmentRepo {
	return tracking.NewCrewAssignmentRepo(db, log)
}

func NewActivityLogRepo(db *gorm.DB, log *logger.Logger) ActivityLogRepo {
	return tracking.NewActivityLogRepo(db, log)
}
