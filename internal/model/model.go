package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&Transition{},
	&FrameStats{},
}

// Session is one watcher run.
type Session struct {
	ID             uuid.UUID      `json:"id" gorm:"type:varchar(36);primaryKey"`
	StartTime      time.Time      `json:"startTime" gorm:"index:idx_session_start"`
	EndTime        sql.NullTime   `json:"endTime"`
	Source         string         `json:"source" gorm:"size:16"`
	Host           string         `json:"host" gorm:"size:127"`
	Version        string         `json:"version" gorm:"size:64"`
	YawThreshold   float64        `json:"yawThreshold"`
	PitchThreshold float64        `json:"pitchThreshold"`
	MinIntervalMs  int64          `json:"minIntervalMs"`
	Settings       datatypes.JSON `json:"settings"`
}

func (*Session) TableName() string {
	return "gaze_sessions"
}

// Transition is an emitted state change notification.
type Transition struct {
	ID           uint       `json:"id" gorm:"primarykey;autoIncrement"`
	SessionID    uuid.UUID  `json:"sessionId" gorm:"type:varchar(36);index:idx_transition_session"`
	Time         time.Time  `json:"time" gorm:"index:idx_transition_time"`
	FrameSeq     uint64     `json:"frameSeq"`
	Message      string     `json:"message" gorm:"size:16"`
	LookingAway  bool       `json:"lookingAway"`
	FaceDetected bool       `json:"faceDetected"`
	Yaw          float64    `json:"yaw"`
	NoseRelative float64    `json:"noseRelative"`
	NoseTip      geom.Point `json:"noseTip" gorm:"type:bytes"`
}

func (*Transition) TableName() string {
	return "transitions"
}

// FrameStats aggregates one stats window.
type FrameStats struct {
	ID           uint      `json:"id" gorm:"primarykey;autoIncrement"`
	SessionID    uuid.UUID `json:"sessionId" gorm:"type:varchar(36);index:idx_framestats_session"`
	WindowStart  time.Time `json:"windowStart" gorm:"index:idx_framestats_start"`
	WindowEnd    time.Time `json:"windowEnd"`
	Frames       uint32    `json:"frames"`
	Faceless     uint32    `json:"faceless"`
	Away         uint32    `json:"away"`
	Suppressed   uint32    `json:"suppressed"`
	DetectErrors uint32    `json:"detectErrors"`
	FPS          float64   `json:"fps"`
}

func (*FrameStats) TableName() string {
	return "frame_stats"
}
