package domain

import "slices"

// Stage is the conversation stage of a session.
type Stage string

const (
	StageInitial           Stage = "initial"
	StageNegotiating       Stage = "negotiating"
	StageObjectionHandling Stage = "objection_handling"
	StageClosing           Stage = "closing"
	StageCompleted         Stage = "completed"
	StageCancelled         Stage = "cancelled"
)

var stages = []Stage{
	StageInitial,
	StageNegotiating,
	StageObjectionHandling,
	StageClosing,
	StageCompleted,
	StageCancelled,
}

func Stages() []Stage {
	return slices.Clone(stages)
}

func (s Stage) Valid() bool {
	return slices.Contains(stages, s)
}

// Terminal reports whether no further transitions are allowed.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageCancelled
}

func (s Stage) String() string {
	return string(s)
}
