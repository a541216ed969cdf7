package db

import "time"

type RunKind string

const (
	RunKindGather RunKind = "GATHER"
	RunKindCheck  RunKind = "CHECK"
)

// HarvestRun is one audit row per completed gather or check pass.
type HarvestRun struct {
	ID       string    `db:"id"`
	Kind     RunKind   `db:"kind"`
	Started  time.Time `db:"started"`
	Examined int       `db:"examined"`
	Affected int       `db:"affected"`
}
