// Package tui renders harvest progress as an interactive terminal UI.
//
// The model is fed by an Observer that translates harvester progress
// hooks into bubbletea messages, delivered through Program.Send so they
// may originate from any goroutine.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/repotrawl/repotrawl/internal/core/domain"
	"github.com/repotrawl/repotrawl/internal/core/ports/driving"
)

// PlanMsg reports the finished partitioning pass.
type PlanMsg struct {
	TotalCount int
	Partitions int
}

// BatchMsg reports one fetched and persisted partition.
type BatchMsg struct {
	Batch domain.ResultBatch
}

// CloneMsg reports one clone attempt.
type CloneMsg struct {
	FullName string
	Path     string
	Err      error
}

// DoneMsg reports a finished run.
type DoneMsg struct {
	Summary *domain.HarvestSummary
}

// ErrMsg reports a run that stopped on an error.
type ErrMsg struct {
	Err error
}

// Sender is the slice of tea.Program the observer needs. Program.Send
// is safe to call from any goroutine.
type Sender interface {
	Send(msg tea.Msg)
}

// Ensure Observer implements the interface.
var _ driving.HarvestObserver = (*Observer)(nil)

// Observer forwards harvester progress to a running program.
type Observer struct {
	p Sender
}

// NewObserver creates an observer feeding the given program.
func NewObserver(p Sender) *Observer {
	return &Observer{p: p}
}

// OnPlan forwards the partitioning result.
func (o *Observer) OnPlan(totalCount int, partitions []domain.Partition) {
	o.p.Send(PlanMsg{TotalCount: totalCount, Partitions: len(partitions)})
}

// OnBatch forwards one fetched partition.
func (o *Observer) OnBatch(batch domain.ResultBatch) {
	o.p.Send(BatchMsg{Batch: batch})
}

// OnClone forwards one clone attempt.
func (o *Observer) OnClone(repo domain.Repository, path string, err error) {
	o.p.Send(CloneMsg{FullName: repo.FullName, Path: path, Err: err})
}
