package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar is a tracker of the progress, such as the simulated slots
// of a run.
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// MoveInProgressToFinished reduces the number of in progress item by a certain
// amount and increase the finished item by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

// Update sets the number of finished elements.
func (b *ProgressBar) Update(finished uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished = finished
}

// Percent returns the finished fraction of the bar.
func (b *ProgressBar) Percent() float64 {
	b.Lock()
	defer b.Unlock()

	if b.Total == 0 {
		return 0
	}

	return float64(b.Finished) / float64(b.Total)
}
