package cleaner

import "github.com/starford/tabtidy/internal/report"

// MultiEvents fans every event out to each non-nil e in order.
func MultiEvents(e ...Events) Events {
	var out multiEvents
	for _, x := range e {
		if x != nil {
			out = append(out, x)
		}
	}
	if len(out) == 0 {
		return nopEvents{}
	}
	return out
}

type multiEvents []Events

func (m multiEvents) RunStarted(runID string, total int) {
	for _, e := range m {
		e.RunStarted(runID, total)
	}
}

func (m multiEvents) Progress(runID string, done, total int) {
	for _, e := range m {
		e.Progress(runID, done, total)
	}
}

func (m multiEvents) LinkRemoved(runID string, rec report.DeletionRecord) {
	for _, e := range m {
		e.LinkRemoved(runID, rec)
	}
}

func (m multiEvents) RunFinished(runID string, stats report.RunStats) {
	for _, e := range m {
		e.RunFinished(runID, stats)
	}
}

type nopEvents struct{}

func (nopEvents) RunStarted(string, int)                    {}
func (nopEvents) Progress(string, int, int)                 {}
func (nopEvents) LinkRemoved(string, report.DeletionRecord) {}
func (nopEvents) RunFinished(string, report.RunStats)       {}
