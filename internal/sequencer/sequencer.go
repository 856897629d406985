package sequencer

import (
	"fmt"
	"time"

	"github.com/SamuelRomaoF/lanchonete-oficial/internal/domain"
)

const dateLayout = "2006-01-02"

// DefaultPrefix is the ticket series a brand-new queue starts on.
const DefaultPrefix = "A"

// Sequencer decides when the daily ticket series rolls over and hands
// out the next ticket in the current series. It mutates the QueueState
// it is given and never touches storage; the queue service persists the
// state and serializes calls.
type Sequencer struct {
	loc *time.Location
	now func() time.Time
}

func New(loc *time.Location) *Sequencer {
	if loc == nil {
		loc = time.Local
	}
	return &Sequencer{loc: loc, now: time.Now}
}

// Today is the current calendar date in the establishment's time zone.
func (s *Sequencer) Today() string {
	return s.now().In(s.loc).Format(dateLayout)
}

// CheckAndResetForNewDay rotates the series when the calendar date has
// moved past lastResetDate. A process that slept across several
// midnights still resets only once, straight to today. A state that has
// never been reset (empty lastResetDate) just adopts today without
// rotating, so a cold start does not burn a prefix.
func (s *Sequencer) CheckAndResetForNewDay(st *domain.QueueState) bool {
	today := s.Today()
	if st.LastResetDate == today {
		return false
	}
	if st.LastResetDate == "" {
		st.LastResetDate = today
		return false
	}
	st.CurrentPrefix = NextPrefix(st.CurrentPrefix)
	st.CurrentNumber = 1
	st.LastResetDate = today
	return true
}

// NextTicket assigns the next number in the current series. Callers
// must have run CheckAndResetForNewDay in the same request cycle.
func (s *Sequencer) NextTicket(st *domain.QueueState) (prefix string, number int) {
	if st.CurrentPrefix == "" {
		st.CurrentPrefix = DefaultPrefix
	}
	if st.CurrentNumber < 1 {
		st.CurrentNumber = 1
	}
	number = st.CurrentNumber
	st.CurrentNumber++
	return st.CurrentPrefix, number
}

// FormatTicket renders the human-facing ticket shown on the queue display.
func FormatTicket(prefix string, number int) string {
	return fmt.Sprintf("%s%d", prefix, number)
}

// NextPrefix cycles the series letter A..Z, wrapping back to A. Anything
// that is not a single uppercase letter restarts the cycle.
func NextPrefix(cur string) string {
	if cur == "Z" {
		return DefaultPrefix
	}
	if len(cur) != 1 || cur[0] < 'A' || cur[0] > 'Z' {
		return DefaultPrefix
	}
	return string(cur[0] + 1)
}
