package stars

// RecentWindow is how many of the latest stars the streak display shows.
const RecentWindow = 10

// Milestones are the star counts that light up the streak bar.
var Milestones = []int{3, 5, 7}

// Streak summarizes a run of stars for display.
type Streak struct {
	// Recent holds up to RecentWindow of the latest stars, oldest first.
	Recent []Star
	Total  int
	// Run is the number of consecutive colored stars at the end.
	Run int
	// Reached lists the milestones the total has passed.
	Reached []int
}

// NewStreak builds the streak view of stars, given oldest first.
func NewStreak(ss []Star) Streak {
	st := Streak{Total: len(ss)}

	start := 0
	if len(ss) > RecentWindow {
		start = len(ss) - RecentWindow
	}
	st.Recent = append([]Star(nil), ss[start:]...)

	for i := len(ss) - 1; i >= 0 && ss[i].Type.Colored(); i-- {
		st.Run++
	}
	for _, m := range Milestones {
		if st.Total >= m {
			st.Reached = append(st.Reached, m)
		}
	}
	return st
}

// NextMilestone returns the next milestone above count, or 0 once every
// milestone has been passed.
func NextMilestone(count int) int {
	for _, m := range Milestones {
		if m > count {
			return m
		}
	}
	return 0
}

// CrossedMilestone returns the milestone hit when the count moves from
// before to after, or 0 when none was crossed.
func CrossedMilestone(before, after int) int {
	for _, m := range Milestones {
		if before < m && after >= m {
			return m
		}
	}
	return 0
}
