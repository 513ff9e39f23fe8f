package goal

import (
	"math"
	"strconv"
	"time"
)

// Effort is a finished span of tracked time that counts toward goals.
type Effort struct {
	Category string
	When     time.Time
	Hours    float64
}

// Progress reports how far a goal has come in its current period.
type Progress struct {
	GoalID         string  `json:"goalId"`
	TargetHours    float64 `json:"targetHours"`
	CompletedHours float64 `json:"completedHours"`
	Percentage     float64 `json:"percentage"`
	IsCompleted    bool    `json:"isCompleted"`
}

// WeeklyTrend is one bucket of the trailing analytics window.
type WeeklyTrend struct {
	Week           string `json:"week"`
	CompletedGoals int    `json:"completedGoals"`
	TotalGoals     int    `json:"totalGoals"`
}

// Analytics summarizes goal outcomes over a trailing number of weeks.
type Analytics struct {
	TotalGoalsCreated      int           `json:"totalGoalsCreated"`
	CompletedGoals         int           `json:"completedGoals"`
	AverageCompletionRate  float64       `json:"averageCompletionRate"`
	MostProductiveCategory string        `json:"mostProductiveCategory,omitempty"`
	GoalStreak             int           `json:"goalStreak"`
	WeeklyTrends           []WeeklyTrend `json:"weeklyTrends"`
}

// ComputeProgress measures a goal against the efforts that fall inside
// its current period. Goals without a category count every effort;
// categorized goals count only matching efforts.
func ComputeProgress(g Goal, efforts []Effort, now time.Time) Progress {
	start, end := periodBounds(g.Type, now)
	var hours float64
	for _, e := range efforts {
		if g.Category != "" && e.Category != g.Category {
			continue
		}
		if e.When.Before(start) || !e.When.Before(end) {
			continue
		}
		hours += e.Hours
	}
	hours = round2(hours)
	var pct float64
	if g.TargetHours > 0 {
		pct = round1(hours / g.TargetHours * 100)
	}
	return Progress{
		GoalID:         g.ID,
		TargetHours:    g.TargetHours,
		CompletedHours: hours,
		Percentage:     pct,
		IsCompleted:    pct >= 100,
	}
}

// ComputeAnalytics builds the analytics summary for goals created in
// the trailing weeks-long window. Weekly trends run oldest first.
func ComputeAnalytics(goals []Goal, efforts []Effort, weeks int, now time.Time) Analytics {
	windowStart := now.AddDate(0, 0, -weeks*7)
	var recent []Goal
	for _, g := range goals {
		if !g.CreatedAt.Before(windowStart) {
			recent = append(recent, g)
		}
	}

	var completed int
	var totalRate float64
	categoryHours := map[string]float64{}
	for _, g := range recent {
		p := ComputeProgress(g, efforts, now)
		if p.IsCompleted {
			completed++
		}
		totalRate += p.Percentage
		if g.Category != "" {
			categoryHours[g.Category] += p.CompletedHours
		}
	}

	var avg float64
	if len(recent) > 0 {
		avg = round1(totalRate / float64(len(recent)))
	}

	var topCategory string
	var topHours float64
	for category, hours := range categoryHours {
		if hours > topHours {
			topHours = hours
			topCategory = category
		}
	}

	trends := make([]WeeklyTrend, 0, weeks)
	for i := weeks - 1; i >= 0; i-- {
		bucketStart := now.AddDate(0, 0, -(i+1)*7)
		bucketEnd := now.AddDate(0, 0, -i*7)
		trend := WeeklyTrend{Week: weekLabel(i + 1)}
		for _, g := range recent {
			if g.CreatedAt.Before(bucketStart) || !g.CreatedAt.Before(bucketEnd) {
				continue
			}
			trend.TotalGoals++
			if ComputeProgress(g, efforts, now).IsCompleted {
				trend.CompletedGoals++
			}
		}
		trends = append(trends, trend)
	}

	return Analytics{
		TotalGoalsCreated:      len(recent),
		CompletedGoals:         completed,
		AverageCompletionRate:  avg,
		MostProductiveCategory: topCategory,
		GoalStreak:             streak(efforts, now),
		WeeklyTrends:           trends,
	}
}

// streak counts consecutive days ending today with any tracked effort,
// capped at a year.
func streak(efforts []Effort, now time.Time) int {
	days := map[string]bool{}
	for _, e := range efforts {
		days[e.When.UTC().Format("2006-01-02")] = true
	}
	count := 0
	day := now.UTC()
	for count < 365 {
		if !days[day.Format("2006-01-02")] {
			break
		}
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}

// periodBounds returns the current accounting window for a goal type,
// in UTC. Weeks start on Sunday.
func periodBounds(goalType string, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch goalType {
	case TypeWeekly:
		start := today.AddDate(0, 0, -int(today.Weekday()))
		return start, start.AddDate(0, 0, 7)
	case TypeMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	default:
		return today, today.AddDate(0, 0, 1)
	}
}

func weekLabel(n int) string {
	return "Week " + strconv.Itoa(n)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
