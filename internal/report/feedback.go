package report

import (
	"fmt"
	"strings"

	"github.com/benvon/daily-journal/internal/models"
)

const rule = "__________________________"

// MoodFeedback maps a weekly mood average to its feedback line
func MoodFeedback(avg float64) string {
	switch {
	case avg >= 7.5:
		return "😄 You had an outstanding week with excellent mood!\nKeep spreading the positivity!"
	case avg >= 5.5:
		return "😊 You had a positive week. Keep striving for happiness."
	case avg >= 3.5:
		return "😐 You had average mood. Ups and downs happen.\nFocus on the positive moments."
	case avg >= 1.5:
		return "😔 Challenging week. Take some time for self-care and reflection."
	default:
		return "😢 Tough week. Remember to prioritize self-care and seek support if needed."
	}
}

// TaskFeedback maps a completion rate in [0,1] to its feedback line
func TaskFeedback(rate float64) string {
	switch {
	case rate == 1.0:
		return "🌟 Great job! You completed all your tasks for this week. Keep it up!"
	case rate >= 0.8:
		return "👏 Well done! You completed most of your tasks for this week. Keep striving for excellence."
	case rate >= 0.5:
		return "🚀 Good effort! You completed more than half of your tasks this week. Keep improving!"
	case rate > 0:
		return "👍 You made progress! Continue working on completing your tasks for better results."
	default:
		return "🚧 No tasks completed yet this week. Time to get started and make progress!"
	}
}

// HabitFeedback maps a commitment percentage to its feedback line
func HabitFeedback(pct float64) string {
	switch {
	case pct == 100:
		return "🌟 You're absolutely committed! Fantastic job on completing all your habits this week. Keep it up!"
	case pct >= 80:
		return "👏 Impressive commitment! You're consistently completing your habits. Keep striving for excellence."
	case pct >= 50:
		return "🚀 Good effort! You're making progress in committing to your habits this week. Keep it up!"
	case pct > 0:
		return "🌱 You're on the right track! Continue working on your habits for better commitment and results."
	default:
		return "🕰️ No habits completed yet this week. It's time to start and make progress towards your habits!"
	}
}

// SatisfactionFeedback maps a weekly rating average to its feedback line
func SatisfactionFeedback(avg float64) string {
	switch {
	case avg >= 6.5:
		return "🌟 Overall, you had an exceptional week with consistently high satisfaction levels. Well done!"
	case avg >= 4.5:
		return "😊 Overall, a positive week with moments of satisfaction. Keep up the good work!"
	case avg >= 3.5:
		return "🙂 Overall, your week had a mix of ups and downs, resulting in moderate satisfaction."
	case avg >= 1.5:
		return "😐 Overall, there were challenges in your week, leading to varied satisfaction levels. Reflect and adapt."
	default:
		return "😔 Overall, it appears to have been a tough week with lower satisfaction. Take time for self-care and regroup."
	}
}

// MoodAverage averages mood scores over the buckets; a bucket without a mood counts 0.
// ok is false when there are no buckets.
func MoodAverage(buckets []*models.CounterBucket) (avg float64, ok bool) {
	if len(buckets) == 0 {
		return 0, false
	}
	total := 0
	for _, b := range buckets {
		if b.MoodScore != nil {
			total += *b.MoodScore
		}
	}
	return float64(total) / float64(len(buckets)), true
}

// MoodReport renders the mood report, or "" when the average is at most 0.1
func MoodReport(buckets []*models.CounterBucket) string {
	avg, ok := MoodAverage(buckets)
	if !ok || avg <= 0.1 {
		return ""
	}
	return fmt.Sprintf("Mood Report:\n%s\n%s", rule, MoodFeedback(avg))
}

// TasksReport renders the tasks report, or "" when no task was created
func TasksReport(buckets []*models.CounterBucket) string {
	completed, total := 0, 0
	for _, b := range buckets {
		completed += b.CompletedTasks
		total += b.TaskCounter
	}
	if total == 0 {
		return ""
	}
	rate := float64(completed) / float64(total)
	return fmt.Sprintf("Tasks Report:\n%s\nYou completed %d tasks out of %d tasks this week.\n\n%s",
		rule, completed, total, TaskFeedback(rate))
}

// HabitsReport renders the habits report. The denominator is the user's current
// habit count times the number of days with a bucket, which overstates weeks in
// which habits were added late.
func HabitsReport(buckets []*models.CounterBucket, habitCount int) string {
	possible := habitCount * len(buckets)
	if possible == 0 {
		return ""
	}
	completed := 0
	for _, b := range buckets {
		completed += b.CompletedHabits
	}
	pct := float64(completed) / float64(possible) * 100

	var sb strings.Builder
	fmt.Fprintf(&sb, "Habits Report:\n%s\n", rule)
	fmt.Fprintf(&sb, "Commitment: %.2f%%\n\n", pct)
	fmt.Fprintf(&sb, "You completed %d commits out of %d possible commits toward your habits this week.\n", completed, possible)
	fmt.Fprintf(&sb, "\n\n%s", HabitFeedback(pct))
	return sb.String()
}

// BestDay returns the highest rated day; ties go to the earliest date
func BestDay(ratings []*models.Rating) (*models.Rating, bool) {
	var best *models.Rating
	for _, r := range ratings {
		if best == nil || r.Score > best.Score || (r.Score == best.Score && r.Day.Before(best.Day)) {
			best = r
		}
	}
	return best, best != nil
}

// SatisfactionReport renders the satisfaction report, or "" without ratings
func SatisfactionReport(ratings []*models.Rating) string {
	best, ok := BestDay(ratings)
	if !ok {
		return ""
	}
	total := 0
	for _, r := range ratings {
		total += r.Score
	}
	avg := float64(total) / float64(len(ratings))
	return fmt.Sprintf("Satisfaction Report of the Week:\n%s\nAverage satisfaction rating for the week: %.2f\nMost satisfied day: %s with a rating of %d\n\n%s",
		rule, avg, best.Day.Time().Format("02-01-2006"), best.Score, SatisfactionFeedback(avg))
}
