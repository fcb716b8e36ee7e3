package scoring

import (
	"fmt"
	"sort"
	"time"

	"interview-scoring-service/internal/domain"
)

const (
	ChartScoreTrend     = "score_trend"
	ChartMetricsBar     = "metrics_bar"
	ChartCategoryRadar  = "category_radar"
	ChartWeeklyActivity = "weekly_activity"
)

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// BuildChart derives a chart series from stored stats. now bounds the weekly window.
func BuildChart(stats domain.UserHistoryStats, chartType string, now time.Time) (domain.ChartData, error) {
	switch chartType {
	case ChartScoreTrend:
		labels := make([]string, 0, len(stats.History))
		data := make([]float64, 0, len(stats.History))
		for _, p := range stats.History {
			labels = append(labels, p.CompletedAt.Format(dateLayout))
			data = append(data, p.Score)
		}
		return chart(chartType, labels, "Overall Score", data), nil

	case ChartMetricsBar:
		labels := make([]string, 0, len(domain.Dimensions))
		data := make([]float64, 0, len(domain.Dimensions))
		for _, dim := range domain.Dimensions {
			labels = append(labels, dim.Label())
			data = append(data, Round1(stats.SkillsBreakdown[dim]))
		}
		return chart(chartType, labels, "Average Score", data), nil

	case ChartCategoryRadar:
		labels := make([]string, 0, len(stats.CategoryScores))
		for category := range stats.CategoryScores {
			labels = append(labels, category)
		}
		sort.Strings(labels)
		data := make([]float64, 0, len(labels))
		for _, category := range labels {
			data = append(data, Round1(stats.CategoryScores[category]))
		}
		return chart(chartType, labels, "Category Performance", data), nil

	case ChartWeeklyActivity:
		counts := make(map[time.Weekday]float64, len(weekdays))
		since := now.Add(-7 * 24 * time.Hour)
		for _, p := range stats.History {
			if p.CompletedAt.Before(since) || p.CompletedAt.After(now) {
				continue
			}
			counts[p.CompletedAt.Weekday()]++
		}
		labels := make([]string, 0, len(weekdays))
		data := make([]float64, 0, len(weekdays))
		for _, day := range weekdays {
			labels = append(labels, day.String()[:3])
			data = append(data, counts[day])
		}
		return chart(chartType, labels, "Sessions", data), nil
	}
	return domain.ChartData{}, fmt.Errorf("%w: %q", domain.ErrUnknownChartType, chartType)
}

func chart(chartType string, labels []string, series string, data []float64) domain.ChartData {
	return domain.ChartData{
		ChartType: chartType,
		Labels:    labels,
		Datasets:  []domain.ChartDataset{{Label: series, Data: data}},
	}
}
