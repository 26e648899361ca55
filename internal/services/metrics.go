package services

import (
	"context"

	"github.com/fairwaylabs/swingsense-backend/internal/data/repos"
	"github.com/fairwaylabs/swingsense-backend/internal/domain"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
	"github.com/fairwaylabs/swingsense-backend/internal/scoring"
)

var metricTitles = map[scoring.Metric]string{
	scoring.MetricConfidence:       "Confidence",
	scoring.MetricFocus:            "Focus",
	scoring.MetricStiffness:        "Stiffness",
	scoring.MetricStance:           "Stance",
	scoring.MetricGrip:             "Grip",
	scoring.MetricBallPosition:     "Ball Position",
	scoring.MetricBackswing:        "Backswing",
	scoring.MetricSwingForward:     "Forward Swing",
	scoring.MetricSwingSpeed:       "Swing Speed",
	scoring.MetricShallowing:       "Shallowing",
	scoring.MetricImpactPosition:   "Impact Position",
	scoring.MetricHipRotation:      "Hip Rotation",
	scoring.MetricPacing:           "Pacing",
	scoring.MetricFollowThrough:    "Follow Through",
	scoring.MetricHeadPosition:     "Head Position",
	scoring.MetricShoulderPosition: "Shoulder Position",
	scoring.MetricArmPosition:      "Arm Position",
}

var metricDifficulties = map[scoring.Metric]string{
	scoring.MetricConfidence:       "beginner",
	scoring.MetricFocus:            "beginner",
	scoring.MetricStiffness:        "intermediate",
	scoring.MetricStance:           "beginner",
	scoring.MetricGrip:             "beginner",
	scoring.MetricBallPosition:     "beginner",
	scoring.MetricBackswing:        "intermediate",
	scoring.MetricSwingForward:     "intermediate",
	scoring.MetricSwingSpeed:       "advanced",
	scoring.MetricShallowing:       "advanced",
	scoring.MetricImpactPosition:   "advanced",
	scoring.MetricHipRotation:      "intermediate",
	scoring.MetricPacing:           "beginner",
	scoring.MetricFollowThrough:    "intermediate",
	scoring.MetricHeadPosition:     "beginner",
	scoring.MetricShoulderPosition: "intermediate",
	scoring.MetricArmPosition:      "intermediate",
}

// DefaultMetricDescriptors builds the seed rows for the full metric set,
// weights taken from the frozen production table.
func DefaultMetricDescriptors() []*domain.MetricDescriptor {
	weights := scoring.DefaultWeights()
	rows := make([]*domain.MetricDescriptor, 0, len(scoring.AllMetrics()))
	for _, m := range scoring.AllMetrics() {
		category, _ := scoring.CategoryOf(m)
		rows = append(rows, &domain.MetricDescriptor{
			Key:        string(m),
			Title:      metricTitles[m],
			Category:   string(category),
			Difficulty: metricDifficulties[m],
			Weighting:  weights.Of(m),
		})
	}
	return rows
}

type MetricService struct {
	metrics repos.MetricRepo
	log     *logger.Logger
}

func NewMetricService(metrics repos.MetricRepo, baseLog *logger.Logger) *MetricService {
	return &MetricService{metrics: metrics, log: baseLog.With("service", "MetricService")}
}

// Initialize upserts the full descriptor set. Safe to re-run; existing rows
// are overwritten with the current seed.
func (s *MetricService) Initialize(ctx context.Context) (int, error) {
	rows := DefaultMetricDescriptors()
	if err := s.metrics.Upsert(ctx, nil, rows); err != nil {
		return 0, err
	}
	s.log.Info("metric descriptors initialized", "count", len(rows))
	return len(rows), nil
}
