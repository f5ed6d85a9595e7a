// Package ranking provides the personalized feed ranker and its weight calibration.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		slog.Warn("using default feed weights", "error", err)
//	}
//	ranker := ranking.NewRanker(weights)
//
//	// Rank candidates for one request
//	ranked := ranker.Rank(items, ranking.UserContext{
//		UserID:            userID,
//		InProgressCourses: inProgress,
//	})
//	page := ranked[:min(len(ranked), 20)]
//
// Scoring:
//
// Every candidate receives five 0-100 sub-scores (progress, engagement, virality, recency,
// discovery) combined with the weight table, plus a uniform jitter in [0, JitterMax). The
// jitter keeps repeated requests from producing identical orderings; inject a seeded source
// with WithRandomSource to pin it in tests.
//
// Diversification:
//
// After sorting by score, every DiversityInterval-th slot is given to the first candidate
// whose course has not been placed yet in this pass. The candidate naturally ranked at that
// slot is skipped, not pushed down.
//
// Calibration:
//
// Weights can be tuned per deployment with a JSON file loaded at startup. Only non-zero
// values override the defaults. See configs/ranking.calibration.json.
package ranking
