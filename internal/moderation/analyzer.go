// Package moderation implements the image analysis surface of the API.
//
// The analyzer itself is a placeholder: this is a demonstration service, and
// the scores are synthesized, not computed by any real model. The Analyzer
// interface keeps the boundary clean so a real provider can be dropped in.
package moderation

import (
	"context"
	"crypto/sha256"
)

// detectionThreshold is the confidence at which a category counts as detected
// and the image as a whole counts as unsafe.
const detectionThreshold = 0.5

// Categories is the closed set of moderation categories, in report order.
var Categories = []string{
	"violence",
	"nudity",
	"hate_symbols",
	"self_harm",
	"extremist_propaganda",
	"drugs",
	"weapons",
}

// CategoryScore is the per-category verdict.
type CategoryScore struct {
	Detected   bool    `json:"detected"`
	Confidence float64 `json:"confidence"`
}

// Result is the analyzer's output for one image.
type Result struct {
	OverallScore    float64                  `json:"overall_score"`
	IsSafe          bool                     `json:"is_safe"`
	Categories      map[string]CategoryScore `json:"categories"`
	Provider        string                   `json:"provider"`
	AnalysisSources []string                 `json:"analysis_sources"`
}

// Analyzer produces category scores for an image. Implementations are black
// boxes to the rest of the system.
type Analyzer interface {
	Analyze(ctx context.Context, imageBytes []byte, filename string) (*Result, error)
}

// StubAnalyzer is the placeholder implementation. Scores are derived
// deterministically from a digest of the image bytes, so the same image
// always yields the same report - useful for demos and for tests.
type StubAnalyzer struct{}

// NewStubAnalyzer creates the placeholder analyzer.
func NewStubAnalyzer() *StubAnalyzer {
	return &StubAnalyzer{}
}

// Analyze synthesizes a moderation report from the image digest.
// Confidences land in [0.05, 0.94]; most images score safe, but specific
// byte patterns can cross the detection threshold, which keeps the unsafe
// code path reachable.
func (a *StubAnalyzer) Analyze(_ context.Context, imageBytes []byte, _ string) (*Result, error) {
	digest := sha256.Sum256(imageBytes)

	categories := make(map[string]CategoryScore, len(Categories))
	var overall float64

	for i, name := range Categories {
		confidence := 0.05 + float64(digest[i]%90)/100.0
		categories[name] = CategoryScore{
			Detected:   confidence >= detectionThreshold,
			Confidence: confidence,
		}
		if confidence > overall {
			overall = confidence
		}
	}

	return &Result{
		OverallScore:    overall,
		IsSafe:          overall < detectionThreshold,
		Categories:      categories,
		Provider:        "stub_analyzer",
		AnalysisSources: []string{"stub_analyzer"},
	}, nil
}

// FlaggedCategories lists the categories detected in r, in report order.
func (r *Result) FlaggedCategories() []string {
	flagged := make([]string, 0)
	for _, name := range Categories {
		if r.Categories[name].Detected {
			flagged = append(flagged, name)
		}
	}
	return flagged
}

// HighestRiskCategory returns the category with the highest confidence,
// or "none" when there are no scores.
func (r *Result) HighestRiskCategory() string {
	highest := "none"
	var max float64 = -1
	for _, name := range Categories {
		if score, ok := r.Categories[name]; ok && score.Confidence > max {
			max = score.Confidence
			highest = name
		}
	}
	return highest
}
