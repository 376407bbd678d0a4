package moderation

import (
	"net/http"
	"sort"
)

// categoryDescriptions maps each category to a human-readable description
// shown in the categories listing.
var categoryDescriptions = map[string]string{
	"violence":             "Graphic violence, gore, or physical harm",
	"nudity":               "Nudity or sexually explicit content",
	"hate_symbols":         "Hate symbols, slurs, or discriminatory imagery",
	"self_harm":            "Self-harm or suicide-related content",
	"extremist_propaganda": "Extremist or terrorist propaganda",
	"drugs":                "Drug use or drug-related paraphernalia",
	"weapons":              "Weapons, firearms, or explosives",
}

type categoryEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type categoriesResponse struct {
	Categories   []categoryEntry `json:"categories"`
	AnalysisInfo struct {
		Provider           string  `json:"provider"`
		DetectionThreshold float64 `json:"detection_threshold"`
	} `json:"analysis_info"`
	APIInfo struct {
		Version        string   `json:"version"`
		SupportedTypes []string `json:"supported_image_types"`
		MaxBatchSize   int      `json:"max_batch_size"`
	} `json:"api_info"`
}

// HandleCategories lists the moderation categories the analyzer can detect.
// GET /moderate/categories.
func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	var resp categoriesResponse
	resp.Categories = make([]categoryEntry, 0, len(Categories))
	for _, name := range Categories {
		resp.Categories = append(resp.Categories, categoryEntry{
			Name:        name,
			Description: categoryDescriptions[name],
		})
	}

	resp.AnalysisInfo.Provider = "stub_analyzer"
	resp.AnalysisInfo.DetectionThreshold = detectionThreshold
	resp.APIInfo.Version = apiVersion
	resp.APIInfo.SupportedTypes = supportedImageTypes()
	resp.APIInfo.MaxBatchSize = MaxBatchSize

	writeJSON(w, http.StatusOK, resp)
}

func supportedImageTypes() []string {
	types := make([]string, 0, len(allowedImageTypes))
	for t := range allowedImageTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
