package models

const (
	SectionGroups   = "groups"
	SectionModels   = "models"
	SectionStrategy = "strategy"
)

// Artifact is a precomputed image from the research notebooks, served untouched
type Artifact struct {
	Name    string `json:"name"`
	File    string `json:"file"`
	Section string `json:"section"`
	Title   string `json:"title"`
	Caption string `json:"caption"`
}

var artifactCatalog = []Artifact{
	{"group-importance", "Group's Importance.png", SectionGroups,
		"Importance of each group in the Random Forest model", "Importance of each group for the Random Forest predictions"},
	{"group-importance-evolution", "Evolution of groups importance BCM and EI .png", SectionGroups,
		"Evolution of the two most important groups", "Evolution of their importance over time"},
	{"random-forest", "Screen Shot 2024-05-16 at 8.42.15 pm.png", SectionModels,
		"Random Forest model details and predictions", "Random Forest Model"},
	{"random-forest-accuracy", "Accuracy Comparison between RFE and all features .png", SectionModels,
		"Random Forest accuracy, RFE against all features", "Accuracy of the predicted prices over time"},
	{"sarima", "Consolidated BTC prices comparison.png", SectionModels,
		"SARIMA model details and predictions", "SARIMA model"},
	{"lstm", "Screen Shot 2024-05-18 at 5.35.41 pm.png", SectionModels,
		"LSTM model details and predictions", "LSTM model"},
	{"ma-rfe", "MA RFE.png", SectionStrategy,
		"Moving averages on predicted prices (RFE)", "Short and Long-term Moving Averages on predicted and forecasted prices"},
	{"strategy-rfe", "Strat perf RFE.png", SectionStrategy,
		"Strategy performance on predicted prices (RFE)", "Performance of the strategy and the benchmark"},
	{"ma-actual", "MA actual prices.png", SectionStrategy,
		"Moving averages on actual prices", "Short and Long-term Moving Averages on actual and forecasted prices"},
	{"strategy-actual", "Strat perf actual prices.png", SectionStrategy,
		"Strategy performance on actual prices", "Performance of the strategy and the benchmark"},
}

// Artifacts returns a copy of the catalog in display order
func Artifacts() []Artifact {
	return append([]Artifact(nil), artifactCatalog...)
}

func FindArtifact(name string) (Artifact, bool) {
	for _, a := range artifactCatalog {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}
