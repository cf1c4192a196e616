package batch

import (
	"encoding/json"
	"os"

	"pcb-viewer/internal/tutorial"
)

// ManifestEntry represents one rendered step in the output manifest.
type ManifestEntry struct {
	Index int    `json:"index"`
	Part  string `json:"part"`
	Label string `json:"label"`
	Text  string `json:"text"`
	Image string `json:"image"`
}

// WriteManifest writes manifest.json listing every successfully rendered step.
func WriteManifest(path string, steps []tutorial.Step, results []Result) error {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		st := steps[r.Index]
		entries = append(entries, ManifestEntry{
			Index: r.Index,
			Part:  st.Part,
			Label: tutorial.Label(st.Part),
			Text:  st.Text,
			Image: r.Image,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
