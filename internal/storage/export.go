package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run     RunMetadata   `json:"run"`
	Samples []OrbitSample `json:"samples"`
}

// ExportJSON writes a run and its samples as one indented JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, samples []OrbitSample) error {
	data := ExportData{Run: *meta, Samples: samples}
	if data.Samples == nil {
		data.Samples = []OrbitSample{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
