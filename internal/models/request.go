package models

import (
	"fmt"

	"github.com/LeeDohoun/HQA-Project/consts"
)

// AnalysisRequest identifies one subject to analyze. Immutable once built.
type AnalysisRequest struct {
	SubjectID   string `json:"subject_id"`   // e.g. "005930"
	SubjectName string `json:"subject_name"` // e.g. "Samsung Electronics"
	Mode        string `json:"mode"`         // consts.ModeFull | consts.ModeQuick
}

func NewAnalysisRequest(id, name, mode string) (AnalysisRequest, error) {
	if id == "" {
		return AnalysisRequest{}, fmt.Errorf("subject id is required")
	}
	if mode == "" {
		mode = consts.ModeFull
	}
	if mode != consts.ModeFull && mode != consts.ModeQuick {
		return AnalysisRequest{}, fmt.Errorf("unknown analysis mode %q", mode)
	}
	if name == "" {
		name = id
	}
	return AnalysisRequest{SubjectID: id, SubjectName: name, Mode: mode}, nil
}
