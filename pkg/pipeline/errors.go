package pipeline

import (
	"errors"
	"fmt"

	"pixelsort/internal/models"
)

// Stage names the pipeline step an error came from
type Stage string

const (
	StageConfig       Stage = "configuration"
	StageDecode       Stage = "decode"
	StageGeometry     Stage = "geometry"
	StageExtraction   Stage = "extraction"
	StageSegmentation Stage = "segmentation"
	StageSorting      Stage = "sorting"
	StageEncode       Stage = "encode"
)

// StageError reports which step failed and, when the cause is tied to a
// pixel position, the offending row and column. Row and Col are -1 when
// unknown.
type StageError struct {
	Stage Stage
	Row   int
	Col   int
	Err   error
}

func (e *StageError) Error() string {
	switch {
	case e.Row >= 0 && e.Col >= 0:
		return fmt.Sprintf("%s failed at row %d, column %d: %v", e.Stage, e.Row, e.Col, e.Err)
	case e.Row >= 0:
		return fmt.Sprintf("%s failed at row %d: %v", e.Stage, e.Row, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// stageError wraps err for stage, lifting the position out of a
// *models.IndexError when there is one
func stageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	se := &StageError{Stage: stage, Row: -1, Col: -1, Err: err}
	var idx *models.IndexError
	if errors.As(err, &idx) {
		se.Row = idx.Row
		se.Col = idx.Col
	}
	return se
}
