package orchestrator

import "github.com/fyrsmithlabs/agencyd/internal/processor"

// FailureMessage is the fixed error description reported when the processing
// engine returns a semantic failure.
const FailureMessage = "Processing failed or input was invalid"

// SuccessEnvelope assembles the envelope for a successfully processed task.
func SuccessEnvelope(taskID string, result processor.Result, metadata map[string]any) *Envelope {
	return &Envelope{
		Success:  true,
		TaskID:   taskID,
		Result:   &result,
		Metadata: metadata,
	}
}

// FailureEnvelope assembles the envelope for a semantic processing failure.
func FailureEnvelope(errMsg string, metadata map[string]any) *Envelope {
	return &Envelope{
		Success:  false,
		Error:    errMsg,
		Metadata: metadata,
	}
}
