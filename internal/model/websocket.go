package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
)

// WSProgressMessage is pushed to subscribers while a job is running
type WSProgressMessage struct {
	Type     string      `json:"type"`
	JobID    string      `json:"jobId"`
	Status   JobStatus   `json:"status"`
	Progress JobProgress `json:"progress"`
}

// WSCompleteMessage is pushed once when a job completes
type WSCompleteMessage struct {
	Type   string      `json:"type"`
	JobID  string      `json:"jobId"`
	Result interface{} `json:"result,omitempty"`
}

// WSErrorMessage is pushed when a job fails
type WSErrorMessage struct {
	Type    string `json:"type"`
	JobID   string `json:"jobId"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
