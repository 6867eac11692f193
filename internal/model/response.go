package model

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type TargetEnvelope struct {
	Status string  `json:"status"`
	Data   *Target `json:"data"`
}

type TargetListEnvelope struct {
	Status string   `json:"status"`
	Data   []Target `json:"data"`
}

type TargetStatusEnvelope struct {
	Status string                `json:"status"`
	Data   *TargetStatusResponse `json:"data"`
}

type IncidentListEnvelope struct {
	Status string                 `json:"status"`
	Data   []IncidentWithAnalyses `json:"data"`
}

type AnalysisListEnvelope struct {
	Status string     `json:"status"`
	Data   []Analysis `json:"data"`
}

type RetryIncidentResponse struct {
	Status     string `json:"status"`
	IncidentID int64  `json:"incident_id"`
	Queued     bool   `json:"queued"`
}
