// 파이프라인 상태 머신 어휘 정의
// Target(앱) 단위 pipeline_step / status, Incident 단위 status를 한 곳에서 관리

package model

// PipelineStep - Target의 라이프사이클 단계 (setup → deploy → steady-state)
type PipelineStep string

const (
	// 초기 setup/deploy 단계
	StepPending     PipelineStep = "pending"
	StepIntegrating PipelineStep = "integrating"
	StepPRCreated   PipelineStep = "pr_created"
	StepPRMerged    PipelineStep = "pr_merged"
	StepDeploying   PipelineStep = "deploying"

	// steady-state 단계
	StepReady            PipelineStep = "ready"
	StepError            PipelineStep = "error"
	StepAutofixRunning   PipelineStep = "autofix_running"
	StepAutofixPRCreated PipelineStep = "autofix_pr_created"
	StepAutofixCompleted PipelineStep = "autofix_completed"
	StepAutofixError     PipelineStep = "autofix_error"
)

var pipelineSteps = map[PipelineStep]bool{
	StepPending:          true,
	StepIntegrating:      true,
	StepPRCreated:        true,
	StepPRMerged:         true,
	StepDeploying:        true,
	StepReady:            false,
	StepError:            false,
	StepAutofixRunning:   false,
	StepAutofixPRCreated: false,
	StepAutofixCompleted: false,
	StepAutofixError:     false,
}

// Valid - 정의된 단계인지 확인
func (s PipelineStep) Valid() bool {
	_, ok := pipelineSteps[s]
	return ok
}

// IsInitialSetup - 첫 배포 전 단계인지 확인
// 이 단계의 배포 실패는 자동 수정 대상이 아님
func (s PipelineStep) IsInitialSetup() bool {
	return pipelineSteps[s]
}

// TargetStatus - 배포 상태 요약
type TargetStatus string

const (
	TargetPending   TargetStatus = "pending"
	TargetDeploying TargetStatus = "deploying"
	TargetReady     TargetStatus = "ready"
	TargetError     TargetStatus = "error"
	TargetCanceled  TargetStatus = "canceled"
)

func (s TargetStatus) Valid() bool {
	switch s {
	case TargetPending, TargetDeploying, TargetReady, TargetError, TargetCanceled:
		return true
	}
	return false
}

// IncidentStatus - Incident 처리 상태
type IncidentStatus string

const (
	IncidentOpen      IncidentStatus = "open"
	IncidentAnalyzing IncidentStatus = "analyzing"
	IncidentPRCreated IncidentStatus = "pr_created"
	IncidentResolved  IncidentStatus = "resolved"
)

// ActiveIncidentStatuses - dedup 대상이 되는 non-terminal 상태 목록
var ActiveIncidentStatuses = []IncidentStatus{IncidentOpen, IncidentAnalyzing, IncidentPRCreated}

// IsActive - non-terminal 상태인지 확인
func (s IncidentStatus) IsActive() bool {
	return s == IncidentOpen || s == IncidentAnalyzing || s == IncidentPRCreated
}

// AllowedFrom - 목표 상태로 전환 가능한 이전 상태 목록
//
// 정방향: open → analyzing → pr_created → resolved
// 역방향은 analyzing → open (분석 실패 후 재시도) 하나만 허용
func AllowedFrom(to IncidentStatus) []IncidentStatus {
	switch to {
	case IncidentAnalyzing:
		// analyzing → analyzing: 재시작 등으로 멈춘 incident 재처리
		return []IncidentStatus{IncidentOpen, IncidentAnalyzing}
	case IncidentPRCreated:
		return []IncidentStatus{IncidentAnalyzing}
	case IncidentOpen:
		return []IncidentStatus{IncidentAnalyzing}
	case IncidentResolved:
		return []IncidentStatus{IncidentOpen, IncidentAnalyzing, IncidentPRCreated}
	}
	return nil
}

// CanTransition - from → to 전환 허용 여부
func CanTransition(from, to IncidentStatus) bool {
	for _, s := range AllowedFrom(to) {
		if s == from {
			return true
		}
	}
	return false
}

// IncidentType - Incident 발생 경로
type IncidentType string

const (
	IncidentTypeRuntime IncidentType = "runtime_error"
	IncidentTypeBuild   IncidentType = "build_error"
)

// 배포 실패 webhook으로 생성되는 incident의 source
const SourceVercel = "vercel"
