package service

import (
	"context"

	"github.com/sanos-dev/backend/internal/model"
)

// DedupFilter - (target, source, error_message) 기준 중복 판정
// 인입 시점과 dequeue 시점에 모두 사용
type DedupFilter struct {
	repo IncidentRepo
}

func NewDedupFilter(repo IncidentRepo) *DedupFilter {
	return &DedupFilter{repo: repo}
}

// ShouldAdmit - 같은 식별자의 non-terminal incident가 없으면 true
// 있으면 false와 함께 기존 incident 반환 (excludeID는 비교에서 제외, 0이면 제외 없음)
func (f *DedupFilter) ShouldAdmit(ctx context.Context, targetID int64, source, errorMessage string, excludeID int64) (bool, *model.Incident, error) {
	existing, err := f.repo.FindActiveIncident(ctx, targetID, source, errorMessage, excludeID)
	if err != nil {
		return false, nil, err
	}
	if existing != nil {
		return false, existing, nil
	}
	return true, nil, nil
}
