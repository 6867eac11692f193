package service

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	rootCauseRe = regexp.MustCompile(`(?s)ROOT_CAUSE:\s*(.+?)(?:\n\s*(?:FILES_ANALYZED:|COMMITS_ANALYZED:|SANOS_PR=)|$)`)
	filesRe     = regexp.MustCompile(`(?s)FILES_ANALYZED:\s*(.+?)(?:\n\s*(?:COMMITS_ANALYZED:|SANOS_PR=)|$)`)
	commitsRe   = regexp.MustCompile(`(?s)COMMITS_ANALYZED:\s*(.+?)(?:\n\s*SANOS_PR=|$)`)

	prURLPattern = `https://[A-Za-z0-9.\-]+/[A-Za-z0-9_.\-]+/[A-Za-z0-9_.\-]+/pull/(\d+)`
	markedPRRe   = regexp.MustCompile(`SANOS_PR=\s*(` + prURLPattern + `)`)
	anyPRRe      = regexp.MustCompile(prURLPattern)
)

// AgentOutput - Agent 출력에서 추출한 분석 결과
// 찾지 못한 필드는 zero value
type AgentOutput struct {
	RootCause       string
	FilesAnalyzed   []string
	CommitsAnalyzed []string
	PRURL           *string
	PRNumber        *int
}

// ParseAgentOutput - 마커 기반으로 관대하게 파싱 (일부만 있어도 동작)
// PR URL은 SANOS_PR= 라인을 우선하고, 없으면 출력 중 첫 PR URL 사용
func ParseAgentOutput(output string) AgentOutput {
	var out AgentOutput

	if m := rootCauseRe.FindStringSubmatch(output); m != nil {
		out.RootCause = strings.TrimSpace(m[1])
	}
	if m := filesRe.FindStringSubmatch(output); m != nil {
		out.FilesAnalyzed = splitCSV(m[1])
	}
	if m := commitsRe.FindStringSubmatch(output); m != nil {
		out.CommitsAnalyzed = splitCSV(m[1])
	}

	var url, number string
	if m := markedPRRe.FindStringSubmatch(output); m != nil {
		url, number = m[1], m[2]
	} else if m := anyPRRe.FindStringSubmatch(output); m != nil {
		url, number = m[0], m[1]
	}
	if url != "" {
		out.PRURL = &url
		if n, err := strconv.Atoi(number); err == nil {
			out.PRNumber = &n
		}
	}

	return out
}

func splitCSV(raw string) []string {
	var out []string
	for _, item := range strings.Split(strings.TrimSpace(raw), ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// tail - 마지막 n 문자(rune 기준)
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
