// Package template provides remediation task rendering.
//
// 지원하는 변수 형식:
//
//	{{target.full_name}}, {{target.repo_owner}}, {{target.repo_name}}
//
//	{{incident.id}}, {{incident.type}}, {{incident.source}},
//	{{incident.error_message}}, {{incident.error_title}},
//	{{incident.stack_trace}}, {{incident.logs}}
//
//	{{remediation.branch}}, {{remediation.commit_tag}}, {{prior_findings}}
package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sanos-dev/backend/internal/model"
)

const (
	NoStackTrace = "No stack trace available"
	NoLogs       = "No additional logs"

	// PR 제목에 들어가는 에러 메시지 최대 길이 (rune 기준)
	errorTitleMax = 80
)

// DefaultTask - Agent에 전달하는 기본 작업 설명
const DefaultTask = `You are analyzing a production incident for a Next.js application and creating a fix.

Repository: {{target.full_name}}

INCIDENT DETAILS:
- Type: {{incident.type}}
- Source: {{incident.source}}
- Error Message: {{incident.error_message}}
- Stack Trace: {{incident.stack_trace}}
- Logs: {{incident.logs}}
{{prior_findings}}
STEPS:

1. First, list the recent commits on the default branch (try ` + "`main`" + `, if that fails try ` + "`master`" + `). You need to find the last 3 commits that do NOT have "{{remediation.commit_tag}}" in their commit message. These are user commits that may have introduced the bug.

2. For each of those 3 commits, look at the diff to see what files were changed and what the changes were.

3. Analyze the error message, stack trace, and logs against the diffs from those 3 commits. Determine which commit and which file change is most likely responsible for the incident.

4. Once you identify the problematic file(s), read the current version of each file.

5. Create a new branch called ` + "`{{remediation.branch}}`" + ` from the default branch.

6. Fix the issue by updating the problematic file(s). Every commit message MUST start with "{{remediation.commit_tag}}".
   For example: "{{remediation.commit_tag}} Fix null reference in user handler"

7. Create a pull request from ` + "`{{remediation.branch}}`" + ` to the default branch with:
   - Title: "{{remediation.commit_tag}} Fix: {{incident.error_title}}"
   - Body explaining the root cause and the fix

IMPORTANT: After creating the PR, output your analysis in this exact format:

ROOT_CAUSE: <one-paragraph explanation of what caused the error>
FILES_ANALYZED: <comma-separated list of file paths you examined>
COMMITS_ANALYZED: <comma-separated list of short SHAs you examined>
SANOS_PR=https://github.com/{{target.repo_owner}}/{{target.repo_name}}/pull/NUMBER

Replace NUMBER with the actual PR number.
`

// TaskData - 작업 설명 렌더링에 사용할 데이터
type TaskData struct {
	RepoOwner     string
	RepoName      string
	IncidentID    int64
	Type          model.IncidentType
	Source        string
	ErrorMessage  string
	StackTrace    *string
	Logs          json.RawMessage
	Branch        string
	CommitTag     string
	PriorFindings []model.SimilarFinding
}

// BranchName - <prefix>/fix-incident-<id>
func BranchName(prefix string, incidentID int64) string {
	return fmt.Sprintf("%s/fix-incident-%d", prefix, incidentID)
}

// RenderTask - 작업 설명 템플릿의 변수를 실제 값으로 치환
//
// 비어 있는 stack trace / logs는 placeholder로 치환됩니다.
// 치환 결과에 포함된 {{...}}는 다시 치환하지 않습니다.
func RenderTask(body string, data TaskData) string {
	stack := NoStackTrace
	if data.StackTrace != nil && strings.TrimSpace(*data.StackTrace) != "" {
		stack = *data.StackTrace
	}

	pairs := []string{
		"{{target.full_name}}", data.RepoOwner + "/" + data.RepoName,
		"{{target.repo_owner}}", data.RepoOwner,
		"{{target.repo_name}}", data.RepoName,
		"{{incident.id}}", strconv.FormatInt(data.IncidentID, 10),
		"{{incident.type}}", string(data.Type),
		"{{incident.source}}", data.Source,
		"{{incident.error_message}}", data.ErrorMessage,
		"{{incident.error_title}}", errorTitle(data.ErrorMessage),
		"{{incident.stack_trace}}", stack,
		"{{incident.logs}}", renderLogs(data.Logs),
		"{{remediation.branch}}", data.Branch,
		"{{remediation.commit_tag}}", data.CommitTag,
		"{{prior_findings}}", renderFindings(data.PriorFindings),
	}

	return strings.NewReplacer(pairs...).Replace(body)
}

func errorTitle(msg string) string {
	msg = strings.Join(strings.Fields(msg), " ")
	r := []rune(msg)
	if len(r) > errorTitleMax {
		return string(r[:errorTitleMax])
	}
	return msg
}

func renderLogs(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return NoLogs
	}

	// build_logs 문자열은 줄바꿈을 살려서 표시
	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		if logs, ok := obj["build_logs"].(string); ok {
			var b strings.Builder
			if u, ok := obj["deployment_url"].(string); ok && u != "" {
				b.WriteString("deployment_url: " + u + "\n")
			}
			b.WriteString("build_logs:\n" + logs)
			return b.String()
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}

func renderFindings(findings []model.SimilarFinding) string {
	if len(findings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nPRIOR FINDINGS (root causes of similar past incidents in this repository):\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "- Incident #%d (%s): %s\n", f.IncidentID, errorTitle(f.ErrorMessage), f.RootCause)
	}
	return b.String()
}
