package template

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sanos-dev/backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestBranchName(t *testing.T) {
	assert.Equal(t, "sanos/fix-incident-42", BranchName("sanos", 42))
}

func TestRenderTask(t *testing.T) {
	stack := "at handler (app/api/route.ts:10:5)"
	out := RenderTask(DefaultTask, TaskData{
		RepoOwner:    "acme",
		RepoName:     "shop",
		IncidentID:   42,
		Type:         model.IncidentTypeRuntime,
		Source:       "server",
		ErrorMessage: "TypeError: Cannot read properties of undefined",
		StackTrace:   &stack,
		Logs:         json.RawMessage(`{"path": "/api/cart"}`),
		Branch:       "sanos/fix-incident-42",
		CommitTag:    "[Sanos]",
	})

	assert.Contains(t, out, "Repository: acme/shop")
	assert.Contains(t, out, "- Error Message: TypeError: Cannot read properties of undefined")
	assert.Contains(t, out, "- Stack Trace: "+stack)
	assert.Contains(t, out, `- Logs: {"path":"/api/cart"}`)
	assert.Contains(t, out, "`sanos/fix-incident-42`")
	assert.Contains(t, out, `do NOT have "[Sanos]"`)
	assert.Contains(t, out, "SANOS_PR=https://github.com/acme/shop/pull/NUMBER")
	assert.NotContains(t, out, "{{")
	assert.NotContains(t, out, "PRIOR FINDINGS")
}

func TestRenderTaskPlaceholders(t *testing.T) {
	out := RenderTask(DefaultTask, TaskData{
		RepoOwner:    "acme",
		RepoName:     "shop",
		ErrorMessage: "boom",
		Logs:         json.RawMessage("null"),
	})

	assert.Contains(t, out, "- Stack Trace: "+NoStackTrace)
	assert.Contains(t, out, "- Logs: "+NoLogs)
}

func TestRenderTaskBuildLogs(t *testing.T) {
	out := RenderTask("{{incident.logs}}", TaskData{
		Logs: json.RawMessage(`{"build_logs":"line 1\nline 2","deployment_url":"shop-abc.vercel.app"}`),
	})
	assert.Equal(t, "deployment_url: shop-abc.vercel.app\nbuild_logs:\nline 1\nline 2", out)
}

func TestRenderTaskDoesNotExpandUserInput(t *testing.T) {
	out := RenderTask("{{incident.error_message}}|{{target.repo_name}}", TaskData{
		RepoName:     "shop",
		ErrorMessage: "bad {{target.repo_name}}",
	})
	assert.Equal(t, "bad {{target.repo_name}}|shop", out)
}

func TestRenderTaskErrorTitle(t *testing.T) {
	long := strings.Repeat("é", 100)
	out := RenderTask("{{incident.error_title}}", TaskData{ErrorMessage: long})
	assert.Equal(t, strings.Repeat("é", 80), out)
}

func TestRenderTaskPriorFindings(t *testing.T) {
	out := RenderTask(DefaultTask, TaskData{
		RepoOwner: "acme",
		RepoName:  "shop",
		PriorFindings: []model.SimilarFinding{
			{IncidentID: 3, ErrorMessage: "TypeError: x", RootCause: "cart item missing price"},
		},
	})
	assert.Contains(t, out, "PRIOR FINDINGS")
	assert.Contains(t, out, "- Incident #3 (TypeError: x): cart item missing price")
}
