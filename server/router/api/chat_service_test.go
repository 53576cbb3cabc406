package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/labstack/echo/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner returns a fixed reply and records the queries it was given.
type stubRunner struct {
	reply   string
	err     error
	queries []string
}

func (r *stubRunner) Run(_ context.Context, query string) (string, error) {
	r.queries = append(r.queries, query)
	return r.reply, r.err
}

func newChatServer(runner Runner) *echo.Echo {
	e := echo.New()
	NewAPIService(runner).RegisterRoutes(e)
	return e
}

func postChat(t *testing.T, e *echo.Echo, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat?protocol=data", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestChatStreamsTwoFrames(t *testing.T) {
	runner := &stubRunner{reply: "Welcome to Snoqualmie! 🚂"}
	e := newChatServer(runner)

	rec := postChat(t, e, `{"messages":[{"role":"user","content":"hello"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, DataStreamVersion, rec.Header().Get(DataStreamHeader))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/plain")

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	require.True(t, strings.HasPrefix(lines[0], "0:"))
	var content string
	require.NoError(t, json.Unmarshal([]byte(lines[0][2:]), &content))
	assert.Equal(t, runner.reply, content)

	require.True(t, strings.HasPrefix(lines[1], "e:"))
	var finish struct {
		FinishReason string `json:"finishReason"`
		Usage        struct {
			PromptTokens     int `json:"promptTokens"`
			CompletionTokens int `json:"completionTokens"`
		} `json:"usage"`
		IsContinued bool `json:"isContinued"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1][2:]), &finish))
	assert.Equal(t, "stop", finish.FinishReason)
	assert.Equal(t, 0, finish.Usage.PromptTokens)
	assert.Equal(t, utf8.RuneCountInString(runner.reply), finish.Usage.CompletionTokens)
	assert.False(t, finish.IsContinued)
}

func TestChatUsesOnlyLastMessage(t *testing.T) {
	runner := &stubRunner{reply: "ok"}
	e := newChatServer(runner)

	rec := postChat(t, e, `{"messages":[
		{"role":"user","content":"unrelated earlier message"},
		{"role":"assistant","content":"noted"},
		{"role":"user","content":"what can I do in Snoqualmie?"}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"what can I do in Snoqualmie?"}, runner.queries)
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	runner := &stubRunner{reply: "ok"}
	e := newChatServer(runner)

	rec := postChat(t, e, `{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, runner.queries)
}

func TestChatRejectsMalformedBody(t *testing.T) {
	e := newChatServer(&stubRunner{})

	rec := postChat(t, e, `{"messages": "nope"`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatAgentErrorBecomesServerError(t *testing.T) {
	runner := &stubRunner{err: errors.New("model unavailable")}
	e := newChatServer(runner)

	rec := postChat(t, e, `{"messages":[{"role":"user","content":"hello"}]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get(DataStreamHeader))
}
