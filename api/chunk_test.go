package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fyerfyer/contract-chunker/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// processTestDocument 触发同步分块并验证处理成功
func processTestDocument(t *testing.T, env *apiTestEnv, docID string) {
	req := httptest.NewRequest(http.MethodPost, "/api/documents/"+docID+"/chunks", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "处理响应: %s", w.Body.String())

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 0, resp.Code)

	processResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "completed", processResp["status"])
	require.Equal(t, false, processResp["async"])
}

// TestChunkProcessAPI 测试分块处理API
func TestChunkProcessAPI(t *testing.T) {
	env := setupAPITestEnv(t)
	docID := uploadTestDocument(t, env, "contract.txt", buildTestContent())

	processTestDocument(t, env, docID)

	// 处理后状态应为completed
	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+docID+"/status", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	statusResp, ok := resp.Data.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "completed", statusResp["status"])
	assert.Greater(t, statusResp["chunk_count"], float64(1), "长文本应产生多个分块")

	// 不存在的文档返回404
	req = httptest.NewRequest(http.MethodPost, "/api/documents/nonexistent/chunks", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestChunkListAPI 测试分块列表API
func TestChunkListAPI(t *testing.T) {
	env := setupAPITestEnv(t)
	docID := uploadTestDocument(t, env, "contract.txt", buildTestContent())
	processTestDocument(t, env, docID)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+docID+"/chunks", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)

	listResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, docID, listResp["doc_id"])

	chunks, ok := listResp["chunks"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, chunks)
	assert.Equal(t, float64(len(chunks)), listResp["total"])

	// 检查分块按序号排列且携带完整位置信息
	firstChunk, ok := chunks[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), firstChunk["chunk_index"])
	assert.NotEmpty(t, firstChunk["content"])
	assert.NotEmpty(t, firstChunk["content_hash"])

	position, ok := firstChunk["position"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), position["char_start"])
	assert.Equal(t, float64(0), position["content_start"])
	assert.Equal(t, float64(1), position["line_start"])
}

// TestChunkByIndexAPI 测试按序号获取分块API
func TestChunkByIndexAPI(t *testing.T) {
	env := setupAPITestEnv(t)
	docID := uploadTestDocument(t, env, "contract.txt", buildTestContent())
	processTestDocument(t, env, docID)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+docID+"/chunks/0", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	chunkResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), chunkResp["chunk_index"])

	// 超出范围的序号返回404
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+docID+"/chunks/9999", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestChunkByPositionAPI 测试按字符偏移定位分块API
func TestChunkByPositionAPI(t *testing.T) {
	env := setupAPITestEnv(t)
	docID := uploadTestDocument(t, env, "contract.txt", buildTestContent())
	processTestDocument(t, env, docID)

	// 偏移0应落在第一个分块的核心区间内
	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+docID+"/chunks?position=0", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	chunkResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), chunkResp["chunk_index"])

	// 超出文档范围的偏移返回404
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+docID+"/chunks?position=1000000", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestVerifyAPI 测试分块完整性验证API
func TestVerifyAPI(t *testing.T) {
	env := setupAPITestEnv(t)
	docID := uploadTestDocument(t, env, "contract.txt", buildTestContent())
	processTestDocument(t, env, docID)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/"+docID+"/verify", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	verifyResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, docID, verifyResp["doc_id"])
	assert.Equal(t, true, verifyResp["passed"])
	assert.Equal(t, true, verifyResp["coverage_complete"])
	assert.Equal(t, true, verifyResp["overlaps_correct"])
	assert.Equal(t, true, verifyResp["content_matches"])

	issues, ok := verifyResp["issues"].([]interface{})
	assert.True(t, ok)
	assert.Empty(t, issues)
}

// TestEfficiencyAPI 测试重叠效率分析API
func TestEfficiencyAPI(t *testing.T) {
	env := setupAPITestEnv(t)
	docID := uploadTestDocument(t, env, "contract.txt", buildTestContent())
	processTestDocument(t, env, docID)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+docID+"/efficiency", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	effResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)

	contentLength := effResp["content_length"].(float64)
	totalOverlap := effResp["total_overlap"].(float64)
	totalStored := effResp["total_stored"].(float64)

	assert.Greater(t, contentLength, float64(0))
	assert.Greater(t, totalOverlap, float64(0), "多个分块之间应存在重叠")
	assert.Equal(t, totalStored, contentLength+totalOverlap, "存储总量应等于内容加重叠")
	assert.Less(t, effResp["efficiency"].(float64), float64(1))
	assert.Greater(t, effResp["efficiency"].(float64), float64(0))
}

// TestReconstructAPI 测试文档重构API
func TestReconstructAPI(t *testing.T) {
	env := setupAPITestEnv(t)
	content := buildTestContent()
	docID := uploadTestDocument(t, env, "contract.txt", content)
	processTestDocument(t, env, docID)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+docID+"/reconstruct", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	reconstructResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, content, reconstructResp["content"], "重构内容应与原文完全一致")
}

// TestTaskAPIWithoutQueue 测试未配置任务队列时的任务API
func TestTaskAPIWithoutQueue(t *testing.T) {
	env := setupAPITestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/some-task-id", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	docID := uploadTestDocument(t, env, "contract.txt", buildTestContent())
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+docID+"/tasks", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
