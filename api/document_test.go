package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fyerfyer/contract-chunker/api/handler"
	"github.com/fyerfyer/contract-chunker/api/model"
	"github.com/fyerfyer/contract-chunker/internal/cache"
	"github.com/fyerfyer/contract-chunker/internal/database"
	"github.com/fyerfyer/contract-chunker/internal/repository"
	"github.com/fyerfyer/contract-chunker/internal/services"
	"github.com/fyerfyer/contract-chunker/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试环境配置
type apiTestEnv struct {
	Router       *gin.Engine
	Storage      storage.Storage
	Cache        cache.Cache
	ChunkService *services.ChunkService
}

// 创建测试环境
func setupAPITestEnv(t *testing.T) *apiTestEnv {
	// 设置测试模式
	gin.SetMode(gin.TestMode)

	// 使用内存数据库替换全局连接
	db, err := database.SetupTestDB()
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = db
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
		database.DB = oldDB
	})

	// 创建本地存储
	fileStorage, err := storage.NewLocalStorage(storage.LocalConfig{
		Path: t.TempDir(),
	})
	require.NoError(t, err)

	// 创建内存缓存
	cacheService, err := cache.NewCache(cache.Config{
		Type:            "memory",
		DefaultTTL:      time.Hour,
		CleanupInterval: time.Minute,
	})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	repo := repository.NewDocumentRepositoryWithDB(db)
	statusManager := services.NewDocumentStatusManager(repo, logger)

	// 创建分块服务，小分块便于测试
	chunkService := services.NewChunkService(
		fileStorage,
		services.WithChunkSize(100),
		services.WithChunkOverlap(20),
		services.WithTimeout(5*time.Second),
		services.WithLogger(logger),
		services.WithDocumentRepository(repo),
		services.WithStatusManager(statusManager),
		services.WithCache(cacheService),
	)
	require.NoError(t, chunkService.Init())

	// 创建API处理器
	docHandler := handler.NewDocumentHandler(chunkService)
	chunkHandler := handler.NewChunkHandler(chunkService)
	taskHandler := handler.NewTaskHandler(nil)

	// 设置路由
	router := SetupRouter(docHandler, chunkHandler, taskHandler)

	return &apiTestEnv{
		Router:       router,
		Storage:      fileStorage,
		Cache:        cacheService,
		ChunkService: chunkService,
	}
}

// buildTestContent 构建带句子和段落边界的测试文本
func buildTestContent() string {
	var sb strings.Builder
	for i := 0; i < 10; i++ {
		sb.WriteString("甲方应当按照合同约定向乙方支付服务费用。")
		sb.WriteString("乙方应当在约定期限内完成服务内容并交付成果。\n")
		sb.WriteString("任何一方违反本合同约定的，应当承担相应的违约责任。")
		sb.WriteString("本合同自双方签字盖章之日起生效。\n")
	}
	return sb.String()
}

// uploadTestDocument 通过上传接口创建测试文档，返回文档ID
func uploadTestDocument(t *testing.T, env *apiTestEnv, filename string, content string) string {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)

	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "上传响应: %s", w.Body.String())

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 0, resp.Code)

	uploadResp, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	docID, ok := uploadResp["doc_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, docID)

	return docID
}

// TestDocumentUploadAPI 测试文档上传API
func TestDocumentUploadAPI(t *testing.T) {
	env := setupAPITestEnv(t)

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "contract.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte(buildTestContent()))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("chunk_size", "200"))
	require.NoError(t, writer.WriteField("chunk_overlap", "50"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)

	uploadResp, ok := resp.Data.(map[string]interface{})
	assert.True(t, ok)
	assert.NotEmpty(t, uploadResp["doc_id"])
	assert.Equal(t, "uploaded", uploadResp["status"])
	assert.Equal(t, float64(200), uploadResp["chunk_size"])
	assert.Equal(t, float64(50), uploadResp["chunk_overlap"])
}

// TestDocumentUploadInvalidType 测试不支持的文件类型
func TestDocumentUploadInvalidType(t *testing.T) {
	env := setupAPITestEnv(t)

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "malware.exe")
	require.NoError(t, err)
	_, err = part.Write([]byte("not a text file"))
	require.NoError(t, err)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestDocumentUploadInvalidOverlap 测试重叠大于分块大小的请求
func TestDocumentUploadInvalidOverlap(t *testing.T) {
	env := setupAPITestEnv(t)

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "contract.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte(buildTestContent()))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("chunk_size", "100"))
	require.NoError(t, writer.WriteField("chunk_overlap", "100"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestDocumentStatusAPI 测试文档状态查询API
func TestDocumentStatusAPI(t *testing.T) {
	env := setupAPITestEnv(t)
	docID := uploadTestDocument(t, env, "contract.txt", buildTestContent())

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+docID+"/status", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)

	statusResp, ok := resp.Data.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, docID, statusResp["doc_id"])
	assert.Equal(t, "uploaded", statusResp["status"])
	assert.Equal(t, "contract.txt", statusResp["filename"])

	// 不存在的文档返回404
	req = httptest.NewRequest(http.MethodGet, "/api/documents/nonexistent/status", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestDocumentListAPI 测试文档列表API
func TestDocumentListAPI(t *testing.T) {
	env := setupAPITestEnv(t)

	content := buildTestContent()
	uploadTestDocument(t, env, "contract-a.txt", content)
	uploadTestDocument(t, env, "contract-b.txt", content)
	uploadTestDocument(t, env, "agreement.md", content)

	t.Run("basic list without filters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
		w := httptest.NewRecorder()
		env.Router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp model.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.Code)

		listResp, ok := resp.Data.(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, float64(3), listResp["total"], "Total should be 3")

		documents, ok := listResp["documents"].([]interface{})
		assert.True(t, ok)
		assert.Len(t, documents, 3, "Should return 3 documents")
	})

	t.Run("pagination", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents?page=1&page_size=2", nil)
		w := httptest.NewRecorder()
		env.Router.ServeHTTP(w, req)

		var resp model.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		listResp, ok := resp.Data.(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, float64(3), listResp["total"], "Total should still be 3")
		assert.Equal(t, float64(1), listResp["page"])
		assert.Equal(t, float64(2), listResp["page_size"])

		documents, ok := listResp["documents"].([]interface{})
		assert.True(t, ok)
		assert.Len(t, documents, 2, "Should return 2 documents for page_size=2")

		// 第二页
		req = httptest.NewRequest(http.MethodGet, "/api/documents?page=2&page_size=2", nil)
		w = httptest.NewRecorder()
		env.Router.ServeHTTP(w, req)

		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		listResp, ok = resp.Data.(map[string]interface{})
		assert.True(t, ok)
		documents, ok = listResp["documents"].([]interface{})
		assert.True(t, ok)
		assert.Len(t, documents, 1, "Should return 1 document on the second page")
	})

	t.Run("filter by status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents?status=uploaded", nil)
		w := httptest.NewRecorder()
		env.Router.ServeHTTP(w, req)

		var resp model.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		listResp, ok := resp.Data.(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, float64(3), listResp["total"], "All documents should be in uploaded status")
	})

	t.Run("filter by file name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents?file_name=contract", nil)
		w := httptest.NewRecorder()
		env.Router.ServeHTTP(w, req)

		var resp model.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		listResp, ok := resp.Data.(map[string]interface{})
		assert.True(t, ok)
		assert.Equal(t, float64(2), listResp["total"], "Should find 2 contract documents")
	})
}

// TestDocumentDeleteAPI 测试文档删除API
func TestDocumentDeleteAPI(t *testing.T) {
	env := setupAPITestEnv(t)
	docID := uploadTestDocument(t, env, "contract.txt", buildTestContent())

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/"+docID, nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)

	deleteResp, ok := resp.Data.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, true, deleteResp["success"])
	assert.Equal(t, docID, deleteResp["doc_id"])

	// 删除后查询返回404
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+docID, nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestDocumentTagsAPI 测试更新文档标签API
func TestDocumentTagsAPI(t *testing.T) {
	env := setupAPITestEnv(t)
	docID := uploadTestDocument(t, env, "contract.txt", buildTestContent())

	payload := bytes.NewBufferString(`{"tags":"legal,contract"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/documents/"+docID+"/tags", payload)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// 标签应出现在文档信息中
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+docID, nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	docInfo, ok := resp.Data.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "legal,contract", docInfo["tags"])
}

// TestHealthCheck 测试健康检查API
func TestHealthCheck(t *testing.T) {
	env := setupAPITestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
