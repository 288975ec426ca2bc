package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"iris-backend/internal/llm"
)

func newTestRouter(t *testing.T, meta *fakeMeta, client llm.Client) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := newTestService(t, meta, client)
	handler := NewHandler(svc)

	r := gin.New()
	api := r.Group("/api/v1")
	handler.RegisterRoutes(api)
	return r, svc
}

func uploadResume(t *testing.T, router *gin.Engine, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeSession(t *testing.T, resp *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var out SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode session response: %v", err)
	}
	return out
}

func TestResumeUploadExtractEditCommitFlow(t *testing.T) {
	meta := &fakeMeta{}
	client := &fakeLLM{resp: `{"basics":{"first_name":"Jane","last_name":"Doe"}}`}
	router, _ := newTestRouter(t, meta, client)

	// Upload.
	resp := uploadResume(t, router, "resume.pdf", pdfBytes)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	created := decodeSession(t, resp)
	if created.SessionID == "" {
		t.Fatalf("expected sessionId, got empty")
	}
	if created.PayloadState != PayloadAbsent {
		t.Fatalf("expected payloadState absent, got %s", created.PayloadState)
	}

	base := "/api/v1/resumes/" + created.SessionID

	// Extract.
	reqExtract := httptest.NewRequest(http.MethodPost, base+"/extract", nil)
	respExtract := httptest.NewRecorder()
	router.ServeHTTP(respExtract, reqExtract)
	if respExtract.Code != http.StatusOK {
		t.Fatalf("expected 200 on extract, got %d: %s", respExtract.Code, respExtract.Body.String())
	}
	extracted := decodeSession(t, respExtract)
	if extracted.Profile == nil {
		t.Fatalf("expected profile after extract")
	}

	// Edit.
	edit := strings.NewReader(`{"basics":{"first_name":"Janet","last_name":"Doe"}}`)
	reqEdit := httptest.NewRequest(http.MethodPut, base+"/profile", edit)
	respEdit := httptest.NewRecorder()
	router.ServeHTTP(respEdit, reqEdit)
	if respEdit.Code != http.StatusOK {
		t.Fatalf("expected 200 on edit, got %d: %s", respEdit.Code, respEdit.Body.String())
	}

	// Commit.
	reqCommit := httptest.NewRequest(http.MethodPost, base+"/commit", nil)
	respCommit := httptest.NewRecorder()
	router.ServeHTTP(respCommit, reqCommit)
	if respCommit.Code != http.StatusOK {
		t.Fatalf("expected 200 on commit, got %d: %s", respCommit.Code, respCommit.Body.String())
	}
	committed := decodeSession(t, respCommit)
	if committed.State != StateSaved {
		t.Fatalf("expected state saved, got %s", committed.State)
	}
	if len(meta.written) != 1 {
		t.Fatalf("expected one metadata write, got %d", len(meta.written))
	}

	// Download.
	reqDl := httptest.NewRequest(http.MethodGet, base+"/download", nil)
	respDl := httptest.NewRecorder()
	router.ServeHTTP(respDl, reqDl)
	if respDl.Code != http.StatusOK {
		t.Fatalf("expected 200 on download, got %d", respDl.Code)
	}
	if got := respDl.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", got)
	}
	if !bytes.HasPrefix(respDl.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected PDF bytes in download")
	}
}

func TestUploadWithoutFileIsRejected(t *testing.T) {
	router, _ := newTestRouter(t, &fakeMeta{}, &fakeLLM{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", strings.NewReader("no multipart"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	assertErrorCode(t, resp, CodeValidation)
}

func TestUnknownSessionIs404(t *testing.T) {
	router, _ := newTestRouter(t, &fakeMeta{}, &fakeLLM{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	assertErrorCode(t, resp, CodeNotFound)
}

func TestInvalidEditIs422(t *testing.T) {
	router, _ := newTestRouter(t, &fakeMeta{}, &fakeLLM{})
	created := decodeSession(t, uploadResume(t, router, "resume.pdf", pdfBytes))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/resumes/"+created.SessionID+"/profile", strings.NewReader(`{broken`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
	assertErrorCode(t, resp, CodeInvalidEdit)
}

func TestCommitWithoutRecordIs409(t *testing.T) {
	router, _ := newTestRouter(t, &fakeMeta{}, &fakeLLM{})
	created := decodeSession(t, uploadResume(t, router, "resume.pdf", pdfBytes))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/"+created.SessionID+"/commit", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	assertErrorCode(t, resp, CodeConflict)
}

func TestExtractionFailureIs502(t *testing.T) {
	router, _ := newTestRouter(t, &fakeMeta{}, &fakeLLM{err: errors.New("upstream down")})
	created := decodeSession(t, uploadResume(t, router, "resume.pdf", pdfBytes))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/"+created.SessionID+"/extract", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	assertErrorCode(t, resp, CodeExtraction)
}

func TestPlaceholderClientIs503(t *testing.T) {
	router, _ := newTestRouter(t, &fakeMeta{}, llm.PlaceholderClient{})
	created := decodeSession(t, uploadResume(t, router, "resume.pdf", pdfBytes))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/"+created.SessionID+"/extract", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestCloseSessionIs204(t *testing.T) {
	router, _ := newTestRouter(t, &fakeMeta{}, &fakeLLM{})
	created := decodeSession(t, uploadResume(t, router, "resume.pdf", pdfBytes))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/resumes/"+created.SessionID, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func assertErrorCode(t *testing.T, resp *httptest.ResponseRecorder, want string) {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if payload.Error.Code != want {
		t.Fatalf("expected error code %q, got %q", want, payload.Error.Code)
	}
}
