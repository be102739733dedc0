package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediexplain/backend/internal/auth"
	"github.com/mediexplain/backend/internal/db"
	"github.com/mediexplain/backend/internal/db/models"
	"github.com/mediexplain/backend/internal/pipeline"
	"github.com/mediexplain/backend/internal/storage"
	"github.com/mediexplain/backend/internal/translate"
	"github.com/mediexplain/backend/internal/tts"
)

// --- fake capability engines ---

type stubOCR struct{ text string }

func (s *stubOCR) Recognize(ctx context.Context, img []byte) (string, error) {
	return s.text, nil
}
func (s *stubOCR) Name() string { return "stub-ocr" }

type stubTranslator struct {
	err error
}

func (s *stubTranslator) Translate(ctx context.Context, text string, opts translate.Options) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "[" + opts.TargetLang + "] " + text, nil
}
func (s *stubTranslator) Name() string { return "stub-translate" }

type stubSynth struct{}

func (s *stubSynth) Synthesize(ctx context.Context, text string) (*tts.Audio, error) {
	return &tts.Audio{Data: []byte("mp3-bytes"), Format: "mp3"}, nil
}
func (s *stubSynth) Name() string { return "stub-tts" }

// --- harness ---

type testAPI struct {
	srv      *httptest.Server
	db       *db.Database
	audioDir string
}

func newTestAPI(t *testing.T, translator translate.Translator) *testAPI {
	t.Helper()

	database, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.EnsureAdmin("admin", "adminpw"))

	audioDir := filepath.Join(t.TempDir(), "audio")
	audioStore, err := storage.NewAudioStore(audioDir)
	require.NoError(t, err)

	pl := pipeline.NewService(&stubOCR{text: "Take 1 tablet"}, translator, &stubSynth{})
	jwtService := auth.NewJWTService("test-secret")

	router := NewRouter(database, jwtService, pl, audioStore, nil)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testAPI{srv: srv, db: database, audioDir: audioDir}
}

func (a *testAPI) postJSON(t *testing.T, path, token string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest("POST", a.srv.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (a *testAPI) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest("GET", a.srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (a *testAPI) signupAndLogin(t *testing.T, username, password string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": password}

	resp := a.postJSON(t, "/api/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	return a.login(t, username, password)
}

func (a *testAPI) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := a.postJSON(t, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (a *testAPI) upload(t *testing.T, token string, fileName string, data []byte, lang string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("lang", lang))
	require.NoError(t, writer.Close())

	req, err := http.NewRequest("POST", a.srv.URL+"/api/convert", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func validPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(2, 2, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// --- tests ---

func TestSignupLoginDenialScenario(t *testing.T) {
	a := newTestAPI(t, &stubTranslator{})
	creds := map[string]string{"username": "alice", "password": "pw1"}

	resp := a.postJSON(t, "/api/auth/signup", "", creds)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Same username again is a denial, whatever the password.
	resp = a.postJSON(t, "/api/auth/signup", "", map[string]string{"username": "alice", "password": "pw2"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = a.postJSON(t, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = a.postJSON(t, "/api/auth/login", "", map[string]string{"username": "alice", "password": "pw2"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestSignupValidation(t *testing.T) {
	a := newTestAPI(t, &stubTranslator{})

	resp := a.postJSON(t, "/api/auth/signup", "", map[string]string{"username": "", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = a.postJSON(t, "/api/auth/signup", "", map[string]string{"username": "bob", "password": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newTestAPI(t, &stubTranslator{})

	for _, path := range []string{"/api/history", "/api/auth/me", "/api/languages"} {
		resp := a.get(t, path, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		resp.Body.Close()
	}
}

func TestConvertAndHistoryFlow(t *testing.T) {
	a := newTestAPI(t, &stubTranslator{})
	token := a.signupAndLogin(t, "alice", "pw1")

	resp := a.upload(t, token, "rx.png", validPNG(t), "hi")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var out struct {
		ID             int64  `json:"id"`
		FileName       string `json:"file_name"`
		ExtractedText  string `json:"extracted_text"`
		SimplifiedText string `json:"simplified_text"`
		AudioURL       string `json:"audio_url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "rx.png", out.FileName)
	assert.Equal(t, "Take 1 tablet", out.ExtractedText)
	assert.Equal(t, "[hi] Take 1 tablet", out.SimplifiedText)
	require.NotEmpty(t, out.AudioURL)

	// Synthesized audio is downloadable.
	audioResp := a.get(t, out.AudioURL, token)
	require.Equal(t, http.StatusOK, audioResp.StatusCode)
	audio, err := io.ReadAll(audioResp.Body)
	audioResp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
	assert.Equal(t, "audio/mpeg", audioResp.Header.Get("Content-Type"))

	// The conversion is the newest history entry for alice.
	histResp := a.get(t, "/api/history", token)
	require.Equal(t, http.StatusOK, histResp.StatusCode)
	var records []models.HistoryRecord
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&records))
	histResp.Body.Close()
	require.Len(t, records, 1)
	assert.Equal(t, out.ID, records[0].ID)
	assert.Equal(t, "alice", records[0].Username)
	assert.Equal(t, "[hi] Take 1 tablet", records[0].SimplifiedText)

	// Another user's history stays empty, and alice's clip is not theirs
	// to fetch even with the URL in hand.
	otherToken := a.signupAndLogin(t, "bob", "pw2")
	histResp = a.get(t, "/api/history", otherToken)
	require.Equal(t, http.StatusOK, histResp.StatusCode)
	records = nil
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&records))
	histResp.Body.Close()
	assert.Empty(t, records)

	crossResp := a.get(t, out.AudioURL, otherToken)
	assert.Equal(t, http.StatusNotFound, crossResp.StatusCode)
	crossResp.Body.Close()
}

func TestConvertAudioStoreFailureDegrades(t *testing.T) {
	a := newTestAPI(t, &stubTranslator{})
	token := a.signupAndLogin(t, "alice", "pw1")

	// Replace the audio directory with a plain file so clip writes fail.
	require.NoError(t, os.RemoveAll(a.audioDir))
	require.NoError(t, os.WriteFile(a.audioDir, []byte("x"), 0644))

	resp := a.upload(t, token, "rx.png", validPNG(t), "hi")
	require.Equal(t, http.StatusOK, resp.StatusCode, "a lost clip must not void the conversion")
	defer resp.Body.Close()

	var out struct {
		ExtractedText string `json:"extracted_text"`
		AudioURL      string `json:"audio_url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Take 1 tablet", out.ExtractedText)
	assert.Empty(t, out.AudioURL)

	// The history row was still written.
	histResp := a.get(t, "/api/history", token)
	var records []models.HistoryRecord
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&records))
	histResp.Body.Close()
	require.Len(t, records, 1)
}

func TestConvertTranslationFailureStillSucceeds(t *testing.T) {
	a := newTestAPI(t, &stubTranslator{err: errors.New("engine down")})
	token := a.signupAndLogin(t, "alice", "pw1")

	resp := a.upload(t, token, "rx.png", validPNG(t), "hi")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var out struct {
		ExtractedText  string `json:"extracted_text"`
		SimplifiedText string `json:"simplified_text"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, out.ExtractedText, out.SimplifiedText)
}

func TestConvertRejectsBadImage(t *testing.T) {
	a := newTestAPI(t, &stubTranslator{})
	token := a.signupAndLogin(t, "alice", "pw1")

	resp := a.upload(t, token, "junk.png", []byte("not an image"), "en")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	defer resp.Body.Close()

	var out struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.Error, "could not decode image")

	// A hard failure leaves the dashboard state untouched: no history row.
	histResp := a.get(t, "/api/history", token)
	var records []models.HistoryRecord
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&records))
	histResp.Body.Close()
	assert.Empty(t, records)
}

func TestChangePassword(t *testing.T) {
	a := newTestAPI(t, &stubTranslator{})
	token := a.signupAndLogin(t, "alice", "pw1")

	req, err := http.NewRequest("PUT", a.srv.URL+"/api/auth/password",
		bytes.NewReader([]byte(`{"new_password":"pw2"}`)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Old password denied, new one accepted.
	loginResp := a.postJSON(t, "/api/auth/login", "", map[string]string{"username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusUnauthorized, loginResp.StatusCode)
	loginResp.Body.Close()
	a.login(t, "alice", "pw2")
}

func TestLanguages(t *testing.T) {
	a := newTestAPI(t, &stubTranslator{})
	token := a.signupAndLogin(t, "alice", "pw1")

	resp := a.get(t, "/api/languages", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var langs []translate.Language
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&langs))
	codes := make([]string, len(langs))
	for i, l := range langs {
		codes[i] = l.Code
	}
	assert.Subset(t, codes, []string{"en", "hi", "te", "es", "fr", "de"})
}

func TestSettingsAdminOnly(t *testing.T) {
	a := newTestAPI(t, &stubTranslator{})
	userToken := a.signupAndLogin(t, "alice", "pw1")

	resp := a.get(t, "/api/settings", userToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	adminToken := a.login(t, "admin", "adminpw")
	resp = a.get(t, "/api/settings", adminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestMe(t *testing.T) {
	a := newTestAPI(t, &stubTranslator{})
	token := a.signupAndLogin(t, "alice", "pw1")

	resp := a.get(t, "/api/auth/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "user", me.Role)
}

func TestLogout(t *testing.T) {
	a := newTestAPI(t, &stubTranslator{})
	token := a.signupAndLogin(t, "alice", "pw1")

	resp := a.postJSON(t, "/api/auth/logout", token, struct{}{})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}
