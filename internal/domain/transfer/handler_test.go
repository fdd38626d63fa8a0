package transfer

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ems/transport/internal/platform/auth"
)

func doRequest(t *testing.T, h *Handler, method, path, body string, actor *auth.Actor, fn echo.HandlerFunc, paramTarget string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), actor))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if paramTarget != "" {
		c.SetParamNames("targetId")
		c.SetParamValues(paramTarget)
	}
	return rec, fn(c)
}

func hospitalAuthActor(hospitalID int) *auth.Actor {
	return &auth.Actor{ID: 20, Role: auth.RoleHospital, HospitalID: &hospitalID}
}

func TestHandler_RespondRejectedTransitionIs400(t *testing.T) {
	svc, _ := testService()
	h := NewHandler(svc)
	result := sendToAll(t, svc)
	targetID := strconv.FormatInt(result.Targets[0].TargetID, 10)

	_, err := doRequest(t, h, http.MethodPatch, "/hospitals/requests/"+targetID+"/status",
		`{"status":"TRANSPORT_DECIDED"}`, hospitalAuthActor(1), h.Respond, targetID)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for rejected transition, got %v", err)
	}
}

func TestHandler_GetDetailUnknownTargetIs404(t *testing.T) {
	svc, _ := testService()
	h := NewHandler(svc)

	_, err := doRequest(t, h, http.MethodGet, "/hospitals/requests/999",
		"", hospitalAuthActor(1), h.GetDetail, "999")

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_GetDetailForeignTargetIs403(t *testing.T) {
	svc, _ := testService()
	h := NewHandler(svc)
	result := sendToAll(t, svc)
	targetID := strconv.FormatInt(result.Targets[0].TargetID, 10)

	_, err := doRequest(t, h, http.MethodGet, "/hospitals/requests/"+targetID,
		"", hospitalAuthActor(2), h.GetDetail, targetID)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestHandler_InvalidTargetIDIs400(t *testing.T) {
	svc, _ := testService()
	h := NewHandler(svc)

	_, err := doRequest(t, h, http.MethodGet, "/hospitals/requests/abc",
		"", hospitalAuthActor(1), h.GetDetail, "abc")

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_SendRequestCreated(t *testing.T) {
	svc, _ := testService()
	h := NewHandler(svc)

	body := `{"request_id":"req-9","case_id":"case-9","hospitals":[{"hospital_id":101}]}`
	rec, err := doRequest(t, h, http.MethodPost, "/transfer-requests",
		body, &auth.Actor{ID: 10, Role: auth.RoleEMS}, h.SendRequest, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"request_id":"req-9"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_AggregateParsesQuery(t *testing.T) {
	svc, _ := testService()
	h := NewHandler(svc)
	sendToAll(t, svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/transfer-requests/aggregate?case_id=case-1&request_ids=req-1,%20,req-1", nil)
	req = req.WithContext(auth.WithActor(req.Context(), &auth.Actor{ID: 10, Role: auth.RoleEMS}))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Aggregate(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"target_count":3`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}
