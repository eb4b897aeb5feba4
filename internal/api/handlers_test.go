package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleDescriptionServesDeviceXML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := newTestHandler(t, dir)

	req := httptest.NewRequest(http.MethodGet, "http://192.168.1.50:8200/description.xml", nil)
	rec := httptest.NewRecorder()
	h.HandleDescription(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, h.Identity.UUID()) {
		t.Error("description body should contain the device UUID")
	}
	if !strings.Contains(body, "192.168.1.50") {
		t.Error("description body should contain the resolved host")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/xml") {
		t.Errorf("Content-Type = %q, want text/xml", ct)
	}
}

func TestHandleDescriptionRejectsPost(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := newTestHandler(t, dir)

	req := httptest.NewRequest(http.MethodPost, "/description.xml", nil)
	rec := httptest.NewRecorder()
	h.HandleDescription(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleSCPDEndpoints(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := newTestHandler(t, dir)

	cdRec := httptest.NewRecorder()
	h.HandleCDSCPD(cdRec, httptest.NewRequest(http.MethodGet, "/cd_scpd.xml", nil))
	if !strings.Contains(cdRec.Body.String(), "ContentDirectory") && !strings.Contains(cdRec.Body.String(), "Browse") {
		t.Error("expected ContentDirectory SCPD to mention Browse action")
	}

	cmRec := httptest.NewRecorder()
	h.HandleCMSCPD(cmRec, httptest.NewRequest(http.MethodGet, "/cm_scpd.xml", nil))
	if !strings.Contains(cmRec.Body.String(), "GetProtocolInfo") {
		t.Error("expected ConnectionManager SCPD to mention GetProtocolInfo action")
	}
}

func TestHandleEventsSubscribeAndUnsubscribe(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := newTestHandler(t, dir)

	subReq := httptest.NewRequest("SUBSCRIBE", "/events", nil)
	subRec := httptest.NewRecorder()
	h.HandleEvents(subRec, subReq)
	if subRec.Code != http.StatusOK {
		t.Fatalf("SUBSCRIBE status = %d, want 200", subRec.Code)
	}
	if subRec.Header().Get("SID") == "" {
		t.Error("expected a SID header on SUBSCRIBE")
	}
	if subRec.Header().Get("TIMEOUT") == "" {
		t.Error("expected a TIMEOUT header on SUBSCRIBE")
	}

	unsubReq := httptest.NewRequest("UNSUBSCRIBE", "/events", nil)
	unsubRec := httptest.NewRecorder()
	h.HandleEvents(unsubRec, unsubReq)
	if unsubRec.Code != http.StatusOK {
		t.Errorf("UNSUBSCRIBE status = %d, want 200", unsubRec.Code)
	}
}

func TestHandleEventsRejectsOtherMethods(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := newTestHandler(t, dir)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	h.HandleEvents(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestSplitHostPort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		wantHost string
		wantPort int
	}{
		{"192.168.1.5:8200", "192.168.1.5", 8200},
		{"192.168.1.5", "192.168.1.5", 0},
		{"[::1]:8200", "::1", 8200},
	}

	for _, tt := range tests {
		host, port := splitHostPort(tt.in)
		if host != tt.wantHost || port != tt.wantPort {
			t.Errorf("splitHostPort(%q) = (%q, %d), want (%q, %d)", tt.in, host, port, tt.wantHost, tt.wantPort)
		}
	}
}
