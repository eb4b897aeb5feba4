package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/richstokes/ZeroConfigDLNA/internal/didl"
)

const (
	serviceContentDirectory  = "urn:schemas-upnp-org:service:ContentDirectory:1"
	serviceConnectionManager = "urn:schemas-upnp-org:service:ConnectionManager:1"
)

// HandleControl is the single POST /control entry point for both services.
// Actions are routed by the SOAPAction header first, falling back to a
// substring match against the raw body when the header is absent or
// malformed — some clients (and some proxies) drop it (§4.6).
func (h *Handler) HandleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	action := soapActionFromHeader(r.Header.Get("SOAPACTION"))
	if action == "" {
		action = soapActionFromBody(string(body))
	}

	switch action {
	case "Browse":
		h.handleBrowse(w, r, string(body))
	case "GetSearchCapabilities":
		h.handleGetSearchCapabilities(w)
	case "GetSortCapabilities":
		h.handleGetSortCapabilities(w)
	case "GetSystemUpdateID":
		h.handleGetSystemUpdateID(w)
	case "GetProtocolInfo":
		h.handleGetProtocolInfo(w)
	case "GetCurrentConnectionIDs":
		h.handleGetCurrentConnectionIDs(w)
	case "GetCurrentConnectionInfo":
		h.handleGetCurrentConnectionInfo(w)
	default:
		err := errors.Errorf("unrecognized SOAP action %q", action)
		h.logger.Debug("soap dispatch failed", "err", err, "remote", r.RemoteAddr)
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		w.Header().Set("Ext", "")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(didl.FaultEnvelope(401, "Invalid Action")))
	}
}

var knownActions = []string{
	"Browse",
	"GetSearchCapabilities",
	"GetSortCapabilities",
	"GetSystemUpdateID",
	"GetProtocolInfo",
	"GetCurrentConnectionIDs",
	"GetCurrentConnectionInfo",
}

// soapActionFromHeader extracts the bare action name from a SOAPAction
// header of the form `"urn:schemas-upnp-org:service:ContentDirectory:1#Browse"`.
func soapActionFromHeader(header string) string {
	header = strings.Trim(header, `"`)
	idx := strings.LastIndex(header, "#")
	if idx == -1 || idx+1 >= len(header) {
		return ""
	}
	return header[idx+1:]
}

func soapActionFromBody(body string) string {
	for _, name := range knownActions {
		if strings.Contains(body, "<"+name) || strings.Contains(body, ":"+name) {
			return name
		}
	}
	return ""
}

func (h *Handler) handleGetSearchCapabilities(w http.ResponseWriter) {
	writeSOAPResponse(w, didl.ResponseEnvelope(serviceContentDirectory, "GetSearchCapabilities", []didl.Arg{
		{Name: "SearchCaps", Value: "dc:title,dc:creator,upnp:class,upnp:genre,dc:date"},
	}))
}

func (h *Handler) handleGetSortCapabilities(w http.ResponseWriter) {
	writeSOAPResponse(w, didl.ResponseEnvelope(serviceContentDirectory, "GetSortCapabilities", []didl.Arg{
		{Name: "SortCaps", Value: "dc:title,dc:creator,dc:date,upnp:class"},
	}))
}

func (h *Handler) handleGetSystemUpdateID(w http.ResponseWriter) {
	id := h.Identity.SystemUpdateID()
	writeSOAPResponse(w, didl.ResponseEnvelope(serviceContentDirectory, "GetSystemUpdateID", []didl.Arg{
		{Name: "Id", Value: strconv.FormatUint(uint64(id), 10)},
	}))
}

func (h *Handler) handleGetProtocolInfo(w http.ResponseWriter) {
	writeSOAPResponse(w, didl.ResponseEnvelope(serviceConnectionManager, "GetProtocolInfo", []didl.Arg{
		{Name: "Source", Value: h.sourceProtocolInfoList()},
		{Name: "Sink", Value: ""},
	}))
}

func (h *Handler) handleGetCurrentConnectionIDs(w http.ResponseWriter) {
	writeSOAPResponse(w, didl.ResponseEnvelope(serviceConnectionManager, "GetCurrentConnectionIDs", []didl.Arg{
		{Name: "ConnectionIDs", Value: "0"},
	}))
}

func (h *Handler) handleGetCurrentConnectionInfo(w http.ResponseWriter) {
	writeSOAPResponse(w, didl.ResponseEnvelope(serviceConnectionManager, "GetCurrentConnectionInfo", []didl.Arg{
		{Name: "RcsID", Value: "-1"},
		{Name: "AVTransportID", Value: "-1"},
		{Name: "ProtocolInfo", Value: ""},
		{Name: "PeerConnectionManager", Value: ""},
		{Name: "PeerConnectionID", Value: "-1"},
		{Name: "Direction", Value: "Output"},
		{Name: "Status", Value: "OK"},
	}))
}

// sourceProtocolInfoList comma-joins a http-get protocolInfo entry for every
// MIME type this server's DLNA profile table knows about.
func (h *Handler) sourceProtocolInfoList() string {
	mimes := []string{
		"video/mp4", "video/x-msvideo", "video/x-matroska",
		"audio/mpeg", "audio/wav", "audio/mp4", "audio/x-m4a",
		"image/jpeg", "image/png",
	}
	infos := make([]string, 0, len(mimes))
	for _, m := range mimes {
		infos = append(infos, didl.ProtocolInfo(m, false))
	}
	return strings.Join(infos, ",")
}
