package api

import (
	"net"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/richstokes/ZeroConfigDLNA/internal/didl"
	"github.com/richstokes/ZeroConfigDLNA/internal/identity"
	"github.com/richstokes/ZeroConfigDLNA/internal/media"
)

// Config holds the DLNA-identity fields the handlers substitute into the
// device description; media/server settings otherwise live on Handler.
type Config struct {
	FriendlyName string
	Manufacturer string
	ModelNumber  string
}

// Handler is the single receiver for every HTTP route this server answers.
// Library and Identity are safe for concurrent use across requests; Handler
// itself holds no per-request state.
type Handler struct {
	Library  *media.Library
	Identity *identity.Tracker
	config   Config
	logger   *slog.Logger
}

func NewHandler(lib *media.Library, id *identity.Tracker, cfg Config, logger *slog.Logger) *Handler {
	return &Handler{
		Library:  lib,
		Identity: id,
		config:   cfg,
		logger:   logger,
	}
}

// HandleDescription serves the UPnP device description document.
func (h *Handler) HandleDescription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	host, port := splitHostPort(r.Host)

	doc := didl.DeviceDescription(didl.DeviceInfo{
		FriendlyName: h.config.FriendlyName,
		Manufacturer: h.config.Manufacturer,
		ModelNumber:  h.config.ModelNumber,
		DeviceUUID:   h.Identity.UUID(),
		ServerIP:     host,
		Port:         port,
	})

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.Header().Set("EXT", "")
	w.Write([]byte(doc))
}

func (h *Handler) HandleCDSCPD(w http.ResponseWriter, r *http.Request) {
	writeXML(w, didl.ContentDirectorySCPD)
}

func (h *Handler) HandleCMSCPD(w http.ResponseWriter, r *http.Request) {
	writeXML(w, didl.ConnectionManagerSCPD)
}

// HandleEvents stubs the GENA SUBSCRIBE/UNSUBSCRIBE handshake. No events are
// ever delivered; every DLNA client falls back to polling Browse.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "SUBSCRIBE":
		w.Header().Set("SID", "uuid:dummy-subscription-"+h.Identity.UUID())
		w.Header().Set("TIMEOUT", "Second-1800")
		w.WriteHeader(http.StatusOK)
	case "UNSUBSCRIBE":
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeXML(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.Write([]byte(doc))
}

// writeSOAPResponse writes a SOAP control-response envelope (Browse and
// every ConnectionManager/ContentDirectory action response). §4.5 requires
// the quoted charset and an empty Ext header on these specifically — SCPD
// documents and the device description are plain GET responses and don't
// carry either.
func writeSOAPResponse(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.Header().Set("Ext", "")
	w.Write([]byte(doc))
}

// splitHostPort pulls the numeric port out of an r.Host value, tolerating a
// bare host with no port (returns 0).
func splitHostPort(hostport string) (string, int) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}
