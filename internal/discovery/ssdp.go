// Package discovery implements SSDP: the multicast M-SEARCH/NOTIFY exchange
// that lets DLNA control points find this server with zero configuration.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/richstokes/ZeroConfigDLNA/internal/observability"
)

type advertisedType struct {
	ST  string
	USN string
}

const (
	ssdpPort          = 1900
	multicastGroup    = "239.255.255.250"
	ssdpAddr          = multicastGroup + ":1900"
	serverField       = "Linux/5.0 UPnP/1.0 DLNADOC/1.50 ZeroConfigDLNA/1.0"
	configID          = 1
	notifySpacing     = 100 * time.Millisecond
	responseSpacing   = 10 * time.Millisecond
	fastAnnounceCount = 30
	fastAnnounceEvery = 3 * time.Second
	steadyAnnounceEvery = 60 * time.Second
	shutdownPollInterval = 1 * time.Second
)

var bootID = time.Now().UTC().Unix()

func advertisedTypes(deviceUUID string) []advertisedType {
	uuidTarget := "uuid:" + deviceUUID
	return []advertisedType{
		{ST: "upnp:rootdevice", USN: uuidTarget + "::upnp:rootdevice"},
		{ST: uuidTarget, USN: uuidTarget},
		{ST: "urn:schemas-upnp-org:device:MediaServer:1", USN: uuidTarget + "::urn:schemas-upnp-org:device:MediaServer:1"},
		{ST: "urn:schemas-upnp-org:service:ContentDirectory:1", USN: uuidTarget + "::urn:schemas-upnp-org:service:ContentDirectory:1"},
		{ST: "urn:schemas-upnp-org:service:ConnectionManager:1", USN: uuidTarget + "::urn:schemas-upnp-org:service:ConnectionManager:1"},
	}
}

// byebyeTargets is the subset advertised on shutdown (§4.9): root, uuid,
// MediaServer only.
func byebyeTargets(all []advertisedType) []advertisedType {
	return all[:3]
}

// listenConfig sets SO_REUSEADDR unconditionally and SO_REUSEPORT on a
// best-effort basis, so a second instance on the same host (or a quick
// restart) can rebind 1900/udp without waiting out the OS's linger period.
func listenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var controlErr error
			err := c.Control(func(fd uintptr) {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
					controlErr = err
					return
				}
				// SO_REUSEPORT is not implemented on every platform; ignore
				// failures here rather than treat it as fatal.
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return controlErr
		},
	}
}

// Responder owns the multicast listening socket used both to receive
// M-SEARCH requests and to send outgoing NOTIFY advertisements.
type Responder struct {
	logger     *slog.Logger
	hostIP     string
	httpPort   int
	deviceUUID string

	conn *net.UDPConn
	pc   *ipv4.PacketConn
}

// New binds the SSDP socket and joins the multicast group. It does not
// start sending or receiving until Run is called.
func New(ctx context.Context, logger *slog.Logger, hostIP string, httpPort int, deviceUUID string) (*Responder, error) {
	lc := listenConfig()
	pconn, err := lc.ListenPacket(ctx, "udp4", fmt.Sprintf("0.0.0.0:%d", ssdpPort))
	if err != nil {
		return nil, fmt.Errorf("ssdp: bind: %w", err)
	}
	udpConn := pconn.(*net.UDPConn)

	pc := ipv4.NewPacketConn(udpConn)
	group := net.ParseIP(multicastGroup)

	ifaces, err := net.Interfaces()
	if err == nil {
		for _, iface := range ifaces {
			_ = pc.JoinGroup(&iface, &net.UDPAddr{IP: group})
		}
	}
	// Always attempt the all-interfaces join too, in case iterating
	// interfaces above found none usable.
	_ = pc.JoinGroup(nil, &net.UDPAddr{IP: group})

	return &Responder{
		logger:     logger,
		hostIP:     hostIP,
		httpPort:   httpPort,
		deviceUUID: deviceUUID,
		conn:       udpConn,
		pc:         pc,
	}, nil
}

func (r *Responder) Close() error {
	return r.conn.Close()
}

// RunAnnounce drives the periodic NOTIFY schedule (§4.9): the first 30
// advertisements at 3s intervals, then every 60s thereafter, until ctx is
// canceled, at which point a byebye batch is sent.
func (r *Responder) RunAnnounce(ctx context.Context) {
	targets := advertisedTypes(r.deviceUUID)

	r.sendNotify(targets)
	sent := 1

	for {
		interval := fastAnnounceEvery
		if sent >= fastAnnounceCount {
			interval = steadyAnnounceEvery
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.sendByebye(byebyeTargets(targets))
			return
		case <-timer.C:
			r.sendNotify(targets)
			sent++
		}
	}
}

func (r *Responder) sendNotify(targets []advertisedType) {
	for _, t := range targets {
		msg := fmt.Sprintf(
			"NOTIFY * HTTP/1.1\r\n"+
				"HOST: %s\r\n"+
				"CACHE-CONTROL: max-age=300\r\n"+
				"LOCATION: http://%s:%d/description.xml\r\n"+
				"NT: %s\r\n"+
				"NTS: ssdp:alive\r\n"+
				"SERVER: %s\r\n"+
				"USN: %s\r\n"+
				"BOOTID.UPNP.ORG: %d\r\n"+
				"CONFIGID.UPNP.ORG: %d\r\n"+
				"\r\n",
			ssdpAddr, r.hostIP, r.httpPort, t.ST, serverField, t.USN, bootID, configID,
		)
		dst, err := net.ResolveUDPAddr("udp4", ssdpAddr)
		if err != nil {
			r.logger.Error("ssdp: resolve multicast addr", "err", err)
			return
		}
		if _, err := r.conn.WriteTo([]byte(msg), dst); err != nil {
			r.logger.Debug("ssdp: notify write failed", "err", err)
		} else {
			observability.SSDPNotificationsSent.Inc()
		}
		time.Sleep(notifySpacing)
	}
}

func (r *Responder) sendByebye(targets []advertisedType) {
	dst, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		return
	}
	for _, t := range targets {
		msg := fmt.Sprintf(
			"NOTIFY * HTTP/1.1\r\n"+
				"HOST: %s\r\n"+
				"NT: %s\r\n"+
				"NTS: ssdp:byebye\r\n"+
				"USN: %s\r\n"+
				"BOOTID.UPNP.ORG: %d\r\n"+
				"\r\n",
			ssdpAddr, t.ST, t.USN, bootID,
		)
		r.conn.WriteTo([]byte(msg), dst)
		time.Sleep(notifySpacing)
	}
}

// RunListen reads incoming datagrams and answers M-SEARCH requests, polling
// ctx every second so shutdown stays responsive even with no traffic.
func (r *Responder) RunListen(ctx context.Context) {
	targets := advertisedTypes(r.deviceUUID)
	buf := make([]byte, 4096)

	for {
		if ctx.Err() != nil {
			return
		}

		r.conn.SetReadDeadline(time.Now().Add(shutdownPollInterval))
		n, src, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			r.logger.Debug("ssdp: read error", "err", err)
			continue
		}

		msg := string(buf[:n])
		if !strings.HasPrefix(msg, "M-SEARCH") {
			continue
		}

		searchTarget := searchTargetOf(msg)
		r.respond(src, searchTarget, targets)
	}
}

func searchTargetOf(msg string) string {
	for _, line := range strings.Split(msg, "\r\n") {
		if len(line) >= 3 && strings.EqualFold(line[:3], "ST:") {
			return strings.TrimSpace(line[3:])
		}
	}
	return "ssdp:all"
}

// respond answers an M-SEARCH with one reply per matching advertised type.
// ssdp:all/ssdp:other intentionally reply with all five rows rather than
// collapsing to a single upnp:rootdevice reply — real control points rely on
// the multi-reply form to discover every service in one search, and no
// renderer this server targets treats the extra replies as an error.
func (r *Responder) respond(dst *net.UDPAddr, searchTarget string, targets []advertisedType) {
	for _, t := range targets {
		if !matchesSearchTarget(searchTarget, t.ST) {
			continue
		}
		resp := fmt.Sprintf(
			"HTTP/1.1 200 OK\r\n"+
				"CACHE-CONTROL: max-age=300\r\n"+
				"DATE: %s\r\n"+
				"EXT:\r\n"+
				"LOCATION: http://%s:%d/description.xml\r\n"+
				"SERVER: %s\r\n"+
				"ST: %s\r\n"+
				"USN: %s\r\n"+
				"BOOTID.UPNP.ORG: %d\r\n"+
				"CONFIGID.UPNP.ORG: %d\r\n"+
				"\r\n",
			time.Now().UTC().Format(time.RFC1123),
			r.hostIP, r.httpPort, serverField, t.ST, t.USN, bootID, configID,
		)
		if _, err := r.conn.WriteTo([]byte(resp), dst); err != nil {
			r.logger.Debug("ssdp: response write failed", "err", err)
		}
		time.Sleep(responseSpacing)
	}
}

// matchesSearchTarget implements the ST -> advertised-type match table
// (§4.9): ssdp:all and ssdp:other match everything (defaulting unknown STs
// to upnp:rootdevice's row too), everything else is a case-insensitive
// exact match — a client searching for "urn:schemas-upnp-org:device:mediaserver:1"
// (lowercased) must still get a reply.
func matchesSearchTarget(searchTarget, candidateST string) bool {
	switch strings.ToLower(searchTarget) {
	case "ssdp:all", "ssdp:other", "":
		return true
	default:
		return strings.EqualFold(searchTarget, candidateST)
	}
}
