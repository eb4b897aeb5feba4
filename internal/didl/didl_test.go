package didl

import (
	"encoding/xml"
	"strings"
	"testing"
)

func TestDeviceDescriptionSubstitutesFields(t *testing.T) {
	t.Parallel()

	xmlStr := DeviceDescription(DeviceInfo{
		FriendlyName: "TestServer",
		Manufacturer: "Acme",
		ModelNumber:  "1.0.0",
		DeviceUUID:   "65da942e-1984-3309-aaaa-bbbbbbbbcccc",
		ServerIP:     "192.168.1.10",
		Port:         8200,
	})

	for _, want := range []string{
		"<friendlyName>TestServer</friendlyName>",
		"<UDN>uuid:65da942e-1984-3309-aaaa-bbbbbbbbcccc</UDN>",
		"<dlna:X_DLNADOC",
		"DMS-1.50",
		"<SCPDURL>/cd_scpd.xml</SCPDURL>",
		"<SCPDURL>/cm_scpd.xml</SCPDURL>",
		"http://192.168.1.10:8200/",
	} {
		if !strings.Contains(xmlStr, want) {
			t.Errorf("device description missing %q", want)
		}
	}
}

func TestProfileTableFlagsAre32Digits(t *testing.T) {
	t.Parallel()

	if len(FlagsStreaming) != 32 {
		t.Errorf("FlagsStreaming has %d hex digits, want 32", len(FlagsStreaming))
	}
	if len(FlagsImage) != 32 {
		t.Errorf("FlagsImage has %d hex digits, want 32", len(FlagsImage))
	}
}

func TestProtocolInfoKnownProfile(t *testing.T) {
	t.Parallel()

	got := ProtocolInfo("video/mp4", false)
	want := "http-get:*:video/mp4:DLNA.ORG_PN=AVC_MP4_MP_SD_AAC_MULT5;DLNA.ORG_OP=01;DLNA.ORG_FLAGS=" + FlagsStreaming
	if got != want {
		t.Errorf("ProtocolInfo(video/mp4) = %q, want %q", got, want)
	}
}

func TestProtocolInfoIncludesCIWhenRequested(t *testing.T) {
	t.Parallel()

	got := ProtocolInfo("audio/mpeg", true)
	if !strings.Contains(got, "DLNA.ORG_CI=0") {
		t.Errorf("expected DLNA.ORG_CI=0 in %q", got)
	}
}

func TestProtocolInfoUnknownMimeOmitsPN(t *testing.T) {
	t.Parallel()

	got := ProtocolInfo("application/octet-stream", false)
	if strings.Contains(got, "DLNA.ORG_PN=") {
		t.Errorf("expected no PN token for unknown mime, got %q", got)
	}
}

func TestContentFeaturesHasNoProtocolInfoPrefix(t *testing.T) {
	t.Parallel()

	got := ContentFeatures("video/mp4", true)
	want := "DLNA.ORG_PN=AVC_MP4_MP_SD_AAC_MULT5;DLNA.ORG_OP=01;DLNA.ORG_CI=0;DLNA.ORG_FLAGS=" + FlagsStreaming
	if got != want {
		t.Errorf("ContentFeatures(video/mp4, true) = %q, want %q", got, want)
	}
	if strings.Contains(got, "http-get") {
		t.Errorf("ContentFeatures must not include the http-get:*:<mime>: protocolInfo prefix, got %q", got)
	}
}

func TestBuildDIDLRoundTrips(t *testing.T) {
	t.Parallel()

	doc := BuildDIDL(
		[]Container{{ID: "1", ParentID: "0", Title: "Media Library", ChildCount: 2}},
		[]Item{{
			ID: "2", ParentID: "1", Title: "a.mp4", Class: "object.item.videoItem",
			MimeType: "video/mp4", Size: 1048576, URL: "http://host/media/a.mp4",
		}},
	)

	type DIDLLite struct {
		XMLName    xml.Name `xml:"DIDL-Lite"`
		Containers []struct {
			ID         string `xml:"id,attr"`
			ParentID   string `xml:"parentID,attr"`
			ChildCount int    `xml:"childCount,attr"`
			Title      string `xml:"title"`
		} `xml:"container"`
		Items []struct {
			ID    string `xml:"id,attr"`
			Title string `xml:"title"`
			Res   struct {
				ProtocolInfo string `xml:"protocolInfo,attr"`
				Size         int64  `xml:"size,attr"`
				Value        string `xml:",chardata"`
			} `xml:"res"`
		} `xml:"item"`
	}

	var parsed DIDLLite
	if err := xml.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("DIDL-Lite document did not parse: %v", err)
	}
	if len(parsed.Containers) != 1 || parsed.Containers[0].ChildCount != 2 {
		t.Errorf("unexpected containers: %+v", parsed.Containers)
	}
	if len(parsed.Items) != 1 || parsed.Items[0].Res.Size != 1048576 {
		t.Errorf("unexpected items: %+v", parsed.Items)
	}
}

func TestResponseEnvelopeWrapsArgs(t *testing.T) {
	t.Parallel()

	env := ResponseEnvelope("urn:schemas-upnp-org:service:ContentDirectory:1", "Browse", []Arg{
		{Name: "Result", Value: "&lt;DIDL-Lite/&gt;"},
		{Name: "NumberReturned", Value: "1"},
		{Name: "TotalMatches", Value: "1"},
		{Name: "UpdateID", Value: "42"},
	})

	if !strings.Contains(env, "<u:BrowseResponse") {
		t.Error("expected BrowseResponse element")
	}
	if !strings.Contains(env, "<UpdateID>42</UpdateID>") {
		t.Error("expected UpdateID echoed")
	}
}

func TestFaultEnvelopeCarriesUPnPError(t *testing.T) {
	t.Parallel()

	fault := FaultEnvelope(401, "Invalid Action")
	if !strings.Contains(fault, "<errorCode>401</errorCode>") {
		t.Error("expected errorCode 401")
	}
	if !strings.Contains(fault, "Invalid Action") {
		t.Error("expected errorDescription text")
	}
}
