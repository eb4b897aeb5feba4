// Package didl is the XML document factory: it produces the device
// description, the two SCPD documents, DIDL-Lite fragments and the SOAP
// envelopes that carry them, each to the byte precision DLNA clients expect.
package didl

import (
	"fmt"
	"strconv"
	"strings"
)

// DeviceInfo carries the handful of fields the device description template
// substitutes; everything else in the document is fixed.
type DeviceInfo struct {
	FriendlyName string
	Manufacturer string
	ModelNumber  string
	DeviceUUID   string
	ServerIP     string
	Port         int
}

const deviceDescriptionTemplate = `<?xml version="1.0" encoding="utf-8"?>
<root xmlns="urn:schemas-upnp-org:device-1-0" xmlns:dlna="urn:schemas-dlna-org:device-1-0">
    <specVersion>
        <major>1</major>
        <minor>0</minor>
    </specVersion>
    <device>
        <deviceType>urn:schemas-upnp-org:device:MediaServer:1</deviceType>
        <friendlyName>%s</friendlyName>
        <manufacturer>%s</manufacturer>
        <manufacturerURL>https://github.com/richstokes/ZeroConfigDLNA</manufacturerURL>
        <modelDescription>DLNA/UPnP Media Server</modelDescription>
        <modelName>%s</modelName>
        <modelNumber>%s</modelNumber>
        <modelURL>https://github.com/richstokes/ZeroConfigDLNA</modelURL>
        <serialNumber>12345678</serialNumber>
        <UDN>uuid:%s</UDN>
        <dlna:X_DLNADOC xmlns:dlna="urn:schemas-dlna-org:device-1-0">DMS-1.50</dlna:X_DLNADOC>
        <serviceList>
            <service>
                <serviceType>urn:schemas-upnp-org:service:ContentDirectory:1</serviceType>
                <serviceId>urn:upnp-org:serviceId:ContentDirectory</serviceId>
                <controlURL>/control</controlURL>
                <eventSubURL>/events</eventSubURL>
                <SCPDURL>/cd_scpd.xml</SCPDURL>
            </service>
            <service>
                <serviceType>urn:schemas-upnp-org:service:ConnectionManager:1</serviceType>
                <serviceId>urn:upnp-org:serviceId:ConnectionManager</serviceId>
                <controlURL>/control</controlURL>
                <eventSubURL>/events</eventSubURL>
                <SCPDURL>/cm_scpd.xml</SCPDURL>
            </service>
        </serviceList>
        <presentationURL>http://%s:%d/</presentationURL>
    </device>
</root>`

// DeviceDescription renders the /description.xml document.
func DeviceDescription(info DeviceInfo) string {
	return fmt.Sprintf(deviceDescriptionTemplate,
		info.FriendlyName,
		info.Manufacturer,
		info.FriendlyName,
		info.ModelNumber,
		info.DeviceUUID,
		info.ServerIP,
		info.Port,
	)
}

// ContentDirectorySCPD is the fixed SCPD document for the ContentDirectory
// service, advertising exactly the actions this server implements (§4.6).
const ContentDirectorySCPD = `<?xml version="1.0" encoding="utf-8"?>
<scpd xmlns="urn:schemas-upnp-org:service-1-0">
    <specVersion>
        <major>1</major>
        <minor>0</minor>
    </specVersion>
    <actionList>
        <action>
            <name>Browse</name>
            <argumentList>
                <argument>
                    <name>ObjectID</name>
                    <direction>in</direction>
                    <relatedStateVariable>A_ARG_TYPE_ObjectID</relatedStateVariable>
                </argument>
                <argument>
                    <name>BrowseFlag</name>
                    <direction>in</direction>
                    <relatedStateVariable>A_ARG_TYPE_BrowseFlag</relatedStateVariable>
                </argument>
                <argument>
                    <name>Filter</name>
                    <direction>in</direction>
                    <relatedStateVariable>A_ARG_TYPE_Filter</relatedStateVariable>
                </argument>
                <argument>
                    <name>StartingIndex</name>
                    <direction>in</direction>
                    <relatedStateVariable>A_ARG_TYPE_Index</relatedStateVariable>
                </argument>
                <argument>
                    <name>RequestedCount</name>
                    <direction>in</direction>
                    <relatedStateVariable>A_ARG_TYPE_Count</relatedStateVariable>
                </argument>
                <argument>
                    <name>SortCriteria</name>
                    <direction>in</direction>
                    <relatedStateVariable>A_ARG_TYPE_SortCriteria</relatedStateVariable>
                </argument>
                <argument>
                    <name>Result</name>
                    <direction>out</direction>
                    <relatedStateVariable>A_ARG_TYPE_Result</relatedStateVariable>
                </argument>
                <argument>
                    <name>NumberReturned</name>
                    <direction>out</direction>
                    <relatedStateVariable>A_ARG_TYPE_Count</relatedStateVariable>
                </argument>
                <argument>
                    <name>TotalMatches</name>
                    <direction>out</direction>
                    <relatedStateVariable>A_ARG_TYPE_Count</relatedStateVariable>
                </argument>
                <argument>
                    <name>UpdateID</name>
                    <direction>out</direction>
                    <relatedStateVariable>A_ARG_TYPE_UpdateID</relatedStateVariable>
                </argument>
            </argumentList>
        </action>
        <action>
            <name>GetSearchCapabilities</name>
            <argumentList>
                <argument>
                    <name>SearchCaps</name>
                    <direction>out</direction>
                    <relatedStateVariable>SearchCapabilities</relatedStateVariable>
                </argument>
            </argumentList>
        </action>
        <action>
            <name>GetSortCapabilities</name>
            <argumentList>
                <argument>
                    <name>SortCaps</name>
                    <direction>out</direction>
                    <relatedStateVariable>SortCapabilities</relatedStateVariable>
                </argument>
            </argumentList>
        </action>
        <action>
            <name>GetSystemUpdateID</name>
            <argumentList>
                <argument>
                    <name>Id</name>
                    <direction>out</direction>
                    <relatedStateVariable>SystemUpdateID</relatedStateVariable>
                </argument>
            </argumentList>
        </action>
    </actionList>
    <serviceStateTable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_ObjectID</name>
            <dataType>string</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_BrowseFlag</name>
            <dataType>string</dataType>
            <allowedValueList>
                <allowedValue>BrowseMetadata</allowedValue>
                <allowedValue>BrowseDirectChildren</allowedValue>
            </allowedValueList>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_Filter</name>
            <dataType>string</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_Index</name>
            <dataType>ui4</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_Count</name>
            <dataType>ui4</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_SortCriteria</name>
            <dataType>string</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_Result</name>
            <dataType>string</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_UpdateID</name>
            <dataType>ui4</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>SearchCapabilities</name>
            <dataType>string</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>SortCapabilities</name>
            <dataType>string</dataType>
        </stateVariable>
        <stateVariable sendEvents="yes">
            <name>SystemUpdateID</name>
            <dataType>ui4</dataType>
        </stateVariable>
        <stateVariable sendEvents="yes">
            <name>ContainerUpdateIDs</name>
            <dataType>string</dataType>
        </stateVariable>
    </serviceStateTable>
</scpd>`

// ConnectionManagerSCPD is the fixed SCPD document for the ConnectionManager
// service.
const ConnectionManagerSCPD = `<?xml version="1.0" encoding="utf-8"?>
<scpd xmlns="urn:schemas-upnp-org:service-1-0">
    <specVersion>
        <major>1</major>
        <minor>0</minor>
    </specVersion>
    <actionList>
        <action>
            <name>GetProtocolInfo</name>
            <argumentList>
                <argument>
                    <name>Source</name>
                    <direction>out</direction>
                    <relatedStateVariable>SourceProtocolInfo</relatedStateVariable>
                </argument>
                <argument>
                    <name>Sink</name>
                    <direction>out</direction>
                    <relatedStateVariable>SinkProtocolInfo</relatedStateVariable>
                </argument>
            </argumentList>
        </action>
        <action>
            <name>GetCurrentConnectionIDs</name>
            <argumentList>
                <argument>
                    <name>ConnectionIDs</name>
                    <direction>out</direction>
                    <relatedStateVariable>CurrentConnectionIDs</relatedStateVariable>
                </argument>
            </argumentList>
        </action>
        <action>
            <name>GetCurrentConnectionInfo</name>
            <argumentList>
                <argument>
                    <name>ConnectionID</name>
                    <direction>in</direction>
                    <relatedStateVariable>A_ARG_TYPE_ConnectionID</relatedStateVariable>
                </argument>
                <argument>
                    <name>RcsID</name>
                    <direction>out</direction>
                    <relatedStateVariable>A_ARG_TYPE_RcsID</relatedStateVariable>
                </argument>
                <argument>
                    <name>AVTransportID</name>
                    <direction>out</direction>
                    <relatedStateVariable>A_ARG_TYPE_AVTransportID</relatedStateVariable>
                </argument>
                <argument>
                    <name>ProtocolInfo</name>
                    <direction>out</direction>
                    <relatedStateVariable>A_ARG_TYPE_ProtocolInfo</relatedStateVariable>
                </argument>
                <argument>
                    <name>PeerConnectionManager</name>
                    <direction>out</direction>
                    <relatedStateVariable>A_ARG_TYPE_ConnectionManager</relatedStateVariable>
                </argument>
                <argument>
                    <name>PeerConnectionID</name>
                    <direction>out</direction>
                    <relatedStateVariable>A_ARG_TYPE_ConnectionID</relatedStateVariable>
                </argument>
                <argument>
                    <name>Direction</name>
                    <direction>out</direction>
                    <relatedStateVariable>A_ARG_TYPE_Direction</relatedStateVariable>
                </argument>
                <argument>
                    <name>Status</name>
                    <direction>out</direction>
                    <relatedStateVariable>A_ARG_TYPE_ConnectionStatus</relatedStateVariable>
                </argument>
            </argumentList>
        </action>
    </actionList>
    <serviceStateTable>
        <stateVariable sendEvents="no">
            <name>SourceProtocolInfo</name>
            <dataType>string</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>SinkProtocolInfo</name>
            <dataType>string</dataType>
        </stateVariable>
        <stateVariable sendEvents="yes">
            <name>CurrentConnectionIDs</name>
            <dataType>string</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_ConnectionID</name>
            <dataType>i4</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_RcsID</name>
            <dataType>i4</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_AVTransportID</name>
            <dataType>i4</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_ProtocolInfo</name>
            <dataType>string</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_ConnectionManager</name>
            <dataType>string</dataType>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_Direction</name>
            <dataType>string</dataType>
            <allowedValueList>
                <allowedValue>Input</allowedValue>
                <allowedValue>Output</allowedValue>
            </allowedValueList>
        </stateVariable>
        <stateVariable sendEvents="no">
            <name>A_ARG_TYPE_ConnectionStatus</name>
            <dataType>string</dataType>
            <allowedValueList>
                <allowedValue>OK</allowedValue>
                <allowedValue>ContentFormatMismatch</allowedValue>
                <allowedValue>InsufficientBandwidth</allowedValue>
                <allowedValue>UnreliableChannel</allowedValue>
                <allowedValue>Unknown</allowedValue>
            </allowedValueList>
        </stateVariable>
    </serviceStateTable>
</scpd>`

// EscapeXML escapes the five predefined XML entities. Used both for
// dc:title basenames and for embedding the DIDL-Lite document as a string
// inside <Result>.
func EscapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

// Container is a DIDL-Lite container (folder) entry.
type Container struct {
	ID         string
	ParentID   string
	Title      string
	ChildCount int
}

// Item is a DIDL-Lite item (media file) entry.
type Item struct {
	ID         string
	ParentID   string
	Title      string
	Class      string
	MimeType   string
	Size       int64
	Duration   string // formatted H:MM:SS, empty if unknown
	Resolution string
	Bitrate    string
	URL        string
}

const didlHeader = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<DIDL-Lite xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/" ` +
	`xmlns:dc="http://purl.org/dc/elements/1.1/" ` +
	`xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/" ` +
	`xmlns:dlna="urn:schemas-dlna-org:metadata-1-0/">`

const didlFooter = `</DIDL-Lite>`

// BuildDIDL assembles a DIDL-Lite document containing the given containers
// (in order) followed by the given items (in order), matching the Browse
// engine's "containers then items, preserving underlying-listing order"
// rule (§4.7).
func BuildDIDL(containers []Container, items []Item) string {
	var b strings.Builder
	b.WriteString(didlHeader)

	for _, c := range containers {
		b.WriteString(`<container id="`)
		b.WriteString(c.ID)
		b.WriteString(`" parentID="`)
		b.WriteString(c.ParentID)
		b.WriteString(`" restricted="1" childCount="`)
		b.WriteString(strconv.Itoa(c.ChildCount))
		b.WriteString(`"><dc:title>`)
		b.WriteString(EscapeXML(c.Title))
		b.WriteString(`</dc:title><upnp:class>object.container.storageFolder</upnp:class></container>`)
	}

	for _, it := range items {
		b.WriteString(`<item id="`)
		b.WriteString(it.ID)
		b.WriteString(`" parentID="`)
		b.WriteString(it.ParentID)
		b.WriteString(`" restricted="1"><dc:title>`)
		b.WriteString(EscapeXML(it.Title))
		b.WriteString(`</dc:title><dc:creator></dc:creator><upnp:artist></upnp:artist><upnp:genre></upnp:genre>`)
		b.WriteString(`<upnp:class>`)
		b.WriteString(it.Class)
		b.WriteString(`</upnp:class>`)

		b.WriteString(`<res protocolInfo="`)
		b.WriteString(ProtocolInfo(it.MimeType, false))
		b.WriteString(`" size="`)
		b.WriteString(strconv.FormatInt(it.Size, 10))
		b.WriteString(`"`)
		if it.Duration != "" {
			b.WriteString(` duration="`)
			b.WriteString(it.Duration)
			b.WriteString(`"`)
		}
		if it.Resolution != "" {
			b.WriteString(` resolution="`)
			b.WriteString(it.Resolution)
			b.WriteString(`"`)
		}
		if it.Bitrate != "" {
			b.WriteString(` bitrate="`)
			b.WriteString(it.Bitrate)
			b.WriteString(`"`)
		}
		b.WriteString(`>`)
		b.WriteString(EscapeXML(it.URL))
		b.WriteString(`</res></item>`)
	}

	b.WriteString(didlFooter)
	return b.String()
}
