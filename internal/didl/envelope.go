package didl

import (
	"strconv"
	"strings"
)

// Arg is one output argument of a SOAP action response, order-preserved.
type Arg struct {
	Name  string
	Value string
}

// ResponseEnvelope wraps the given action's output arguments in a SOAP 1.1
// envelope. serviceType is the full "urn:schemas-upnp-org:service:X:1" URN;
// actionName is e.g. "Browse". Argument values are XML-escaped; callers pass
// an already-escaped/embedded document (such as a DIDL-Lite <Result>) as a
// value verbatim by pre-escaping it themselves (see BuildDIDL callers).
func ResponseEnvelope(serviceType, actionName string, args []Arg) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">`)
	b.WriteString(`<s:Body><u:`)
	b.WriteString(actionName)
	b.WriteString(`Response xmlns:u="`)
	b.WriteString(serviceType)
	b.WriteString(`">`)

	for _, a := range args {
		b.WriteString("<")
		b.WriteString(a.Name)
		b.WriteString(">")
		b.WriteString(a.Value)
		b.WriteString("</")
		b.WriteString(a.Name)
		b.WriteString(">")
	}

	b.WriteString(`</u:`)
	b.WriteString(actionName)
	b.WriteString(`Response></s:Body></s:Envelope>`)
	return b.String()
}

// FaultEnvelope wraps a UPnPError fault (§4.6, §7 InvalidAction) in a SOAP
// 1.1 fault envelope.
func FaultEnvelope(errorCode int, errorDescription string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">`)
	b.WriteString(`<s:Body><s:Fault>`)
	b.WriteString(`<faultcode>s:Client</faultcode>`)
	b.WriteString(`<faultstring>UPnPError</faultstring>`)
	b.WriteString(`<detail><UPnPError xmlns="urn:schemas-upnp-org:control-1-0">`)
	b.WriteString(`<errorCode>`)
	b.WriteString(strconv.Itoa(errorCode))
	b.WriteString(`</errorCode>`)
	b.WriteString(`<errorDescription>`)
	b.WriteString(EscapeXML(errorDescription))
	b.WriteString(`</errorDescription>`)
	b.WriteString(`</UPnPError></detail></s:Fault></s:Body></s:Envelope>`)
	return b.String()
}
