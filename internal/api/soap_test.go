package api

import "testing"

func TestSOAPActionFromHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"quoted", `"urn:schemas-upnp-org:service:ContentDirectory:1#Browse"`, "Browse"},
		{"unquoted", "urn:schemas-upnp-org:service:ConnectionManager:1#GetProtocolInfo", "GetProtocolInfo"},
		{"empty", "", ""},
		{"no hash", "urn:schemas-upnp-org:service:ContentDirectory:1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := soapActionFromHeader(tt.header); got != tt.want {
				t.Errorf("soapActionFromHeader(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestSOAPActionFromBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"browse body", `<u:Browse xmlns:u="urn:schemas-upnp-org:service:ContentDirectory:1"><ObjectID>0</ObjectID></u:Browse>`, "Browse"},
		{"get system update id", `<u:GetSystemUpdateID xmlns:u="..."></u:GetSystemUpdateID>`, "GetSystemUpdateID"},
		{"unrecognized", `<u:Frobnicate></u:Frobnicate>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := soapActionFromBody(tt.body); got != tt.want {
				t.Errorf("soapActionFromBody(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}
