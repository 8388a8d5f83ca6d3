package registry

import "testing"

func TestNormalizeLane(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"gray", "gray"},
		{" gray ", "gray"},
	}

	for _, tt := range tests {
		if got := NormalizeLane(tt.in); got != tt.want {
			t.Errorf("NormalizeLane(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEndpoint_HostPort(t *testing.T) {
	host, port := Endpoint{Address: "10.0.0.1:50051"}.hostPort()
	if host != "10.0.0.1" || port != 50051 {
		t.Errorf("got %s:%d", host, port)
	}

	// 非法地址整体按 host 处理
	host, port = Endpoint{Address: "not-an-address"}.hostPort()
	if host != "not-an-address" || port != 0 {
		t.Errorf("got %s:%d", host, port)
	}
}
