package crawler

import "testing"

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want StatusClass
	}{
		{200, StatusSuccess},
		{201, StatusSuccess},
		{301, StatusRedirect},
		{302, StatusRedirect},
		{303, StatusRedirect},
		{307, StatusRedirect},
		{308, StatusRedirect},
		{400, StatusFault},
		{403, StatusFault},
		{404, StatusFault},
		{451, StatusFault},
		{500, StatusFault},
		{502, StatusFault},
		{511, StatusFault},
		{408, StatusSoftFault},
		{421, StatusSoftFault},
		{429, StatusSoftFault},
		{503, StatusSoftFault},
		{504, StatusSoftFault},
		{202, StatusUnknown},
		{204, StatusUnknown},
		{418, StatusUnknown},
		{999, StatusUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyStatus(tt.code); got != tt.want {
			t.Errorf("ClassifyStatus(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestContentTypePrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
	}{
		{"text/html; charset=utf-8", "text"},
		{"text/plain", "text"},
		{"image/png", "image"},
		{"APPLICATION/json", "application"},
		{" text/html", "text"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ContentTypePrefix(tt.header); got != tt.want {
			t.Errorf("ContentTypePrefix(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestIsScannableType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix string
		want   bool
	}{
		{"text", true},
		{"", true},
		{"image", false},
		{"application", false},
		{"video", false},
	}

	for _, tt := range tests {
		if got := IsScannableType(tt.prefix); got != tt.want {
			t.Errorf("IsScannableType(%q) = %v, want %v", tt.prefix, got, tt.want)
		}
	}
}
