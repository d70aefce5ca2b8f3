package tools

import (
	"strings"
	"testing"
	"time"
)

func msec(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"0x01", 1},
		{"0x0b", 11},
		{"0x0B", 11},
		{" 0x07 ", 7},
		{"", -1},
		{"garbage", -1},
	}
	for _, tt := range tests {
		if got := parseHex(tt.in); got != tt.want {
			t.Errorf("parseHex(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEMMCHealthLabel(t *testing.T) {
	tests := []struct {
		v    int
		want string
	}{
		{1, "健康"}, {3, "健康"},
		{4, "良好"}, {6, "良好"},
		{7, "警告"}, {9, "警告"},
		{10, "危险"}, {11, "危险"},
		{0, "未知"}, {-1, "未知"},
	}
	for _, tt := range tests {
		if got := emmcHealthLabel(tt.v); got != tt.want {
			t.Errorf("emmcHealthLabel(%d) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestExtcsdRegexes(t *testing.T) {
	output := `eMMC Life Time Estimation A [EXT_CSD_DEVICE_LIFE_TIME_EST_TYP_A]: 0x02
eMMC Life Time Estimation B [EXT_CSD_DEVICE_LIFE_TIME_EST_TYP_B]: 0x01
eMMC Pre EOL information [EXT_CSD_PRE_EOL_INFO]: 0x01`

	if m := estTypARe.FindStringSubmatch(output); m == nil || m[1] != "0x02" {
		t.Errorf("EST_TYP_A match = %v, want 0x02", m)
	}
	if m := estTypBRe.FindStringSubmatch(output); m == nil || m[1] != "0x01" {
		t.Errorf("EST_TYP_B match = %v, want 0x01", m)
	}
	if m := eolInfoRe.FindStringSubmatch(output); m == nil || m[1] != "0x01" {
		t.Errorf("PRE_EOL_INFO match = %v, want 0x01", m)
	}
}

func TestRenderEMMCHTML(t *testing.T) {
	records := []emmcRecord{
		{MAC: "CC:1B:E0:E0:00:01", Name: "gw-1", Model: "X1000", DevName: "8GTF4R", ESTTypA: "0x02", Health: "健康"},
		{MAC: "CC:1B:E0:E0:00:02", Name: "gw-2", Model: "X2000", DevName: "DG4008", ESTTypA: "0x0a", Health: "危险"},
		{MAC: "CC:1B:E0:E0:00:03", Name: "<script>", Model: "E1000", Health: "连接失败", Error: "timeout"},
	}
	page := renderEMMCHTML(records)

	for _, want := range []string{"CC:1B:E0:E0:00:01", "8GTF4R", "0x0a", "#ef4444", "共 3 个网关"} {
		if !strings.Contains(page, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(page, "<script>") {
		t.Error("gateway name not HTML-escaped")
	}
}

func TestClampDuration(t *testing.T) {
	lo, hi := 1000, 300000
	tests := []struct {
		ms   int
		want int
	}{
		{500, 1000},
		{1000, 1000},
		{30000, 30000},
		{300000, 300000},
		{999999, 300000},
		{-5, 1000},
	}
	for _, tt := range tests {
		got := clampDuration(tt.ms, msec(lo), msec(hi))
		if got != msec(tt.want) {
			t.Errorf("clampDuration(%d) = %v, want %v", tt.ms, got, msec(tt.want))
		}
	}
}
