package tools

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cassiaops/acagent/internal/acapi"
	"github.com/cassiaops/acagent/pkg/models"
)

// emmcRecord is one gateway's eMMC wear reading. Field names follow the
// merged-report column set so downstream tooling can consume either
// output unchanged.
type emmcRecord struct {
	MAC        string `json:"mac"`
	Name       string `json:"name"`
	Model      string `json:"model"`
	SN         string `json:"sn,omitempty"`
	Status     string `json:"status,omitempty"`
	Version    string `json:"version,omitempty"`
	AppVersion string `json:"appVersion,omitempty"`
	DevName    string `json:"devName"`
	ESTTypA    string `json:"EST_TYP_A"`
	ESTTypB    string `json:"EST_TYP_B"`
	EOLInfo    string `json:"EOL_INFO"`
	Health     string `json:"health"`
	Error      string `json:"error,omitempty"`
}

var (
	estTypARe = regexp.MustCompile(`EST_TYP_A\]?:?\s*(0x[0-9a-fA-F]+)`)
	estTypBRe = regexp.MustCompile(`EST_TYP_B\]?:?\s*(0x[0-9a-fA-F]+)`)
	eolInfoRe = regexp.MustCompile(`PRE_EOL_INFO\]?:?\s*(0x[0-9a-fA-F]+)`)
)

const (
	emmcDevNameCmd = "cat /sys/block/mmcblk0/device/name"
	emmcExtcsdCmd  = `mmc extcsd read /dev/mmcblk0 | grep -E "LIFE_TIME_EST|PRE_EOL"`
)

func (e *Executor) registerEMMCTools() {
	e.registry.Register(Def{
		Name:        "check_emmc_health",
		Description: "检查当前 SSH 连接网关的 eMMC 存储磨损状态（EST_TYP_A 等指标）。需先 ssh_to_gateway。",
		Schema:      json.RawMessage(`{"type":"object","properties":{}}`),
		Handler:     e.handleCheckEMMCHealth,
	})

	e.registry.Register(Def{
		Name:        "batch_check_emmc",
		Description: "批量检查在线网关的 eMMC 健康状态并生成 JSON/CSV/HTML 报告。macs 为逗号分隔的 MAC 列表；keyword 按名称/MAC 过滤；均不传则检查全部在线网关。M/Z 系列自动跳过。",
		Schema:      json.RawMessage(`{"type":"object","properties":{"macs":{"type":"string"},"keyword":{"type":"string"}}}`),
		Handler:     e.handleBatchCheckEMMC,
	})
}

func (e *Executor) handleCheckEMMCHealth(ctx context.Context, args map[string]any) (string, error) {
	rec, err := e.readEMMC(ctx)
	if err != nil {
		return "", err
	}
	out, merr := json.MarshalIndent(rec, "", "  ")
	if merr != nil {
		return "", fmt.Errorf("序列化 eMMC 结果: %w", merr)
	}
	return string(out), nil
}

// readEMMC runs the wear-counter commands over the active session and
// parses the result into a record (without gateway metadata; the caller
// fills that in from the descriptor it already holds).
func (e *Executor) readEMMC(ctx context.Context) (emmcRecord, error) {
	rec := emmcRecord{}

	e.sess.mu.Lock()
	rec.MAC = e.sess.mac
	e.sess.mu.Unlock()

	devName, err := e.runCommand(ctx, emmcDevNameCmd, e.cfg.TimeoutCommandWait)
	if err != nil {
		return rec, err
	}
	rec.DevName = strings.TrimSpace(devName)

	extcsd, err := e.runCommand(ctx, emmcExtcsdCmd, e.cfg.TimeoutCommandWait)
	if err != nil {
		return rec, err
	}
	if m := estTypARe.FindStringSubmatch(extcsd); m != nil {
		rec.ESTTypA = m[1]
	}
	if m := estTypBRe.FindStringSubmatch(extcsd); m != nil {
		rec.ESTTypB = m[1]
	}
	if m := eolInfoRe.FindStringSubmatch(extcsd); m != nil {
		rec.EOLInfo = m[1]
	}
	rec.Health = emmcHealthLabel(parseHex(rec.ESTTypA))

	if rec.ESTTypA == "" {
		return rec, fmt.Errorf("未能从 mmc extcsd 输出中解析 EST_TYP_A（原始输出: %s）", snippet(extcsd, 300))
	}
	return rec, nil
}

// parseHex turns "0x0b" into 11, or -1 on anything unparseable.
func parseHex(s string) int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return -1
	}
	n, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return -1
	}
	return int(n)
}

// emmcHealthLabel grades an EST_TYP_A value: each step covers 10% of the
// device's rated write endurance.
func emmcHealthLabel(v int) string {
	switch {
	case v >= 1 && v <= 3:
		return "健康"
	case v >= 4 && v <= 6:
		return "良好"
	case v >= 7 && v <= 9:
		return "警告"
	case v >= 10:
		return "危险"
	default:
		return "未知"
	}
}

func emmcHealthColor(v int) string {
	switch {
	case v >= 1 && v <= 3:
		return "#22c55e"
	case v >= 4 && v <= 6:
		return "#f59e0b"
	case v >= 7 && v <= 9:
		return "#f97316"
	case v >= 10:
		return "#ef4444"
	default:
		return "#9ca3af"
	}
}

func (e *Executor) handleBatchCheckEMMC(ctx context.Context, args map[string]any) (string, error) {
	var macFilter map[string]bool
	if macs, ok := argString(args, "macs"); ok && strings.TrimSpace(macs) != "" {
		macFilter = map[string]bool{}
		for _, m := range strings.Split(macs, ",") {
			if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
				macFilter[m] = true
			}
		}
	}
	keyword, _ := argString(args, "keyword")
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	gateways, err := e.ac.FetchGateways(ctx, acapi.GatewayOnline, e.cfg.TimeoutPageLoad)
	if err != nil {
		return "", err
	}

	var targets []models.Gateway
	skipped := 0
	for _, g := range gateways {
		mac := strings.ToUpper(g.MAC)
		if macFilter != nil && !macFilter[mac] {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(g.Name), keyword) &&
			!strings.Contains(strings.ToLower(g.MAC), keyword) {
			continue
		}
		if !g.SupportsSSH() {
			skipped++
			continue
		}
		targets = append(targets, g)
	}
	if len(targets) == 0 {
		return fmt.Sprintf("没有符合条件的可检查网关（在线 %d 个，跳过 M/Z 系列 %d 个）", len(gateways), skipped), nil
	}

	var records []emmcRecord
	failures := 0
	for _, g := range targets {
		rec := emmcRecord{
			MAC:        g.MAC,
			Name:       g.Name,
			Model:      g.Model,
			SN:         g.SN,
			Status:     g.Status,
			Version:    g.Version,
			AppVersion: g.AppVersion,
		}

		if _, err := e.handleSSHToGateway(ctx, map[string]any{"mac": g.MAC}); err != nil {
			rec.Error = err.Error()
			rec.Health = "连接失败"
			failures++
			records = append(records, rec)
			continue
		}

		read, err := e.readEMMC(ctx)
		if err != nil {
			rec.Error = err.Error()
			rec.Health = "读取失败"
			failures++
		} else {
			rec.DevName = read.DevName
			rec.ESTTypA = read.ESTTypA
			rec.ESTTypB = read.ESTTypB
			rec.EOLInfo = read.EOLInfo
			rec.Health = read.Health
		}
		records = append(records, rec)
	}

	jsonPath, csvPath, htmlPath, err := e.writeEMMCReports(records)
	if err != nil {
		return "", err
	}

	risky := 0
	for _, r := range records {
		if parseHex(r.ESTTypA) >= 7 {
			risky++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "eMMC 批量检查完成: 共 %d 个网关，失败 %d 个，风险 (EST_TYP_A>=7) %d 个，跳过 M/Z 系列 %d 个。\n", len(records), failures, risky, skipped)
	fmt.Fprintf(&b, "报告文件:\n- %s\n- %s\n- %s", jsonPath, csvPath, htmlPath)
	return b.String(), nil
}

// writeEMMCReports emits the three report artifacts under reports/.
func (e *Executor) writeEMMCReports(records []emmcRecord) (jsonPath, csvPath, htmlPath string, err error) {
	stamp := time.Now().Format("20060102-150405")
	jsonPath = filepath.Join(e.reportsDir, "emmc-results-"+stamp+".json")
	csvPath = filepath.Join(e.reportsDir, "emmc-results-"+stamp+".csv")
	htmlPath = filepath.Join(e.reportsDir, "emmc-report-"+stamp+".html")

	data, merr := json.MarshalIndent(records, "", "  ")
	if merr != nil {
		return "", "", "", fmt.Errorf("序列化 eMMC 报告: %w", merr)
	}
	if werr := os.WriteFile(jsonPath, data, 0o644); werr != nil {
		return "", "", "", fmt.Errorf("写入 %s: %w", jsonPath, ErrIOError)
	}

	f, cerr := os.Create(csvPath)
	if cerr != nil {
		return "", "", "", fmt.Errorf("写入 %s: %w", csvPath, ErrIOError)
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{"NO", "MAC", "Name", "Model", "SN", "Status", "DevName", "EST_TYP_A", "EST_TYP_B", "EOL_INFO", "Health", "Error"})
	for i, r := range records {
		_ = w.Write([]string{
			strconv.Itoa(i + 1), r.MAC, r.Name, r.Model, r.SN, r.Status,
			r.DevName, r.ESTTypA, r.ESTTypB, r.EOLInfo, r.Health, r.Error,
		})
	}
	w.Flush()
	if werr := f.Close(); werr != nil {
		return "", "", "", fmt.Errorf("写入 %s: %w", csvPath, ErrIOError)
	}

	if werr := os.WriteFile(htmlPath, []byte(renderEMMCHTML(records)), 0o644); werr != nil {
		return "", "", "", fmt.Errorf("写入 %s: %w", htmlPath, ErrIOError)
	}
	return jsonPath, csvPath, htmlPath, nil
}

// renderEMMCHTML produces a self-contained report page: summary tiles plus
// a per-gateway table colored by health grade.
func renderEMMCHTML(records []emmcRecord) string {
	counts := map[string]int{}
	for _, r := range records {
		counts[r.Health]++
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html lang="zh">
<head>
<meta charset="utf-8">
<title>eMMC 健康状态报告</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #1f2937; }
h1 { font-size: 1.4rem; }
.tiles { display: flex; gap: 1rem; margin: 1rem 0; }
.tile { padding: .8rem 1.2rem; border-radius: .5rem; background: #f9fafb; border: 1px solid #e5e7eb; }
.tile b { display: block; font-size: 1.4rem; }
table { border-collapse: collapse; width: 100%; font-size: .9rem; }
th, td { border: 1px solid #e5e7eb; padding: .4rem .6rem; text-align: left; }
th { background: #f3f4f6; }
.badge { padding: .1rem .5rem; border-radius: .3rem; color: #fff; font-size: .8rem; }
</style>
</head>
<body>
<h1>eMMC 健康状态报告</h1>
`)
	fmt.Fprintf(&b, "<p>生成时间: %s，共 %d 个网关</p>\n", time.Now().Format("2006-01-02 15:04:05"), len(records))

	b.WriteString(`<div class="tiles">`)
	for _, label := range []string{"健康", "良好", "警告", "危险"} {
		fmt.Fprintf(&b, `<div class="tile"><b>%d</b>%s</div>`, counts[label], label)
	}
	b.WriteString("</div>\n")

	b.WriteString("<table>\n<tr><th>#</th><th>MAC</th><th>名称</th><th>型号</th><th>芯片</th><th>EST_TYP_A</th><th>EST_TYP_B</th><th>EOL</th><th>状态</th></tr>\n")
	for i, r := range records {
		status := r.Health
		if r.Error != "" {
			status = r.Health + ": " + r.Error
		}
		fmt.Fprintf(&b,
			"<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td><span class=\"badge\" style=\"background:%s\">%s</span></td></tr>\n",
			i+1,
			html.EscapeString(r.MAC), html.EscapeString(r.Name), html.EscapeString(r.Model),
			html.EscapeString(r.DevName), html.EscapeString(r.ESTTypA), html.EscapeString(r.ESTTypB),
			html.EscapeString(r.EOLInfo), emmcHealthColor(parseHex(r.ESTTypA)), html.EscapeString(status),
		)
	}
	b.WriteString("</table>\n</body>\n</html>\n")
	return b.String()
}
