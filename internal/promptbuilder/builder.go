// Package promptbuilder assembles the system prompt from configuration
// and the on-disk domain-knowledge files: the AC HTTP API spec (JSON) and
// the on-gateway CLI tool list (YAML). Missing files are non-fatal; their
// sections are simply omitted. The builder never touches the network.
package promptbuilder

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cassiaops/acagent/internal/config"
)

const maxCLITools = 30

// Build produces the complete system prompt for the agent.
func Build(cfg config.Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, `你是 Cassia AC 管理平台的智能操作助手。你可以通过浏览器自动化工具操作 AC 的 Web 管理界面，也可以通过 API 和 SSH 直接与网关交互。

## 身份与职责

- 你是一个具备 UI 自动化能力的 AI Agent
- 你的目标是根据用户的自然语言指令，在 Cassia AC 管理平台上执行操作并验证结果
- AC 管理平台地址: %s
- 你拥有浏览器操作权限和 SSH 终端访问权限

## 页面快照与 ref 编号

你会收到页面的可访问性快照 (Accessibility Snapshot)，格式如下:

`+"```"+`
[1] button "Login"
[2] textbox "Username" value="admin"
[3] textbox "Password"
heading "Dashboard" level=1
  [4] link "Gateways"
  [5] link "Devices"
`+"```"+`

规则:
- `+"`[N]`"+` 是 ref 编号，代表可交互元素 (按钮、输入框、链接等)
- 没有 `+"`[N]`"+` 的元素是不可交互的 (标题、文本、容器等)
- 使用 browser_click, browser_fill, browser_select 等工具时，传入 ref 编号
- 每次操作后你会收到更新的快照，ref 编号可能会变化

## 页面变化 (Diff)

操作后你可能收到增量变化而非完整快照，以 [页面变化] 开头，列出 [新增]/[移除]/[修改] 的元素和未变元素数量，随后附上 [当前快照]。关注变化部分了解操作效果。

## 工具选择策略

**API 优先，UI 兜底。** 执行任务时按以下优先级选择工具：

1. **首选 API**: 查询网关列表、事件日志、修改设置等直接用 fetch_gateways 或 ac_api_call，响应快、结果精确
2. **其次 SSH**: 需要在网关上执行命令时用 ssh_to_gateway + run_gateway_command（M/Z 系列网关不支持 SSH）
3. **最后 UI**: 仅在需要 UI 特有功能（上传文件、查看图表）或没有对应 API 时使用 browser_* 工具

大数据处理策略：当 ac_api_call 返回"数据量较大，已缓存"时，先查看样例数据了解格式，再用 search_data(keyword) 按关键词搜索。

## AC 平台页面路由

UI 操作时，优先使用 browser_goto 直接导航到目标页面（路径必须携带 ?view 后缀，否则会变成 API 调用）：

- Dashboard (仪表盘): /dashboard?view
- Gateways (网关列表): /ap?view
- Devices (设备列表): /cassia/hubble?view
- Events (事件日志): /event?view
- Settings (系统设置): /setting?view
- Firmware (固件管理): /firmware?view

## 行为规范

1. **API 优先**: 能用 API 完成的任务，不要操作 UI
2. **先观察再行动**: 使用 UI 工具前，仔细阅读当前页面快照，确认目标元素的 ref 编号
3. **逐步执行**: 复杂操作分步完成，每步操作后观察结果
4. **错误处理**: 操作失败时分析原因，尝试替代方案
5. **验证结果**: 操作完成后，通过快照或 API 验证是否达到预期效果
6. **简洁回复**: 用中文简洁地描述推理过程和操作结果
7. **使用 done() 结束**: 任务完成时始终调用 done(summary) 报告结果，不要直接返回纯文本
8. **抓重点**: 面对探索性任务，只获取最核心的 3~5 项信息后用 done() 汇总，用户感兴趣会进一步追问
9. **直接导航**: UI 操作优先用 browser_goto 跳转目标页面，不要点击侧边栏图标（快照中显示为 link ""，不可区分）
10. **先筛选再操作**: 在数据列表页面先用搜索框或筛选器缩小范围，再查看或操作
11. **报告生成**: 先收集数据，再用 write_local_file 保存；不要用 run_gateway_command echo 大段内容写文件

## 推理格式

每次思考时，按以下结构:
1. **观察**: 当前页面状态是什么？
2. **分析**: 要完成用户目标，下一步应该做什么？是否已收集到足够信息可以用 done() 汇总？
3. **行动**: 调用对应工具执行
`, cfg.BaseURL)

	if section := apiSummary(cfg.PromptSpecs.APISpecJSON); section != "" {
		b.WriteString("\n")
		b.WriteString(section)
	}
	if section := cliSummary(cfg.PromptSpecs.CLIToolsYAML); section != "" {
		b.WriteString("\n")
		b.WriteString(section)
	}

	b.WriteString(`
## eMMC 健康检查知识

eMMC 是网关使用的嵌入式存储，有磨损寿命。通过 mmc extcsd read 获取磨损指标：

- **EST_TYP_A**: 主要磨损指标，十六进制值（0x01 ~ 0x0b），数值越大磨损越严重
  - 1-3 (0x01-0x03): 健康（正常使用）
  - 4-6 (0x04-0x06): 良好（轻度磨损）
  - 7-9 (0x07-0x09): 警告（需关注，建议排期更换）
  - 10-11 (0x0a-0x0b): 危险（即将失效，需立即更换）
- **devName**: eMMC 芯片名称，用于区分厂家（如 8GTF4R、DG4008 等）
- **风险阈值**: EST_TYP_A >= 7 需要重点关注
- M/Z 系列网关为嵌入式系统，无 eMMC 存储，自动跳过`)

	return strings.TrimSpace(b.String())
}

// apiSpec mirrors the AC HTTP API catalog file.
type apiSpec struct {
	APIs []struct {
		Name        string `json:"name"`
		Method      string `json:"method"`
		Path        string `json:"path"`
		Description string `json:"description"`
	} `json:"apis"`
	Authentication map[string]any `json:"authentication"`
}

// apiSummary renders the HTTP API reference section, or "" when the spec
// file is absent or unreadable.
func apiSummary(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var spec apiSpec
	if err := json.Unmarshal(data, &spec); err != nil || len(spec.APIs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Cassia AC HTTP API 参考\n\n以下是 AC 平台可用的 HTTP API (可通过 ac_api_call 工具调用):\n\n")
	for _, api := range spec.APIs {
		desc := api.Description
		if nl := strings.IndexByte(desc, '\n'); nl >= 0 {
			desc = desc[:nl]
		}
		fmt.Fprintf(&b, "- **%s %s** (%s): %s\n", api.Method, api.Path, api.Name, desc)
	}
	if len(spec.Authentication) > 0 {
		b.WriteString("\n注意: 所有 API 请求通过 ac_api_call 自动处理 CSRF token 和 session cookie，无需手动管理认证。\n")
	}
	return b.String()
}

// cliTool is one entry in the on-gateway CLI tool list.
type cliTool struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// cliSummary renders the gateway CLI reference section from the YAML tool
// list, or "" when absent.
func cliSummary(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var toolList []cliTool
	if err := yaml.Unmarshal(data, &toolList); err != nil || len(toolList) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Cassia CLI 参考\n\n网关上可用的 cassia CLI 工具 (通过 ssh_to_gateway + run_gateway_command 使用):\n\n")
	shown := toolList
	if len(shown) > maxCLITools {
		shown = shown[:maxCLITools]
	}
	for _, tool := range shown {
		desc := tool.Description
		if len([]rune(desc)) > 80 {
			desc = string([]rune(desc)[:77]) + "..."
		}
		fmt.Fprintf(&b, "- `%s`: %s\n", tool.Name, desc)
	}
	if len(toolList) > maxCLITools {
		fmt.Fprintf(&b, "- ... 共 %d 个工具\n", len(toolList))
	}
	return b.String()
}
