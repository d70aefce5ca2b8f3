package acapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cassiaops/acagent/pkg/models"
)

// GatewayStatus filters FetchGateways.
type GatewayStatus string

const (
	GatewayAll     GatewayStatus = "all"
	GatewayOnline  GatewayStatus = "online"
	GatewayOffline GatewayStatus = "offline"
)

// rawGateway mirrors the AC's /ap response shape closely enough to extract
// the fields the core cares about; unknown fields are ignored.
type rawGateway struct {
	MAC       string `json:"mac"`
	Name      string `json:"name"`
	Model     string `json:"model"`
	Reserved3 string `json:"reserved3"`
	Status    string `json:"status"`
	Version   string `json:"version"`
	AP        struct {
		Uplink string `json:"uplink"`
	} `json:"ap"`
	Container struct {
		Version string `json:"version"`
		Apps    []struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"apps"`
	} `json:"container"`
}

func (g rawGateway) extract() models.Gateway {
	appVersion := ""
	if len(g.Container.Apps) > 0 {
		app := g.Container.Apps[0]
		appVersion = fmt.Sprintf("%s.%s", app.Name, app.Version)
	}
	return models.Gateway{
		MAC:              g.MAC,
		Name:             g.Name,
		Model:            g.Model,
		SN:               g.Reserved3,
		Status:           g.Status,
		Uplink:           g.AP.Uplink,
		Version:          g.Version,
		ContainerVersion: g.Container.Version,
		AppVersion:       appVersion,
	}
}

// FetchGateways retrieves the gateway list filtered by status. The AC
// returns a bare JSON array on success; any other shape is treated as an
// empty result rather than an error, since the original tool tolerates a
// malformed response here and simply reports nothing found.
func (c *Client) FetchGateways(ctx context.Context, status GatewayStatus, timeout time.Duration) ([]models.Gateway, error) {
	url := c.baseURL + "/ap"
	if status == GatewayOnline || status == GatewayOffline {
		url += "?status=" + string(status)
	}

	script := fmt.Sprintf(`async () => {
		const controller = new AbortController();
		const timer = setTimeout(() => controller.abort(), %d);
		let resp;
		try {
			resp = await fetch(%q, {
				credentials: "same-origin",
				headers: {"X-Requested-With": "XMLHttpRequest"},
				signal: controller.signal
			});
		} catch (e) {
			clearTimeout(timer);
			if (e.name === 'AbortError') throw new Error("fetch gateways timed out");
			throw e;
		}
		clearTimeout(timer);
		if (!resp.ok) throw new Error("HTTP " + resp.status);
		return await resp.json();
	}`, timeout.Milliseconds(), url)

	var raw json.RawMessage
	if err := c.page.Evaluate(ctx, script, &raw); err != nil {
		return nil, fmt.Errorf("acapi: fetch gateways: %w", err)
	}

	var list []rawGateway
	if err := json.Unmarshal(raw, &list); err != nil {
		return []models.Gateway{}, nil
	}

	out := make([]models.Gateway, 0, len(list))
	for _, g := range list {
		out = append(out, g.extract())
	}
	return out, nil
}
