package model

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// HealthStatus is the health classification of an IDC.
type HealthStatus string

const (
	HealthHealthy     HealthStatus = "Healthy"     // 部署率 >= 98%
	HealthDegraded    HealthStatus = "Degraded"    // 部署率 >= 70%
	HealthMaintenance HealthStatus = "Maintenance" // 其余
)

const (
	// DeployedStatus is the deployment_status value counted as deployed.
	DeployedStatus = "Deployed"

	// MaxStatusNodes caps the node list reported per IDC.
	MaxStatusNodes = 20

	unknownHost        = "unknown-host"
	unknownEnvironment = "unknown"
	unknownChain       = "-"
)

// rawDecimal matches raw resource cells usable as a fallback for missing aggregates.
var rawDecimal = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// StatusNode is one server listed under an IDC.
type StatusNode struct {
	Chain     string `json:"chain" yaml:"chain"`
	Node      string `json:"node" yaml:"node"`
	Client    string `json:"client" yaml:"client"`
	Resources string `json:"resources" yaml:"resources"`
}

// IDCStatus is the rollup of all servers sharing a host name.
type IDCStatus struct {
	IDC            string       `json:"idc" yaml:"idc"`
	Region         string       `json:"region" yaml:"region"`
	Uptime         string       `json:"uptime" yaml:"uptime"` // 部署率，如 "98.5%"
	Latency        string       `json:"latency" yaml:"latency"`
	Status         HealthStatus `json:"status" yaml:"status"`
	Servers        int          `json:"servers" yaml:"servers"`
	Chains         int          `json:"chains" yaml:"chains"`
	DeployedRatio  float64      `json:"deployed_ratio" yaml:"deployed_ratio"`
	TotalCPUVCore  float64      `json:"total_cpu_vcore" yaml:"total_cpu_vcore"`
	TotalMemoryGB  float64      `json:"total_memory_gb" yaml:"total_memory_gb"`
	TotalStorageTB float64      `json:"total_storage_tb" yaml:"total_storage_tb"`
	Nodes          []StatusNode `json:"nodes" yaml:"nodes"`
}

// StatusSummary aggregates the IDC rollups.
type StatusSummary struct {
	IDCCount     int `json:"idc_count" yaml:"idc_count"`
	HealthyCount int `json:"healthy_count" yaml:"healthy_count"`
	TotalServers int `json:"total_servers" yaml:"total_servers"`
	TotalChains  int `json:"total_chains" yaml:"total_chains"`
}

// ServerStatus is the per-IDC view of a loaded document.
type ServerStatus struct {
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	Summary     StatusSummary `json:"summary" yaml:"summary"`
	Items       []*IDCStatus  `json:"items" yaml:"items"`
}

// DeriveHealthStatus maps a deployed ratio (percent) to a health status.
func DeriveHealthStatus(deployedRatio float64) HealthStatus {
	if deployedRatio >= 98 {
		return HealthHealthy
	}
	if deployedRatio >= 70 {
		return HealthDegraded
	}
	return HealthMaintenance
}

// RegionForHost classifies a host name into its hosting region.
func RegionForHost(hostName string) string {
	h := strings.ToLower(strings.TrimSpace(hostName))
	switch {
	case strings.HasPrefix(h, "cherryservers-"):
		return "Cherryservers"
	case strings.HasPrefix(h, "g-idc-"):
		return "G-IDC"
	default:
		return "IDC"
	}
}

type statusRow struct {
	chain    string
	serverID string
	client   string
	region   string
	deployed bool
	cpu      float64
	memory   float64
	storage  float64
}

// NewServerStatus groups the inventory of a document by host name.
func NewServerStatus(doc *Document, generatedAt time.Time) *ServerStatus {
	status := &ServerStatus{
		GeneratedAt: generatedAt,
		Items:       make([]*IDCStatus, 0),
	}

	groups := make(map[string][]statusRow)
	for _, srv := range doc.Servers() {
		idc := strings.TrimSpace(StringValue(srv.HostName))
		if idc == "" {
			idc = unknownHost
		}
		groups[idc] = append(groups[idc], newStatusRow(srv))
	}

	idcs := make([]string, 0, len(groups))
	for idc := range groups {
		idcs = append(idcs, idc)
	}
	sort.Strings(idcs)

	for _, idc := range idcs {
		item := newIDCStatus(idc, groups[idc])
		status.Items = append(status.Items, item)

		status.Summary.IDCCount++
		if item.Status == HealthHealthy {
			status.Summary.HealthyCount++
		}
		status.Summary.TotalServers += item.Servers
		status.Summary.TotalChains += item.Chains
	}

	return status
}

func newStatusRow(srv *ServerRecord) statusRow {
	client := strings.TrimSpace(StringValue(srv.EnvironmentType))
	if client == "" {
		client = unknownEnvironment
	}
	chain := unknownChain
	if srv.Network != nil {
		chain = *srv.Network
	}
	return statusRow{
		chain:    chain,
		serverID: srv.ServerID,
		client:   client,
		region:   RegionForHost(StringValue(srv.HostName)),
		deployed: StringValue(srv.DeploymentStatus) == DeployedStatus,
		cpu:      resourceValue(srv.TotalCPUVCore, srv.RawRow["c07"]),
		memory:   resourceValue(srv.TotalMemoryGB, srv.RawRow["c08"]),
		storage:  resourceValue(srv.TotalStorageTB, srv.RawRow["c09"]),
	}
}

// resourceValue prefers the aggregate column, then a plain decimal raw cell, then zero.
func resourceValue(aggregate *float64, raw string) float64 {
	if aggregate != nil {
		return *aggregate
	}
	if rawDecimal.MatchString(raw) {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return 0
}

func newIDCStatus(idc string, rows []statusRow) *IDCStatus {
	item := &IDCStatus{
		IDC:     idc,
		Latency: "n/a",
		Servers: len(rows),
	}

	chains := make(map[string]struct{})
	regions := make(map[string]struct{})
	var cpu, memory, storage float64
	deployed := 0
	for _, r := range rows {
		chains[r.chain] = struct{}{}
		regions[r.region] = struct{}{}
		cpu += r.cpu
		memory += r.memory
		storage += r.storage
		if r.deployed {
			deployed++
		}
	}

	regionNames := make([]string, 0, len(regions))
	for r := range regions {
		regionNames = append(regionNames, r)
	}
	sort.Strings(regionNames)
	item.Region = strings.Join(regionNames, ", ")

	item.Chains = len(chains)
	item.TotalCPUVCore = math.Round(cpu)
	item.TotalMemoryGB = math.Round(memory)
	item.TotalStorageTB = math.Round(storage)
	if len(rows) > 0 {
		item.DeployedRatio = math.Round(1000*float64(deployed)/float64(len(rows))) / 10
	}
	item.Uptime = fmt.Sprintf("%.1f%%", item.DeployedRatio)
	item.Status = DeriveHealthStatus(item.DeployedRatio)

	sorted := make([]statusRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].chain != sorted[j].chain {
			return sorted[i].chain < sorted[j].chain
		}
		return sorted[i].serverID < sorted[j].serverID
	})
	if len(sorted) > MaxStatusNodes {
		sorted = sorted[:MaxStatusNodes]
	}
	item.Nodes = make([]StatusNode, 0, len(sorted))
	for _, r := range sorted {
		item.Nodes = append(item.Nodes, StatusNode{
			Chain:  r.chain,
			Node:   r.serverID,
			Client: r.client,
			Resources: fmt.Sprintf("cpu %d / mem %dGi / storage %dTi",
				int(math.Round(r.cpu)), int(math.Round(r.memory)), int(math.Round(r.storage))),
		})
	}

	return item
}
