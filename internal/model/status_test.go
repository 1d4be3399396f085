package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestDeriveHealthStatus(t *testing.T) {
	tests := []struct {
		ratio float64
		want  HealthStatus
	}{
		{100, HealthHealthy},
		{98, HealthHealthy},
		{97.9, HealthDegraded},
		{70, HealthDegraded},
		{69.9, HealthMaintenance},
		{0, HealthMaintenance},
	}

	for _, tt := range tests {
		if got := DeriveHealthStatus(tt.ratio); got != tt.want {
			t.Errorf("DeriveHealthStatus(%v) = %v, want %v", tt.ratio, got, tt.want)
		}
	}
}

func TestRegionForHost(t *testing.T) {
	assert.Equal(t, "Cherryservers", RegionForHost("CherryServers-AMS-1"))
	assert.Equal(t, "G-IDC", RegionForHost("g-idc-seoul"))
	assert.Equal(t, "IDC", RegionForHost("kt-mokdong"))
	assert.Equal(t, "IDC", RegionForHost(""))
}

func TestNewServerStatus(t *testing.T) {
	doc := &Document{
		Sections: []*ChainSection{
			{
				Name: "Zone A",
				Servers: []*ServerRecord{
					{
						ServerID:         "srv-2",
						Network:          strPtr("polygon"),
						DeploymentStatus: strPtr("Deployed"),
						HostName:         strPtr("g-idc-1"),
						TotalCPUVCore:    floatPtr(8),
						TotalMemoryGB:    floatPtr(64),
						TotalStorageTB:   floatPtr(2),
						RawRow:           map[string]string{},
					},
					{
						ServerID:         "srv-1",
						Network:          strPtr("ethereum"),
						DeploymentStatus: strPtr("Standby"),
						HostName:         strPtr("g-idc-1"),
						RawRow:           map[string]string{"c07": "16", "c08": "n/a", "c09": "1.5"},
					},
					{
						ServerID: "srv-3",
						RawRow:   map[string]string{},
					},
				},
			},
		},
	}

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	status := NewServerStatus(doc, now)

	require.Len(t, status.Items, 2)
	assert.Equal(t, now, status.GeneratedAt)

	idc := status.Items[0]
	assert.Equal(t, "g-idc-1", idc.IDC)
	assert.Equal(t, "G-IDC", idc.Region)
	assert.Equal(t, 2, idc.Servers)
	assert.Equal(t, 2, idc.Chains)
	assert.Equal(t, float64(24), idc.TotalCPUVCore)
	assert.Equal(t, float64(64), idc.TotalMemoryGB)
	assert.Equal(t, float64(4), idc.TotalStorageTB)
	assert.Equal(t, 50.0, idc.DeployedRatio)
	assert.Equal(t, "50.0%", idc.Uptime)
	assert.Equal(t, HealthMaintenance, idc.Status)

	require.Len(t, idc.Nodes, 2)
	assert.Equal(t, "ethereum", idc.Nodes[0].Chain)
	assert.Equal(t, "srv-1", idc.Nodes[0].Node)
	assert.Equal(t, "cpu 16 / mem 0Gi / storage 2Ti", idc.Nodes[0].Resources)
	assert.Equal(t, "cpu 8 / mem 64Gi / storage 2Ti", idc.Nodes[1].Resources)

	unknown := status.Items[1]
	assert.Equal(t, "unknown-host", unknown.IDC)
	assert.Equal(t, "-", unknown.Nodes[0].Chain)
	assert.Equal(t, "unknown", unknown.Nodes[0].Client)

	assert.Equal(t, StatusSummary{IDCCount: 2, HealthyCount: 0, TotalServers: 3, TotalChains: 3}, status.Summary)
}

func TestNewServerStatus_NodeLimit(t *testing.T) {
	section := &ChainSection{}
	for i := 0; i < MaxStatusNodes+5; i++ {
		section.Servers = append(section.Servers, &ServerRecord{
			ServerID:         "srv",
			HostName:         strPtr("cherryservers-1"),
			DeploymentStatus: strPtr("Deployed"),
			RawRow:           map[string]string{},
		})
	}

	status := NewServerStatus(&Document{Sections: []*ChainSection{section}}, time.Now())

	require.Len(t, status.Items, 1)
	assert.Len(t, status.Items[0].Nodes, MaxStatusNodes)
	assert.Equal(t, MaxStatusNodes+5, status.Items[0].Servers)
	assert.Equal(t, HealthHealthy, status.Items[0].Status)
	assert.Equal(t, 1, status.Summary.HealthyCount)
}

func TestDocument_Counts(t *testing.T) {
	doc := &Document{
		Sections: []*ChainSection{
			{
				Labels: []ColumnLabel{{ColumnIndex: 11, Label: "CPU"}},
				Servers: []*ServerRecord{
					{Metrics: []ServerMetric{{ColumnIndex: 11}, {ColumnIndex: 12}}},
				},
				Totals: []*SectionTotals{{}},
			},
			{},
		},
	}

	got := doc.Counts()
	want := DocumentCounts{Sections: 2, Labels: 1, Servers: 1, Metrics: 2, Totals: 1}
	if got != want {
		t.Errorf("Counts() = %+v, want %+v", got, want)
	}

	var nilDoc *Document
	assert.Equal(t, DocumentCounts{}, nilDoc.Counts())
}
