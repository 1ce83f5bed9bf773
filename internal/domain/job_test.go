package domain

import (
	"fmt"
	"testing"
)

func TestTerminalStatusFor(t *testing.T) {
	testCases := []struct {
		name        string
		failedCount int
		totalItems  int
		want        JobStatus
	}{
		{
			name:        "no failures",
			failedCount: 0,
			totalItems:  4,
			want:        JobStatusCompleted,
		},
		{
			name:        "all failed",
			failedCount: 4,
			totalItems:  4,
			want:        JobStatusFailed,
		},
		{
			name:        "partial failures",
			failedCount: 1,
			totalItems:  4,
			want:        JobStatusCompletedWithErrors,
		},
		{
			name:        "single item success",
			failedCount: 0,
			totalItems:  1,
			want:        JobStatusCompleted,
		},
		{
			name:        "single item failure",
			failedCount: 1,
			totalItems:  1,
			want:        JobStatusFailed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := TerminalStatusFor(tc.failedCount, tc.totalItems)
			if got != tc.want {
				t.Errorf("TerminalStatusFor(%d, %d) = %q, want %q", tc.failedCount, tc.totalItems, got, tc.want)
			}
		})
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusCompleted, JobStatusCompletedWithErrors, JobStatusFailed, JobStatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%q should be terminal", s)
		}
	}

	active := []JobStatus{JobStatusPending, JobStatusRunning}
	for _, s := range active {
		if s.IsTerminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}

func TestChannelProgressAddErrorCap(t *testing.T) {
	cp := &ChannelProgress{}

	for i := 0; i < MaxChannelErrors+10; i++ {
		cp.AddError(fmt.Sprintf("SKU-%d", i), "boom")
	}

	if len(cp.Errors) != MaxChannelErrors {
		t.Errorf("error list length = %d, want %d", len(cp.Errors), MaxChannelErrors)
	}
	if cp.ErrorsTruncated != 10 {
		t.Errorf("ErrorsTruncated = %d, want 10", cp.ErrorsTruncated)
	}
	if cp.Errors[0] != "SKU-0: boom" {
		t.Errorf("first error = %q, want %q", cp.Errors[0], "SKU-0: boom")
	}
}

func TestProductMappingFor(t *testing.T) {
	p := &Product{
		Mappings: []ChannelMapping{
			{ChannelID: "ch-a", ExternalID: "100"},
			{ChannelID: "ch-b", ExternalID: "200"},
		},
	}

	if m := p.MappingFor("ch-b"); m == nil || m.ExternalID != "200" {
		t.Errorf("MappingFor(ch-b) = %+v, want external ID 200", m)
	}
	if m := p.MappingFor("ch-missing"); m != nil {
		t.Errorf("MappingFor(ch-missing) = %+v, want nil", m)
	}
}
