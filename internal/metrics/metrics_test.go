package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.Counter.GetValue()
}

func TestRecordLogin(t *testing.T) {
	loginsTotal.Reset()

	RecordLogin(true)
	RecordLogin(false)
	RecordLogin(false)

	if v := counterValue(t, loginsTotal.WithLabelValues("success")); v != 1 {
		t.Errorf("Expected 1 successful login, got %f", v)
	}
	if v := counterValue(t, loginsTotal.WithLabelValues("failure")); v != 2 {
		t.Errorf("Expected 2 failed logins, got %f", v)
	}
}

func TestRecordWrite(t *testing.T) {
	recordsWrittenTotal.Reset()

	RecordWrite("services")
	RecordWrite("services")
	RecordWrite("reports")

	if v := counterValue(t, recordsWrittenTotal.WithLabelValues("services")); v != 2 {
		t.Errorf("Expected 2 services writes, got %f", v)
	}
	if v := counterValue(t, recordsWrittenTotal.WithLabelValues("reports")); v != 1 {
		t.Errorf("Expected 1 reports write, got %f", v)
	}
}

func TestRecordRollover(t *testing.T) {
	weeklyRolloversTotal.Reset()

	RecordRollover(TriggerScheduled)
	RecordRollover(TriggerManual)

	if v := counterValue(t, weeklyRolloversTotal.WithLabelValues(TriggerScheduled)); v != 1 {
		t.Errorf("Expected 1 scheduled rollover, got %f", v)
	}
	if v := counterValue(t, weeklyRolloversTotal.WithLabelValues(TriggerCatchUp)); v != 0 {
		t.Errorf("Expected 0 catch-up rollovers, got %f", v)
	}
}

func TestRecordAutoLogout(t *testing.T) {
	before := counterValue(t, autoLogoutsTotal)
	RecordAutoLogout()
	if v := counterValue(t, autoLogoutsTotal); v != before+1 {
		t.Errorf("Expected %f, got %f", before+1, v)
	}
}
