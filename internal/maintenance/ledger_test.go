package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uptime-oracle/uptime-oracle/pkg/log"
)

func TestAppendPrependsRecord(t *testing.T) {
	ledger := NewLedger(log.NewNopLogger())

	first := ledger.Append("V-101", ServiceFor("P0300"), time.Now())
	second := ledger.Append("V-101", ServiceFor("P0420"), time.Now())

	records := ledger.Records()
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)

	assert.Equal(t, "Misfire Diagnosis & Coil Replacement", first.Service)
	assert.Equal(t, StatusCompleted, first.Status)
	assert.NotEmpty(t, first.ID)
}

func TestServiceForUnknownCode(t *testing.T) {
	assert.Equal(t, "Diagnostic Inspection (P0117)", ServiceFor("P0117"))
}

func TestRecordsReturnsCopy(t *testing.T) {
	ledger := NewLedger(log.NewNopLogger())
	ledger.Append("V-101", ServiceFor("P0300"), time.Now())

	records := ledger.Records()
	records[0].Service = "tampered"

	assert.Equal(t, "Misfire Diagnosis & Coil Replacement", ledger.Records()[0].Service)
}

func TestSeedRecordsPreserved(t *testing.T) {
	seed := Record{ID: "seed-1", VehicleID: "V-101", Service: "Oil Change", Status: StatusCompleted, Date: time.Now()}
	ledger := NewLedger(log.NewNopLogger(), seed)

	require.Equal(t, 1, ledger.Len())

	ledger.Append("V-101", ServiceFor("P0300"), time.Now())
	records := ledger.Records()
	assert.Equal(t, "seed-1", records[1].ID)
}
