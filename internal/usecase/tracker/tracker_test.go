package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/failguard/failguard/internal/entity"
)

var epoch = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func rec(ip string, offset time.Duration) entity.FailureRecord {
	return entity.FailureRecord{IP: ip, Timestamp: epoch.Add(offset), Line: "x"}
}

func TestCountWithinWindow(t *testing.T) {
	tr := New(60 * time.Second)

	tr.RecordFailure(rec("1.2.3.4", 0))
	tr.RecordFailure(rec("1.2.3.4", 10*time.Second))
	tr.RecordFailure(rec("1.2.3.4", 20*time.Second))

	assert.Equal(t, 3, tr.Count("1.2.3.4"))
	assert.Equal(t, 0, tr.Count("5.6.7.8"))
}

func TestEvictionBoundaryIsExclusive(t *testing.T) {
	tr := New(60 * time.Second)

	tr.RecordFailure(rec("1.2.3.4", 0))
	// Exactly findtime later: the first record sits on the boundary and is evicted.
	tr.RecordFailure(rec("1.2.3.4", 60*time.Second))
	assert.Equal(t, 1, tr.Count("1.2.3.4"))

	tr2 := New(60 * time.Second)
	tr2.RecordFailure(rec("1.2.3.4", time.Second))
	// One second inside the window: both survive.
	tr2.RecordFailure(rec("1.2.3.4", 60*time.Second))
	assert.Equal(t, 2, tr2.Count("1.2.3.4"))
}

func TestNonPositiveFindtimeCountsOnlyNewestInstant(t *testing.T) {
	tr := New(0)

	tr.RecordFailure(rec("1.2.3.4", 0))
	tr.RecordFailure(rec("1.2.3.4", time.Millisecond))
	assert.Equal(t, 1, tr.Count("1.2.3.4"))

	// Two records at the same instant both count.
	tr.RecordFailure(rec("1.2.3.4", time.Millisecond))
	assert.Equal(t, 2, tr.Count("1.2.3.4"))
}

func TestOutOfOrderInsertKeepsBaseline(t *testing.T) {
	tr := New(60 * time.Second)

	tr.RecordFailure(rec("1.2.3.4", 100*time.Second))
	// Late delivery: older than the baseline but still inside the window.
	tr.RecordFailure(rec("1.2.3.4", 70*time.Second))
	assert.Equal(t, 2, tr.Count("1.2.3.4"))

	// Older than baseline-findtime: inserted, then immediately evicted.
	tr.RecordFailure(rec("1.2.3.4", 10*time.Second))
	assert.Equal(t, 2, tr.Count("1.2.3.4"))
}

func TestResetClearsHistory(t *testing.T) {
	tr := New(60 * time.Second)

	tr.RecordFailure(rec("1.2.3.4", 0))
	tr.RecordFailure(rec("9.9.9.9", 0))
	tr.Reset("1.2.3.4")

	assert.Equal(t, 0, tr.Count("1.2.3.4"))
	assert.Equal(t, 1, tr.Count("9.9.9.9"))
	assert.Equal(t, 1, tr.Addresses())
}

func TestRecordsReturnsCopies(t *testing.T) {
	tr := New(60 * time.Second)
	tr.RecordFailure(rec("1.2.3.4", 0))

	recs := tr.Records("1.2.3.4")
	assert.Len(t, recs, 1)
	recs[0].IP = "mutated"
	assert.Equal(t, "1.2.3.4", tr.Records("1.2.3.4")[0].IP)
}

func TestPerAddressIsolation(t *testing.T) {
	tr := New(60 * time.Second)

	tr.RecordFailure(rec("1.2.3.4", 0))
	tr.RecordFailure(rec("5.6.7.8", 200*time.Second))

	// A newer failure for one address never evicts another's history.
	assert.Equal(t, 1, tr.Count("1.2.3.4"))
	assert.Equal(t, 1, tr.Count("5.6.7.8"))
}
