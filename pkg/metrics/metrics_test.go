package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordImport(t *testing.T) {
	before := testutil.ToFloat64(ImportsTotal.WithLabelValues("failed"))
	RecordImport(false, 0.2)
	assert.Equal(t, before+1, testutil.ToFloat64(ImportsTotal.WithLabelValues("failed")))
}

func TestRecordRowAndPromotion(t *testing.T) {
	rows := testutil.ToFloat64(ImportRows.WithLabelValues("skipped"))
	RecordRow("skipped")
	assert.Equal(t, rows+1, testutil.ToFloat64(ImportRows.WithLabelValues("skipped")))

	conflicts := testutil.ToFloat64(PromotionsTotal.WithLabelValues("conflict"))
	RecordPromotion("conflict")
	assert.Equal(t, conflicts+1, testutil.ToFloat64(PromotionsTotal.WithLabelValues("conflict")))
}
