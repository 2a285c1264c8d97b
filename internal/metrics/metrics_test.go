package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/movies", "200"))
	RecordHTTPRequest("GET", "/api/v1/movies", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/movies", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordRatingRecompute(t *testing.T) {
	okBefore := testutil.ToFloat64(RatingRecomputes.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(RatingRecomputes.WithLabelValues("error"))

	RecordRatingRecompute(nil)
	RecordRatingRecompute(errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(RatingRecomputes.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(RatingRecomputes.WithLabelValues("error")))
}

func TestRecordFavoriteChange(t *testing.T) {
	before := testutil.ToFloat64(FavoriteChanges.WithLabelValues("add", "false"))
	RecordFavoriteChange("add", false)
	assert.Equal(t, before+1, testutil.ToFloat64(FavoriteChanges.WithLabelValues("add", "false")))
}

func TestUpdatePoolStats(t *testing.T) {
	UpdatePoolStats(10, 7, 3)
	assert.Equal(t, 10.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("total")))
	assert.Equal(t, 7.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("idle")))
	assert.Equal(t, 3.0, testutil.ToFloat64(DBPoolConnections.WithLabelValues("acquired")))
}
