package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/user/staffscout/internal/geo"
)

func TestSearchDimensionString(t *testing.T) {
	assert.Equal(t, "none", NoDimension().String())
	assert.Equal(t, "geo:de", GeoDimension(geo.Region{Code: "de", PlatformID: "101282230"}).String())
	assert.Equal(t, "keyword:sales", KeywordDimension("sales").String())
}

func TestSleepDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, ScrapeRequest{Sleep: 3}.SleepDuration())
	assert.Zero(t, ScrapeRequest{}.SleepDuration())
}
