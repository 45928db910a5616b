package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "calendar date", input: `"2025-08-01"`, want: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339", input: `"2025-08-01T10:30:00+05:30"`, want: time.Date(2025, 8, 1, 5, 0, 0, 0, time.UTC)},
		{name: "empty", input: `""`},
		{name: "null", input: `null`},
		{name: "garbage", input: `"first of may"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(d.Time), "got %v, want %v", d.Time, tt.want)
		})
	}
}

func TestDate_TimePtr(t *testing.T) {
	var nilDate *Date
	assert.Nil(t, nilDate.TimePtr())
	assert.Nil(t, (&Date{}).TimePtr())

	now := time.Now()
	assert.True(t, NewDate(now).TimePtr().Equal(now))
}

func TestParseOrderings(t *testing.T) {
	allowed := map[string]string{"name": "name", "createdAt": "created_at"}

	assert.Nil(t, ParseOrderings("", allowed))
	assert.Equal(t,
		[]DBOrdering{{Field: "created_at", Ascending: false}, {Field: "name", Ascending: true}},
		ParseOrderings("-createdAt, name, -password", allowed),
	)
	assert.Equal(t, "created_at DESC", DBOrdering{Field: "created_at"}.String())
}
