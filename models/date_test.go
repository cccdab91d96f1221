package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		Started *Date `json:"started_at"`
	}

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"started_at":"2024-02-29"}`), &w))
	require.NotNil(t, w.Started)
	assert.Equal(t, "2024-02-29", w.Started.String())

	out, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"started_at":"2024-02-29"}`, string(out))

	w = wrapper{}
	require.NoError(t, json.Unmarshal([]byte(`{"started_at":null}`), &w))
	assert.Nil(t, w.Started)
}

func TestDate_RejectsBadInput(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"2024-13-01"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20240101`), &d))
}

func TestDate_BSONStoresString(t *testing.T) {
	doc := struct {
		Finished Date `bson:"finished"`
	}{Finished: NewDate(2023, time.July, 4)}

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, "2023-07-04", bson.Raw(raw).Lookup("finished").StringValue())

	var back struct {
		Finished Date `bson:"finished"`
	}
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, doc.Finished, back.Finished)
}

func TestMonthBounds(t *testing.T) {
	tests := []struct {
		now         time.Time
		first, next string
	}{
		{time.Date(2026, time.October, 19, 15, 0, 0, 0, time.UTC), "2026-10-01", "2026-11-01"},
		{time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC), "2025-12-01", "2026-01-01"},
		{time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), "2024-02-01", "2024-03-01"},
	}
	for _, tt := range tests {
		first, next := MonthBounds(tt.now)
		assert.Equal(t, tt.first, first.String())
		assert.Equal(t, tt.next, next.String())
	}
}

func TestBookStatus_Valid(t *testing.T) {
	assert.True(t, StatusRead.Valid())
	assert.True(t, StatusWantToRead.Valid())
	assert.False(t, BookStatus("reading").Valid())
	assert.False(t, BookStatus("").Valid())
}
