package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintRequestRotateAcceptsNumberOrString(t *testing.T) {
	tests := []struct {
		body string
		want Rotation
	}{
		{`{"image":"x","rotate":90}`, "90"},
		{`{"image":"x","rotate":"180"}`, "180"},
		{`{"image":"x","rotate":"auto"}`, "auto"},
		{`{"image":"x"}`, ""},
	}
	for _, tt := range tests {
		var req PrintRequest
		require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
		assert.Equal(t, tt.want, req.Rotate, tt.body)
	}

	var req PrintRequest
	assert.Error(t, json.Unmarshal([]byte(`{"rotate":true}`), &req))
}

func TestPrintRequestThresholdZeroIsExplicit(t *testing.T) {
	var req PrintRequest
	require.NoError(t, json.Unmarshal([]byte(`{"image":"x","threshold":0}`), &req))
	require.NotNil(t, req.Threshold)
	assert.Equal(t, 0, *req.Threshold)

	req = PrintRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"image":"x"}`), &req))
	assert.Nil(t, req.Threshold)
}
